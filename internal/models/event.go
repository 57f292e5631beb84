package models

import "time"

var EventCategories = []string{
	"Festival",
	"Sports",
	"Cultural",
	"Adventure",
	"Exhibition",
	"Other",
}

type Event struct {
	ID             int64
	Title          string
	Description    *string
	StartDate      time.Time
	EndDate        *time.Time
	Location       *string
	Category       *string
	VideoURL       *string
	Thumbnail      *string
	FilePath       *string
	FileType       *string
	CTAText        *string
	CTALink        *string
	ShowOnHomepage bool
	CreatedBy      *int64
	UpdatedBy      *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// effectiveEnd treats single-day events as ending on their start date.
func (e Event) effectiveEnd() time.Time {
	if e.EndDate != nil {
		return *e.EndDate
	}
	return e.StartDate
}

func (e Event) IsUpcoming(now time.Time) bool {
	return now.Before(e.StartDate)
}

func (e Event) IsPast(now time.Time) bool {
	return now.After(e.effectiveEnd())
}

func (e Event) IsOngoing(now time.Time) bool {
	return !e.IsUpcoming(now) && !e.IsPast(now)
}

// Window names the lifecycle phase of the event relative to now.
func (e Event) Window(now time.Time) string {
	switch {
	case e.IsUpcoming(now):
		return "upcoming"
	case e.IsPast(now):
		return "past"
	default:
		return "ongoing"
	}
}
