package models

import (
	"fmt"
	"time"
)

type TenderStatus string

const (
	TenderStatusDraft     TenderStatus = "draft"
	TenderStatusActive    TenderStatus = "active"
	TenderStatusExtended  TenderStatus = "extended"
	TenderStatusClosed    TenderStatus = "closed"
	TenderStatusCancelled TenderStatus = "cancelled"
)

func (s TenderStatus) Valid() bool {
	switch s {
	case TenderStatusDraft, TenderStatusActive, TenderStatusExtended,
		TenderStatusClosed, TenderStatusCancelled:
		return true
	}
	return false
}

const DefaultDepartment = "Directorate of Tourism Kashmir"

var TenderCategories = []string{
	"General Supplies",
	"Housekeeping Services",
	"GeM Procurement",
	"Printing Services",
	"Adventure Equipment/Vehicles",
	"Sports Goods/Uniforms",
	"Sports Goods/Equipments",
	"Construction/Civil Works",
	"IT Equipment",
	"Consultancy Services",
	"Other",
}

type Tender struct {
	ID              int64
	Title           string
	Description     *string
	TenderNumber    string
	ReferenceNumber *string
	PublishDate     time.Time
	ClosingDate     time.Time
	ExtendedDate    *time.Time
	EstimatedValue  *int64 // paise
	Category        string
	Status          TenderStatus
	Department      string
	ContactPerson   *string
	ContactEmail    *string
	ContactPhone    *string
	CreatedBy       *int64
	UpdatedBy       *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Populated by the repository on reads that join related rows.
	Documents      []TenderDocument
	DocumentsCount int
	CreatorName    *string
	UpdaterName    *string
}

// EffectiveClosingDate is the extended date when the tender was
// extended, otherwise the original closing date.
func (t Tender) EffectiveClosingDate() time.Time {
	if t.ExtendedDate != nil {
		return *t.ExtendedDate
	}
	return t.ClosingDate
}

// IsOpen reports whether the tender is open for bidding.
func (t Tender) IsOpen() bool {
	return t.Status == TenderStatusActive || t.Status == TenderStatusExtended
}

// PublicStatus collapses "extended" into "active" for public consumers;
// the distinction is an internal admin concern.
func (t Tender) PublicStatus() TenderStatus {
	if t.Status == TenderStatusExtended {
		return TenderStatusActive
	}
	return t.Status
}

type TenderDocument struct {
	ID        int64
	TenderID  int64
	Name      string
	FilePath  string
	FileType  string
	FileSize  *int64
	SortOrder int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (d TenderDocument) FormattedSize() string {
	if d.FileSize == nil || *d.FileSize <= 0 {
		return "Unknown"
	}

	size := float64(*d.FileSize)
	units := []string{"B", "KB", "MB", "GB"}
	i := 0
	for size > 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", size, units[i])
}

type TenderStats struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Draft     int64 `json:"draft"`
	Closed    int64 `json:"closed"`
	Cancelled int64 `json:"cancelled"`
}
