package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dotk/api/internal/models"
	"dotk/api/internal/repository"
	"dotk/api/internal/service"
)

// Event payloads keep the mixed key style the frontend was built
// against: camelCase for dates and flags, snake_case for file and CTA
// fields.
type eventRequest struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	StartDate      *string `json:"startDate"`
	EndDate        *string `json:"endDate"`
	Location       *string `json:"location"`
	Category       *string `json:"category"`
	VideoURL       *string `json:"videoUrl"`
	Thumbnail      *string `json:"thumbnail"`
	FilePath       *string `json:"file_path"`
	FileType       *string `json:"file_type"`
	CTAText        *string `json:"cta_text"`
	CTALink        *string `json:"cta_link"`
	ShowOnHomepage *bool   `json:"showOnHomepage"`
}

func eventPayload(e models.Event, now time.Time) gin.H {
	return gin.H{
		"id":             e.ID,
		"title":          e.Title,
		"description":    e.Description,
		"startDate":      fmtDate(e.StartDate),
		"endDate":        fmtDatePtr(e.EndDate),
		"location":       e.Location,
		"category":       e.Category,
		"videoUrl":       e.VideoURL,
		"thumbnail":      e.Thumbnail,
		"file_path":      e.FilePath,
		"file_type":      e.FileType,
		"cta_text":       e.CTAText,
		"cta_link":       e.CTALink,
		"showOnHomepage": e.ShowOnHomepage,
		"window":         e.Window(now),
	}
}

func (h HandlerSet) ListEvents(c *gin.Context) {
	filter := repository.EventFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}

	events, err := h.events.List(c.Request.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("list events failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	now := time.Now()
	payload := make([]gin.H, 0, len(events))
	for _, e := range events {
		payload = append(payload, eventPayload(e, now))
	}

	c.JSON(http.StatusOK, gin.H{
		"events":     payload,
		"total":      len(payload),
		"categories": models.EventCategories,
	})
}

func (h HandlerSet) GetEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	e, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		h.respondEventError(c, err, id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": eventPayload(e, time.Now())})
}

func (h HandlerSet) CreateEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.Title == nil || *req.Title == "" || req.StartDate == nil || *req.StartDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and startDate are required"})
		return
	}

	startDate, err := parseDate(*req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid startDate"})
		return
	}

	var endDate *time.Time
	if req.EndDate != nil && *req.EndDate != "" {
		d, err := parseDate(*req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid endDate"})
			return
		}
		endDate = &d
	}

	actorID, _ := identity(c)
	e := models.Event{
		Title:       *req.Title,
		Description: optPtr(req.Description),
		StartDate:   startDate,
		EndDate:     endDate,
		Location:    optPtr(req.Location),
		Category:    optPtr(req.Category),
		VideoURL:    optPtr(req.VideoURL),
		Thumbnail:   optPtr(req.Thumbnail),
		FilePath:    optPtr(req.FilePath),
		FileType:    optPtr(req.FileType),
		CTAText:     optPtr(req.CTAText),
		CTALink:     optPtr(req.CTALink),
		CreatedBy:   &actorID,
		UpdatedBy:   &actorID,
	}
	if req.ShowOnHomepage != nil {
		e.ShowOnHomepage = *req.ShowOnHomepage
	}

	if err := h.events.Create(c.Request.Context(), &e); err != nil {
		h.log.Error().Err(err).Msg("create event failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.bustEventCache(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{"event": eventPayload(e, time.Now())})
}

func (h HandlerSet) UpdateEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	e, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		h.respondEventError(c, err, id)
		return
	}

	if req.Title != nil && *req.Title != "" {
		e.Title = *req.Title
	}
	if req.StartDate != nil && *req.StartDate != "" {
		d, err := parseDate(*req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid startDate"})
			return
		}
		e.StartDate = d
	}
	if req.EndDate != nil {
		if *req.EndDate == "" {
			e.EndDate = nil
		} else {
			d, err := parseDate(*req.EndDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid endDate"})
				return
			}
			e.EndDate = &d
		}
	}
	if req.Description != nil {
		e.Description = optPtr(req.Description)
	}
	if req.Location != nil {
		e.Location = optPtr(req.Location)
	}
	if req.Category != nil {
		e.Category = optPtr(req.Category)
	}
	if req.VideoURL != nil {
		e.VideoURL = optPtr(req.VideoURL)
	}
	if req.Thumbnail != nil {
		e.Thumbnail = optPtr(req.Thumbnail)
	}
	if req.FilePath != nil {
		e.FilePath = optPtr(req.FilePath)
	}
	if req.FileType != nil {
		e.FileType = optPtr(req.FileType)
	}
	if req.CTAText != nil {
		e.CTAText = optPtr(req.CTAText)
	}
	if req.CTALink != nil {
		e.CTALink = optPtr(req.CTALink)
	}
	if req.ShowOnHomepage != nil {
		e.ShowOnHomepage = *req.ShowOnHomepage
	}

	actorID, _ := identity(c)
	e.UpdatedBy = &actorID

	if err := h.events.Update(c.Request.Context(), &e); err != nil {
		h.respondEventError(c, err, id)
		return
	}

	h.bustEventCache(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"event": eventPayload(e, time.Now())})
}

func (h HandlerSet) DeleteEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	e, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		h.respondEventError(c, err, id)
		return
	}

	if err := h.events.Delete(c.Request.Context(), id); err != nil {
		h.respondEventError(c, err, id)
		return
	}

	if e.FilePath != nil {
		if err := h.files.Remove(*e.FilePath); err != nil {
			h.log.Warn().Err(err).Str("path", *e.FilePath).Msg("remove event file failed")
		}
	}

	h.bustEventCache(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}

func (h HandlerSet) UploadEventMedia(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	saved, err := h.uploads.SaveEventMedia(fh)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"error": "File size must be less than 50MB"})
		case errors.Is(err, service.ErrFileType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type. Allowed: Images (JPG, PNG, GIF), Documents (PDF, DOC, DOCX), Videos (MP4, AVI, MOV)"})
		case errors.Is(err, service.ErrNoFile):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		default:
			h.log.Error().Err(err).Msg("store event media failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "File upload failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "File uploaded successfully",
		"file_path": saved.WebPath,
		"filename":  saved.Filename,
		"file_type": saved.Ext,
	})
}

func (h HandlerSet) respondEventError(c *gin.Context, err error, id int64) {
	if errors.Is(err, repository.ErrEventNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		return
	}
	h.log.Error().Err(err).Int64("event_id", id).Msg("event operation failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// optPtr maps nil or empty strings to nil for nullable columns.
func optPtr(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return p
}
