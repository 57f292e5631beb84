package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"dotk/api/internal/models"
	"dotk/api/internal/money"
	"dotk/api/internal/repository"
	"dotk/api/internal/service"
)

type tenderCreateRequest struct {
	Title           string `json:"title"`
	TenderNumber    string `json:"tender_number"`
	ReferenceNumber string `json:"reference_number"`
	Description     string `json:"description"`
	PublishDate     string `json:"publish_date"`
	ClosingDate     string `json:"closing_date"`
	ExtendedDate    string `json:"extended_date"`
	EstimatedValue  string `json:"estimated_value"`
	Category        string `json:"category"`
	Status          string `json:"status"`
	Department      string `json:"department"`
	ContactPerson   string `json:"contact_person"`
	ContactEmail    string `json:"contact_email"`
	ContactPhone    string `json:"contact_phone"`
}

// tenderUpdateRequest distinguishes "field absent" from "field set to
// empty": absent pointers leave the stored value alone, empty strings
// clear nullable columns.
type tenderUpdateRequest struct {
	Title           *string `json:"title"`
	TenderNumber    *string `json:"tender_number"`
	ReferenceNumber *string `json:"reference_number"`
	Description     *string `json:"description"`
	PublishDate     *string `json:"publish_date"`
	ClosingDate     *string `json:"closing_date"`
	ExtendedDate    *string `json:"extended_date"`
	EstimatedValue  *string `json:"estimated_value"`
	Category        *string `json:"category"`
	Status          *string `json:"status"`
	Department      *string `json:"department"`
	ContactPerson   *string `json:"contact_person"`
	ContactEmail    *string `json:"contact_email"`
	ContactPhone    *string `json:"contact_phone"`
}

func documentPayload(d models.TenderDocument) gin.H {
	return gin.H{
		"id":             d.ID,
		"name":           d.Name,
		"file_path":      d.FilePath,
		"file_type":      d.FileType,
		"file_size":      d.FileSize,
		"formatted_size": d.FormattedSize(),
	}
}

func (h HandlerSet) ListTenders(c *gin.Context) {
	filter := repository.TenderFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}

	tenders, err := h.tenders.List(c.Request.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("list tenders failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	payload := make([]gin.H, 0, len(tenders))
	for _, t := range tenders {
		payload = append(payload, gin.H{
			"id":              t.ID,
			"title":           t.Title,
			"tender_number":   t.TenderNumber,
			"publish_date":    fmtDate(t.PublishDate),
			"closing_date":    fmtDate(t.ClosingDate),
			"extended_date":   fmtDatePtr(t.ExtendedDate),
			"estimated_value": t.EstimatedValue,
			"formatted_value": money.Format(t.EstimatedValue),
			"category":        t.Category,
			"status":          t.Status,
			"department":      t.Department,
			"documents_count": t.DocumentsCount,
			"created_at":      t.CreatedAt.Format(datetimeFormat),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"tenders":    payload,
		"total":      len(payload),
		"categories": models.TenderCategories,
	})
}

func (h HandlerSet) GetTender(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tender id"})
		return
	}

	t, err := h.tenders.Get(c.Request.Context(), id)
	if err != nil {
		h.respondTenderError(c, err, id)
		return
	}

	docs := make([]gin.H, 0, len(t.Documents))
	for _, d := range t.Documents {
		docs = append(docs, documentPayload(d))
	}

	c.JSON(http.StatusOK, gin.H{"tender": gin.H{
		"id":               t.ID,
		"title":            t.Title,
		"description":      t.Description,
		"tender_number":    t.TenderNumber,
		"reference_number": t.ReferenceNumber,
		"publish_date":     fmtDate(t.PublishDate),
		"closing_date":     fmtDate(t.ClosingDate),
		"extended_date":    fmtDatePtr(t.ExtendedDate),
		"estimated_value":  t.EstimatedValue,
		"formatted_value":  money.Format(t.EstimatedValue),
		"category":         t.Category,
		"status":           t.Status,
		"department":       t.Department,
		"contact_person":   t.ContactPerson,
		"contact_email":    t.ContactEmail,
		"contact_phone":    t.ContactPhone,
		"documents":        docs,
		"created_by":       t.CreatorName,
		"updated_by":       t.UpdaterName,
		"created_at":       t.CreatedAt.Format(datetimeFormat),
		"updated_at":       t.UpdatedAt.Format(datetimeFormat),
	}})
}

func (h HandlerSet) CreateTender(c *gin.Context) {
	var req tenderCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	required := []struct{ name, value string }{
		{"title", req.Title},
		{"tender_number", req.TenderNumber},
		{"publish_date", req.PublishDate},
		{"closing_date", req.ClosingDate},
		{"category", req.Category},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Field '%s' is required", f.name)})
			return
		}
	}

	publishDate, err := parseDate(req.PublishDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid publish_date"})
		return
	}
	closingDate, err := parseDate(req.ClosingDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid closing_date"})
		return
	}

	var extendedDate *time.Time
	if req.ExtendedDate != "" {
		d, err := parseDate(req.ExtendedDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid extended_date"})
			return
		}
		extendedDate = &d
	}

	var estimated *int64
	if req.EstimatedValue != "" {
		paise, err := money.ParseRupees(req.EstimatedValue)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid estimated_value"})
			return
		}
		estimated = &paise
	}

	status := models.TenderStatusDraft
	if req.Status != "" {
		status = models.TenderStatus(req.Status)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
	}

	department := req.Department
	if department == "" {
		department = models.DefaultDepartment
	}

	actorID, _ := identity(c)
	t := models.Tender{
		Title:           req.Title,
		Description:     optString(req.Description),
		TenderNumber:    req.TenderNumber,
		ReferenceNumber: optString(req.ReferenceNumber),
		PublishDate:     publishDate,
		ClosingDate:     closingDate,
		ExtendedDate:    extendedDate,
		EstimatedValue:  estimated,
		Category:        req.Category,
		Status:          status,
		Department:      department,
		ContactPerson:   optString(req.ContactPerson),
		ContactEmail:    optString(req.ContactEmail),
		ContactPhone:    optString(req.ContactPhone),
		CreatedBy:       &actorID,
		UpdatedBy:       &actorID,
	}

	if err := h.tenders.Create(c.Request.Context(), &t); err != nil {
		if errors.Is(err, repository.ErrTenderNumberTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Tender number already exists"})
			return
		}
		h.log.Error().Err(err).Msg("create tender failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.bustTenderCache(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Tender created successfully",
		"tender":  gin.H{"id": t.ID},
	})
}

func (h HandlerSet) UpdateTender(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tender id"})
		return
	}

	var req tenderUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	t, err := h.tenders.Get(c.Request.Context(), id)
	if err != nil {
		h.respondTenderError(c, err, id)
		return
	}

	if req.Title != nil && *req.Title != "" {
		t.Title = *req.Title
	}
	if req.TenderNumber != nil && *req.TenderNumber != "" {
		t.TenderNumber = *req.TenderNumber
	}
	if req.Description != nil {
		t.Description = optString(*req.Description)
	}
	if req.ReferenceNumber != nil {
		t.ReferenceNumber = optString(*req.ReferenceNumber)
	}
	if req.PublishDate != nil && *req.PublishDate != "" {
		d, err := parseDate(*req.PublishDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid publish_date"})
			return
		}
		t.PublishDate = d
	}
	if req.ClosingDate != nil && *req.ClosingDate != "" {
		d, err := parseDate(*req.ClosingDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid closing_date"})
			return
		}
		t.ClosingDate = d
	}
	if req.ExtendedDate != nil {
		if *req.ExtendedDate == "" {
			t.ExtendedDate = nil
		} else {
			d, err := parseDate(*req.ExtendedDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid extended_date"})
				return
			}
			t.ExtendedDate = &d
		}
	}
	if req.EstimatedValue != nil {
		if *req.EstimatedValue == "" {
			t.EstimatedValue = nil
		} else {
			paise, err := money.ParseRupees(*req.EstimatedValue)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid estimated_value"})
				return
			}
			t.EstimatedValue = &paise
		}
	}
	if req.Category != nil && *req.Category != "" {
		t.Category = *req.Category
	}
	if req.Status != nil && *req.Status != "" {
		status := models.TenderStatus(*req.Status)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		t.Status = status
	}
	if req.Department != nil && *req.Department != "" {
		t.Department = *req.Department
	}
	if req.ContactPerson != nil {
		t.ContactPerson = optString(*req.ContactPerson)
	}
	if req.ContactEmail != nil {
		t.ContactEmail = optString(*req.ContactEmail)
	}
	if req.ContactPhone != nil {
		t.ContactPhone = optString(*req.ContactPhone)
	}

	actorID, _ := identity(c)
	t.UpdatedBy = &actorID

	if err := h.tenders.Update(c.Request.Context(), &t); err != nil {
		if errors.Is(err, repository.ErrTenderNumberTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Tender number already exists"})
			return
		}
		h.respondTenderError(c, err, id)
		return
	}

	h.bustTenderCache(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Tender updated successfully"})
}

func (h HandlerSet) DeleteTender(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tender id"})
		return
	}

	t, err := h.tenders.Get(c.Request.Context(), id)
	if err != nil {
		h.respondTenderError(c, err, id)
		return
	}

	if err := h.tenders.Delete(c.Request.Context(), id); err != nil {
		h.respondTenderError(c, err, id)
		return
	}

	// Rows are gone; best effort on the files they pointed at.
	for _, d := range t.Documents {
		if err := h.files.Remove(d.FilePath); err != nil {
			h.log.Warn().Err(err).Str("path", d.FilePath).Msg("remove document file failed")
		}
	}

	h.bustTenderCache(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Tender deleted successfully"})
}

func (h HandlerSet) TenderStats(c *gin.Context) {
	stats, err := h.tenders.Stats(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("tender stats failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h HandlerSet) UploadTenderDocument(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tender id"})
		return
	}

	if _, err := h.tenders.Get(c.Request.Context(), id); err != nil {
		h.respondTenderError(c, err, id)
		return
	}

	fh, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	saved, err := h.uploads.SaveTenderDocument(id, fh)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF and Word documents are allowed"})
		case errors.Is(err, service.ErrFileTooLarge):
			c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
		case errors.Is(err, service.ErrNoFile):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		default:
			h.log.Error().Err(err).Int64("tender_id", id).Msg("store document failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "File upload failed"})
		}
		return
	}

	name := c.PostForm("name")
	if name == "" {
		name = fh.Filename
	}

	doc := models.TenderDocument{
		TenderID: id,
		Name:     name,
		FilePath: saved.WebPath,
		FileType: saved.Ext,
		FileSize: &saved.Size,
	}
	if err := h.tenders.AddDocument(c.Request.Context(), &doc); err != nil {
		h.log.Error().Err(err).Int64("tender_id", id).
			Str("path", saved.WebPath).Msg("document insert failed, file orphaned")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save document"})
		return
	}

	h.bustTenderCache(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Document uploaded successfully",
		"document": documentPayload(doc),
	})
}

func (h HandlerSet) DeleteTenderDocument(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tender id"})
		return
	}
	docID, ok := pathID(c, "docId")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	doc, err := h.tenders.GetDocument(c.Request.Context(), id, docID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		h.log.Error().Err(err).Int64("document_id", docID).Msg("load document failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if err := h.tenders.DeleteDocument(c.Request.Context(), id, docID); err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		h.log.Error().Err(err).Int64("document_id", docID).Msg("delete document failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if err := h.files.Remove(doc.FilePath); err != nil {
		h.log.Warn().Err(err).Str("path", doc.FilePath).Msg("remove document file failed")
	}

	h.bustTenderCache(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Document deleted successfully"})
}

func (h HandlerSet) respondTenderError(c *gin.Context, err error, id int64) {
	if errors.Is(err, repository.ErrTenderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tender not found"})
		return
	}
	h.log.Error().Err(err).Int64("tender_id", id).Msg("tender operation failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// optString maps empty strings to nil for nullable columns.
func optString(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
