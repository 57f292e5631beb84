package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"dotk/api/internal/config"
	"dotk/api/internal/handlers"
	"dotk/api/internal/models"
	"dotk/api/internal/repository"
	"dotk/api/internal/security"
	"dotk/api/internal/service"
)

type memUsers struct {
	byID   map[int64]models.User
	nextID int64
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[int64]models.User{}}
}

func (m *memUsers) List(_ context.Context) ([]models.User, error) {
	users := make([]models.User, 0, len(m.byID))
	for _, u := range m.byID {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *memUsers) GetByID(_ context.Context, id int64) (models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (models.User, error) {
	for _, u := range m.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (m *memUsers) Create(_ context.Context, user *models.User) error {
	for _, u := range m.byID {
		if u.Username == user.Username {
			return repository.ErrUsernameTaken
		}
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.byID[user.ID] = *user
	return nil
}

func (m *memUsers) Update(_ context.Context, user *models.User) error {
	if _, ok := m.byID[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	for id, u := range m.byID {
		if id == user.ID {
			continue
		}
		if u.Username == user.Username {
			return repository.ErrUsernameTaken
		}
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	m.byID[user.ID] = *user
	return nil
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) TouchLastLogin(_ context.Context, id int64) error {
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	m.byID[id] = u
	return nil
}

type memTenders struct {
	byID      map[int64]models.Tender
	nextID    int64
	nextDocID int64
}

func newMemTenders() *memTenders {
	return &memTenders{byID: map[int64]models.Tender{}}
}

func (m *memTenders) all() []models.Tender {
	tenders := make([]models.Tender, 0, len(m.byID))
	for _, t := range m.byID {
		tenders = append(tenders, t)
	}
	sort.Slice(tenders, func(i, j int) bool { return tenders[i].ID < tenders[j].ID })
	return tenders
}

func (m *memTenders) List(_ context.Context, filter repository.TenderFilter) ([]models.Tender, error) {
	out := make([]models.Tender, 0)
	for _, t := range m.all() {
		if filter.Status != "" && string(t.Status) != filter.Status {
			continue
		}
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !tenderMatches(t, filter.Search) {
			continue
		}
		t.DocumentsCount = len(t.Documents)
		out = append(out, t)
	}
	return out, nil
}

// tenderMatches mirrors the repository's ILIKE search over title,
// tender_number and description.
func tenderMatches(t models.Tender, search string) bool {
	q := strings.ToLower(search)
	if strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.TenderNumber), q) {
		return true
	}
	return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), q)
}

func (m *memTenders) Get(_ context.Context, id int64) (models.Tender, error) {
	t, ok := m.byID[id]
	if !ok {
		return models.Tender{}, repository.ErrTenderNotFound
	}
	return t, nil
}

func (m *memTenders) numberTaken(number string, exclude int64) bool {
	for id, t := range m.byID {
		if id != exclude && t.TenderNumber == number {
			return true
		}
	}
	return false
}

func (m *memTenders) Create(_ context.Context, t *models.Tender) error {
	if m.numberTaken(t.TenderNumber, 0) {
		return repository.ErrTenderNumberTaken
	}
	m.nextID++
	t.ID = m.nextID
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	m.byID[t.ID] = *t
	return nil
}

func (m *memTenders) Update(_ context.Context, t *models.Tender) error {
	if _, ok := m.byID[t.ID]; !ok {
		return repository.ErrTenderNotFound
	}
	if m.numberTaken(t.TenderNumber, t.ID) {
		return repository.ErrTenderNumberTaken
	}
	m.byID[t.ID] = *t
	return nil
}

func (m *memTenders) Delete(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return repository.ErrTenderNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memTenders) Stats(_ context.Context) (models.TenderStats, error) {
	var s models.TenderStats
	for _, t := range m.byID {
		s.Total++
		switch t.Status {
		case models.TenderStatusActive, models.TenderStatusExtended:
			s.Active++
		case models.TenderStatusDraft:
			s.Draft++
		case models.TenderStatusClosed:
			s.Closed++
		case models.TenderStatusCancelled:
			s.Cancelled++
		}
	}
	return s, nil
}

func (m *memTenders) ListPublished(_ context.Context) ([]models.Tender, error) {
	out := make([]models.Tender, 0)
	for _, t := range m.all() {
		if t.Status != models.TenderStatusDraft {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTenders) AddDocument(_ context.Context, d *models.TenderDocument) error {
	t, ok := m.byID[d.TenderID]
	if !ok {
		return repository.ErrTenderNotFound
	}
	m.nextDocID++
	d.ID = m.nextDocID
	next := 0
	for _, doc := range t.Documents {
		if doc.SortOrder >= next {
			next = doc.SortOrder + 1
		}
	}
	d.SortOrder = next
	t.Documents = append(t.Documents, *d)
	m.byID[d.TenderID] = t
	return nil
}

func (m *memTenders) GetDocument(_ context.Context, tenderID, docID int64) (models.TenderDocument, error) {
	t, ok := m.byID[tenderID]
	if !ok {
		return models.TenderDocument{}, repository.ErrDocumentNotFound
	}
	for _, d := range t.Documents {
		if d.ID == docID {
			return d, nil
		}
	}
	return models.TenderDocument{}, repository.ErrDocumentNotFound
}

func (m *memTenders) DeleteDocument(_ context.Context, tenderID, docID int64) error {
	t, ok := m.byID[tenderID]
	if !ok {
		return repository.ErrDocumentNotFound
	}
	for i, d := range t.Documents {
		if d.ID == docID {
			t.Documents = append(t.Documents[:i], t.Documents[i+1:]...)
			m.byID[tenderID] = t
			return nil
		}
	}
	return repository.ErrDocumentNotFound
}

type memEvents struct {
	byID   map[int64]models.Event
	nextID int64
}

func newMemEvents() *memEvents {
	return &memEvents{byID: map[int64]models.Event{}}
}

func (m *memEvents) all() []models.Event {
	events := make([]models.Event, 0, len(m.byID))
	for _, e := range m.byID {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events
}

func (m *memEvents) List(_ context.Context, filter repository.EventFilter) ([]models.Event, error) {
	out := make([]models.Event, 0)
	for _, e := range m.all() {
		if filter.Category != "" && (e.Category == nil || *e.Category != filter.Category) {
			continue
		}
		if filter.Search != "" && !eventMatches(e, filter.Search) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// eventMatches mirrors the repository's ILIKE search over title,
// description and location.
func eventMatches(e models.Event, search string) bool {
	q := strings.ToLower(search)
	if strings.Contains(strings.ToLower(e.Title), q) {
		return true
	}
	if e.Description != nil && strings.Contains(strings.ToLower(*e.Description), q) {
		return true
	}
	return e.Location != nil && strings.Contains(strings.ToLower(*e.Location), q)
}

func (m *memEvents) Get(_ context.Context, id int64) (models.Event, error) {
	e, ok := m.byID[id]
	if !ok {
		return models.Event{}, repository.ErrEventNotFound
	}
	return e, nil
}

func (m *memEvents) Create(_ context.Context, e *models.Event) error {
	m.nextID++
	e.ID = m.nextID
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	m.byID[e.ID] = *e
	return nil
}

func (m *memEvents) Update(_ context.Context, e *models.Event) error {
	if _, ok := m.byID[e.ID]; !ok {
		return repository.ErrEventNotFound
	}
	m.byID[e.ID] = *e
	return nil
}

func (m *memEvents) Delete(_ context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return repository.ErrEventNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memEvents) ListHomepage(_ context.Context, limit int) ([]models.Event, error) {
	out := make([]models.Event, 0)
	for _, e := range m.all() {
		if e.ShowOnHomepage {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeUploader struct {
	saved service.SavedFile
	err   error
	calls int
}

func (f *fakeUploader) SaveTenderDocument(tenderID int64, fh *multipart.FileHeader) (service.SavedFile, error) {
	f.calls++
	if f.err != nil {
		return service.SavedFile{}, f.err
	}
	return f.saved, nil
}

func (f *fakeUploader) SaveEventMedia(fh *multipart.FileHeader) (service.SavedFile, error) {
	f.calls++
	if f.err != nil {
		return service.SavedFile{}, f.err
	}
	return f.saved, nil
}

type fakeRemover struct {
	removed []string
}

func (f *fakeRemover) Remove(webPath string) error {
	f.removed = append(f.removed, webPath)
	return nil
}

type api struct {
	engine  *gin.Engine
	tokens  *security.TokenService
	users   *memUsers
	tenders *memTenders
	events  *memEvents
	uploads *fakeUploader
	files   *fakeRemover
}

func newTestAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := security.NewTokenService("test-secret", "HS256", time.Hour)
	require.NoError(t, err)

	a := &api{
		tokens:  tokens,
		users:   newMemUsers(),
		tenders: newMemTenders(),
		events:  newMemEvents(),
		uploads: &fakeUploader{},
		files:   &fakeRemover{},
	}

	cfg := &config.AppConfig{
		Security: config.SecurityConfig{BcryptCost: 4},
	}
	h := handlers.NewHandlerSet(cfg, zerolog.Nop(), handlers.Deps{
		Tokens:  tokens,
		Users:   a.users,
		Tenders: a.tenders,
		Events:  a.events,
		Uploads: a.uploads,
		Files:   a.files,
	})

	a.engine = gin.New()
	h.Register(a.engine.Group("/api"))
	return a
}

func (a *api) seedUser(t *testing.T, username string, role models.Role, active bool) models.User {
	t.Helper()
	hash, err := security.HashPassword("pw", 4)
	require.NoError(t, err)

	u := models.User{
		Username:     username,
		Email:        username + "@tourism.gov.in",
		PasswordHash: hash,
		FullName:     "Test " + username,
		Role:         role,
		IsActive:     active,
	}
	require.NoError(t, a.users.Create(context.Background(), &u))
	return u
}

func (a *api) tokenFor(t *testing.T, u models.User) string {
	t.Helper()
	token, err := a.tokens.Issue(u.ID, u.Role)
	require.NoError(t, err)
	return token
}

func (a *api) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *api) upload(t *testing.T, path, token, field, filename, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
