package handlers

import (
	"context"
	"mime/multipart"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dotk/api/internal/config"
	"dotk/api/internal/middleware"
	"dotk/api/internal/models"
	"dotk/api/internal/repository"
	"dotk/api/internal/security"
	"dotk/api/internal/service"
)

type UserStore interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
	TouchLastLogin(ctx context.Context, id int64) error
}

type TenderStore interface {
	List(ctx context.Context, filter repository.TenderFilter) ([]models.Tender, error)
	Get(ctx context.Context, id int64) (models.Tender, error)
	Create(ctx context.Context, t *models.Tender) error
	Update(ctx context.Context, t *models.Tender) error
	Delete(ctx context.Context, id int64) error
	Stats(ctx context.Context) (models.TenderStats, error)
	ListPublished(ctx context.Context) ([]models.Tender, error)
	AddDocument(ctx context.Context, d *models.TenderDocument) error
	GetDocument(ctx context.Context, tenderID, docID int64) (models.TenderDocument, error)
	DeleteDocument(ctx context.Context, tenderID, docID int64) error
}

type EventStore interface {
	List(ctx context.Context, filter repository.EventFilter) ([]models.Event, error)
	Get(ctx context.Context, id int64) (models.Event, error)
	Create(ctx context.Context, e *models.Event) error
	Update(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id int64) error
	ListHomepage(ctx context.Context, limit int) ([]models.Event, error)
}

type Uploader interface {
	SaveTenderDocument(tenderID int64, fh *multipart.FileHeader) (service.SavedFile, error)
	SaveEventMedia(fh *multipart.FileHeader) (service.SavedFile, error)
}

type FileRemover interface {
	Remove(webPath string) error
}

// Deps is the explicit wiring of every collaborator a handler can
// reach; main builds one at startup and nothing is ambient.
type Deps struct {
	DB      *pgxpool.Pool
	Cache   *redis.Client
	Tokens  *security.TokenService
	Users   UserStore
	Tenders TenderStore
	Events  EventStore
	Uploads Uploader
	Files   FileRemover
}

type HandlerSet struct {
	log     zerolog.Logger
	cfg     *config.AppConfig
	auth    *service.AuthService
	tokens  *security.TokenService
	users   UserStore
	tenders TenderStore
	events  EventStore
	uploads Uploader
	files   FileRemover
	cache   *redis.Client
	db      *pgxpool.Pool
}

func NewHandlerSet(cfg *config.AppConfig, log zerolog.Logger, deps Deps) HandlerSet {
	return HandlerSet{
		log:     log,
		cfg:     cfg,
		auth:    service.NewAuthService(deps.Users, deps.Tokens, log),
		tokens:  deps.Tokens,
		users:   deps.Users,
		tenders: deps.Tenders,
		events:  deps.Events,
		uploads: deps.Uploads,
		files:   deps.Files,
		cache:   deps.Cache,
		db:      deps.DB,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	auth := router.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)
	auth.GET("/me", middleware.Auth(h.tokens), h.Me)

	pub := router.Group("/public")
	pub.GET("/tenders", h.PublicTenders)
	pub.GET("/events", h.PublicEvents)
	pub.GET("/events/homepage", h.HomepageEvents)

	// Event listings feed the public site without credentials.
	router.GET("/events", h.ListEvents)
	router.GET("/events/:id", h.GetEvent)

	adminOrAbove := []gin.HandlerFunc{
		middleware.Auth(h.tokens),
		middleware.RequireRole(h.users, models.RoleAdmin),
	}

	tenders := router.Group("/tenders", adminOrAbove...)
	tenders.GET("", h.ListTenders)
	tenders.POST("", h.CreateTender)
	tenders.GET("/stats", h.TenderStats)
	tenders.GET("/:id", h.GetTender)
	tenders.PUT("/:id", h.UpdateTender)
	tenders.DELETE("/:id", h.DeleteTender)
	tenders.POST("/:id/documents", h.UploadTenderDocument)
	tenders.DELETE("/:id/documents/:docId", h.DeleteTenderDocument)

	events := router.Group("/events", adminOrAbove...)
	events.POST("", h.CreateEvent)
	events.PUT("/:id", h.UpdateEvent)
	events.DELETE("/:id", h.DeleteEvent)
	events.POST("/upload", h.UploadEventMedia)

	users := router.Group("/users",
		middleware.Auth(h.tokens),
		middleware.RequireRole(h.users, models.RoleSuperAdmin),
	)
	users.GET("", h.ListUsers)
	users.POST("", h.CreateUser)
	users.GET("/:id", h.GetUser)
	users.PUT("/:id", h.UpdateUser)
	users.DELETE("/:id", h.DeleteUser)
}

const (
	dateFormat     = "2006-01-02"
	datetimeFormat = "2006-01-02 15:04:05"
)

// identity returns the authenticated user's id attached by the auth
// middleware.
func identity(c *gin.Context) (int64, bool) {
	v, ok := c.Get(middleware.CtxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateFormat, s)
}

func fmtDate(t time.Time) string {
	return t.Format(dateFormat)
}

func fmtDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateFormat)
	return &s
}
