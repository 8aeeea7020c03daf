package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/LAMpbrien/adventures-of/internal/config"
	"github.com/LAMpbrien/adventures-of/internal/middleware"
	"github.com/LAMpbrien/adventures-of/internal/models"
	"github.com/LAMpbrien/adventures-of/internal/service"
)

// BookAPI is the lifecycle controller as seen from HTTP.
type BookAPI interface {
	CreateBook(ctx context.Context, in service.CreateBookInput) (service.CreateBookResult, error)
	GetBook(ctx context.Context, userID, bookID string) (service.BookView, error)
	DeleteBook(ctx context.Context, userID, bookID string) error
	Status(ctx context.Context, userID, bookID string) (models.BookStatus, error)
	Checkout(ctx context.Context, userID, bookID string) (models.BookStatus, error)
	Download(ctx context.Context, userID, bookID string) (service.Download, error)
	Generate(ctx context.Context, in service.GenerateInput) (service.GenerateResult, error)
	GenerateAsync(ctx context.Context, in service.GenerateInput) (service.GenerateResult, error)
	GenerateStory(ctx context.Context, in service.GenerateInput) (string, error)
	GenerateImages(ctx context.Context, userID, bookID string, mode models.GenerationMode) (service.GenerateResult, error)
	ConfirmPayment(ctx context.Context, in service.PaymentConfirmation) error
}

// EventGuard remembers webhook event ids already processed.
type EventGuard interface {
	FirstSeen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// HealthCheck pings one backing service.
type HealthCheck func(ctx context.Context) error

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	books    BookAPI
	events   EventGuard
	database HealthCheck
	cache    HealthCheck
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, books BookAPI, events EventGuard, database, cache HealthCheck) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		books:    books,
		events:   events,
		database: database,
		cache:    cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	v1.GET("/catalog", h.Catalog)
	v1.POST("/webhooks/payment", middleware.WebhookSignature(h.cfg.Security.WebhookSecret), h.PaymentWebhook)

	authed := v1.Group("")
	authed.Use(middleware.Auth(h.cfg.Security.JWTAccessSecret))
	{
		authed.POST("/books", h.CreateBook)
		authed.GET("/books/:id", h.GetBook)
		authed.DELETE("/books/:id", h.DeleteBook)
		authed.GET("/books/:id/status", h.BookStatus)
		authed.POST("/books/:id/checkout", h.Checkout)
		authed.GET("/books/:id/download", h.Download)

		authed.POST("/generate", h.Generate)
		authed.POST("/generate-story", h.GenerateStory)
		authed.POST("/generate-images", h.GenerateImages)
	}
}

// respondError maps service errors onto status codes. Unknown errors are
// logged and reported generically.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	var upstream *service.UpstreamError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrChildNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "child_not_found"})
	case errors.Is(err, service.ErrBookNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "book_not_found"})
	case errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_state"})
	case errors.Is(err, service.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "run_in_progress"})
	case errors.Is(err, service.ErrPaymentRequired):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "payment_required"})
	case errors.As(err, &upstream):
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": upstream.Stage + "_generation_failed"})
	default:
		_ = c.Error(err)
		h.log.Error().Err(err).Str("path", c.FullPath()).Str("request_id", middleware.RequestIDFrom(c)).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
	}
}
