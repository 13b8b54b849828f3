package httptransport

import (
	"log/slog"

	"github.com/ErlanBelekov/post-scheduler/internal/repository"
	"github.com/ErlanBelekov/post-scheduler/internal/transport/http/handler"
	"github.com/ErlanBelekov/post-scheduler/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

func NewRouter(
	logger *slog.Logger,
	postHandler *handler.PostHandler,
	webhookHandler *handler.WebhookHandler,
	userRepo repository.UserRepository,
	hmacKey []byte,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	authMW := middleware.Auth(hmacKey)
	ensureUser := middleware.EnsureUser(userRepo, logger)

	// Protected post routes
	posts := r.Group("/posts", authMW, ensureUser)
	posts.POST("", postHandler.Create)
	posts.GET("", postHandler.List)
	posts.GET("/:id", postHandler.GetByID)
	posts.PATCH("/:id", postHandler.Update)
	posts.DELETE("/:id", postHandler.Cancel)
	posts.GET("/:id/deliveries", postHandler.ListDeliveries)

	// Queue callback, authenticated by signature rather than bearer token.
	r.POST("/webhooks/publish", webhookHandler.Publish)

	return r
}
