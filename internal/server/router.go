package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/relaydesk/relaydesk-backend/internal/handlers"
	"github.com/relaydesk/relaydesk-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName          string
	WidgetAuthMiddleware *middleware.WidgetAuthMiddleware
	AgentAuthMiddleware  *middleware.AgentAuthMiddleware
	WidgetContactHandler *handlers.WidgetContactHandler
	ConversationHandler  *handlers.ConversationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware(cfg.ServiceName))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Auth-Token", "X-Website-Token"},
		AllowCredentials: false,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)

	// Widget surface: scoped by website token, visitor-facing.
	widget := router.Group("/api/v1/widget")
	widget.Use(cfg.WidgetAuthMiddleware.ResolveSession())
	{
		widget.GET("/contact", cfg.WidgetContactHandler.Show)
		widget.PATCH("/contact", cfg.WidgetContactHandler.Update)
	}

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api/v1")
	api.Use(cfg.AgentAuthMiddleware.RequireAgent())
	{
		api.POST("/conversations/:id/reply_with_summary", cfg.ConversationHandler.ReplyWithSummary)
		api.POST("/conversations/:id/reply_without_summary", cfg.ConversationHandler.ReplyWithoutSummary)
		api.POST("/conversations/:id/transcript", cfg.ConversationHandler.Transcript)
	}

	return router
}
