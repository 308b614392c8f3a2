package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/relaydesk/relaydesk-backend/internal/db"
	"github.com/relaydesk/relaydesk-backend/internal/events"
	"github.com/relaydesk/relaydesk-backend/internal/handlers"
	"github.com/relaydesk/relaydesk-backend/internal/logger"
	"github.com/relaydesk/relaydesk-backend/internal/middleware"
	"github.com/relaydesk/relaydesk-backend/internal/observability"
	"github.com/relaydesk/relaydesk-backend/internal/platform/sendgrid"
	"github.com/relaydesk/relaydesk-backend/internal/repos"
	"github.com/relaydesk/relaydesk-backend/internal/server"
	"github.com/relaydesk/relaydesk-backend/internal/services"
	"github.com/relaydesk/relaydesk-backend/internal/utils"
)

const serviceName = "relaydesk-backend"

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: utils.GetEnv("DEPLOY_ENV", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})
	if shutdownOtel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOtel(ctx)
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	mailerCfg := services.MailerConfig{
		SenderEmail:       utils.GetEnv("MAILER_SENDER_EMAIL", "Relaydesk <accounts@relaydesk.dev>", log),
		ReplySubject:      utils.GetEnv("MAILER_REPLY_SUBJECT", "", log),
		TranscriptSubject: utils.GetEnv("MAILER_TRANSCRIPT_SUBJECT", "", log),
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	contactRepo := repos.NewContactRepo(thePG, log)
	contactInboxRepo := repos.NewContactInboxRepo(thePG, log)
	inboxRepo := repos.NewInboxRepo(thePG, log)
	conversationRepo := repos.NewConversationRepo(thePG, log)
	messageRepo := repos.NewMessageRepo(thePG, log)

	// Event dispatch
	log.Info("Setting up event dispatcher from main...")
	var dispatcher events.Dispatcher
	dispatcher, err = events.NewRedisDispatcher(log)
	if err != nil {
		log.Warn("Redis dispatcher unavailable, events will be dropped", "error", err)
		dispatcher = events.NopDispatcher{}
	}
	defer dispatcher.Close()

	// Mail transport
	mailer, err := sendgrid.NewFromEnv(log)
	if err != nil {
		// Valid deployment state: composing becomes a no-op behind the gate.
		log.Warn("Outbound mail not configured", "error", err)
		mailer = nil
	}

	// Services
	log.Info("Setting up Services from main...")
	identityVerifier := services.NewIdentityVerifier(log)
	contactIdentifyService := services.NewContactIdentifyService(thePG, log, contactRepo, dispatcher)
	widgetContactService := services.NewWidgetContactService(thePG, log, identityVerifier, contactIdentifyService, contactInboxRepo)
	messageWindowSelector := services.NewMessageWindowSelector(log, messageRepo)
	notificationGate := services.NewNotificationGate(log, messageRepo, mailer != nil)
	threadingHeaderBuilder := services.NewThreadingHeaderBuilder(log, mailerCfg)
	conversationReplyService := services.NewConversationReplyService(
		log,
		conversationRepo,
		messageRepo,
		messageWindowSelector,
		notificationGate,
		threadingHeaderBuilder,
		mailer,
	)

	// Handlers
	log.Info("Setting up handlers from main...")
	widgetContactHandler := handlers.NewWidgetContactHandler(widgetContactService)
	conversationHandler := handlers.NewConversationHandler(conversationReplyService)

	// Middleware
	log.Info("Setting up middleware from main...")
	widgetAuthMiddleware := middleware.NewWidgetAuthMiddleware(log, inboxRepo, contactInboxRepo)
	agentAuthMiddleware := middleware.NewAgentAuthMiddleware(log, jwtSecretKey)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:          serviceName,
		WidgetAuthMiddleware: widgetAuthMiddleware,
		AgentAuthMiddleware:  agentAuthMiddleware,
		WidgetContactHandler: widgetContactHandler,
		ConversationHandler:  conversationHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
