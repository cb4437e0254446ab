package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	identityevents "github.com/casaflow/casaflow-backend/internal/identity/events"
	identityrepo "github.com/casaflow/casaflow-backend/internal/identity/repository"
	identity "github.com/casaflow/casaflow-backend/internal/identity/service"
	"github.com/casaflow/casaflow-backend/internal/identity/token"
	"github.com/casaflow/casaflow-backend/internal/invitation/events"
	"github.com/casaflow/casaflow-backend/internal/invitation/handler"
	"github.com/casaflow/casaflow-backend/internal/invitation/repository"
	"github.com/casaflow/casaflow-backend/internal/invitation/service"
	"github.com/casaflow/casaflow-backend/internal/invitation/storage"
	"github.com/casaflow/casaflow-backend/pkg/config"
	"github.com/casaflow/casaflow-backend/pkg/database"
	"github.com/casaflow/casaflow-backend/pkg/httputil"
	"github.com/casaflow/casaflow-backend/pkg/logger"
	"github.com/casaflow/casaflow-backend/pkg/messaging"
)

func main() {
	cfg, err := config.LoadWithValidation("invitation-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("invitation-service", cfg.Server.Environment)
	log.Info().Msg("starting Invitation Service")

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	publisher, err := events.NewInvitationEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	accountPublisher, err := identityevents.NewAccountEventPublisher(rmq, "invitation-service", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create account event publisher")
	}

	files, err := storage.New(&cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to object store")
	}

	// Repositories
	inviteRepo := repository.NewInvitationRepository(db)
	campaignRepo := repository.NewCampaignRepository(db, log)
	directoryRepo := repository.NewDirectoryRepository(db)
	mailRepo := repository.NewMailRepository(db)
	accountRepo := identityrepo.NewAccountRepository(db)

	// Services
	accounts := identity.NewProvider(accountRepo, accountPublisher, log)
	tokens := token.NewManager(&cfg.JWT)
	issuerService := service.NewIssuerService(inviteRepo, directoryRepo, mailRepo, publisher, log)
	campaignService := service.NewCampaignService(campaignRepo, inviteRepo, directoryRepo, mailRepo, files, publisher, db, &cfg.Links, log)
	signupService := service.NewSignupService(inviteRepo, campaignRepo, directoryRepo, accounts, publisher, db, log)

	// Handlers
	inviteHandler := handler.NewInvitationHandler(issuerService, log)
	campaignHandler := handler.NewCampaignHandler(campaignService, log)
	signupHandler := handler.NewSignupHandler(signupService, log)
	linkHandler := handler.NewCampaignLinkHandler(campaignService, log)

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httputil.Authenticate(tokens))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "invitation-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// Public endpoints: campaign link clicks and invitation redemption
	r.Get("/signup/campaign", linkHandler.Redirect)
	r.Route("/api/v1/public", func(r chi.Router) {
		r.Get("/invitations/{token}", inviteHandler.GetByToken)
		r.Post("/signup", signupHandler.SignUpWithInvitation)
	})

	// Authenticated endpoints
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.RequireCaller)

		r.Route("/invitations", func(r chi.Router) {
			r.Post("/", inviteHandler.Create)
			r.Post("/{token}/revoke", inviteHandler.Revoke)
		})

		r.Route("/organizations/{organizationID}/properties/{propertyID}/campaigns", func(r chi.Router) {
			r.Post("/", campaignHandler.Create)
			r.Get("/", campaignHandler.List)
			r.Get("/{campaignID}", campaignHandler.Get)
			r.Post("/{campaignID}/deactivate", campaignHandler.Deactivate)
			r.Post("/{campaignID}/reactivate", campaignHandler.Reactivate)
			r.Delete("/{campaignID}", campaignHandler.Delete)
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
