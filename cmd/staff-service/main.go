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
	"github.com/casaflow/casaflow-backend/internal/staff/handler"
	"github.com/casaflow/casaflow-backend/internal/staff/repository"
	"github.com/casaflow/casaflow-backend/internal/staff/service"
	"github.com/casaflow/casaflow-backend/pkg/config"
	"github.com/casaflow/casaflow-backend/pkg/database"
	"github.com/casaflow/casaflow-backend/pkg/httputil"
	"github.com/casaflow/casaflow-backend/pkg/logger"
	"github.com/casaflow/casaflow-backend/pkg/messaging"
)

func main() {
	cfg, err := config.LoadWithValidation("staff-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("staff-service", cfg.Server.Environment)
	log.Info().Msg("starting Staff Service")

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

	accountPublisher, err := identityevents.NewAccountEventPublisher(rmq, "staff-service", log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create account event publisher")
	}

	accountRepo := identityrepo.NewAccountRepository(db)
	staffRepo := repository.NewStaffRepository(db)

	accounts := identity.NewProvider(accountRepo, accountPublisher, log)
	tokens := token.NewManager(&cfg.JWT)
	staffService := service.NewStaffService(staffRepo, accounts, log)

	staffHandler := handler.NewStaffHandler(staffService, log)

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
			"service":  "staff-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.RequireCaller)

		r.Route("/organizations/{organizationID}/property-managers", func(r chi.Router) {
			r.Post("/", staffHandler.Create)
			r.Get("/", staffHandler.List)
			r.Get("/{accountID}", staffHandler.Get)
			r.Put("/{accountID}", staffHandler.Update)
			r.Delete("/{accountID}", staffHandler.Delete)
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
