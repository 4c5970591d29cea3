package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mixhub/apiserver/config"
	"github.com/mixhub/apiserver/internal/auth"
	"github.com/mixhub/apiserver/internal/db"
	"github.com/mixhub/apiserver/internal/events"
	"github.com/mixhub/apiserver/internal/handlers"
	"github.com/mixhub/apiserver/internal/mail"
	"github.com/mixhub/apiserver/internal/services"
	"github.com/mixhub/apiserver/internal/storage"
	"github.com/mixhub/apiserver/internal/store"
)

// Server wraps the HTTP server and its collaborators.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  *events.Publisher
	logger     *slog.Logger
}

// New constructs a Server with all routes and middleware wired.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	logger := slog.Default()

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	drinkRepo := store.NewDrinkRepository(dbConn)
	imageRepo := store.NewImageRepository(dbConn)

	hasher := auth.NewPasswordHasher()
	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	cookies := auth.NewSessionCookieManager(cfg.JWT.CookieTTLDays, cfg.IsProd())
	mailer := mail.NewSMTPMailer(cfg.SMTP)

	publisher, err := newPublisher(ctx, cfg.Events)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	objectStorage, err := storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if objectStorage != nil {
		if err := objectStorage.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, err
		}
	}

	userService := services.NewUserService(userRepo, hasher, tokens, mailer, publisher, logger)
	drinkService := services.NewDrinkService(drinkRepo)
	imageService := services.NewImageService(imageRepo, objectStorage, logger)

	authMiddleware := handlers.NewAuthMiddleware(tokens, userService)
	rateLimiter := handlers.NewRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window)
	dev := !cfg.IsProd()

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimiter.Middleware())
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, userService, authMiddleware, cookies, dev)
		})
		r.Route("/drinks", func(r chi.Router) {
			r.Use(authMiddleware.OptionalAuth)
			handlers.DrinkRouter(r, drinkService, authMiddleware, dev)
		})
		r.Route("/images", func(r chi.Router) {
			handlers.ImageRouter(r, imageService, authMiddleware, dev)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		publisher:  publisher,
		logger:     logger,
	}, nil
}

func newPublisher(ctx context.Context, cfg config.EventsConfig) (*events.Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "rabbitmq":
		backend, err := events.NewRabbitMQBackend(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return events.NewPublisher(backend, cfg.Channel), nil
	case "pubsub":
		backend, err := events.NewPubSubBackend(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return events.NewPublisher(backend, cfg.Channel), nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
