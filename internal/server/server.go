package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nexo-rrhh/portal/config"
	"github.com/nexo-rrhh/portal/internal/db"
	"github.com/nexo-rrhh/portal/internal/handlers"
	"github.com/nexo-rrhh/portal/internal/mq"
	"github.com/nexo-rrhh/portal/internal/services"
	"github.com/nexo-rrhh/portal/internal/session"
	"github.com/nexo-rrhh/portal/internal/storage"
	"github.com/nexo-rrhh/portal/internal/store"
	"github.com/nexo-rrhh/portal/internal/web"
	"github.com/rs/zerolog"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	bus        *mq.MQ
	log        zerolog.Logger
}

// New opens every dependency, makes sure the schema and the bootstrap
// account exist, and builds the router.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Server, error) {
	if cfg.Database.AutoMigrate {
		if err := db.MigrateUp(cfg.Database); err != nil {
			return nil, err
		}
	}

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Server{db: dbConn, log: log}
	if err := s.init(ctx, cfg); err != nil {
		_ = s.close()
		return nil, err
	}
	return s, nil
}

func (s *Server) init(ctx context.Context, cfg config.Config) error {
	userRepo := store.NewUserRepository(s.db)
	uploadRepo := store.NewUploadRepository(s.db)

	userService := services.NewUserService(userRepo)
	created, err := userService.EnsureBootstrapAdmin(ctx, cfg.Bootstrap.Username, cfg.Bootstrap.Password)
	if err != nil {
		return err
	}
	if created {
		s.log.Warn().
			Str("username", cfg.Bootstrap.Username).
			Msg("created bootstrap SUPERADMIN; change its password")
	}

	authService, err := services.NewAuthService(userService)
	if err != nil {
		return err
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}

	s.bus, err = mq.Open(ctx, cfg.MQ)
	if err != nil {
		return fmt.Errorf("open mq: %w", err)
	}
	var publisher services.EventPublisher
	if s.bus != nil {
		publisher = s.bus
	}

	uploadService := services.NewUploadService(uploadRepo, objects, publisher, services.UploadOptions{
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		EventsChannel:     cfg.MQ.UploadsChannel,
	}, s.log)

	if cfg.Session.Secret == config.DefaultSessionSecret {
		s.log.Warn().Msg("NEXO_SECRET_KEY is not set; sessions use the development key")
	}
	sessions, err := session.NewManager(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.CookieSecure)
	if err != nil {
		return err
	}

	view, err := web.NewRenderer()
	if err != nil {
		return err
	}
	pages := handlers.NewPages(authService, sessions, view, s.log)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(s.log),
		recoverer(s.log),
		middleware.Timeout(60*time.Second),
		sessions.Middleware,
	)
	router.Get("/healthz", handlers.Healthz(s.db))
	handlers.AuthRouter(router, pages)
	handlers.UploadRouter(router, pages, uploadService, handlers.UploadOptions{
		RecentLimit:       cfg.Upload.RecentLimit,
		MaxUploadBytes:    cfg.Upload.MaxBytes,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
	})
	handlers.UserRouter(router, pages, userService)

	port := cfg.ServerPort
	if port == 0 {
		port = 5000
	}

	s.router = router
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx
// expires and releases the database and broker connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	return errors.Join(err, s.close())
}

func (s *Server) close() error {
	var errs []error
	if s.bus != nil {
		errs = append(errs, s.bus.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}
