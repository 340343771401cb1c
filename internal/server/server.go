package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mentornet/apiserver/config"
	"github.com/mentornet/apiserver/internal/authority"
	"github.com/mentornet/apiserver/internal/db"
	"github.com/mentornet/apiserver/internal/handlers"
	"github.com/mentornet/apiserver/internal/mq"
	"github.com/mentornet/apiserver/internal/services"
	"github.com/mentornet/apiserver/internal/sso"
	"github.com/mentornet/apiserver/internal/storage"
	"github.com/mentornet/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.MQ
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	jwtSecret := strings.TrimSpace(cfg.Session.JWTSecret)
	if jwtSecret == "" {
		_ = dbConn.Close()
		return nil, errors.New("JWT_SECRET is required")
	}

	authorityClient, err := authority.NewClient(cfg.Authority)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	ssoClient, err := sso.NewClient(cfg.SSO)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	archive, err := newExportArchive(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	events, err := newAuditEvents(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	reportRepo := store.NewReportRepository(dbConn)

	userService := services.NewUserService(userRepo)
	reportOpts := services.ReportServiceOptions{
		AuditChannel:     cfg.Report.AuditChannel,
		AuthorityTimeout: cfg.Authority.Timeout,
		QueryTimeout:     cfg.Report.QueryTimeout,
	}
	// Assign only when present; a typed nil behind the interface would look
	// non-nil to the service.
	if archive != nil {
		reportOpts.Archive = archive
	}
	if events != nil {
		reportOpts.Events = events
	}
	reportService := services.NewReportService(authorityClient, reportRepo, reportOpts)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)

	authHandler := handlers.AuthRouter(router, userService, ssoClient, jwtSecret, cfg.Session.TokenTTL)

	router.Route("/api", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			handlers.UserRouter(r, userService)
		})
		r.Route("/report", func(r chi.Router) {
			handlers.ReportRouter(r, reportService, authHandler.RequireSession)
		})
	})

	if cfg.StaticDir != "" {
		router.NotFound(spaHandler(cfg.StaticDir))
	}

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
		events:     events,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

// newExportArchive builds the optional object-storage archive for exported
// reports. An empty backend disables archiving.
func newExportArchive(ctx context.Context, cfg config.StorageConfig) (*storage.Archive, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		archive := storage.NewArchive(client)
		if err := archive.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return archive, nil
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		archive := storage.NewArchive(client)
		if err := archive.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return archive, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// newAuditEvents builds the optional message broker for export audit events.
// An empty backend disables publishing.
func newAuditEvents(ctx context.Context, cfg config.MQConfig) (*mq.MQ, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(client), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
}

// spaHandler serves frontend files from dir, falling back to index.html for
// unknown GET paths so client-side routing keeps working.
func spaHandler(dir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}

		requested := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}

		slog.Debug("serving spa fallback", "path", r.URL.Path)
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	}
}
