package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sngm3741/store-audit-services/api/internal/audit/application"
	"github.com/sngm3741/store-audit-services/api/internal/config"
	"github.com/sngm3741/store-audit-services/api/internal/infrastructure/checklistfile"
	"github.com/sngm3741/store-audit-services/api/internal/infrastructure/messenger"
	mongodoc "github.com/sngm3741/store-audit-services/api/internal/infrastructure/mongo"
	audithttp "github.com/sngm3741/store-audit-services/api/internal/interfaces/http/audit"
	commonhttp "github.com/sngm3741/store-audit-services/api/internal/interfaces/http/common"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Server is the composition root: it owns the Mongo client, builds the
// repositories and the audit service, and runs the HTTP listener.
type Server struct {
	logger         *log.Logger
	client         *mongo.Client
	database       *mongo.Database
	collections    mongodoc.Collections
	location       *time.Location
	jwt            config.JWTConfig
	jwtAudience    string
	requestTimeout time.Duration
	addr           string
	allowedOrigins []string
	auditService   application.AuditService
	notifier       *messenger.Notifier
}

// New wires repositories, the checklist provider and the notification sink
// into an audit service.
func New(cfg config.Config, client *mongo.Client) (*Server, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.UTC
		cfg.ServerLog.Printf("failed to load timezone %s: %v, falling back to UTC", cfg.Timezone, err)
	}

	srv := &Server{
		logger:   cfg.ServerLog,
		client:   client,
		database: client.Database(cfg.MongoDatabase),
		collections: mongodoc.Collections{
			Audits:              cfg.AuditCollection,
			Scores:              cfg.ScoreCollection,
			SectionEvaluations:  cfg.SectionEvaluationCollection,
			Checklists:          cfg.ChecklistCollection,
			Stores:              cfg.StoreCollection,
			Users:               cfg.UserCollection,
			FailedNotifications: cfg.FailedNotificationCollection,
		},
		location:       loc,
		jwt:            cfg.JWT,
		jwtAudience:    cfg.JWTAudience,
		requestTimeout: cfg.RequestTimeout,
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
	}

	checklists, err := srv.checklistProvider(cfg)
	if err != nil {
		return nil, err
	}

	var notifier application.Notifier = application.LogNotifier{Logger: cfg.ServerLog}
	if cfg.MessengerEndpoint != "" {
		srv.notifier = messenger.NewNotifier(messenger.Config{
			Endpoint:    cfg.MessengerEndpoint,
			Destination: cfg.MessengerDestination,
			Timeout:     cfg.MessengerTimeout,
			Failures:    mongodoc.NewFailedNotificationRepository(srv.database, cfg.FailedNotificationCollection),
			Logger:      cfg.ServerLog,
		})
		notifier = srv.notifier
	}

	srv.auditService = application.NewAuditService(application.SessionConfig{
		Audits:       mongodoc.NewAuditRepository(srv.database, cfg.AuditCollection),
		Scores:       mongodoc.NewScoreRepository(srv.database, cfg.ScoreCollection),
		Evaluations:  mongodoc.NewSectionEvaluationRepository(srv.database, cfg.SectionEvaluationCollection, cfg.ServerLog),
		Checklists:   checklists,
		Directory:    mongodoc.NewDirectoryRepository(srv.database, cfg.StoreCollection, cfg.UserCollection),
		Notifier:     notifier,
		Logger:       cfg.ServerLog,
		Policy:       cfg.Policy,
		WriteTimeout: cfg.WriteTimeout,
		Now: func() time.Time {
			return time.Now().In(loc)
		},
	})
	return srv, nil
}

func (s *Server) checklistProvider(cfg config.Config) (application.ChecklistProvider, error) {
	if cfg.ChecklistSource == config.ChecklistSourceFile {
		provider, err := checklistfile.NewProvider(cfg.ChecklistDir)
		if err != nil {
			return nil, err
		}
		s.logger.Printf("loaded %d checklists from %s", len(provider.IDs()), cfg.ChecklistDir)
		return provider, nil
	}
	return mongodoc.NewChecklistRepository(s.database, cfg.ChecklistCollection), nil
}

// Router assembles middleware and routes. Every audit route sits behind the
// bearer token check.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())

	auditHandler := audithttp.NewHandler(audithttp.Config{
		Logger:   s.logger,
		Service:  s.auditService,
		Location: s.location,
		Timeout:  s.requestTimeout,
	})
	router.Route("/audits", func(r chi.Router) {
		r.Use(s.authMiddleware)
		auditHandler.Register(r)
	})
	return router
}

// Run ensures indexes, starts the listener and blocks until shutdown.
func (s *Server) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err := mongodoc.EnsureIndexes(ctx, s.database, s.collections)
	cancel()
	if err != nil {
		s.logger.Printf("failed to ensure indexes: %v", err)
	}

	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Printf("HTTP server listening on %s", s.addr)
		errChan <- httpServer.ListenAndServe()
	}()

	return waitForShutdown(httpServer, errChan, s)
}

// withCORS returns a middleware adding CORS headers for the allowed origins.
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed map[string]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

// healthHandler reports Mongo reachability only.
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
			commonhttp.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}

		commonhttp.WriteJSON(s.logger, w, http.StatusOK, map[string]string{
			"status": "ok",
			"time":   time.Now().In(s.location).Format(time.RFC3339),
		})
	}
}

// shutdown drains pending notifications and disconnects Mongo.
func (s *Server) shutdown(ctx context.Context) {
	if s.notifier != nil {
		s.notifier.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(shutdownCtx); err != nil {
		s.logger.Printf("error disconnecting MongoDB: %v", err)
	}
}

// waitForShutdown watches the listener and OS signals for a graceful stop.
func waitForShutdown(httpServer *http.Server, errChan <-chan error, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case sig := <-sigChan:
		srv.logger.Printf("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			srv.logger.Printf("error during server shutdown: %v", err)
		}
	}

	srv.shutdown(context.Background())
	return runErr
}
