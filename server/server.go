package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/feedrelay/feedrelay/pkg/history"
	"github.com/feedrelay/feedrelay/pkg/scheduler"
)

//go:generate moq -out mocks/dispatcher.go -pkg mocks -skip-ensure -fmt goimports . Dispatcher
//go:generate moq -out mocks/audit.go -pkg mocks -skip-ensure -fmt goimports . Audit

// Server is the ops HTTP endpoint: dispatch status, recent deliveries
// and the manual cursor sync.
type Server struct {
	config     ConfigProvider
	dispatcher Dispatcher
	audit      Audit
	version    string
	debug      bool

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Dispatcher exposes the dispatch loop to the ops endpoint.
type Dispatcher interface {
	Status() scheduler.Status
	SyncCursor(ctx context.Context) (string, error)
}

// Audit reads the delivery audit log.
type Audit interface {
	Recent(ctx context.Context, limit int) ([]history.Delivery, error)
	CountByDestination(ctx context.Context) (map[string]int, error)
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// New initializes a new server instance. audit may be nil when the
// delivery log is disabled.
func New(cfg ConfigProvider, dispatcher Dispatcher, audit Audit, version string, debug bool) *Server {
	s := &Server{
		config:     cfg,
		dispatcher: dispatcher,
		audit:      audit,
		version:    version,
		debug:      debug,
		router:     routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	log.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:         listen,
		Handler:      s.router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("feedrelay", "feedrelay", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(1024 * 1024)) // 1MB
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("GET /deliveries", s.deliveriesHandler)
		r.HandleFunc("POST /sync", s.syncHandler)
	})
}

// statusHandler returns dispatch loop state and destination health
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	res := map[string]interface{}{
		"status":   "ok",
		"version":  s.version,
		"time":     time.Now().UTC(),
		"dispatch": s.dispatcher.Status(),
	}

	if s.audit != nil {
		counts, err := s.audit.CountByDestination(r.Context())
		if err != nil {
			log.Printf("[WARN] can't read delivery counts: %v", err)
		} else {
			res["delivered"] = counts
		}
	}

	RenderJSON(w, r, http.StatusOK, res)
}

// deliveriesHandler returns the newest audit log entries
func (s *Server) deliveriesHandler(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		RenderError(w, r, fmt.Errorf("delivery log disabled"), http.StatusNotFound)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if _, err := fmt.Sscanf(v, "%d", &limit); err != nil || limit <= 0 || limit > 500 {
			RenderError(w, r, fmt.Errorf("invalid limit %q", v), http.StatusBadRequest)
			return
		}
	}

	res, err := s.audit.Recent(r.Context(), limit)
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, res)
}

// syncHandler moves the cursor to the newest feed item without
// publishing, the operator's way to skip a backlog
func (s *Server) syncHandler(w http.ResponseWriter, r *http.Request) {
	id, err := s.dispatcher.SyncCursor(r.Context())
	if err != nil {
		RenderError(w, r, err, http.StatusInternalServerError)
		return
	}
	RenderJSON(w, r, http.StatusOK, map[string]string{"cursor": id})
}

// RenderJSON sends JSON response
func RenderJSON(w http.ResponseWriter, _ *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// RenderError sends error response as JSON
func RenderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	RenderJSON(w, r, code, map[string]string{"error": errMsg})
}
