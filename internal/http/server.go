// Package http exposes the month statement over a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	applog "extrato/internal/log"
	"extrato/internal/middleware/ratelimit"
	"extrato/internal/middleware/security"
	"extrato/internal/middleware/trace"
	"extrato/internal/registry"
	"extrato/internal/services"
)

// StatementView is the part of services.MonthView the API drives.
type StatementView interface {
	Snapshot() services.ViewState
	SelectMonthAsync(ctx context.Context, month int) (services.ViewState, error)
	RefreshAsync(ctx context.Context) services.ViewState
}

var _ StatementView = (*services.MonthView)(nil)

type Server struct {
	http.Server
	view         StatementView
	items        registry.ItemManager
	limiter      *ratelimit.Limiter
	logger       *applog.Logger
	shutdownOnce sync.Once
}

// NewServer builds the API. items may be nil when the registry is read-only;
// the item endpoints then answer 501.
func NewServer(addr string, view StatementView, items registry.ItemManager, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		view:    view,
		items:   items,
		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		logger:  logger,
	}

	ips := security.NewClientIPResolver()
	limit := s.limiter.Middleware(ips.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
	})

	r := mux.NewRouter()
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(security.APIHeaders)
	api.HandleFunc("/statement", s.handleGetStatement).Methods(http.MethodGet)
	api.Handle("/statement/month", limit(http.HandlerFunc(s.handleSelectMonth))).Methods(http.MethodPut)
	api.Handle("/statement/refresh", limit(http.HandlerFunc(s.handleRefresh))).Methods(http.MethodPost)
	api.HandleFunc("/items", s.handleListItems).Methods(http.MethodGet)
	api.HandleFunc("/items", s.handleAddItem).Methods(http.MethodPost)
	api.HandleFunc("/items/{id}", s.handleRemoveItem).Methods(http.MethodDelete)

	tracer := trace.NewMiddleware(logger, ips.ClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           tracer.Middleware(r),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
