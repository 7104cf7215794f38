package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"belanja/internal/cache"
	"belanja/internal/core"
	applog "belanja/internal/log"
	"belanja/internal/middleware/ratelimit"
	"belanja/internal/middleware/security"
	"belanja/internal/middleware/trace"
	"belanja/internal/services"
)

// HeaderUserID names the caller. Requests without it act as the default user.
const HeaderUserID = "X-User-ID"

// Options tunes a Server. Zero values fall back to defaults.
type Options struct {
	DefaultUserID string
	Location      *time.Location
	RateLimit     ratelimit.Config
	Logger        *applog.Logger
}

type Server struct {
	http.Server
	registry    *services.Registry
	defaultUser string
	loc         *time.Location
	now         func() time.Time

	// Keyed by snapshot version, so a write never serves a stale overview.
	overviews *cache.LRU[overviewKey, core.MonthOverview]
	caches    *cache.Manager

	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	clientIP *security.ClientIP

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, registry *services.Registry, opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.RateLimit.RPS <= 0 {
		opts.RateLimit = ratelimit.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	s := &Server{
		registry:    registry,
		defaultUser: opts.DefaultUserID,
		loc:         opts.Location,
		now:         time.Now,
		limiter:     ratelimit.NewLimiter(opts.RateLimit),
		clientIP:    security.NewClientIP(),
		overviews:   cache.NewLRU[overviewKey, core.MonthOverview](256, 5*time.Minute),
		caches:      cache.NewManager(),
	}
	s.caches.Register(s.overviews)
	s.caches.Start(10 * time.Minute)
	s.tracer = trace.NewMiddleware(opts.Logger, s.clientIP.Extract)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)

	mux.HandleFunc("GET /api/draft", s.handleGetDraft)
	mux.HandleFunc("POST /api/draft/items", s.handleAddDraftItem)
	mux.HandleFunc("DELETE /api/draft/items/{index}", s.handleRemoveDraftItem)
	mux.HandleFunc("DELETE /api/draft", s.handleClearDraft)

	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/open", s.handleOpenSession)
	mux.HandleFunc("GET /api/sessions/active", s.handleActiveSession)
	mux.HandleFunc("POST /api/sessions/active/close", s.handleCloseSession)
	mux.HandleFunc("PUT /api/sessions/active/prices/{itemID}", s.handleSetPrice)
	mux.HandleFunc("POST /api/sessions/active/finish", s.handleFinish)

	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("DELETE /api/history/{id}", s.handleDeleteHistory)
	mux.HandleFunc("GET /api/history/last-price", s.handleLastPrice)
	mux.HandleFunc("GET /api/overview", s.handleOverview)

	mux.HandleFunc("POST /api/signout", s.handleSignOut)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.clientIP.Extract, handleRateLimited)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

// overviewKey pins a cached overview to one snapshot. The generation keeps a
// re-created Shopper, whose versions restart, from reading older entries.
type overviewKey struct {
	user       string
	generation uint64
	version    uint64
	year       int
	month      time.Month
}

// Shutdown gracefully shuts down the server and its rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.caches.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics exposes the request counters collected by the tracer.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

func handleRateLimited(w http.ResponseWriter, r *http.Request) {
	slog.WarnContext(r.Context(), "Rate limit exceeded", "method", r.Method, "path", r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
