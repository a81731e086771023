package server

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/liftlog/liftlog/internal/auth"
	"github.com/liftlog/liftlog/internal/importer"
	liftmcp "github.com/liftlog/liftlog/internal/mcp"
	"github.com/liftlog/liftlog/internal/storage"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "liftlog"

// Options configures optional server dependencies.
type Options struct {
	Version string
	// Registry receives the server metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
	// Limiter rate-limits sign-in. Sign-in is unlimited when nil.
	Limiter         RequestRateLimiter
	SignInPerMinute int
	// Now is the clock used for default workout dates and statistics.
	Now func() time.Time
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    storage.Store
	auth     *auth.Service
	importer *importer.Importer
	log      *slog.Logger
	router   chi.Router
	metrics  *Metrics
	registry *prometheus.Registry
	opts     Options
	now      func() time.Time

	unsubscribe func()
}

// New creates a new Server with all routes configured.
func New(store storage.Store, authSvc *auth.Service, log *slog.Logger, opts Options) *Server {
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SignInPerMinute <= 0 {
		opts.SignInPerMinute = 10
	}

	s := &Server{
		store:    store,
		auth:     authSvc,
		importer: importer.New(store, log, false),
		log:      log,
		router:   chi.NewRouter(),
		metrics:  NewMetrics(metricsNamespace, opts.Registry),
		registry: opts.Registry,
		opts:     opts,
		now:      opts.Now,
	}
	s.unsubscribe = authSvc.Subscribe(s.metrics.ObserveSession)
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close detaches the server from the session event stream.
func (s *Server) Close() {
	s.unsubscribe()
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(RequestMetrics(s.metrics))
	s.router.Use(CORS)

	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/signup", s.handleSignUp)
		r.Group(func(r chi.Router) {
			if s.opts.Limiter != nil {
				r.Use(RateLimit(s.opts.Limiter, "signin", s.opts.SignInPerMinute))
			}
			r.Post("/signin", s.handleSignIn)
		})
		r.Group(func(r chi.Router) {
			r.Use(SessionAuth(s.auth))
			r.Post("/signout", s.handleSignOut)
			r.Post("/refresh", s.handleRefresh)
			r.Get("/session", s.handleSession)
		})
	})

	s.router.Group(func(r chi.Router) {
		r.Use(SessionAuth(s.auth))

		r.Get("/api/v1/workouts", s.handleListWorkouts)
		r.Post("/api/v1/workouts", s.handleCreateWorkout)
		r.Get("/api/v1/workouts/{id}", s.handleGetWorkout)
		r.Put("/api/v1/workouts/{id}", s.handleUpdateWorkout)
		r.Delete("/api/v1/workouts/{id}", s.handleDeleteWorkout)

		r.Get("/api/v1/stats", s.handleStats)
		r.Get("/api/v1/exercises/history", s.handleExerciseHistory)

		r.Post("/api/v1/import/alpha", s.handleAlphaImport)
		r.Get("/api/v1/import/logs", s.handleImportLogs)

		r.Handle("/mcp", s.mcpHandler())
	})
}

// mcpHandler serves the MCP tools over streamable HTTP, scoped to the
// session user.
func (s *Server) mcpHandler() http.Handler {
	mcpSrv := liftmcp.New(s.store, s.opts.Version, s.log)
	return mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if sess, ok := sessionFromContext(r.Context()); ok {
				return liftmcp.WithUserID(ctx, sess.User.ID)
			}
			return ctx
		}),
	)
}

// SetFrontend mounts a static SPA filesystem.
// Unmatched routes serve index.html for client-side routing.
func (s *Server) SetFrontend(webFS fs.FS) {
	fileServer := http.FileServerFS(webFS)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		f, err := webFS.Open(r.URL.Path[1:])
		if err == nil {
			f.Close()
			fileServer.ServeHTTP(w, r)
			return
		}
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	})
}
