// Package server exposes the simulation engine over a REST API.
//
// A [Server] hosts any number of live simulations, each addressed by a
// generated id. Clients create a simulation, declare processes and
// resources, drive allocation requests, and run the loop to completion;
// every completed run is archived to the configured [store.Store]. The
// current wait-for graph and state diagram are available both as JSON
// and as rendered SVG.
//
// # Endpoints
//
//	GET    /api/health                          liveness and active count
//	POST   /api/simulation/create               create a simulation
//	POST   /api/simulation/{id}/process         add a process
//	POST   /api/simulation/{id}/resource        add a resource
//	POST   /api/simulation/{id}/request         request an allocation
//	POST   /api/simulation/{id}/release         release an allocation
//	POST   /api/simulation/{id}/run             run the simulation loop
//	GET    /api/simulation/{id}/state           current snapshot
//	GET    /api/simulation/{id}/wfg             wait-for graph as JSON
//	GET    /api/simulation/{id}/render/wfg.svg  wait-for graph as SVG
//	GET    /api/simulation/{id}/render/states.svg  state diagram as SVG
//	POST   /api/simulation/{id}/reset           reset to an empty system
//	DELETE /api/simulation/{id}                 discard the simulation
//	GET    /api/runs                            archived run summaries
//	GET    /api/runs/{id}                       one archived run
//
// Errors are returned as {"error": "...", "code": "..."} envelopes with
// the status mapped from the error code, so a missing simulation id is
// a 404 and an invalid payload a 400.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/cache"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/httputil"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/store"
)

// Timing defaults for the simulation registry and HTTP server.
const (
	// DefaultSimTTL is how long an untouched simulation survives before
	// the sweeper discards it.
	DefaultSimTTL = 30 * time.Minute

	// DefaultSweepInterval is how often the sweeper checks for idle
	// simulations.
	DefaultSweepInterval = time.Minute

	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

// Config carries the server's collaborators and tuning knobs. The zero
// value is usable: missing fields fall back to an in-memory store, a
// no-op cache, and the standard logger.
type Config struct {
	// Store archives completed runs. Defaults to [store.NewMemoryStore].
	Store store.Store

	// Cache holds rendered artifacts between requests. Defaults to
	// [cache.NewNullCache].
	Cache cache.Cache

	// SimTTL is the idle lifetime of a simulation; 0 means
	// [DefaultSimTTL]. A negative value disables expiry.
	SimTTL time.Duration

	// SweepInterval is the expiry check period; 0 means
	// [DefaultSweepInterval].
	SweepInterval time.Duration

	Logger *log.Logger
}

// Server is the REST API host. Create one with [New] and either mount
// [Server.Handler] into an existing mux or call [Server.Run].
type Server struct {
	cfg    Config
	logger *log.Logger
	reg    *registry
	store  store.Store
	cache  cache.Cache
	keyer  cache.Keyer
	router chi.Router
}

// New builds a server, filling any missing Config fields with defaults.
func New(cfg Config) *Server {
	if cfg.Store == nil {
		cfg.Store = store.NewMemoryStore()
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewNullCache()
	}
	if cfg.SimTTL == 0 {
		cfg.SimTTL = DefaultSimTTL
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger,
		reg:    newRegistry(cfg.SimTTL),
		store:  cfg.Store,
		cache:  cfg.Cache,
		keyer:  cache.NewDefaultKeyer(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(httputil.Recover(s.logger))
	r.Use(httputil.RequestLogger(s.logger))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)

		r.Route("/simulation", func(r chi.Router) {
			r.Post("/create", s.handleCreate)

			r.Route("/{id}", func(r chi.Router) {
				r.Post("/process", s.handleAddProcess)
				r.Post("/resource", s.handleAddResource)
				r.Post("/request", s.handleRequest)
				r.Post("/release", s.handleRelease)
				r.Post("/run", s.handleRun)
				r.Get("/state", s.handleState)
				r.Get("/wfg", s.handleWFG)
				r.Get("/render/wfg.svg", s.handleRenderWFG)
				r.Get("/render/states.svg", s.handleRenderStates)
				r.Post("/reset", s.handleReset)
				r.Delete("/", s.handleDelete)
			})
		})
	})

	return r
}

// Handler returns the routed handler, ready to serve or to mount under
// a parent mux.
func (s *Server) Handler() http.Handler { return s.router }

// ActiveSimulations returns how many simulations are currently live.
func (s *Server) ActiveSimulations() int { return s.reg.count() }

// Run serves the API on addr until ctx is canceled, then shuts down
// gracefully. The idle-simulation sweeper runs for the same lifetime.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.reg.runSweeper(sweepCtx, s.cfg.SweepInterval, func(removed int) {
		s.logger.Info("expired idle simulations", "removed", removed)
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	s.logger.Info("server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shut down server: %w", err)
		}
		return nil
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}
}

// Close releases the store and cache.
func (s *Server) Close(ctx context.Context) error {
	var first error
	if err := s.store.Close(ctx); err != nil {
		first = fmt.Errorf("close store: %w", err)
	}
	if err := s.cache.Close(); err != nil && first == nil {
		first = fmt.Errorf("close cache: %w", err)
	}
	return first
}
