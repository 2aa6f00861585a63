package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/internal/server"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/cache"
	"github.com/lachlanreyloyola/Deadlock-Detection-Simulation/pkg/store"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr     string
	storeURI string
	database string
	redisURL string
	simTTL   time.Duration
	noCache  bool
}

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation HTTP API server",
		Long: `Run the HTTP API server for interactive simulations.

The server keeps live simulations in memory and expires them after a
period of inactivity (--sim-ttl). Completed runs are archived to the
run store: in-memory by default, MongoDB when --store is given a
mongodb:// URI. Rendered diagrams are cached on disk, or in Redis
when --redis is set.`,
		Example: `  # In-memory store, local file cache
  deadlocksim serve --addr :8080

  # MongoDB archive and Redis artifact cache
  deadlocksim serve --store mongodb://localhost:27017 --redis redis://localhost:6379`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.storeURI, "store", "", "run store URI (mongodb://...); in-memory when empty")
	cmd.Flags().StringVar(&opts.database, "db", "", "MongoDB database name")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "Redis cache URL (redis://...); file cache when empty")
	cmd.Flags().DurationVar(&opts.simTTL, "sim-ttl", server.DefaultSimTTL, "idle lifetime of live simulations (negative disables expiry)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

// runServe builds the configured store and cache and runs the server
// until the context is cancelled.
func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	st, err := c.openStore(ctx, opts)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	ca, err := c.openCache(ctx, opts)
	if err != nil {
		st.Close(ctx)
		return fmt.Errorf("open cache: %w", err)
	}

	srv := server.New(server.Config{
		Store:  st,
		Cache:  ca,
		SimTTL: opts.simTTL,
		Logger: c.Logger,
	})
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Close(closeCtx); err != nil {
			c.Logger.Warn("close server", "error", err)
		}
	}()

	c.Logger.Info("starting server", "addr", opts.addr)
	return srv.Run(ctx, opts.addr)
}

// openStore selects the run store from the --store flag.
func (c *CLI) openStore(ctx context.Context, opts *serveOpts) (store.Store, error) {
	if opts.storeURI == "" {
		c.Logger.Debug("using in-memory run store")
		return store.NewMemoryStore(), nil
	}
	if !strings.HasPrefix(opts.storeURI, "mongodb://") && !strings.HasPrefix(opts.storeURI, "mongodb+srv://") {
		return nil, fmt.Errorf("unsupported store URI %q (want mongodb://)", opts.storeURI)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.NewMongoStore(connectCtx, opts.storeURI, opts.database)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("using MongoDB run store", "uri", opts.storeURI)
	return st, nil
}

// openCache selects the artifact cache from the --redis and
// --no-cache flags.
func (c *CLI) openCache(ctx context.Context, opts *serveOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if opts.redisURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		ca, err := cache.NewRedisCache(connectCtx, opts.redisURL)
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("using Redis cache", "url", opts.redisURL)
		return ca, nil
	}
	return newCache(false)
}
