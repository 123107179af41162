package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/getmockd/mockapi/pkg/config"
	"github.com/getmockd/mockapi/pkg/engine"
	"github.com/getmockd/mockapi/pkg/logging"
)

// serveFlags holds all parsed command-line flags for the serve command.
// Flags only override the loaded configuration when set explicitly.
type serveFlags struct {
	addr         string
	publicURL    string
	storage      string
	dataDir      string
	cacheBackend string
	cacheTTL     time.Duration
	noCache      bool
	noAdmin      bool
	logLevel     string
	logFormat    string
	logFile      string
}

func newServeCmd(g *globalFlags) *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the mock server (foreground)",
		Long: `Start the mock server. Mock endpoints are served under /{project}/{route};
the admin API, health check and metrics live under ` + engine.AdminPrefix + `.`,
		Example: `  # Start with defaults (file storage, in-memory cache, port 8080)
  mockapi serve

  # Keep everything in memory on another port
  mockapi serve --addr :3000 --storage memory

  # Share definitions and cache through redis
  MOCKAPI_STORAGE_REDIS_ADDR=redis:6379 mockapi serve --storage redis --cache-backend redis`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(g.configFile)
			if err != nil {
				return err
			}
			applyServeFlags(cfg, f, cmd.Flags())
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			log, closeLog, err := logging.Open(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr(), f.logFile)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, log, cmd.OutOrStdout())
		},
	}

	bindServeFlags(cmd.Flags(), f)
	return cmd
}

func bindServeFlags(fl *pflag.FlagSet, f *serveFlags) {
	fl.StringVar(&f.addr, "addr", "", "Listen address (default :8080)")
	fl.StringVar(&f.publicURL, "public-url", "", "Base URL used in published endpoint URLs")
	fl.StringVar(&f.storage, "storage", "", "Definition storage backend (file, memory, redis)")
	fl.StringVar(&f.dataDir, "data-dir", "", "Directory of the file storage backend")
	fl.StringVar(&f.cacheBackend, "cache-backend", "", "Response cache backend (memory, file, redis)")
	fl.DurationVar(&f.cacheTTL, "cache-ttl", 0, "Response cache time-to-live")
	fl.BoolVar(&f.noCache, "no-cache", false, "Disable the response cache")
	fl.BoolVar(&f.noAdmin, "no-admin", false, "Disable the admin API")
	fl.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fl.StringVar(&f.logFormat, "log-format", "", "Log format (text, json)")
	fl.StringVar(&f.logFile, "log-file", "", "Also append JSON logs to this file")
}

// applyServeFlags copies explicitly set flags over cfg.
func applyServeFlags(cfg *config.Config, f *serveFlags, fs *pflag.FlagSet) {
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("addr", func() { cfg.Server.Addr = f.addr })
	set("public-url", func() { cfg.Server.PublicURL = f.publicURL })
	set("storage", func() { cfg.Storage.Backend = f.storage })
	set("data-dir", func() { cfg.Storage.Dir = f.dataDir })
	set("cache-backend", func() { cfg.Cache.Backend = f.cacheBackend })
	set("cache-ttl", func() { cfg.Cache.TTL = f.cacheTTL })
	set("no-cache", func() { cfg.Cache.Enabled = !f.noCache })
	set("no-admin", func() { cfg.Admin.Enabled = !f.noAdmin })
	set("log-level", func() { cfg.Log.Level = f.logLevel })
	set("log-format", func() { cfg.Log.Format = f.logFormat })
}

// runServe starts the server and blocks until ctx is done.
func runServe(ctx context.Context, cfg *config.Config, log *slog.Logger, out io.Writer) error {
	st, err := buildStack(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn("closing backends", "error", err)
		}
	}()

	if err := st.server.Start(); err != nil {
		return err
	}
	printServeStartupMessage(out, cfg, st.server.Addr())

	<-ctx.Done()
	fmt.Fprintln(out, "\nShutting down...")

	// The parent context is already cancelled; shutdown gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := st.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	fmt.Fprintln(out, "Server stopped")
	return nil
}

func printServeStartupMessage(w io.Writer, cfg *config.Config, addr string) {
	fmt.Fprintf(w, "mockapi %s listening on %s\n", Version, addr)
	fmt.Fprintf(w, "  storage: %s\n", cfg.Storage.Backend)
	if cfg.Cache.Enabled {
		fmt.Fprintf(w, "  cache:   %s (ttl %s)\n", cfg.Cache.Backend, cfg.Cache.TTL)
	} else {
		fmt.Fprintln(w, "  cache:   disabled")
	}
	if cfg.Admin.Enabled {
		fmt.Fprintf(w, "  admin:   http://%s%s\n", addr, engine.AdminPrefix)
	}
	fmt.Fprintln(w, "Press Ctrl+C to stop")
}
