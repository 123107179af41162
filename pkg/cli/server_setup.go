package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/getmockd/mockapi/internal/storage"
	"github.com/getmockd/mockapi/pkg/admin"
	"github.com/getmockd/mockapi/pkg/cache"
	"github.com/getmockd/mockapi/pkg/config"
	"github.com/getmockd/mockapi/pkg/engine"
	"github.com/getmockd/mockapi/pkg/logging"
	"github.com/getmockd/mockapi/pkg/metrics"
	"github.com/getmockd/mockapi/pkg/store"
	"github.com/getmockd/mockapi/pkg/store/file"
	"github.com/getmockd/mockapi/pkg/store/redis"
)

// cacheKeySuffix separates cache documents from definitions when both live
// in the same redis database.
const cacheKeySuffix = "cache:"

// stack is a fully wired server and the resources it owns.
type stack struct {
	server  *engine.Server
	defs    *store.EndpointStore
	cache   cache.Cache
	metrics *metrics.Metrics
	closers []io.Closer
}

// Close releases the stack's backend connections.
func (s *stack) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// buildStack opens the configured backends and wires the server.
func buildStack(ctx context.Context, cfg *config.Config, log *slog.Logger) (*stack, error) {
	st := &stack{metrics: metrics.New()}

	docs, err := st.openDocumentStore(ctx, cfg.Storage.Backend, cfg.Storage.Dir, cfg.Storage.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	st.defs = store.NewEndpointStore(docs)

	var sweeper *cache.Sweeper
	if cfg.Cache.Enabled {
		if st.cache, err = st.openCache(ctx, cfg, log); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("open cache: %w", err)
		}
		sweeper = cache.NewSweeper(st.cache, cfg.Cache.SweepSchedule, logging.For(log, logging.ComponentCache))
		sweeper.OnSweep(st.metrics.ObserveSweep)
	}

	pipeline := engine.NewPipeline(st.defs,
		engine.WithCache(st.cache),
		engine.WithPipelineMetrics(st.metrics),
		engine.WithPipelineLogger(logging.For(log, logging.ComponentPipeline)),
	)

	opts := []engine.ServerOption{
		engine.WithLogger(logging.For(log, logging.ComponentServer)),
		engine.WithMetrics(st.metrics),
		engine.WithCORS(cfg.CORS),
	}
	if sweeper != nil {
		opts = append(opts, engine.WithSweeper(sweeper))
	}
	if cfg.Admin.Enabled {
		svc := admin.NewService(st.defs, admin.WithCache(st.cache), admin.WithLogger(logging.For(log, logging.ComponentAdmin)))
		h := admin.NewHandler(svc,
			admin.WithMetrics(st.metrics),
			admin.WithHandlerLogger(logging.For(log, logging.ComponentAdmin)),
			admin.WithPublicURL(cfg.Server.PublicURL),
			admin.WithMaxBodySize(cfg.Server.MaxBodySize),
		)
		opts = append(opts, engine.WithAdmin(h, cfg.Admin.RateLimit))
	}

	st.server = engine.NewServer(cfg.Server, pipeline, opts...)
	return st, nil
}

// openDocumentStore opens one document store backend.
func (st *stack) openDocumentStore(ctx context.Context, backend, dir string, rc config.RedisConfig, log *slog.Logger) (store.DocumentStore, error) {
	switch backend {
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil
	case config.BackendRedis:
		rs, err := redis.New(ctx, redis.Config{
			Addr:     rc.Addr,
			Username: rc.Username,
			Password: rc.Password,
			DB:       rc.DB,
			Prefix:   rc.Prefix,
		})
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, rs)
		return rs, nil
	case config.BackendFile, "":
		fs := file.New(file.Config{Dir: dir})
		fs.SetLogger(logging.For(log, logging.ComponentStore))
		if err := fs.Open(ctx); err != nil {
			return nil, err
		}
		log.Debug("file store opened", "dir", fs.Dir())
		return fs, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// openCache opens the response cache backend.
func (st *stack) openCache(ctx context.Context, cfg *config.Config, log *slog.Logger) (cache.Cache, error) {
	c := cfg.Cache
	switch c.Backend {
	case config.BackendMemory, "":
		return cache.NewMemoryCache(c.TTL), nil
	case config.BackendFile:
		dir := c.Dir
		if dir == "" {
			dir = store.DefaultCacheDir()
		}
		docs, err := st.openDocumentStore(ctx, config.BackendFile, dir, config.RedisConfig{}, log)
		if err != nil {
			return nil, err
		}
		return cache.NewDocumentCache(docs, c.TTL), nil
	case config.BackendRedis:
		rc := cfg.Storage.Redis
		prefix := rc.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		rc.Prefix = prefix + cacheKeySuffix
		docs, err := st.openDocumentStore(ctx, config.BackendRedis, "", rc, log)
		if err != nil {
			return nil, err
		}
		return cache.NewDocumentCache(docs, c.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", c.Backend)
	}
}
