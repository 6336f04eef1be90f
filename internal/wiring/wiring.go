// Package wiring turns a Config into a ready Engine. Every binary goes
// through Build so they all see the same backends.
package wiring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"project-status-tracker/internal/cache"
	"project-status-tracker/internal/config"
	"project-status-tracker/internal/domain"
	"project-status-tracker/internal/faults"
	"project-status-tracker/internal/storage"
	"project-status-tracker/internal/workflow"
)

type Runtime struct {
	Catalog *domain.Catalog
	Store   storage.Store
	Minio   *storage.MinioStore
	Engine  *workflow.Engine

	closers []func() error
}

func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{}

	catalog, err := LoadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	rt.Catalog = catalog

	var store storage.Store
	if cfg.PostgresDSN != "" {
		pg, err := storage.NewPostgresStore(cfg.PostgresDSN, catalog.Initial().ID)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		rt.closers = append(rt.closers, pg.Close)
		if err := pg.Ping(ctx); err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		store = pg
		logger.Info("using postgres store")
	} else {
		store = storage.NewMemoryStore(catalog.Initial().ID)
		logger.Warn("POSTGRES_DSN not set, using in-memory store")
	}
	if cfg.FaultsEnabled() {
		store = storage.WithFaults(store, faults.NewRate(cfg.FaultSeed, map[string]float64{
			faults.OpAddDocument:   cfg.FaultAddDocumentRate,
			faults.OpUpdateProject: cfg.FaultUpdateProjectRate,
		}))
		logger.Warn("fault injection enabled",
			"add_document_rate", cfg.FaultAddDocumentRate,
			"update_project_rate", cfg.FaultUpdateProjectRate,
			"seed", cfg.FaultSeed,
		)
	}
	rt.Store = store

	readCache, closeCache, err := newReadCache(ctx, cfg, logger)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	if closeCache != nil {
		rt.closers = append(rt.closers, closeCache)
	}

	var blobs storage.BlobStore
	if cfg.MinioEndpoint != "" {
		m, err := storage.NewMinioStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL, cfg.MinioBucket)
		if err != nil {
			_ = rt.Close()
			return nil, fmt.Errorf("connect minio: %w", err)
		}
		rt.Minio = m
		blobs = m
	}

	engine, err := workflow.New(workflow.Options{
		Catalog: catalog,
		Store:   store,
		Blobs:   blobs,
		Cache:   readCache,
		Logger:  logger,
	})
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Engine = engine
	return rt, nil
}

// newReadCache picks a cache every writer of the store can invalidate.
// Redis is shared by all processes. An in-process cache is only safe next
// to the in-process store, since a Postgres store is also written by the
// worker. CACHE_TTL=0 disables caching.
func newReadCache(ctx context.Context, cfg config.Config, logger *slog.Logger) (cache.Cache, func() error, error) {
	switch {
	case cfg.CacheTTL <= 0:
		logger.Info("read cache disabled", "reason", "CACHE_TTL is 0")
		return cache.Nop, nil, nil
	case cfg.RedisAddress != "":
		rc, err := cache.NewRedis(ctx, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL, logger)
		if err != nil {
			return nil, nil, err
		}
		return rc, rc.Close, nil
	case cfg.PostgresDSN == "":
		return cache.NewMemory(cfg.CacheTTL), nil, nil
	default:
		logger.Warn("REDIS_ADDRESS not set, read cache disabled for the shared postgres store")
		return cache.Nop, nil, nil
	}
}

// LoadCatalog returns the built-in catalog for the configured model, or
// the CATALOG_FILE one when set. The file must declare the same model.
func LoadCatalog(cfg config.Config) (*domain.Catalog, error) {
	if cfg.CatalogFile == "" {
		c, ok := domain.BuiltinCatalog(cfg.WorkflowModel)
		if !ok {
			return nil, fmt.Errorf("unsupported workflow model %q", cfg.WorkflowModel)
		}
		return c, nil
	}
	c, err := domain.LoadCatalogFile(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	if c.Model() != cfg.WorkflowModel {
		return nil, fmt.Errorf("catalog file %s declares model %q but WORKFLOW_MODEL is %q", cfg.CatalogFile, c.Model(), cfg.WorkflowModel)
	}
	return c, nil
}

// Ping reports whether the project store answers.
func (r *Runtime) Ping(ctx context.Context) error {
	return r.Store.Ping(ctx)
}

func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
