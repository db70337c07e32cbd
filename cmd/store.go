package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/underwrite/internal/config"
	"github.com/sells-group/underwrite/internal/reconcile"
	"github.com/sells-group/underwrite/internal/resilience"
	"github.com/sells-group/underwrite/internal/rollup"
	"github.com/sells-group/underwrite/internal/store"
)

const defaultSQLitePath = "underwrite.db"

// openStore validates cfg for mode and opens the configured store.
func openStore(ctx context.Context, c *config.Config, mode string) (store.Store, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}

	switch c.Store.Driver {
	case "sqlite":
		dsn := c.Store.DatabaseURL
		if dsn == "" {
			dsn = defaultSQLitePath
		}
		st, err := store.NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		// Local databases are created on first use.
		if err := st.Migrate(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, err
		}
		return st, nil
	case "postgres":
		return store.NewPostgres(ctx, c.Store.DatabaseURL, poolConfig(c, mode))
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
}

// poolConfig maps store settings onto the Postgres pool. migrate runs before
// the tables exist, so its connections skip statement preparation.
func poolConfig(c *config.Config, mode string) *store.PoolConfig {
	return &store.PoolConfig{
		MaxConns:    c.Store.MaxConns,
		MinConns:    c.Store.MinConns,
		SkipPrepare: mode == "migrate",
	}
}

func reportService(st rollup.Source, c *config.Config) *rollup.Service {
	timeout := time.Duration(c.Rollup.FetchTimeoutSecs) * time.Second
	src := st
	if c.Store.RetryAttempts > 1 {
		retry := resilience.DefaultRetryConfig()
		retry.MaxAttempts = c.Store.RetryAttempts
		if c.Store.RetryBackoffMs > 0 {
			retry.InitialBackoff = time.Duration(c.Store.RetryBackoffMs) * time.Millisecond
		}
		src = rollup.RetrySource(st, retry)
	}
	return rollup.NewService(src, rollup.Options{PrimaryTypeCodes: c.Rollup.PrimaryTypeCodes}, timeout)
}

func reconcileService(st reconcile.Repository, c *config.Config) *reconcile.Service {
	return reconcile.NewService(st, c.Reconcile.WeightTolerance)
}
