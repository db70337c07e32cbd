// Package store persists underwriting inputs and reconciliation snapshots in
// Postgres or SQLite.
package store

import (
	"context"

	"github.com/sells-group/underwrite/internal/model"
	"github.com/sells-group/underwrite/internal/reconcile"
	"github.com/sells-group/underwrite/internal/rollup"
)

// Store is the full persistence surface: report inputs, the reconciliation
// repository, parcel import and lifecycle.
type Store interface {
	rollup.Source
	reconcile.Repository

	// ImportParcels bulk-loads parcels into projectID and returns the number
	// of rows written.
	ImportParcels(ctx context.Context, projectID int64, parcels []model.Parcel) (int64, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
