package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/underwrite/internal/apperr"
	"github.com/sells-group/underwrite/internal/db"
	"github.com/sells-group/underwrite/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db        *sql.DB
	upsertSQL string
	now       func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}

	upsertSQL, err := db.BuildUpsert(reconciliationUpsert, db.SQLite)
	if err != nil {
		conn.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "sqlite: build upsert")
	}
	return &SQLiteStore{db: conn, upsertSQL: upsertSQL, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS growth_rate_schedules (
	id   INTEGER PRIMARY KEY,
	name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS growth_rate_steps (
	schedule_id INTEGER NOT NULL REFERENCES growth_rate_schedules(id),
	step_number INTEGER NOT NULL,
	rate        REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (schedule_id, step_number)
);

CREATE TABLE IF NOT EXISTS projects (
	id                 INTEGER PRIMARY KEY,
	name               TEXT NOT NULL,
	growth_schedule_id INTEGER REFERENCES growth_rate_schedules(id)
);

CREATE TABLE IF NOT EXISTS phases (
	id         INTEGER PRIMARY KEY,
	project_id INTEGER NOT NULL REFERENCES projects(id),
	name       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS parcels (
	id           INTEGER PRIMARY KEY,
	project_id   INTEGER NOT NULL REFERENCES projects(id),
	phase_id     INTEGER,
	type_code    TEXT NOT NULL,
	gross_acres  REAL NOT NULL DEFAULT 0,
	units_total  INTEGER NOT NULL DEFAULT 0,
	lot_width    REAL NOT NULL DEFAULT 0,
	sale_period  INTEGER,
	product_code TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sale_assumptions (
	parcel_id                  INTEGER PRIMARY KEY REFERENCES parcels(id),
	gross_parcel_price         REAL NOT NULL DEFAULT 0,
	commission_amount          REAL NOT NULL DEFAULT 0,
	net_sale_proceeds          REAL NOT NULL DEFAULT 0,
	price_uom                  TEXT,
	improvement_offset_per_uom REAL,
	base_price_per_unit        REAL NOT NULL DEFAULT 0,
	inflated_price_per_unit    REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS budget_containers (
	id         INTEGER PRIMARY KEY,
	project_id INTEGER NOT NULL REFERENCES projects(id),
	phase_id   INTEGER,
	name       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS budget_items (
	id                  INTEGER PRIMARY KEY,
	project_id          INTEGER NOT NULL REFERENCES projects(id),
	container_id        INTEGER REFERENCES budget_containers(id),
	activity            TEXT NOT NULL,
	amount              REAL NOT NULL DEFAULT 0,
	start_period        INTEGER,
	periods_to_complete INTEGER
);

CREATE TABLE IF NOT EXISTS cost_benchmarks (
	id             INTEGER PRIMARY KEY,
	project_id     INTEGER REFERENCES projects(id),
	benchmark_type TEXT NOT NULL,
	scope          TEXT NOT NULL DEFAULT '',
	fixed_amount   REAL,
	rate_per_uom   REAL,
	uom            TEXT NOT NULL DEFAULT '',
	active         BOOLEAN NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS acquisition_costs (
	id                  INTEGER PRIMARY KEY,
	project_id          INTEGER NOT NULL REFERENCES projects(id),
	amount              REAL NOT NULL DEFAULT 0,
	applied_to_purchase BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS approach_indications (
	id              INTEGER PRIMARY KEY,
	project_id      INTEGER NOT NULL REFERENCES projects(id),
	approach        TEXT NOT NULL,
	indicated_value REAL,
	computed_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS reconciliations (
	project_id     INTEGER PRIMARY KEY REFERENCES projects(id),
	sales_value    REAL,
	cost_value     REAL,
	income_value   REAL,
	sales_weight   REAL NOT NULL DEFAULT 0,
	cost_weight    REAL NOT NULL DEFAULT 0,
	income_weight  REAL NOT NULL DEFAULT 0,
	narrative      TEXT NOT NULL DEFAULT '',
	effective_date DATE,
	computed_value REAL NOT NULL DEFAULT 0,
	override_value REAL,
	final_value    REAL NOT NULL DEFAULT 0,
	weights_valid  BOOLEAN NOT NULL DEFAULT 0,
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_parcels_project ON parcels(project_id);
CREATE INDEX IF NOT EXISTS idx_budget_items_project ON budget_items(project_id);
CREATE INDEX IF NOT EXISTS idx_approach_indications_latest ON approach_indications(project_id, approach, computed_at);
`

const (
	sqliteGetProject = `SELECT id, name, growth_schedule_id FROM projects WHERE id = ?`

	sqliteGrowthSchedule = `SELECT step_number, rate FROM growth_rate_steps
WHERE schedule_id = ? ORDER BY step_number`

	sqliteParcels = `SELECT p.id, p.project_id, p.phase_id, p.type_code, p.gross_acres, p.units_total,
	p.lot_width, p.sale_period, p.product_code,
	sa.parcel_id, sa.gross_parcel_price, sa.commission_amount, sa.net_sale_proceeds, sa.price_uom,
	sa.improvement_offset_per_uom, sa.base_price_per_unit, sa.inflated_price_per_unit
FROM parcels p
LEFT JOIN sale_assumptions sa ON sa.parcel_id = p.id
WHERE p.project_id = ?
ORDER BY p.id`

	sqliteBudgetItems = `SELECT bi.id, bi.project_id, bc.phase_id, bi.activity, bi.amount,
	bi.start_period, bi.periods_to_complete
FROM budget_items bi
LEFT JOIN budget_containers bc ON bc.id = bi.container_id
WHERE bi.project_id = ?
ORDER BY bi.id`

	sqliteBenchmarks = `SELECT id, project_id, benchmark_type, scope, fixed_amount, rate_per_uom, uom, active
FROM cost_benchmarks
WHERE active AND (project_id IS NULL OR project_id = ?)
ORDER BY id`

	sqliteAcquisitionTotal = `SELECT COALESCE(SUM(amount), 0.0) FROM acquisition_costs
WHERE project_id = ? AND applied_to_purchase`

	// Newest first; foldIndications keeps the first row per approach.
	sqliteIndications = `SELECT approach, indicated_value, computed_at
FROM approach_indications
WHERE project_id = ?
ORDER BY computed_at DESC, id DESC`

	sqliteProjectExists = `SELECT EXISTS (SELECT 1 FROM projects WHERE id = ?)`

	sqliteInsertParcel = `INSERT INTO parcels
	(project_id, phase_id, type_code, gross_acres, units_total, lot_width, sale_period, product_code)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
)

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetProject(ctx context.Context, projectID int64) (*model.Project, error) {
	var p model.Project
	err := s.db.QueryRowContext(ctx, sqliteGetProject, projectID).Scan(&p.ID, &p.Name, &p.GrowthScheduleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get project %d", projectID)
	}
	return &p, nil
}

func (s *SQLiteStore) GrowthSchedule(ctx context.Context, scheduleID int64) (model.GrowthRateSchedule, error) {
	steps, err := sqliteQuery(ctx, s.db, sqliteGrowthSchedule, scanStep, scheduleID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: growth schedule %d", scheduleID)
	}
	return model.GrowthRateSchedule(steps), nil
}

func (s *SQLiteStore) Parcels(ctx context.Context, projectID int64) ([]model.Parcel, error) {
	out, err := sqliteQuery(ctx, s.db, sqliteParcels, scanParcel, projectID)
	return out, eris.Wrap(err, "sqlite: parcels")
}

func (s *SQLiteStore) BudgetItems(ctx context.Context, projectID int64) ([]model.BudgetLineItem, error) {
	out, err := sqliteQuery(ctx, s.db, sqliteBudgetItems, scanBudgetItem, projectID)
	return out, eris.Wrap(err, "sqlite: budget items")
}

func (s *SQLiteStore) Benchmarks(ctx context.Context, projectID int64) ([]model.CostBenchmark, error) {
	out, err := sqliteQuery(ctx, s.db, sqliteBenchmarks, scanBenchmark, projectID)
	return out, eris.Wrap(err, "sqlite: benchmarks")
}

func (s *SQLiteStore) AcquisitionTotal(ctx context.Context, projectID int64) (float64, error) {
	var total float64
	if err := s.db.QueryRowContext(ctx, sqliteAcquisitionTotal, projectID).Scan(&total); err != nil {
		return 0, eris.Wrap(err, "sqlite: acquisition total")
	}
	return total, nil
}

func (s *SQLiteStore) ProjectExists(ctx context.Context, projectID int64) (bool, error) {
	var ok bool
	if err := s.db.QueryRowContext(ctx, sqliteProjectExists, projectID).Scan(&ok); err != nil {
		return false, eris.Wrap(err, "sqlite: project exists")
	}
	return ok, nil
}

func (s *SQLiteStore) LatestIndications(ctx context.Context, projectID int64) (model.Indications, error) {
	list, err := sqliteQuery(ctx, s.db, sqliteIndications, scanIndication, projectID)
	if err != nil {
		return model.Indications{}, eris.Wrap(err, "sqlite: latest indications")
	}
	return foldIndications(list), nil
}

func (s *SQLiteStore) GetReconciliation(ctx context.Context, projectID int64) (*model.ReconciliationRecord, error) {
	rec, err := scanReconciliation(s.db.QueryRowContext(ctx, reconciliationSelect+` WHERE project_id = ?`, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get reconciliation %d", projectID)
	}
	return &rec, nil
}

func (s *SQLiteStore) UpsertReconciliation(ctx context.Context, rec model.ReconciliationRecord) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.upsertSQL, reconciliationValues(rec, s.now().UTC())...)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: upsert reconciliation")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n > 0, nil
}

// ImportParcels inserts parcels in one transaction with a prepared statement.
func (s *SQLiteStore) ImportParcels(ctx context.Context, projectID int64, parcels []model.Parcel) (int64, error) {
	ok, err := s.ProjectExists(ctx, projectID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, apperr.NotFound("project %d not found", projectID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteInsertParcel)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare parcel insert")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, p := range parcels {
		if _, err := stmt.ExecContext(ctx, parcelValues(projectID, p)...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert parcel %d", n+1)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit import")
	}
	return n, nil
}

func sqliteQuery[T any](ctx context.Context, conn *sql.DB, query string, scan func(rowScanner) (T, error), args ...any) ([]T, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck
	return collect(rows, scan)
}
