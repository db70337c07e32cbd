package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/underwrite/internal/apperr"
	"github.com/sells-group/underwrite/internal/db"
	"github.com/sells-group/underwrite/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	now     func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`

	// SkipPrepare leaves connections without prepared statements. Set it
	// when the schema may not exist yet, as during migrate.
	SkipPrepare bool `yaml:"-" mapstructure:"-"`
}

const (
	pgGetProject = `SELECT id, name, growth_schedule_id FROM projects WHERE id = $1`

	pgGrowthSchedule = `SELECT step_number, rate FROM growth_rate_steps
WHERE schedule_id = $1 ORDER BY step_number`

	pgParcels = `SELECT p.id, p.project_id, p.phase_id, p.type_code, p.gross_acres, p.units_total,
	p.lot_width, p.sale_period, p.product_code,
	sa.parcel_id, sa.gross_parcel_price, sa.commission_amount, sa.net_sale_proceeds, sa.price_uom,
	sa.improvement_offset_per_uom, sa.base_price_per_unit, sa.inflated_price_per_unit
FROM parcels p
LEFT JOIN sale_assumptions sa ON sa.parcel_id = p.id
WHERE p.project_id = $1
ORDER BY p.id`

	pgBudgetItems = `SELECT bi.id, bi.project_id, bc.phase_id, bi.activity, bi.amount,
	bi.start_period, bi.periods_to_complete
FROM budget_items bi
LEFT JOIN budget_containers bc ON bc.id = bi.container_id
WHERE bi.project_id = $1
ORDER BY bi.id`

	pgBenchmarks = `SELECT id, project_id, benchmark_type, scope, fixed_amount, rate_per_uom, uom, active
FROM cost_benchmarks
WHERE active AND (project_id IS NULL OR project_id = $1)
ORDER BY id`

	pgAcquisitionTotal = `SELECT COALESCE(SUM(amount), 0) FROM acquisition_costs
WHERE project_id = $1 AND applied_to_purchase`

	pgLatestIndications = `SELECT DISTINCT ON (approach) approach, indicated_value, computed_at
FROM approach_indications
WHERE project_id = $1
ORDER BY approach, computed_at DESC, id DESC`

	pgProjectExists = `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`

	pgGetReconciliation = reconciliationSelect + ` WHERE project_id = $1`
)

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the per-report fetches.
var preparedStatements = map[string]string{
	"get_project":        pgGetProject,
	"growth_schedule":    pgGrowthSchedule,
	"parcels":            pgParcels,
	"budget_items":       pgBudgetItems,
	"benchmarks":         pgBenchmarks,
	"acquisition_total":  pgAcquisitionTotal,
	"latest_indications": pgLatestIndications,
	"get_reconciliation": pgGetReconciliation,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	configurePool(pgxCfg, poolCfg)

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, now: time.Now}, nil
}

func configurePool(pgxCfg *pgxpool.Config, poolCfg *PoolConfig) {
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	if poolCfg != nil && poolCfg.SkipPrepare {
		return
	}
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS growth_rate_schedules (
	id   BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS growth_rate_steps (
	schedule_id BIGINT NOT NULL REFERENCES growth_rate_schedules(id),
	step_number INTEGER NOT NULL,
	rate        DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (schedule_id, step_number)
);

CREATE TABLE IF NOT EXISTS projects (
	id                 BIGSERIAL PRIMARY KEY,
	name               TEXT NOT NULL,
	growth_schedule_id BIGINT REFERENCES growth_rate_schedules(id)
);

CREATE TABLE IF NOT EXISTS phases (
	id         BIGSERIAL PRIMARY KEY,
	project_id BIGINT NOT NULL REFERENCES projects(id),
	name       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS parcels (
	id           BIGSERIAL PRIMARY KEY,
	project_id   BIGINT NOT NULL REFERENCES projects(id),
	phase_id     BIGINT,
	type_code    TEXT NOT NULL,
	gross_acres  DOUBLE PRECISION NOT NULL DEFAULT 0,
	units_total  INTEGER NOT NULL DEFAULT 0,
	lot_width    DOUBLE PRECISION NOT NULL DEFAULT 0,
	sale_period  INTEGER,
	product_code TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sale_assumptions (
	parcel_id                  BIGINT PRIMARY KEY REFERENCES parcels(id),
	gross_parcel_price         DOUBLE PRECISION NOT NULL DEFAULT 0,
	commission_amount          DOUBLE PRECISION NOT NULL DEFAULT 0,
	net_sale_proceeds          DOUBLE PRECISION NOT NULL DEFAULT 0,
	price_uom                  TEXT,
	improvement_offset_per_uom DOUBLE PRECISION,
	base_price_per_unit        DOUBLE PRECISION NOT NULL DEFAULT 0,
	inflated_price_per_unit    DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS budget_containers (
	id         BIGSERIAL PRIMARY KEY,
	project_id BIGINT NOT NULL REFERENCES projects(id),
	phase_id   BIGINT,
	name       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS budget_items (
	id                  BIGSERIAL PRIMARY KEY,
	project_id          BIGINT NOT NULL REFERENCES projects(id),
	container_id        BIGINT REFERENCES budget_containers(id),
	activity            TEXT NOT NULL,
	amount              DOUBLE PRECISION NOT NULL DEFAULT 0,
	start_period        INTEGER,
	periods_to_complete INTEGER
);

CREATE TABLE IF NOT EXISTS cost_benchmarks (
	id             BIGSERIAL PRIMARY KEY,
	project_id     BIGINT REFERENCES projects(id),
	benchmark_type TEXT NOT NULL,
	scope          TEXT NOT NULL DEFAULT '',
	fixed_amount   DOUBLE PRECISION,
	rate_per_uom   DOUBLE PRECISION,
	uom            TEXT NOT NULL DEFAULT '',
	active         BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS acquisition_costs (
	id                  BIGSERIAL PRIMARY KEY,
	project_id          BIGINT NOT NULL REFERENCES projects(id),
	amount              DOUBLE PRECISION NOT NULL DEFAULT 0,
	applied_to_purchase BOOLEAN NOT NULL DEFAULT false
);

CREATE TABLE IF NOT EXISTS approach_indications (
	id              BIGSERIAL PRIMARY KEY,
	project_id      BIGINT NOT NULL REFERENCES projects(id),
	approach        TEXT NOT NULL,
	indicated_value DOUBLE PRECISION,
	computed_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS reconciliations (
	project_id     BIGINT PRIMARY KEY REFERENCES projects(id),
	sales_value    DOUBLE PRECISION,
	cost_value     DOUBLE PRECISION,
	income_value   DOUBLE PRECISION,
	sales_weight   DOUBLE PRECISION NOT NULL DEFAULT 0,
	cost_weight    DOUBLE PRECISION NOT NULL DEFAULT 0,
	income_weight  DOUBLE PRECISION NOT NULL DEFAULT 0,
	narrative      TEXT NOT NULL DEFAULT '',
	effective_date DATE,
	computed_value DOUBLE PRECISION NOT NULL DEFAULT 0,
	override_value DOUBLE PRECISION,
	final_value    DOUBLE PRECISION NOT NULL DEFAULT 0,
	weights_valid  BOOLEAN NOT NULL DEFAULT false,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_parcels_project ON parcels(project_id);
CREATE INDEX IF NOT EXISTS idx_budget_items_project ON budget_items(project_id);
CREATE INDEX IF NOT EXISTS idx_cost_benchmarks_type ON cost_benchmarks(benchmark_type, project_id);
CREATE INDEX IF NOT EXISTS idx_acquisition_costs_project ON acquisition_costs(project_id);
CREATE INDEX IF NOT EXISTS idx_approach_indications_latest ON approach_indications(project_id, approach, computed_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID int64) (*model.Project, error) {
	var p model.Project
	err := s.pool.QueryRow(ctx, pgGetProject, projectID).Scan(&p.ID, &p.Name, &p.GrowthScheduleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get project %d", projectID)
	}
	return &p, nil
}

func (s *PostgresStore) GrowthSchedule(ctx context.Context, scheduleID int64) (model.GrowthRateSchedule, error) {
	steps, err := pgQuery(ctx, s.pool, pgGrowthSchedule, scanStep, scheduleID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: growth schedule %d", scheduleID)
	}
	return model.GrowthRateSchedule(steps), nil
}

func (s *PostgresStore) Parcels(ctx context.Context, projectID int64) ([]model.Parcel, error) {
	out, err := pgQuery(ctx, s.pool, pgParcels, scanParcel, projectID)
	return out, eris.Wrap(err, "postgres: parcels")
}

func (s *PostgresStore) BudgetItems(ctx context.Context, projectID int64) ([]model.BudgetLineItem, error) {
	out, err := pgQuery(ctx, s.pool, pgBudgetItems, scanBudgetItem, projectID)
	return out, eris.Wrap(err, "postgres: budget items")
}

func (s *PostgresStore) Benchmarks(ctx context.Context, projectID int64) ([]model.CostBenchmark, error) {
	out, err := pgQuery(ctx, s.pool, pgBenchmarks, scanBenchmark, projectID)
	return out, eris.Wrap(err, "postgres: benchmarks")
}

func (s *PostgresStore) AcquisitionTotal(ctx context.Context, projectID int64) (float64, error) {
	var total float64
	if err := s.pool.QueryRow(ctx, pgAcquisitionTotal, projectID).Scan(&total); err != nil {
		return 0, eris.Wrap(err, "postgres: acquisition total")
	}
	return total, nil
}

func (s *PostgresStore) ProjectExists(ctx context.Context, projectID int64) (bool, error) {
	var ok bool
	if err := s.pool.QueryRow(ctx, pgProjectExists, projectID).Scan(&ok); err != nil {
		return false, eris.Wrap(err, "postgres: project exists")
	}
	return ok, nil
}

func (s *PostgresStore) LatestIndications(ctx context.Context, projectID int64) (model.Indications, error) {
	list, err := pgQuery(ctx, s.pool, pgLatestIndications, scanIndication, projectID)
	if err != nil {
		return model.Indications{}, eris.Wrap(err, "postgres: latest indications")
	}
	return foldIndications(list), nil
}

func (s *PostgresStore) GetReconciliation(ctx context.Context, projectID int64) (*model.ReconciliationRecord, error) {
	rec, err := scanReconciliation(s.pool.QueryRow(ctx, pgGetReconciliation, projectID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get reconciliation %d", projectID)
	}
	return &rec, nil
}

func (s *PostgresStore) UpsertReconciliation(ctx context.Context, rec model.ReconciliationRecord) (bool, error) {
	changed, err := db.UpsertRow(ctx, s.pool, reconciliationUpsert, reconciliationValues(rec, s.now().UTC()))
	return changed, eris.Wrap(err, "postgres: upsert reconciliation")
}

// ImportParcels streams parcels through COPY inside a transaction so a
// failed load leaves no partial rows behind.
func (s *PostgresStore) ImportParcels(ctx context.Context, projectID int64, parcels []model.Parcel) (int64, error) {
	ok, err := s.ProjectExists(ctx, projectID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, apperr.NotFound("project %d not found", projectID)
	}
	if len(parcels) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin import")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	rows := make([][]any, len(parcels))
	for i, p := range parcels {
		rows[i] = parcelValues(projectID, p)
	}
	n, err := db.CopyFrom(ctx, tx, "parcels", parcelColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: import parcels")
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit import")
	}
	return n, nil
}

func pgQuery[T any](ctx context.Context, pool db.Pool, sql string, scan func(rowScanner) (T, error), args ...any) ([]T, error) {
	rows, err := pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, scan)
}
