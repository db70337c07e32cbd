package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Dialect captures the SQL differences between the Postgres and SQLite stores.
type Dialect struct {
	Name        string
	Placeholder func(i int) string // 1-based
	DistinctOp  string
}

var (
	// Postgres renders $1-style placeholders.
	Postgres = Dialect{
		Name:        "postgres",
		Placeholder: func(i int) string { return fmt.Sprintf("$%d", i) },
		DistinctOp:  "IS DISTINCT FROM",
	}
	// SQLite renders ?NNN placeholders so arguments bind positionally.
	SQLite = Dialect{
		Name:        "sqlite",
		Placeholder: func(i int) string { return fmt.Sprintf("?%d", i) },
		DistinctOp:  "IS NOT",
	}
)

// UpsertConfig defines a single-row upsert.
type UpsertConfig struct {
	Table        string   // target table
	Columns      []string // all columns being inserted, in argument order
	ConflictKeys []string // columns forming the unique constraint
	UpdateCols   []string // columns to update on conflict; nil = all non-conflict columns
	// VolatileCols are updated on conflict but ignored when deciding whether
	// the stored row changed (e.g. updated_at). A conflicting row whose other
	// update columns are unchanged is left untouched.
	VolatileCols []string
}

func (cfg UpsertConfig) validate() error {
	if len(cfg.Columns) == 0 {
		return eris.New("db: upsert: no columns specified")
	}
	if len(cfg.ConflictKeys) == 0 {
		return eris.New("db: upsert: no conflict keys specified")
	}
	return nil
}

func (cfg UpsertConfig) updateCols() []string {
	if cfg.UpdateCols != nil {
		return cfg.UpdateCols
	}
	conflictSet := make(map[string]bool, len(cfg.ConflictKeys))
	for _, k := range cfg.ConflictKeys {
		conflictSet[k] = true
	}
	var cols []string
	for _, c := range cfg.Columns {
		if !conflictSet[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

// BuildUpsert renders INSERT ... ON CONFLICT (keys) DO UPDATE SET ... WHERE
// <any compared column changed> for the given dialect.
func BuildUpsert(cfg UpsertConfig, d Dialect) (string, error) {
	if err := cfg.validate(); err != nil {
		return "", err
	}

	placeholders := make([]string, len(cfg.Columns))
	for i := range cfg.Columns {
		placeholders[i] = d.Placeholder(i + 1)
	}

	volatile := make(map[string]bool, len(cfg.VolatileCols))
	for _, c := range cfg.VolatileCols {
		volatile[c] = true
	}

	table := sanitizeTable(cfg.Table)
	var setClauses, changed []string
	for _, col := range cfg.updateCols() {
		q := pgx.Identifier{col}.Sanitize()
		setClauses = append(setClauses, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
		if !volatile[col] {
			changed = append(changed, fmt.Sprintf("%s.%s %s EXCLUDED.%s", table, q, d.DistinctOp, q))
		}
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s)",
		table,
		quoteAndJoin(cfg.Columns),
		strings.Join(placeholders, ", "),
		quoteAndJoin(cfg.ConflictKeys),
	)
	if len(setClauses) == 0 {
		return sql + " DO NOTHING", nil
	}
	sql += " DO UPDATE SET " + strings.Join(setClauses, ", ")
	if len(changed) > 0 {
		sql += " WHERE " + strings.Join(changed, " OR ")
	}
	return sql, nil
}

// UpsertRow inserts or updates one row. changed is false when a conflicting
// row already held identical values and was left as-is.
func UpsertRow(ctx context.Context, pool Pool, cfg UpsertConfig, values []any) (bool, error) {
	if len(values) != len(cfg.Columns) {
		return false, eris.Errorf("db: upsert: %d values for %d columns", len(values), len(cfg.Columns))
	}
	sql, err := BuildUpsert(cfg, Postgres)
	if err != nil {
		return false, err
	}

	tag, err := pool.Exec(ctx, sql, values...)
	if err != nil {
		return false, eris.Wrapf(err, "db: upsert: INSERT ON CONFLICT for %s", cfg.Table)
	}
	return tag.RowsAffected() > 0, nil
}

// sanitizeTable handles schema-qualified table names like "public.reconciliations".
func sanitizeTable(table string) string {
	return identifier(table).Sanitize()
}

// quoteAndJoin quotes each column name and joins with commas.
func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
