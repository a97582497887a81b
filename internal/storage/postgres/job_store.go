// Package postgres persists ranked job records in Postgres.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/realtime-job-crawler/internal/crawler"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Columns is the column order used for bulk copies.
var Columns = []string{
	"run_id", "idx", "general_rating", "title_rating", "company_size_rating",
	"website", "title", "company", "company_type", "company_sector",
	"country", "country_code", "city", "salary", "site_rating",
	"summary", "posted", "job_id", "job_url",
}

// Config controls the connection pool.
type Config struct {
	DSN      string
	Table    string
	MaxConns int32
}

type pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// JobStore implements crawler.RecordStore. The table only ever holds the
// latest run.
type JobStore struct {
	pool  pool
	table string
}

var _ crawler.RecordStore = (*JobStore)(nil)

// NewJobStore connects a pool using cfg.
func NewJobStore(ctx context.Context, cfg Config) (*JobStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewJobStoreWithPool(p, cfg.Table)
	if err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}

// NewJobStoreWithPool builds a store over an existing pool.
func NewJobStoreWithPool(p pool, table string) (*JobStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "jobs"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &JobStore{pool: p, table: table}, nil
}

// Close releases the pool.
func (s *JobStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the table when it does not exist.
func (s *JobStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	run_id              TEXT    NOT NULL,
	idx                 INTEGER NOT NULL,
	general_rating      INTEGER NOT NULL,
	title_rating        INTEGER NOT NULL,
	company_size_rating INTEGER NOT NULL,
	website             TEXT    NOT NULL,
	title               TEXT    NOT NULL,
	company             TEXT    NOT NULL,
	company_type        TEXT    NOT NULL,
	company_sector      TEXT    NOT NULL,
	country             TEXT    NOT NULL,
	country_code        TEXT    NOT NULL,
	city                TEXT    NOT NULL,
	salary              TEXT    NOT NULL,
	site_rating         TEXT    NOT NULL,
	summary             TEXT    NOT NULL,
	posted              TEXT    NOT NULL,
	job_id              TEXT    NOT NULL,
	job_url             TEXT    NOT NULL,
	PRIMARY KEY (run_id, idx)
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

// ReplaceRun clears the table and copies the run's records in one
// transaction.
func (s *JobStore) ReplaceRun(ctx context.Context, runID string, records []crawler.JobRecord) (err error) {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	if _, err = tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", s.table)); err != nil {
		return fmt.Errorf("clear %s: %w", s.table, err)
	}
	if len(records) > 0 {
		if _, err = tx.CopyFrom(ctx, pgx.Identifier{s.table}, Columns, pgx.CopyFromRows(rows(runID, records))); err != nil {
			return fmt.Errorf("copy into %s: %w", s.table, err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func rows(runID string, records []crawler.JobRecord) [][]any {
	out := make([][]any, 0, len(records))
	for _, r := range records {
		out = append(out, []any{
			runID, r.Index, r.GeneralRating, r.TitleRating, r.CompanySizeRating,
			r.Website, r.Title, r.Company, string(r.CompanyType), r.CompanySector,
			r.Country, r.CountryCode, r.City, r.Salary, r.SiteRating,
			r.Summary, r.Date, r.JobID, r.URL,
		})
	}
	return out
}
