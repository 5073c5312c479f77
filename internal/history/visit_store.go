// Package history provides Postgres-backed persistence of page visit audit
// rows. Every listing page the crawl fetches leaves one row, which makes
// rate and coverage analysis possible after the fact.
package history

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/otakulab/malcrawl/internal/crawl"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for visit rows.
type Config struct {
	DSN             string        `mapstructure:"dsn" yaml:"dsn"`
	Table           string        `mapstructure:"table" yaml:"table"`
	MaxConns        int32         `mapstructure:"max_conns" yaml:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns" yaml:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime" yaml:"max_conn_lifetime"`
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// VisitStore writes page visit rows into Postgres. It implements
// crawl.PageRecorder.
type VisitStore struct {
	pool  execCloser
	table string
}

var _ crawl.PageRecorder = (*VisitStore)(nil)

// NewVisitStore creates a Postgres-backed VisitStore using the provided config.
func NewVisitStore(ctx context.Context, cfg Config) (*VisitStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "page_visits"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &VisitStore{pool: pool, table: table}, nil
}

// NewVisitStoreWithPool constructs a store from an existing pool (primarily
// for testing).
func NewVisitStoreWithPool(pool execCloser, table string) (*VisitStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "page_visits"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &VisitStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *VisitStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// RecordPage inserts one visit row. Expected schema:
//
//	CREATE TABLE page_visits (
//	    id BIGSERIAL PRIMARY KEY,
//	    domain TEXT NOT NULL,
//	    partition TEXT NOT NULL,
//	    page INT NOT NULL,
//	    status_code INT NOT NULL,
//	    stub_count INT NOT NULL,
//	    fetched_at TIMESTAMPTZ NOT NULL
//	);
func (s *VisitStore) RecordPage(ctx context.Context, visit crawl.PageVisit) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("visit store is not configured")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (domain, partition, page, status_code, stub_count, fetched_at)
VALUES ($1, $2, $3, $4, $5, $6)`, s.table)

	_, err := s.pool.Exec(ctx, query,
		visit.Domain,
		visit.Partition,
		visit.Page,
		visit.StatusCode,
		visit.StubCount,
		visit.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("insert page visit: %w", err)
	}
	return nil
}

// NoOpRecorder discards page visits. It stands in when no database is
// configured.
type NoOpRecorder struct{}

// RecordPage does nothing and returns nil.
func (NoOpRecorder) RecordPage(_ context.Context, _ crawl.PageVisit) error { return nil }
