// Package pg is the PostgreSQL store implementation, backed by a pgx
// connection pool. Every query acquires a connection from the pool for the
// duration of the call and releases it when the rows are drained; nothing
// holds an ambient session.
package pg

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"

	"retail-insights/internal/config"
	"retail-insights/internal/models"
)

type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Connect builds the pool from config and verifies the server is reachable.
func Connect(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeoutDuration()
	}
	if cfg.StatementLogging {
		poolCfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   slogAdapter{logger: logger},
			LogLevel: tracelog.LogLevelDebug,
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("connected to PostgreSQL", "max_conns", poolCfg.MaxConns)
	return &Store{pool: pool, logger: logger}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// slogAdapter routes pgx query tracing onto the application logger.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	attrs := make([]any, 0, len(data)*2)
	for k, v := range data {
		attrs = append(attrs, k, v)
	}

	switch level {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug:
		a.logger.DebugContext(ctx, msg, attrs...)
	case tracelog.LogLevelInfo:
		a.logger.InfoContext(ctx, msg, attrs...)
	case tracelog.LogLevelWarn:
		a.logger.WarnContext(ctx, msg, attrs...)
	default:
		a.logger.ErrorContext(ctx, msg, attrs...)
	}
}

// Schema for both datasets. Line prices are stored as NUMERIC so that
// aggregate casts to NUMERIC(26,2) round exactly instead of inheriting
// binary floating-point error from the raw CSV values.
const schemaSQL = `
CREATE SCHEMA IF NOT EXISTS retail;

CREATE TABLE IF NOT EXISTS retail.online_retail (
    invoice_no   VARCHAR NOT NULL,
    stock_code   VARCHAR NOT NULL,
    description  TEXT,
    quantity     INTEGER NOT NULL,
    invoice_date TIMESTAMP NOT NULL,
    unit_price   NUMERIC(10,4) NOT NULL,
    customer_id  VARCHAR NOT NULL,
    country      VARCHAR
);

CREATE SCHEMA IF NOT EXISTS music;

CREATE TABLE IF NOT EXISTS music.employees (
    employee_id BIGINT PRIMARY KEY,
    first_name  VARCHAR NOT NULL,
    last_name   VARCHAR NOT NULL,
    title       VARCHAR
);

CREATE TABLE IF NOT EXISTS music.customers (
    customer_id    BIGINT PRIMARY KEY,
    first_name     VARCHAR NOT NULL,
    last_name      VARCHAR NOT NULL,
    support_rep_id BIGINT REFERENCES music.employees(employee_id)
);

CREATE TABLE IF NOT EXISTS music.invoices (
    invoice_id   BIGINT PRIMARY KEY,
    customer_id  BIGINT NOT NULL REFERENCES music.customers(customer_id),
    invoice_date TIMESTAMP NOT NULL,
    total        NUMERIC(10,2) NOT NULL
);

CREATE TABLE IF NOT EXISTS music.genres (
    genre_id BIGINT PRIMARY KEY,
    name     VARCHAR NOT NULL
);

CREATE TABLE IF NOT EXISTS music.tracks (
    track_id BIGINT PRIMARY KEY,
    name     VARCHAR NOT NULL,
    genre_id BIGINT REFERENCES music.genres(genre_id)
);

CREATE TABLE IF NOT EXISTS music.invoice_items (
    invoice_item_id BIGINT PRIMARY KEY,
    invoice_id      BIGINT NOT NULL REFERENCES music.invoices(invoice_id),
    track_id        BIGINT NOT NULL REFERENCES music.tracks(track_id),
    unit_price      NUMERIC(10,2) NOT NULL,
    quantity        INTEGER NOT NULL
);
`

// EnsureSchema creates the schemas and tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

var retailColumns = []string{
	"invoice_no", "stock_code", "description", "quantity",
	"invoice_date", "unit_price", "customer_id", "country",
}

// AppendRetail bulk-loads a batch of retail lines with COPY.
func (s *Store) AppendRetail(ctx context.Context, lines []models.RetailLine) error {
	_, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"retail", "online_retail"},
		retailColumns,
		pgx.CopyFromSlice(len(lines), func(i int) ([]any, error) {
			l := lines[i]
			return []any{
				l.InvoiceNo, l.StockCode, l.Description, l.Quantity,
				l.InvoiceDate, l.UnitPrice, l.CustomerID, l.Country,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy retail lines: %w", err)
	}
	return nil
}

func (s *Store) RetailCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM retail.online_retail`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count retail lines: %w", err)
	}
	return n, nil
}
