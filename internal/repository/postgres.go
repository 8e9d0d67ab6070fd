package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"fairrent/internal/model"
)

// schema creates the event log tables. Rows are only ever inserted.
const schema = `
CREATE TABLE IF NOT EXISTS valuation_logs (
	id               BIGSERIAL PRIMARY KEY,
	session_id       TEXT NOT NULL,
	city             TEXT NOT NULL,
	locality         TEXT NOT NULL DEFAULT '',
	bhk              INTEGER NOT NULL,
	area             DOUBLE PRECISION NOT NULL,
	furnishing       TEXT NOT NULL,
	fair_rent_low    DOUBLE PRECISION,
	fair_rent_high   DOUBLE PRECISION,
	outcome          TEXT NOT NULL,
	error            TEXT,
	response_time_ms INTEGER NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS chat_logs (
	id               BIGSERIAL PRIMARY KEY,
	session_id       TEXT NOT NULL,
	exchange_id      TEXT NOT NULL,
	outcome          TEXT NOT NULL,
	error            TEXT,
	response_time_ms INTEGER NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// PostgresRepository writes the diagnostic event log
type PostgresRepository struct {
	db *sqlx.DB
}

// connect is swapped in tests to observe the connection string
var connect = sqlx.Connect

// NewPostgresRepository connects to PostgreSQL. The DSN is passed to lib/pq
// as given, in either URL or key=value form.
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	return &PostgresRepository{db: db}, nil
}

// NewPostgresRepositoryFromDB wraps an existing connection
func NewPostgresRepositoryFromDB(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Ping checks the connection
func (r *PostgresRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Migrate creates the event log tables when they do not exist
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create event log tables: %w", err)
	}
	return nil
}

// LogValuation records one valuation request
func (r *PostgresRepository) LogValuation(ctx context.Context, entry *model.ValuationLog) error {
	query := `
		INSERT INTO valuation_logs (session_id, city, locality, bhk, area, furnishing,
			fair_rent_low, fair_rent_high, outcome, error, response_time_ms)
		VALUES (:session_id, :city, :locality, :bhk, :area, :furnishing,
			:fair_rent_low, :fair_rent_high, :outcome, :error, :response_time_ms)
	`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("failed to log valuation: %w", err)
	}
	return nil
}

// LogExchange records one assistant exchange
func (r *PostgresRepository) LogExchange(ctx context.Context, entry *model.ChatLog) error {
	query := `
		INSERT INTO chat_logs (session_id, exchange_id, outcome, error, response_time_ms)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, entry.SessionID, entry.ExchangeID, entry.Outcome, entry.Error, entry.ResponseTimeMs)
	if err != nil {
		return fmt.Errorf("failed to log exchange: %w", err)
	}
	return nil
}
