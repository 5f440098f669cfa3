package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/i474232898/weather-dashboard/internal/logger"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// pgxPool is the subset of *pgxpool.Pool the store uses. Each call acquires
// a pooled connection and releases it before returning.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

const (
	createSamplesTable = `CREATE TABLE IF NOT EXISTS weather_samples (
	id          TEXT PRIMARY KEY,
	city        TEXT NOT NULL,
	temp        DOUBLE PRECISION NOT NULL,
	humidity    DOUBLE PRECISION,
	windspeed   DOUBLE PRECISION,
	weather     TEXT NOT NULL,
	observed_at TIMESTAMPTZ NOT NULL
)`
	createSamplesIndex = `CREATE INDEX IF NOT EXISTS weather_samples_observed_at_idx
	ON weather_samples (observed_at DESC)`

	insertSample = `INSERT INTO weather_samples (id, city, temp, humidity, windspeed, weather, observed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	selectRecentSamples = `SELECT id, city, temp, humidity, windspeed, weather, observed_at
	FROM weather_samples
	ORDER BY observed_at DESC
	LIMIT $1`
)

// PostgresStore persists samples in PostgreSQL. Samples are only ever inserted.
type PostgresStore struct {
	pool pgxPool
}

var _ weather.Store = (*PostgresStore)(nil)

// NewPostgresStore connects to the database described by connString and makes
// sure the samples table exists.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := newPostgresStore(pool)
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.GetLogger().Infow("Connected to postgres sample store")
	return s, nil
}

func newPostgresStore(pool pgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the samples table and its index when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createSamplesTable); err != nil {
		return fmt.Errorf("create weather_samples table: %w", err)
	}
	if _, err := s.pool.Exec(ctx, createSamplesIndex); err != nil {
		return fmt.Errorf("create weather_samples index: %w", err)
	}
	return nil
}

// SaveSample inserts one sample.
func (s *PostgresStore) SaveSample(ctx context.Context, sample weather.Sample) error {
	_, err := s.pool.Exec(ctx, insertSample,
		sample.ID,
		sample.City,
		sample.Temperature,
		sample.Humidity,
		sample.WindSpeed,
		sample.Weather,
		sample.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// RecentSamples returns up to limit samples, newest first.
func (s *PostgresStore) RecentSamples(ctx context.Context, limit int) ([]weather.Sample, error) {
	rows, err := s.pool.Query(ctx, selectRecentSamples, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent samples: %w", err)
	}
	defer rows.Close()

	samples := make([]weather.Sample, 0, limit)
	for rows.Next() {
		var sample weather.Sample
		if err := rows.Scan(
			&sample.ID,
			&sample.City,
			&sample.Temperature,
			&sample.Humidity,
			&sample.WindSpeed,
			&sample.Weather,
			&sample.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		sample.Timestamp = sample.Timestamp.UTC()
		samples = append(samples, sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return samples, nil
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases all pooled connections.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
