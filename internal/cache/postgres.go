package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecopulse/environment-data-aggregation/internal/environment"
)

const schema = `
CREATE TABLE IF NOT EXISTS environment_cache (
	id          UUID PRIMARY KEY,
	city        TEXT,
	country     TEXT,
	lat         DOUBLE PRECISION,
	lon         DOUBLE PRECISION,
	data        JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	expires_at  TIMESTAMPTZ NOT NULL,
	source_tag  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS environment_cache_coords_idx ON environment_cache (lat, lon);
CREATE INDEX IF NOT EXISTS environment_cache_expires_idx ON environment_cache (expires_at);
`

// PostgresStore persists cache entries in Postgres. The tolerance and TTL
// predicates live in SQL, so multiple instances can safely share the table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect opens the pool, verifies connectivity, and bootstraps the schema.
func Connect(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse cache dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect cache: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping cache: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap cache schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, loc environment.Location, snap *environment.Snapshot, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	var lat, lon *float64
	if loc.Lat != 0 || loc.Lon != 0 {
		lat, lon = &loc.Lat, &loc.Lon
	}

	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO environment_cache (id, city, country, lat, lon, data, created_at, expires_at, source_tag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.NewString(),
		strings.ToLower(loc.City),
		strings.ToLower(loc.Country),
		lat, lon,
		data,
		now, now.Add(ttl),
		SourceTag,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Lookup(ctx context.Context, loc environment.Location) (*environment.Snapshot, bool, error) {
	var (
		data []byte
		err  error
	)

	if loc.Lat != 0 || loc.Lon != 0 {
		err = s.pool.QueryRow(ctx, `
			SELECT data FROM environment_cache
			WHERE lat BETWEEN $1 AND $2
			  AND lon BETWEEN $3 AND $4
			  AND expires_at > now()
			ORDER BY created_at DESC
			LIMIT 1`,
			loc.Lat-Tolerance, loc.Lat+Tolerance,
			loc.Lon-Tolerance, loc.Lon+Tolerance,
		).Scan(&data)
	} else if loc.City != "" {
		err = s.pool.QueryRow(ctx, `
			SELECT data FROM environment_cache
			WHERE city = $1
			  AND ($2 = '' OR country = $2)
			  AND expires_at > now()
			ORDER BY created_at DESC
			LIMIT 1`,
			strings.ToLower(loc.City),
			strings.ToLower(loc.Country),
		).Scan(&data)
	} else {
		return nil, false, nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var snap environment.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, err
	}
	return &snap, true, nil
}

func (s *PostgresStore) SweepExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM environment_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE expires_at > now())
		FROM environment_cache`,
	).Scan(&stats.Total, &stats.Active)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	stats.Expired = stats.Total - stats.Active
	return stats, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
