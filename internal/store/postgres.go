package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/partsignal/content-audit/internal/audit"
	"github.com/partsignal/content-audit/internal/resolve"
)

// PostgresConfig controls the Postgres connection pool.
type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresProvider writes session rows into Postgres.
type PostgresProvider struct {
	pool execCloser
}

// NewPostgresProvider creates a Postgres-backed Provider using the given
// config.
func NewPostgresProvider(ctx context.Context, cfg PostgresConfig) (*PostgresProvider, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
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
	return &PostgresProvider{pool: pool}, nil
}

// NewPostgresProviderWithPool constructs a provider from an existing pool
// (primarily for testing).
func NewPostgresProviderWithPool(pool execCloser) (*PostgresProvider, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &PostgresProvider{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (p *PostgresProvider) Close() {
	if p == nil || p.pool == nil {
		return
	}
	p.pool.Close()
}

// SaveSession upserts the discovery snapshot for a session.
func (p *PostgresProvider) SaveSession(ctx context.Context, rec SessionRecord) error {
	if rec.ID == uuid.Nil {
		return fmt.Errorf("session id is required")
	}
	candidates, err := json.Marshal(rec.Candidates)
	if err != nil {
		return fmt.Errorf("marshal candidates: %w", err)
	}
	channels, err := json.Marshal(rec.Channels)
	if err != nil {
		return fmt.Errorf("marshal channels: %w", err)
	}

	query := `
INSERT INTO audit_sessions (id, manufacturer, category, created_at, candidates, channels)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
	manufacturer = EXCLUDED.manufacturer,
	category = EXCLUDED.category,
	candidates = EXCLUDED.candidates,
	channels = EXCLUDED.channels`

	if _, err := p.pool.Exec(ctx, query,
		rec.ID, rec.Manufacturer, rec.Category, rec.CreatedAt, candidates, channels); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// SaveResolution upserts one target's resolution outcome.
func (p *PostgresProvider) SaveResolution(ctx context.Context, sessionID uuid.UUID, state resolve.State) error {
	if sessionID == uuid.Nil {
		return fmt.Errorf("session id is required")
	}
	if state.SiteName == "" {
		return fmt.Errorf("site name is required")
	}

	query := `
INSERT INTO audit_resolutions (session_id, site_name, role, url, status, reason, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (session_id, site_name) DO UPDATE SET
	role = EXCLUDED.role,
	url = EXCLUDED.url,
	status = EXCLUDED.status,
	reason = EXCLUDED.reason,
	updated_at = EXCLUDED.updated_at`

	if _, err := p.pool.Exec(ctx, query,
		sessionID, state.SiteName, string(state.Role), state.URL,
		string(state.Status), state.Reason, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert resolution: %w", err)
	}
	return nil
}

// SaveResult upserts one target's audit result. The full result travels as
// JSON; the score and content source are lifted into columns for querying.
func (p *PostgresProvider) SaveResult(ctx context.Context, sessionID uuid.UUID, result audit.Result) error {
	if sessionID == uuid.Nil {
		return fmt.Errorf("session id is required")
	}
	if result.SiteName == "" {
		return fmt.Errorf("site name is required")
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	query := `
INSERT INTO audit_results (session_id, site_name, role, url, content_source, overall_score, payload, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (session_id, site_name) DO UPDATE SET
	role = EXCLUDED.role,
	url = EXCLUDED.url,
	content_source = EXCLUDED.content_source,
	overall_score = EXCLUDED.overall_score,
	payload = EXCLUDED.payload,
	updated_at = EXCLUDED.updated_at`

	if _, err := p.pool.Exec(ctx, query,
		sessionID, result.SiteName, string(result.Role), result.URL,
		string(result.ContentSource), result.OverallScore, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}
