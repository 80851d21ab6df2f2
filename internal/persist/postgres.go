package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bidtrack/api/internal/store"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres keeps the two collection records in a single kv table, used when
// Redis is not configured. Same contract as the Redis backend: one row per
// record key, each save replaces the value.
type Postgres struct {
	db *sql.DB
}

func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(10)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	p := &Postgres{db: db}
	if err := p.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv_records (
			key        text PRIMARY KEY,
			value      jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure kv_records table: %w", err)
	}
	return nil
}

func (p *Postgres) save(ctx context.Context, key string, payload []byte) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO kv_records (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, payload)
	if err != nil {
		return fmt.Errorf("save record %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT value FROM kv_records WHERE key = $1`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("load record %s: %w", key, err)
	}
	return payload, nil
}

func (p *Postgres) SaveProposals(ctx context.Context, proposals []store.Proposal) error {
	payload, err := encodeProposals(proposals)
	if err != nil {
		return err
	}
	return p.save(ctx, keyProposals, payload)
}

func (p *Postgres) LoadProposals(ctx context.Context) ([]store.Proposal, error) {
	payload, err := p.load(ctx, keyProposals)
	if err != nil {
		return nil, err
	}
	return decodeProposals(payload)
}

func (p *Postgres) SaveEvents(ctx context.Context, events []store.CalendarEvent) error {
	payload, err := encodeEvents(events)
	if err != nil {
		return err
	}
	return p.save(ctx, keyEvents, payload)
}

func (p *Postgres) LoadEvents(ctx context.Context) ([]store.CalendarEvent, error) {
	payload, err := p.load(ctx, keyEvents)
	if err != nil {
		return nil, err
	}
	return decodeEvents(payload)
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
