package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hvacbridge/estimator/pkg/database"
	"github.com/hvacbridge/estimator/pkg/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS estimator_profiles (
	user_id    TEXT PRIMARY KEY,
	config     JSONB NOT NULL,
	catalog    JSONB NOT NULL DEFAULT '[]'::jsonb,
	updated_at TIMESTAMPTZ NOT NULL
)`

// PostgresBackend stores one row per user with JSONB config and catalog
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend connects and makes sure the profile table exists
func NewPostgresBackend(ctx context.Context, databaseURL string) (*PostgresBackend, error) {
	pool, err := database.ConnectPostgres(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresBackend{pool: pool}, nil
}

func (p *PostgresBackend) Name() string { return "postgres" }

func (p *PostgresBackend) Load(ctx context.Context, userID string) (*types.Profile, error) {
	var configJSON, catalogJSON []byte
	var updatedAt time.Time

	err := p.pool.QueryRow(ctx, `
		SELECT config, catalog, updated_at
		FROM estimator_profiles
		WHERE user_id = $1
	`, userID).Scan(&configJSON, &catalogJSON, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return decodeProfile(userID, configJSON, catalogJSON, updatedAt)
}

func (p *PostgresBackend) Save(ctx context.Context, profile *types.Profile) error {
	configJSON, catalogJSON, err := encodeProfile(profile)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO estimator_profiles (user_id, config, catalog, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET config = EXCLUDED.config, catalog = EXCLUDED.catalog, updated_at = EXCLUDED.updated_at
	`, profile.UserID, configJSON, catalogJSON, profile.UpdatedAt)
	return err
}

func (p *PostgresBackend) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresBackend) Close() error {
	p.pool.Close()
	return nil
}

// encodeProfile and decodeProfile are shared by the backends that keep
// config and catalog as JSON documents
func encodeProfile(profile *types.Profile) ([]byte, []byte, error) {
	configJSON, err := json.Marshal(profile.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("encode config: %w", err)
	}
	catalog := profile.Catalog
	if catalog == nil {
		catalog = types.Catalog{}
	}
	catalogJSON, err := json.Marshal(catalog)
	if err != nil {
		return nil, nil, fmt.Errorf("encode catalog: %w", err)
	}
	return configJSON, catalogJSON, nil
}

func decodeProfile(userID string, configJSON, catalogJSON []byte, updatedAt time.Time) (*types.Profile, error) {
	profile := &types.Profile{UserID: userID, UpdatedAt: updatedAt.UTC(), Catalog: types.Catalog{}}
	if err := json.Unmarshal(configJSON, &profile.Config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(catalogJSON) > 0 {
		if err := json.Unmarshal(catalogJSON, &profile.Catalog); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
	}
	return profile, nil
}
