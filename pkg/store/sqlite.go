package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hvacbridge/estimator/pkg/database"
	"github.com/hvacbridge/estimator/pkg/types"
	"github.com/jmoiron/sqlx"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS estimator_profiles (
	user_id    TEXT PRIMARY KEY,
	config     TEXT NOT NULL,
	catalog    TEXT NOT NULL DEFAULT '[]',
	updated_at TEXT NOT NULL
);
`

type sqliteRow struct {
	UserID    string `db:"user_id"`
	Config    string `db:"config"`
	Catalog   string `db:"catalog"`
	UpdatedAt string `db:"updated_at"`
}

// SQLiteBackend stores profiles in a local SQLite file
type SQLiteBackend struct {
	db *sqlx.DB
}

func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	if path == "" {
		path = "estimator.db"
	}
	db, err := database.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (s *SQLiteBackend) Name() string { return "sqlite" }

func (s *SQLiteBackend) Load(ctx context.Context, userID string) (*types.Profile, error) {
	var row sqliteRow
	err := s.db.GetContext(ctx, &row, "SELECT user_id, config, catalog, updated_at FROM estimator_profiles WHERE user_id = ?", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	updatedAt, _ := time.Parse(time.RFC3339Nano, row.UpdatedAt)
	return decodeProfile(userID, []byte(row.Config), []byte(row.Catalog), updatedAt)
}

func (s *SQLiteBackend) Save(ctx context.Context, profile *types.Profile) error {
	configJSON, catalogJSON, err := encodeProfile(profile)
	if err != nil {
		return err
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO estimator_profiles (user_id, config, catalog, updated_at)
		VALUES (:user_id, :config, :catalog, :updated_at)
		ON CONFLICT(user_id) DO UPDATE SET
			config = excluded.config,
			catalog = excluded.catalog,
			updated_at = excluded.updated_at
	`, sqliteRow{
		UserID:    profile.UserID,
		Config:    string(configJSON),
		Catalog:   string(catalogJSON),
		UpdatedAt: profile.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	return err
}

func (s *SQLiteBackend) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
