// Package store persists business profiles: the pricing config and the
// catalog snapshot of each user.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hvacbridge/estimator/pkg/normalize"
	"github.com/hvacbridge/estimator/pkg/types"
	log "github.com/sirupsen/logrus"
)

// ErrProfileNotFound is returned by backends for users with no saved profile
var ErrProfileNotFound = errors.New("profile not found")

// ProfileStore is what the service layer needs from persistence
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*types.Profile, error)
	SaveConfig(ctx context.Context, userID string, patch map[string]any) (types.EstimatorConfig, error)
	ReplaceCatalog(ctx context.Context, userID string, items []map[string]any) (types.Catalog, error)
	Ping(ctx context.Context) error
	Close() error
}

// Backend loads and saves whole profiles
type Backend interface {
	Name() string
	Load(ctx context.Context, userID string) (*types.Profile, error)
	Save(ctx context.Context, profile *types.Profile) error
	Ping(ctx context.Context) error
	Close() error
}

// Store implements ProfileStore on top of a Backend. Patches are applied
// read-modify-write under a process-wide lock.
type Store struct {
	backend Backend
	mu      sync.Mutex
	now     func() time.Time
}

var _ ProfileStore = (*Store)(nil)

func New(backend Backend) *Store {
	return &Store{
		backend: backend,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Backend returns the name of the underlying backend
func (s *Store) Backend() string {
	return s.backend.Name()
}

// GetProfile returns the saved profile, or defaults with an empty catalog
func (s *Store) GetProfile(ctx context.Context, userID string) (*types.Profile, error) {
	userID, err := cleanUserID(userID)
	if err != nil {
		return nil, err
	}

	profile, err := s.backend.Load(ctx, userID)
	if errors.Is(err, ErrProfileNotFound) {
		return DefaultProfile(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile %s: %w", userID, err)
	}
	if profile.Catalog == nil {
		profile.Catalog = types.Catalog{}
	}
	return profile, nil
}

// SaveConfig merges patch over the stored config and saves the result
func (s *Store) SaveConfig(ctx context.Context, userID string, patch map[string]any) (types.EstimatorConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return types.EstimatorConfig{}, err
	}
	next, err := normalize.Config(patch, profile.Config)
	if err != nil {
		return types.EstimatorConfig{}, err
	}

	profile.Config = next
	if err := s.save(ctx, profile); err != nil {
		return types.EstimatorConfig{}, err
	}
	return next, nil
}

// ReplaceCatalog normalizes items and replaces the whole catalog
func (s *Store) ReplaceCatalog(ctx context.Context, userID string, items []map[string]any) (types.Catalog, error) {
	catalog, err := normalize.Catalog(items)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile.Catalog = catalog
	if err := s.save(ctx, profile); err != nil {
		return nil, err
	}
	return catalog, nil
}

// Import applies a config patch and replaces the catalog in one save
func (s *Store) Import(ctx context.Context, userID string, patch map[string]any, items []map[string]any) (*types.Profile, error) {
	catalog, err := normalize.Catalog(items)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.Config, err = normalize.Config(patch, profile.Config); err != nil {
		return nil, err
	}
	profile.Catalog = catalog
	if err := s.save(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) save(ctx context.Context, profile *types.Profile) error {
	profile.UpdatedAt = s.now()
	if err := s.backend.Save(ctx, profile); err != nil {
		return fmt.Errorf("failed to save profile %s: %w", profile.UserID, err)
	}

	log.WithFields(log.Fields{
		"backend": s.backend.Name(),
		"user":    profile.UserID,
		"items":   len(profile.Catalog),
	}).Debug("Profile saved")
	return nil
}

// DefaultProfile is the profile of a user who never saved anything
func DefaultProfile(userID string) *types.Profile {
	return &types.Profile{
		UserID:  userID,
		Config:  normalize.DefaultConfig(),
		Catalog: types.Catalog{},
	}
}

func cleanUserID(userID string) (string, error) {
	id, err := normalize.String(userID, "userId", normalize.StringOptions{MaxLength: 120})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Open builds the backend named by kind
func Open(ctx context.Context, opts Options) (*Store, error) {
	switch strings.ToLower(opts.Backend) {
	case "", "memory":
		return New(NewMemoryBackend()), nil
	case "postgres":
		backend, err := NewPostgresBackend(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return New(backend), nil
	case "dynamodb":
		backend, err := NewDynamoBackendFromEnv(ctx, opts.DynamoTable, opts.AWSRegion, opts.DynamoEndpoint)
		if err != nil {
			return nil, err
		}
		return New(backend), nil
	case "sqlite":
		backend, err := NewSQLiteBackend(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return New(backend), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// Options select and configure a backend
type Options struct {
	Backend        string
	DatabaseURL    string
	SQLitePath     string
	DynamoTable    string
	DynamoEndpoint string
	AWSRegion      string
}
