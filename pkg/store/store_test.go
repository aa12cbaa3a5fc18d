package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hvacbridge/estimator/pkg/normalize"
	"github.com/hvacbridge/estimator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]ddbtypes.AttributeValue
	err   error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]ddbtypes.AttributeValue)}
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	key := in.Key["user_id"].(*ddbtypes.AttributeValueMemberS).Value
	return &dynamodb.GetItemOutput{Item: f.items[key]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	key := in.Item["user_id"].(*ddbtypes.AttributeValueMemberS).Value
	f.items[key] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DescribeTable(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{}, f.err
}

func sampleItems() []map[string]any {
	return []map[string]any{
		{
			"sku":               "Cond-3T",
			"name":              "3 Ton Condenser",
			"itemType":          "equipment",
			"unitCost":          2400,
			"defaultLaborHours": 6,
			"attributes":        map[string]any{"brand": "Goodman", "tonnage": 3},
		},
		{"sku": "PAD", "name": "Equipment pad", "unitCost": "45.50"},
	}
}

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	sqlite, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "profiles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	out := map[string]Backend{
		"memory":   NewMemoryBackend(),
		"sqlite":   sqlite,
		"dynamodb": NewDynamoBackend(newFakeDynamo(), ""),
	}

	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		pg, err := NewPostgresBackend(context.Background(), url)
		require.NoError(t, err)
		t.Cleanup(func() { pg.Close() })
		out["postgres"] = pg
	}
	return out
}

func TestStore_DefaultProfile(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(backend)
			profile, err := s.GetProfile(context.Background(), "missing-user-"+name)
			require.NoError(t, err)

			assert.Equal(t, normalize.DefaultConfig(), profile.Config)
			assert.NotNil(t, profile.Catalog)
			assert.Empty(t, profile.Catalog)
			assert.True(t, profile.UpdatedAt.IsZero())
		})
	}
}

func TestStore_SaveConfigMergesPatches(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(backend)
			fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
			s.now = func() time.Time { return fixed }
			user := "config-user-" + name

			_, err := s.SaveConfig(ctx, user, map[string]any{"businessName": "Cool Air", "targetGrossMargin": 0.45})
			require.NoError(t, err)
			cfg, err := s.SaveConfig(ctx, user, map[string]any{"laborRatePerHour": "140"})
			require.NoError(t, err)

			assert.Equal(t, "Cool Air", cfg.BusinessName)
			assert.Equal(t, 0.45, cfg.TargetGrossMargin)
			assert.Equal(t, 140.0, cfg.LaborRatePerHour)

			profile, err := s.GetProfile(ctx, user)
			require.NoError(t, err)
			assert.Equal(t, cfg, profile.Config)
			assert.True(t, fixed.Equal(profile.UpdatedAt))
		})
	}
}

func TestStore_ReplaceCatalog(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := New(backend)
			user := "catalog-user-" + name

			catalog, err := s.ReplaceCatalog(ctx, user, sampleItems())
			require.NoError(t, err)
			require.Len(t, catalog, 2)

			profile, err := s.GetProfile(ctx, user)
			require.NoError(t, err)
			require.Len(t, profile.Catalog, 2)

			cond := profile.Catalog.BySKU()["Cond-3T"]
			assert.Equal(t, types.ItemEquipment, cond.ItemType)
			assert.Equal(t, "Goodman", cond.Attributes.Brand)
			require.NotNil(t, cond.Attributes.Tonnage)
			assert.Equal(t, 3.0, *cond.Attributes.Tonnage)

			pad := profile.Catalog.BySKU()["PAD"]
			assert.Equal(t, types.ItemPart, pad.ItemType)
			assert.Equal(t, 45.5, pad.UnitCost)
			assert.True(t, pad.Taxable)

			_, err = s.ReplaceCatalog(ctx, user, []map[string]any{})
			require.NoError(t, err)
			profile, err = s.GetProfile(ctx, user)
			require.NoError(t, err)
			assert.Empty(t, profile.Catalog)
		})
	}
}

func TestStore_InvalidInputLeavesProfileUntouched(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend())

	_, err := s.SaveConfig(ctx, "u1", map[string]any{"businessName": "Before"})
	require.NoError(t, err)

	_, err = s.SaveConfig(ctx, "u1", map[string]any{"targetGrossMargin": 150})
	require.Error(t, err)
	_, ok := normalize.AsValidation(err)
	assert.True(t, ok)

	_, err = s.ReplaceCatalog(ctx, "u1", []map[string]any{{"sku": "", "name": "x"}})
	require.Error(t, err)

	profile, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Before", profile.Config.BusinessName)
}

func TestStore_RejectsBlankUser(t *testing.T) {
	s := New(NewMemoryBackend())
	_, err := s.GetProfile(context.Background(), "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "userId cannot be empty")
}

func TestStore_Import(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryBackend())

	profile, err := s.Import(ctx, "u1", map[string]any{"currency": "cad"}, sampleItems())
	require.NoError(t, err)
	assert.Len(t, profile.Catalog, 2)

	loaded, err := s.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, profile.Config, loaded.Config)
	assert.Len(t, loaded.Catalog, 2)
}

func TestStore_BackendErrorsAreWrapped(t *testing.T) {
	fake := newFakeDynamo()
	fake.err = errors.New("throttled")
	s := New(NewDynamoBackend(fake, "profiles"))

	_, err := s.GetProfile(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load profile u1")
	assert.ErrorIs(t, err, fake.err)
	assert.Error(t, s.Ping(context.Background()))
}

func TestMemoryBackend_CopiesCatalog(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	profile := &types.Profile{UserID: "u1", Catalog: types.Catalog{{SKU: "A", Name: "A"}}}
	require.NoError(t, backend.Save(ctx, profile))

	profile.Catalog[0].Name = "mutated"
	loaded, err := backend.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "A", loaded.Catalog[0].Name)
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "memory", s.Backend())

	s, err = Open(context.Background(), Options{Backend: "SQLite", SQLitePath: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, "sqlite", s.Backend())
	assert.NoError(t, s.Ping(context.Background()))

	_, err = Open(context.Background(), Options{Backend: "redis"})
	assert.EqualError(t, err, `unknown store backend "redis"`)

	_, err = Open(context.Background(), Options{Backend: "postgres"})
	assert.Error(t, err)
}
