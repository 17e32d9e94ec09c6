package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/AaronLay10/OrbFi/internal/storage"
	"github.com/AaronLay10/OrbFi/internal/storage/migrations"
	"github.com/AaronLay10/OrbFi/internal/storage/postgres"
)

// setupStore starts a PostgreSQL container and applies the embedded
// migrations.
func setupStore(t *testing.T) *postgres.Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("orbfi"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, migrations.RunPostgresMigrations(ctx, pool))
	// Migrations are idempotent.
	require.NoError(t, migrations.RunPostgresMigrations(ctx, pool))

	t.Cleanup(func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})
	return postgres.NewStore(pool)
}

func ptr[T any](v T) *T {
	return &v
}

func TestStore_DraftLifecycle(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	d, err := store.CreateDraft(ctx, storage.NewDraft{Prompt: "Buy BTC when RSI < 30", Template: "rsi-scalp"})
	require.NoError(t, err)
	assert.Equal(t, storage.DefaultDraftName(d.ID), d.Name)

	got, err := store.GetDraft(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.Prompt, got.Prompt)
	assert.Equal(t, "rsi-scalp", got.Template)

	u := storage.DraftUpdate{Document: ptr("<xml/>")}
	first, err := store.UpdateDraft(ctx, d.ID, u)
	require.NoError(t, err)
	second, err := store.UpdateDraft(ctx, d.ID, u)
	require.NoError(t, err)
	assert.Equal(t, first.Document, second.Document)
	assert.Equal(t, d.Name, second.Name)

	_, err = store.UpdateDraft(ctx, "missing", u)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	list, err := store.ListDrafts(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, store.DeleteDraft(ctx, d.ID))
	assert.ErrorIs(t, store.DeleteDraft(ctx, d.ID), storage.ErrNotFound)
}

func TestStore_PublishAndUpdateOrb(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	d, err := store.CreateDraft(ctx, storage.NewDraft{Prompt: "p", Document: "<xml>draft</xml>"})
	require.NoError(t, err)

	orb, err := store.Publish(ctx, d.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, storage.OrbActive, orb.Status)
	assert.Equal(t, "<xml>draft</xml>", orb.Document)
	assert.True(t, orb.Performance.PnL.IsZero())
	assert.Contains(t, storage.OrbEmojis, orb.Emoji)

	_, err = store.GetDraft(ctx, d.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.Publish(ctx, d.ID, nil)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	perf := storage.Performance{
		PnL:        decimal.RequireFromString("234.56"),
		PnLPercent: decimal.RequireFromString("12.4"),
		Trades:     47,
		WinRate:    decimal.RequireFromString("68.1"),
	}
	updated, err := store.UpdateOrb(ctx, orb.ID, storage.OrbUpdate{Status: ptr(storage.OrbPaused), Performance: &perf})
	require.NoError(t, err)
	assert.Equal(t, storage.OrbPaused, updated.Status)
	assert.True(t, perf.PnL.Equal(updated.Performance.PnL), "pnl %s", updated.Performance.PnL)
	assert.True(t, perf.WinRate.Equal(updated.Performance.WinRate))
	assert.Equal(t, 47, updated.Performance.Trades)

	// Partial updates leave the rest alone.
	renamed, err := store.UpdateOrb(ctx, orb.ID, storage.OrbUpdate{Name: ptr("ETH Scalp Bot")})
	require.NoError(t, err)
	assert.Equal(t, storage.OrbPaused, renamed.Status)
	assert.Equal(t, 47, renamed.Performance.Trades)

	_, err = store.UpdateOrb(ctx, orb.ID, storage.OrbUpdate{Status: ptr(storage.OrbStatus("exploded"))})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	orbs, err := store.ListOrbs(ctx)
	require.NoError(t, err)
	require.Len(t, orbs, 1)

	require.NoError(t, store.DeleteOrb(ctx, orb.ID))
	_, err = store.GetOrb(ctx, orb.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
