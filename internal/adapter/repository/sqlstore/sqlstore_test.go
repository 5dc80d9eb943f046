package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bharadwajkrishnan/finai/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(DriverSQLite, filepath.Join(t.TempDir(), "finai.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func TestNewDB_UnsupportedDriver(t *testing.T) {
	_, err := NewDB("mysql", "whatever")
	assert.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.Migrate())
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	lite := &DB{driver: DriverSQLite}

	q := "SELECT a FROM t WHERE b = ? AND c = ?"
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}

func TestOrderRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepository(newTestDB(t))
	key := domain.Key(domain.CategoryMutualFunds, domain.MarketEurope)

	_, ok, err := repo.Load(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Save(ctx, key, []string{"3", "1", "2"}))
	ids, ok, err := repo.Load(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"3", "1", "2"}, ids)

	require.NoError(t, repo.Save(ctx, key, nil))
	ids, ok, err = repo.Load(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, ids)

	// other buckets are independent
	_, ok, err = repo.Load(ctx, domain.Key(domain.CategoryMutualFunds, domain.MarketIndia))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderRepository_IgnoresUnknownSchema(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	key := domain.Key(domain.CategoryStocks, domain.MarketIndia)

	_, err := db.ExecContext(ctx, `INSERT INTO view_preferences (pref_key, schema_version, ids) VALUES (?, 99, '["a"]')`, OrderKey(key))
	require.NoError(t, err)

	_, ok, err := repo.Load(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderRepository_IgnoresMalformedPayload(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	key := domain.Key(domain.CategoryStocks, domain.MarketIndia)

	_, err := db.ExecContext(ctx, `INSERT INTO view_preferences (pref_key, schema_version, ids) VALUES (?, 1, 'not json')`, OrderKey(key))
	require.NoError(t, err)

	_, ok, err := repo.Load(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderKey(t *testing.T) {
	assert.Equal(t, "asset_order_fixedDeposits_india", OrderKey(domain.Key(domain.CategoryFixedDeposits, domain.MarketIndia)))
}

func TestTokenRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewTokenRepository(newTestDB(t))

	tokens, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, tokens.AccessToken)

	require.NoError(t, repo.Set(ctx, domain.Tokens{AccessToken: "a1", RefreshToken: "r1"}))
	require.NoError(t, repo.Set(ctx, domain.Tokens{AccessToken: "a2", RefreshToken: "r2"}))

	tokens, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Tokens{AccessToken: "a2", RefreshToken: "r2"}, tokens)

	require.NoError(t, repo.Clear(ctx))
	tokens, err = repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Tokens{}, tokens)
}
