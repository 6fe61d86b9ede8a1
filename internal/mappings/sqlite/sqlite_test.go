package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dylanpinn/up-bank-lunch-money-sync/internal/mappings"
)

func openTestDB(t *testing.T) (*Store, *Store) {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "mappings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewStore(db, SpaceAccounts), NewStore(db, SpaceCategories)
}

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	accounts, _ := openTestDB(t)

	rec := mappings.Record{
		SourceID:    "acct-1",
		TargetID:    "42",
		DisplayName: "Spending",
		AccountKind: "TRANSACTIONAL",
	}
	require.NoError(t, accounts.Put(ctx, rec))

	got, err := accounts.Get(ctx, "acct-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec, *got)
}

func TestGetMissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	accounts, _ := openTestDB(t)

	got, err := accounts.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPutOverwritesLastWriteWins(t *testing.T) {
	ctx := context.Background()
	accounts, _ := openTestDB(t)

	require.NoError(t, accounts.Put(ctx, mappings.Record{SourceID: "acct-1", TargetID: "1"}))
	require.NoError(t, accounts.Put(ctx, mappings.Record{SourceID: "acct-1", TargetID: "2", DisplayName: "Renamed"}))

	got, err := accounts.Get(ctx, "acct-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2", got.TargetID)
	assert.Equal(t, "Renamed", got.DisplayName)
}

func TestSpacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	accounts, categories := openTestDB(t)

	require.NoError(t, accounts.Put(ctx, mappings.Record{SourceID: "same-id", TargetID: "1"}))
	require.NoError(t, categories.Put(ctx, mappings.Record{SourceID: "same-id", TargetID: "2", ParentID: "parent-1"}))

	acctRec, err := accounts.Get(ctx, "same-id")
	require.NoError(t, err)
	require.NotNil(t, acctRec)
	assert.Equal(t, "1", acctRec.TargetID)

	catRec, err := categories.Get(ctx, "same-id")
	require.NoError(t, err)
	require.NotNil(t, catRec)
	assert.Equal(t, "2", catRec.TargetID)
	assert.Equal(t, "parent-1", catRec.ParentID)
}

func TestPutRequiresSourceID(t *testing.T) {
	ctx := context.Background()
	accounts, _ := openTestDB(t)

	assert.Error(t, accounts.Put(ctx, mappings.Record{TargetID: "1"}))
}
