package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warungkas/backend/internal/domain"
	"warungkas/backend/internal/store"
)

func seedItem(t *testing.T, s *Store, storeID string, item domain.InventoryItem) {
	t.Helper()
	err := s.WithinTx(context.Background(), storeID, func(tx store.Tx) error {
		return tx.InsertItem(context.Background(), item)
	})
	require.NoError(t, err)
}

func TestFailedTransactionLeavesNothingBehind(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedItem(t, s, "store-a", domain.InventoryItem{ID: "itm-1", Name: "Gula", Stock: decimal.NewFromInt(10)})

	boom := errors.New("boom")
	err := s.WithinTx(ctx, "store-a", func(tx store.Tx) error {
		require.NoError(t, tx.UpdateItemLevels(ctx, "itm-1", decimal.NewFromInt(3), decimal.NewFromInt(9000)))
		require.NoError(t, tx.InsertOrder(ctx, domain.Order{ID: "ord-1", Items: []domain.OrderItem{{ItemID: "itm-1"}}}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	item, err := s.GetItem(ctx, "store-a", "itm-1")
	require.NoError(t, err)
	assert.True(t, item.Stock.Equal(decimal.NewFromInt(10)))
	_, err = s.GetOrder(ctx, "store-a", "ord-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCancelledContextAbortsCommit(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())

	err := s.WithinTx(ctx, "store-a", func(tx store.Tx) error {
		cancel()
		return tx.InsertItem(ctx, domain.InventoryItem{ID: "itm-1", Name: "Gula"})
	})
	require.ErrorIs(t, err, store.ErrTransactionFailure)

	_, err = s.GetItem(context.Background(), "store-a", "itm-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTransactionsAreScopedToOneStore(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedItem(t, s, "store-a", domain.InventoryItem{ID: "itm-1", Name: "Gula"})

	err := s.WithinTx(ctx, "store-b", func(tx store.Tx) error {
		_, err := tx.LockItem(ctx, "itm-1")
		return err
	})
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.WithinTx(ctx, " ", func(tx store.Tx) error { return nil })
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestLookupsPreferOldestItem(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedItem(t, s, "store-a", domain.InventoryItem{ID: "itm-b", Name: "Kopi", Barcode: "899", CreatedAt: base.Add(time.Hour)})
	seedItem(t, s, "store-a", domain.InventoryItem{ID: "itm-a", Name: "KOPI ", Barcode: "899", CreatedAt: base})

	err := s.WithinTx(ctx, "store-a", func(tx store.Tx) error {
		byName, err := tx.LockItemByName(ctx, "kopi")
		require.NoError(t, err)
		assert.Equal(t, "itm-a", byName.ID)

		byBarcode, err := tx.LockItemByBarcode(ctx, "899")
		require.NoError(t, err)
		assert.Equal(t, "itm-a", byBarcode.ID)

		_, err = tx.LockItemByBarcode(ctx, "")
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateItemDetailsNeverTouchesLevels(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedItem(t, s, "store-a", domain.InventoryItem{ID: "itm-1", Name: "Gula", Stock: decimal.NewFromInt(4), AvgCost: decimal.NewFromInt(11000)})

	err := s.WithinTx(ctx, "store-a", func(tx store.Tx) error {
		return tx.UpdateItemDetails(ctx, domain.InventoryItem{ID: "itm-1", Name: "Gula Pasir", Stock: decimal.NewFromInt(99)})
	})
	require.NoError(t, err)

	item, err := s.GetItem(ctx, "store-a", "itm-1")
	require.NoError(t, err)
	assert.Equal(t, "Gula Pasir", item.Name)
	assert.True(t, item.Stock.Equal(decimal.NewFromInt(4)))
	assert.True(t, item.AvgCost.Equal(decimal.NewFromInt(11000)))
}

func TestStoreAliasesAreUnique(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.SaveStoreProfile(ctx, domain.StoreProfile{StoreID: "store-a", Name: "A", Alias: "Warung-Sari"})
	require.NoError(t, err)
	storeID, err := s.ResolveStoreAlias(ctx, "warung-sari")
	require.NoError(t, err)
	assert.Equal(t, "store-a", storeID)

	_, err = s.SaveStoreProfile(ctx, domain.StoreProfile{StoreID: "store-b", Name: "B", Alias: "warung-sari"})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.SaveStoreProfile(ctx, domain.StoreProfile{StoreID: "store-a", Name: "A", Alias: "sari-baru"})
	require.NoError(t, err)
	_, err = s.ResolveStoreAlias(ctx, "warung-sari")
	assert.ErrorIs(t, err, store.ErrNotFound, "renaming frees the old alias")

	_, err = s.SaveStoreProfile(ctx, domain.StoreProfile{StoreID: "store-b", Name: "B", Alias: "warung-sari"})
	assert.NoError(t, err)
}

func TestAuditLogsAreNewestFirstPerStore(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, action := range []string{"first", "second", "third"} {
		require.NoError(t, s.CreateAuditLog(ctx, domain.AuditLog{StoreID: "store-a", Action: action}))
	}
	require.NoError(t, s.CreateAuditLog(ctx, domain.AuditLog{StoreID: "store-b", Action: "other"}))

	logs, err := s.ListAuditLogs(ctx, "store-a", 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "third", logs[0].Action)
	assert.Equal(t, "second", logs[1].Action)
}

func TestUsersAreKeyedByLowercaseEmail(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, domain.UserAccount{Email: "Owner@Warung.id", PasswordHash: "$2a$hash"}))
	user, err := s.GetUserByEmail(ctx, "owner@warung.id")
	require.NoError(t, err)
	assert.NotEmpty(t, user.UID)

	err = s.CreateUser(ctx, domain.UserAccount{Email: "OWNER@warung.id", PasswordHash: "$2a$hash"})
	assert.ErrorIs(t, err, store.ErrConflict)
}
