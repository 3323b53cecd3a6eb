package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warungkas/backend/internal/cache"
	"warungkas/backend/internal/domain"
	"warungkas/backend/internal/service"
	"warungkas/backend/internal/store"
)

func newIntegrationStore(t *testing.T) (*Store, string) {
	t.Helper()
	databaseURL := os.Getenv("WARUNGKAS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set WARUNGKAS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))

	storeID := fmt.Sprintf("it-store-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		for _, table := range []string{"orders", "restock_logs", "inventory_items", "general_expenses", "withdrawals", "audit_logs", "store_profiles"} {
			_, _ = s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE store_id = $1`, storeID)
		}
		_ = s.Close()
	})
	return s, storeID
}

func TestSugarLifecycleOnPostgres(t *testing.T) {
	s, storeID := newIntegrationStore(t)
	ctx := context.Background()
	svc := service.New(s, cache.NoopSnapshotCache{}, time.Second)

	first, err := svc.RecordRestock(ctx, storeID, domain.RestockRequest{
		ItemName:     "Gula",
		Unit:         "kg",
		Quantity:     domain.NumberFromInt(10),
		PricePerUnit: domain.NumberFromInt(10000),
		SellPrice:    domain.NumberFromInt(12000),
	})
	require.NoError(t, err)

	second, err := svc.RecordRestock(ctx, storeID, domain.RestockRequest{
		ItemName:     "gula",
		Quantity:     domain.NumberFromInt(10),
		PricePerUnit: domain.NumberFromInt(12000),
	})
	require.NoError(t, err)
	require.Equal(t, first.ItemID, second.ItemID)

	item, err := s.GetItem(ctx, storeID, first.ItemID)
	require.NoError(t, err)
	assert.True(t, item.Stock.Equal(decimal.NewFromInt(20)))
	assert.True(t, item.AvgCost.Equal(decimal.NewFromInt(11000)), "avg_cost=%s", item.AvgCost)

	created, err := svc.CreateOrder(ctx, storeID, domain.OrderCreateRequest{
		Items: []domain.OrderLineRequest{{ItemID: first.ItemID, Qty: domain.NumberFromInt(5), Price: domain.NumberFromInt(15000)}},
	})
	require.NoError(t, err)

	order, err := s.GetOrder(ctx, storeID, created.OrderID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].CostBasis.Equal(decimal.NewFromInt(11000)))
	assert.True(t, order.Financials.Revenue.Equal(decimal.NewFromInt(75000)))
	assert.True(t, order.Financials.COGS.Equal(decimal.NewFromInt(55000)))
	assert.True(t, order.Financials.GrossProfit.Equal(decimal.NewFromInt(20000)))

	_, err = svc.CorrectRestock(ctx, storeID, first.LogID, domain.RestockCorrectionRequest{
		ItemName:     "Gula",
		Quantity:     domain.NumberFromInt(15),
		PricePerUnit: domain.NumberFromInt(10000),
	})
	require.NoError(t, err)

	item, err = s.GetItem(ctx, storeID, first.ItemID)
	require.NoError(t, err)
	assert.True(t, item.Stock.Equal(decimal.NewFromInt(20)), "stock=%s", item.Stock)
	assert.True(t, item.AvgCost.Equal(decimal.NewFromInt(10750)), "avg_cost=%s", item.AvgCost)

	_, err = svc.VoidOrder(ctx, storeID, created.OrderID)
	require.NoError(t, err)

	item, err = s.GetItem(ctx, storeID, first.ItemID)
	require.NoError(t, err)
	assert.True(t, item.Stock.Equal(decimal.NewFromInt(25)))
	assert.True(t, item.AvgCost.Equal(decimal.NewFromInt(10750)))

	_, err = s.GetOrder(ctx, storeID, created.OrderID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentSalesNeverOversellOnPostgres(t *testing.T) {
	s, storeID := newIntegrationStore(t)
	ctx := context.Background()
	svc := service.New(s, cache.NoopSnapshotCache{}, time.Second)

	restock, err := svc.RecordRestock(ctx, storeID, domain.RestockRequest{
		ItemName:     "Minyak",
		Quantity:     domain.NumberFromInt(10),
		PricePerUnit: domain.NumberFromInt(14000),
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, short := 0, 0
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateOrder(ctx, storeID, domain.OrderCreateRequest{
				Items: []domain.OrderLineRequest{{ItemID: restock.ItemID, Qty: domain.NumberFromInt(3), Price: domain.NumberFromInt(16000)}},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, store.ErrInsufficientStock):
				short++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 5, short)

	item, err := s.GetItem(ctx, storeID, restock.ItemID)
	require.NoError(t, err)
	assert.True(t, item.Stock.Equal(decimal.NewFromInt(1)), "stock=%s", item.Stock)
}

func TestCrossedOrdersDoNotDeadlockOnPostgres(t *testing.T) {
	s, storeID := newIntegrationStore(t)
	ctx := context.Background()
	svc := service.New(s, cache.NoopSnapshotCache{}, time.Second)

	var ids []string
	for _, name := range []string{"Kopi", "Teh"} {
		resp, err := svc.RecordRestock(ctx, storeID, domain.RestockRequest{
			ItemName:     name,
			Quantity:     domain.NumberFromInt(100),
			PricePerUnit: domain.NumberFromInt(1000),
		})
		require.NoError(t, err)
		ids = append(ids, resp.ItemID)
	}

	var wg sync.WaitGroup
	for i := range 20 {
		first, second := ids[0], ids[1]
		if i%2 == 1 {
			first, second = second, first
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateOrder(ctx, storeID, domain.OrderCreateRequest{
				Items: []domain.OrderLineRequest{
					{ItemID: first, Qty: domain.NumberFromInt(1), Price: domain.NumberFromInt(1500)},
					{ItemID: second, Qty: domain.NumberFromInt(1), Price: domain.NumberFromInt(1500)},
				},
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for _, id := range ids {
		item, err := s.GetItem(ctx, storeID, id)
		require.NoError(t, err)
		assert.True(t, item.Stock.Equal(decimal.NewFromInt(80)), "stock=%s", item.Stock)
	}
}

func TestProfileAliasConflictOnPostgres(t *testing.T) {
	s, storeID := newIntegrationStore(t)
	ctx := context.Background()
	alias := fmt.Sprintf("it-%d", time.Now().UnixNano())
	other := storeID + "-other"
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM store_profiles WHERE store_id = $1`, other)
	})

	_, err := s.SaveStoreProfile(ctx, domain.StoreProfile{StoreID: storeID, Name: "Toko A", Alias: alias})
	require.NoError(t, err)

	resolved, err := s.ResolveStoreAlias(ctx, alias)
	require.NoError(t, err)
	assert.Equal(t, storeID, resolved)

	_, err = s.SaveStoreProfile(ctx, domain.StoreProfile{StoreID: other, Name: "Toko B", Alias: alias})
	assert.ErrorIs(t, err, store.ErrConflict)
}
