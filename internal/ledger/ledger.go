// Package ledger owns stock and weighted-average cost for inventory items.
// Every change to an item's stock or avg_cost goes through this package, and
// always inside the caller's storage transaction.
package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"warungkas/backend/internal/domain"
	"warungkas/backend/internal/store"
)

// CostScale is the number of decimal places kept on avg_cost.
const CostScale = 6

// ItemStore is the part of a store transaction the ledger works through.
type ItemStore interface {
	LockItem(ctx context.Context, itemID string) (*domain.InventoryItem, error)
	UpdateItemLevels(ctx context.Context, itemID string, stock decimal.Decimal, avgCost decimal.Decimal) error
	UpdateItemDetails(ctx context.Context, item domain.InventoryItem) error
}

// Inbound describes one purchase applied to an item. Empty strings and a
// non-positive SellPrice leave the item's current values alone.
type Inbound struct {
	Qty       decimal.Decimal
	UnitCost  decimal.Decimal
	SellPrice decimal.Decimal
	Supplier  string
	Unit      string
	Category  string
	Barcode   string
}

// Contribution is the qty and unit cost one restock added to an item.
type Contribution struct {
	Qty      decimal.Decimal
	UnitCost decimal.Decimal
}

// WeightedAverage returns the average cost after qty units at unitCost join
// curStock units at curAvg.
func WeightedAverage(curStock, curAvg, qty, unitCost decimal.Decimal) decimal.Decimal {
	total := curStock.Add(qty)
	if !total.IsPositive() {
		return unitCost.Round(CostScale)
	}
	value := curStock.Mul(curAvg).Add(qty.Mul(unitCost))
	return value.Div(total).Round(CostScale)
}

// ReplaceContribution swaps an old restock contribution for a new one
// without replaying history. When the resulting stock is not positive the
// current average is kept.
func ReplaceContribution(curStock, curAvg decimal.Decimal, old, next Contribution) (decimal.Decimal, decimal.Decimal) {
	valueWithoutOld := curStock.Mul(curAvg).Sub(old.Qty.Mul(old.UnitCost))
	newStock := curStock.Add(next.Qty.Sub(old.Qty))
	if !newStock.IsPositive() {
		return newStock, curAvg
	}
	newAvg := valueWithoutOld.Add(next.Qty.Mul(next.UnitCost)).Div(newStock).Round(CostScale)
	return newStock, newAvg
}

// IncreaseStock books an inbound purchase: stock grows by in.Qty and
// avg_cost becomes the weighted average. last_price always takes the unit
// cost. sell_price is replaced only by a positive value, and supplier, unit,
// category and barcode are replaced only when the purchase carries one.
func IncreaseStock(ctx context.Context, items ItemStore, itemID string, in Inbound) (*domain.InventoryItem, error) {
	item, err := items.LockItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	newAvg := WeightedAverage(item.Stock, item.AvgCost, in.Qty, in.UnitCost)
	item.Stock = item.Stock.Add(in.Qty)
	item.AvgCost = newAvg
	if err := items.UpdateItemLevels(ctx, item.ID, item.Stock, item.AvgCost); err != nil {
		return nil, err
	}

	item.LastPrice = in.UnitCost
	if in.SellPrice.IsPositive() {
		item.SellPrice = in.SellPrice
	}
	item.LastSupplier = coalesce(in.Supplier, item.LastSupplier)
	item.Unit = coalesce(in.Unit, item.Unit)
	item.Category = coalesce(in.Category, item.Category)
	item.Barcode = coalesce(in.Barcode, item.Barcode)
	if err := items.UpdateItemDetails(ctx, *item); err != nil {
		return nil, err
	}
	return item, nil
}

// DecreaseStock removes qty from a sale path. It refuses to take stock below
// zero and returns the item as it was before the decrement, so callers can
// freeze its avg_cost.
func DecreaseStock(ctx context.Context, items ItemStore, itemID string, qty decimal.Decimal) (*domain.InventoryItem, error) {
	item, err := items.LockItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Stock.Sub(qty).IsNegative() {
		return nil, &store.StockShortfallError{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Available: item.Stock,
			Requested: qty,
		}
	}
	if err := items.UpdateItemLevels(ctx, item.ID, item.Stock.Sub(qty), item.AvgCost); err != nil {
		return nil, err
	}
	return item, nil
}

// ReturnStock puts sold units back. avg_cost does not move.
func ReturnStock(ctx context.Context, items ItemStore, itemID string, qty decimal.Decimal) (*domain.InventoryItem, error) {
	item, err := items.LockItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	item.Stock = item.Stock.Add(qty)
	if err := items.UpdateItemLevels(ctx, item.ID, item.Stock, item.AvgCost); err != nil {
		return nil, err
	}
	return item, nil
}

// ReverseRestockContribution replaces what one restock contributed to an
// item. The resulting stock may be negative.
func ReverseRestockContribution(ctx context.Context, items ItemStore, itemID string, old Contribution, next Contribution) (*domain.InventoryItem, error) {
	item, err := items.LockItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	item.Stock, item.AvgCost = ReplaceContribution(item.Stock, item.AvgCost, old, next)
	if err := items.UpdateItemLevels(ctx, item.ID, item.Stock, item.AvgCost); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveRestockedStock takes back the units of a deleted restock. Going
// below zero needs allowNegative.
func RemoveRestockedStock(ctx context.Context, items ItemStore, itemID string, qty decimal.Decimal, allowNegative bool) (*domain.InventoryItem, error) {
	item, err := items.LockItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	remaining := item.Stock.Sub(qty)
	if remaining.IsNegative() && !allowNegative {
		return nil, fmt.Errorf("reversal needs confirmation: %w", &store.StockShortfallError{
			ItemID:    item.ID,
			ItemName:  item.Name,
			Available: item.Stock,
			Requested: qty,
		})
	}
	item.Stock = remaining
	if err := items.UpdateItemLevels(ctx, item.ID, item.Stock, item.AvgCost); err != nil {
		return nil, err
	}
	return item, nil
}

func coalesce(value string, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}
