package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"warungkas/backend/internal/domain"
	"warungkas/backend/internal/store"
	"warungkas/backend/internal/xid"
)

// CreateItem registers an item with no stock. Stock arrives through restocks.
func (s *Service) CreateItem(ctx context.Context, storeID string, req domain.ItemCreateRequest) (domain.InventoryItem, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.TrimSpace(req.Unit)
	req.Category = strings.TrimSpace(req.Category)
	req.Barcode = strings.TrimSpace(req.Barcode)
	if err := s.validateRequest(req); err != nil {
		return domain.InventoryItem{}, err
	}
	rules := numberRules{}
	rules.nonNegative("sell_price", req.SellPrice.Decimal)
	rules.nonNegative("min_stock", req.MinStock.Decimal)
	if err := rules.err(); err != nil {
		return domain.InventoryItem{}, err
	}

	now := s.now()
	item := domain.InventoryItem{
		ID:        xid.New("itm"),
		StoreID:   storeID,
		Name:      req.Name,
		Stock:     decimal.Zero,
		Unit:      req.Unit,
		AvgCost:   decimal.Zero,
		SellPrice: req.SellPrice.Decimal,
		MinStock:  req.MinStock.Decimal,
		Category:  req.Category,
		Barcode:   req.Barcode,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.repo.WithinTx(ctx, storeID, func(tx store.Tx) error {
		return tx.InsertItem(ctx, item)
	})
	if err != nil {
		return domain.InventoryItem{}, err
	}

	s.committed(ctx, storeID, "item_create", "item", item.ID, "name="+item.Name)
	return item, nil
}

// UpdateItemDetails edits descriptive fields. Stock and average cost are not
// editable here.
func (s *Service) UpdateItemDetails(ctx context.Context, storeID string, itemID string, req domain.ItemUpdateRequest) (domain.InventoryItem, error) {
	itemID = strings.TrimSpace(itemID)
	if err := s.validateRequest(req); err != nil {
		return domain.InventoryItem{}, err
	}
	rules := numberRules{}
	if req.SellPrice != nil {
		rules.nonNegative("sell_price", req.SellPrice.Decimal)
	}
	if req.MinStock != nil {
		rules.nonNegative("min_stock", req.MinStock.Decimal)
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		rules["name"] = "must not be blank"
	}
	if err := rules.err(); err != nil {
		return domain.InventoryItem{}, err
	}

	var updated domain.InventoryItem
	err := s.repo.WithinTx(ctx, storeID, func(tx store.Tx) error {
		item, err := tx.LockItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("item %s: %w", itemID, err)
		}
		if req.Name != nil {
			item.Name = strings.TrimSpace(*req.Name)
		}
		if req.Unit != nil {
			item.Unit = strings.TrimSpace(*req.Unit)
		}
		if req.Category != nil {
			item.Category = strings.TrimSpace(*req.Category)
		}
		if req.Barcode != nil {
			item.Barcode = strings.TrimSpace(*req.Barcode)
		}
		if req.SellPrice != nil {
			item.SellPrice = req.SellPrice.Decimal
		}
		if req.MinStock != nil {
			item.MinStock = req.MinStock.Decimal
		}
		if err := tx.UpdateItemDetails(ctx, *item); err != nil {
			return err
		}
		updated = *item
		return nil
	})
	if err != nil {
		return domain.InventoryItem{}, err
	}

	s.committed(ctx, storeID, "item_update", "item", itemID, "name="+updated.Name)
	return updated, nil
}

// DeleteItem removes an item. Restock logs and order lines that mention it
// keep their copied name and id.
func (s *Service) DeleteItem(ctx context.Context, storeID string, itemID string) error {
	itemID = strings.TrimSpace(itemID)
	err := s.repo.WithinTx(ctx, storeID, func(tx store.Tx) error {
		if _, err := tx.LockItem(ctx, itemID); err != nil {
			return fmt.Errorf("item %s: %w", itemID, err)
		}
		return tx.DeleteItem(ctx, itemID)
	})
	if err != nil {
		return err
	}
	s.committed(ctx, storeID, "item_delete", "item", itemID, "")
	return nil
}
