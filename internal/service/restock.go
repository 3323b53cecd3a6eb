package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"warungkas/backend/internal/domain"
	"warungkas/backend/internal/ledger"
	"warungkas/backend/internal/store"
	"warungkas/backend/internal/xid"
)

func (s *Service) RecordRestock(ctx context.Context, storeID string, req domain.RestockRequest) (domain.RestockResponse, error) {
	req.ExistingID = strings.TrimSpace(req.ExistingID)
	req.ItemName = strings.TrimSpace(req.ItemName)
	req.Barcode = strings.TrimSpace(req.Barcode)
	req.Category = strings.TrimSpace(req.Category)
	req.Unit = strings.TrimSpace(req.Unit)
	req.Supplier = strings.TrimSpace(req.Supplier)

	if err := s.validateRequest(req); err != nil {
		return domain.RestockResponse{}, err
	}
	rules := numberRules{}
	rules.positive("quantity", req.Quantity.Decimal)
	rules.nonNegative("price_per_unit", req.PricePerUnit.Decimal)
	rules.nonNegative("sell_price", req.SellPrice.Decimal)
	if err := rules.err(); err != nil {
		return domain.RestockResponse{}, err
	}
	inputDate, err := s.parseDate("date", req.Date, s.now())
	if err != nil {
		return domain.RestockResponse{}, err
	}

	var resp domain.RestockResponse
	err = s.repo.WithinTx(ctx, storeID, func(tx store.Tx) error {
		target, err := resolveRestockTarget(ctx, tx, req)
		if errors.Is(err, store.ErrNotFound) && req.ExistingID == "" {
			target, err = s.insertItemForRestock(ctx, tx, req)
		}
		if err != nil {
			return err
		}

		item, err := ledger.IncreaseStock(ctx, tx, target.ID, ledger.Inbound{
			Qty:       req.Quantity.Decimal,
			UnitCost:  req.PricePerUnit.Decimal,
			SellPrice: req.SellPrice.Decimal,
			Supplier:  req.Supplier,
			Unit:      req.Unit,
			Category:  req.Category,
			Barcode:   req.Barcode,
		})
		if err != nil {
			return err
		}

		entry := domain.RestockLog{
			ID:           xid.New("rst"),
			ItemID:       item.ID,
			ItemName:     defaultString(req.ItemName, item.Name),
			Qty:          req.Quantity.Decimal,
			Unit:         item.Unit,
			PricePerUnit: req.PricePerUnit.Decimal,
			TotalCost:    req.Quantity.Mul(req.PricePerUnit.Decimal),
			Supplier:     req.Supplier,
			InputDate:    inputDate,
			Barcode:      item.Barcode,
			Category:     item.Category,
			Status:       domain.RestockCommitted,
			CreatedAt:    s.now(),
		}
		if err := tx.InsertRestockLog(ctx, entry); err != nil {
			return err
		}

		resp = domain.RestockResponse{ItemID: item.ID, LogID: entry.ID}
		return nil
	})
	if err != nil {
		return domain.RestockResponse{}, err
	}

	s.committed(ctx, storeID, "restock_create", "restock", resp.LogID,
		fmt.Sprintf("item=%s,qty=%s,price=%s", resp.ItemID, req.Quantity.String(), req.PricePerUnit.String()))
	return resp, nil
}

// resolveRestockTarget finds the item a restock applies to: explicit id,
// then barcode, then case-insensitive name. The first match wins.
func resolveRestockTarget(ctx context.Context, tx store.Tx, req domain.RestockRequest) (*domain.InventoryItem, error) {
	if req.ExistingID != "" {
		item, err := tx.LockItem(ctx, req.ExistingID)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", req.ExistingID, err)
		}
		return item, nil
	}
	if req.Barcode != "" {
		item, err := tx.LockItemByBarcode(ctx, req.Barcode)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return tx.LockItemByName(ctx, req.ItemName)
}

func (s *Service) insertItemForRestock(ctx context.Context, tx store.Tx, req domain.RestockRequest) (*domain.InventoryItem, error) {
	if req.ItemName == "" {
		return nil, store.NewValidationError("item_name", "required")
	}
	now := s.now()
	item := domain.InventoryItem{
		ID:        xid.New("itm"),
		StoreID:   tx.StoreID(),
		Name:      req.ItemName,
		Stock:     decimal.Zero,
		AvgCost:   decimal.Zero,
		Unit:      req.Unit,
		Category:  req.Category,
		Barcode:   req.Barcode,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.InsertItem(ctx, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CorrectRestock rewrites a past purchase. The item's stock and average
// cost move by the difference between the old and new contribution, and
// the item's descriptive fields take the corrected values.
func (s *Service) CorrectRestock(ctx context.Context, storeID string, logID string, req domain.RestockCorrectionRequest) (domain.SuccessResponse, error) {
	logID = strings.TrimSpace(logID)
	req.ItemName = strings.TrimSpace(req.ItemName)
	req.Barcode = strings.TrimSpace(req.Barcode)
	req.Category = strings.TrimSpace(req.Category)
	req.Unit = strings.TrimSpace(req.Unit)
	req.Supplier = strings.TrimSpace(req.Supplier)

	if logID == "" {
		return domain.SuccessResponse{}, store.NewValidationError("log_id", "required")
	}
	if err := s.validateRequest(req); err != nil {
		return domain.SuccessResponse{}, err
	}
	rules := numberRules{}
	rules.positive("quantity", req.Quantity.Decimal)
	rules.nonNegative("price_per_unit", req.PricePerUnit.Decimal)
	rules.nonNegative("sell_price", req.SellPrice.Decimal)
	if err := rules.err(); err != nil {
		return domain.SuccessResponse{}, err
	}

	resp := domain.SuccessResponse{Success: true}
	err := s.repo.WithinTx(ctx, storeID, func(tx store.Tx) error {
		entry, err := tx.LockRestockLog(ctx, logID)
		if err != nil {
			return fmt.Errorf("restock %s: %w", logID, err)
		}
		if !entry.Status.CanBecome(domain.RestockCorrected) {
			return fmt.Errorf("restock %s is %s: %w", logID, entry.Status, store.ErrConflict)
		}
		inputDate, err := s.parseDate("date", req.Date, entry.InputDate)
		if err != nil {
			return err
		}

		if entry.ItemID != "" {
			item, err := ledger.ReverseRestockContribution(ctx, tx, entry.ItemID,
				ledger.Contribution{Qty: entry.Qty, UnitCost: entry.PricePerUnit},
				ledger.Contribution{Qty: req.Quantity.Decimal, UnitCost: req.PricePerUnit.Decimal},
			)
			switch {
			case errors.Is(err, store.ErrNotFound):
				log.Info().Str("store_id", storeID).Str("log_id", logID).Str("item_id", entry.ItemID).
					Msg("restock correction on a deleted item, ledger untouched")
			case err != nil:
				return err
			default:
				item.Name = req.ItemName
				item.Barcode = req.Barcode
				item.Category = req.Category
				item.LastSupplier = req.Supplier
				item.Unit = defaultString(req.Unit, item.Unit)
				if req.SellPrice.IsPositive() {
					item.SellPrice = req.SellPrice.Decimal
				}
				if err := tx.UpdateItemDetails(ctx, *item); err != nil {
					return err
				}
				if item.Stock.IsNegative() {
					resp.Warnings = append(resp.Warnings, negativeStockWarning(*item))
					log.Warn().Str("store_id", storeID).Str("item_id", item.ID).Str("stock", item.Stock.String()).
						Msg("restock correction left stock negative")
				}
			}
		}

		entry.ItemName = req.ItemName
		entry.Qty = req.Quantity.Decimal
		entry.PricePerUnit = req.PricePerUnit.Decimal
		entry.TotalCost = req.Quantity.Mul(req.PricePerUnit.Decimal)
		entry.Unit = defaultString(req.Unit, entry.Unit)
		entry.Supplier = req.Supplier
		entry.Barcode = req.Barcode
		entry.Category = req.Category
		entry.InputDate = inputDate
		entry.Status = domain.RestockCorrected
		return tx.UpdateRestockLog(ctx, *entry)
	})
	if err != nil {
		return domain.SuccessResponse{}, err
	}

	s.committed(ctx, storeID, "restock_correct", "restock", logID,
		fmt.Sprintf("qty=%s,price=%s", req.Quantity.String(), req.PricePerUnit.String()))
	return resp, nil
}

// ReverseRestock deletes a purchase and takes its units back out of stock.
// Taking stock below zero requires req.AllowNegative.
func (s *Service) ReverseRestock(ctx context.Context, storeID string, logID string, req domain.RestockReversalRequest) (domain.SuccessResponse, error) {
	logID = strings.TrimSpace(logID)
	if logID == "" {
		return domain.SuccessResponse{}, store.NewValidationError("log_id", "required")
	}

	resp := domain.SuccessResponse{Success: true}
	var removed decimal.Decimal
	err := s.repo.WithinTx(ctx, storeID, func(tx store.Tx) error {
		entry, err := tx.LockRestockLog(ctx, logID)
		if err != nil {
			return fmt.Errorf("restock %s: %w", logID, err)
		}
		if !entry.Status.CanBecome(domain.RestockReversed) {
			return fmt.Errorf("restock %s is %s: %w", logID, entry.Status, store.ErrConflict)
		}
		removed = entry.Qty

		if entry.ItemID != "" {
			item, err := ledger.RemoveRestockedStock(ctx, tx, entry.ItemID, entry.Qty, req.AllowNegative)
			switch {
			case errors.Is(err, store.ErrNotFound):
				log.Info().Str("store_id", storeID).Str("log_id", logID).Str("item_id", entry.ItemID).
					Msg("restock reversal on a deleted item, ledger untouched")
			case err != nil:
				return err
			case item.Stock.IsNegative():
				resp.Warnings = append(resp.Warnings, negativeStockWarning(*item))
				log.Warn().Str("store_id", storeID).Str("item_id", item.ID).Str("stock", item.Stock.String()).
					Msg("restock reversal left stock negative")
			}
		}
		return tx.DeleteRestockLog(ctx, logID)
	})
	if err != nil {
		return domain.SuccessResponse{}, err
	}

	s.committed(ctx, storeID, "restock_delete", "restock", logID,
		fmt.Sprintf("qty=%s,allow_negative=%t", removed.String(), req.AllowNegative))
	return resp, nil
}

func negativeStockWarning(item domain.InventoryItem) string {
	return fmt.Sprintf("stock for %s is now %s", item.Name, item.Stock.String())
}
