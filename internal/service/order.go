package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"warungkas/backend/internal/domain"
	"warungkas/backend/internal/ledger"
	"warungkas/backend/internal/store"
	"warungkas/backend/internal/xid"
)

type saleLine struct {
	itemID string
	qty    decimal.Decimal
	price  decimal.Decimal
}

func (s *Service) CreateOrder(ctx context.Context, storeID string, req domain.OrderCreateRequest) (domain.OrderCreateResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return domain.OrderCreateResponse{}, err
	}
	lines, err := saleLines(req.Items)
	if err != nil {
		return domain.OrderCreateResponse{}, err
	}
	date, err := s.parseDate("date", req.Date, s.now())
	if err != nil {
		return domain.OrderCreateResponse{}, err
	}
	paymentStatus := req.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = domain.PaymentPaid
	}
	if !paymentStatus.Valid() {
		return domain.OrderCreateResponse{}, store.NewValidationError("payment_status", "must be Lunas or Belum Lunas")
	}
	cashierName := strings.TrimSpace(req.CashierName)
	if identity, ok := IdentityFromContext(ctx); ok && cashierName == "" {
		cashierName = identity.Name
	}

	now := s.now()
	order := domain.Order{
		ID:            xid.New("ord"),
		StoreID:       storeID,
		Type:          domain.OrderTypeSale,
		Date:          date,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		Notes:         strings.TrimSpace(req.Notes),
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
		PaymentStatus: paymentStatus,
		CashierName:   cashierName,
		Status:        domain.OrderCommitted,
		Expenses:      []domain.OrderExpense{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.repo.WithinTx(ctx, storeID, func(tx store.Tx) error {
		items, err := applySale(ctx, tx, lines)
		if err != nil {
			return err
		}
		order.Items = items
		order.Financials = ComputeFinancials(items, decimal.Zero)
		return tx.InsertOrder(ctx, order)
	})
	if err != nil {
		return domain.OrderCreateResponse{}, err
	}

	s.committed(ctx, storeID, "order_create", "order", order.ID,
		fmt.Sprintf("lines=%d,revenue=%s,cogs=%s", len(order.Items), order.Financials.Revenue.String(), order.Financials.COGS.String()))
	return domain.OrderCreateResponse{OrderID: order.ID}, nil
}

// ReviseOrder replaces an order's lines. All original quantities go back to
// stock first, then the new lines are checked and taken against the
// restored stock. Order expenses carry over.
func (s *Service) ReviseOrder(ctx context.Context, storeID string, orderID string, req domain.OrderReviseRequest) (domain.SuccessResponse, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.SuccessResponse{}, store.NewValidationError("order_id", "required")
	}
	if err := s.validateRequest(req); err != nil {
		return domain.SuccessResponse{}, err
	}
	lines, err := saleLines(req.Items)
	if err != nil {
		return domain.SuccessResponse{}, err
	}
	meta := req.Metadata
	if meta.PaymentStatus != "" && !meta.PaymentStatus.Valid() {
		return domain.SuccessResponse{}, store.NewValidationError("metadata.payment_status", "must be Lunas or Belum Lunas")
	}

	err = s.repo.WithinTx(ctx, storeID, func(tx store.Tx) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("order %s: %w", orderID, err)
		}
		if !order.Status.CanBecome(domain.OrderRevised) {
			return fmt.Errorf("order %s is %s: %w", orderID, order.Status, store.ErrConflict)
		}
		nextPayment := order.PaymentStatus
		if meta.PaymentStatus != "" {
			nextPayment = meta.PaymentStatus
		}
		if !order.PaymentStatus.CanBecome(nextPayment) {
			return fmt.Errorf("order %s cannot go from %s to %s: %w", orderID, order.PaymentStatus, nextPayment, store.ErrConflict)
		}
		date, err := s.parseDate("metadata.date", meta.Date, order.Date)
		if err != nil {
			return err
		}

		if err := lockItems(ctx, tx, append(orderItemIDs(order.Items), saleItemIDs(lines)...)); err != nil {
			return err
		}
		if err := returnLines(ctx, tx, order.Items); err != nil {
			return err
		}
		items, err := applySale(ctx, tx, lines)
		if err != nil {
			return err
		}

		order.Items = items
		order.Financials = ComputeFinancials(items, order.Financials.ExpenseTotal)
		order.Date = date
		order.CustomerName = strings.TrimSpace(meta.CustomerName)
		order.Notes = strings.TrimSpace(meta.Notes)
		order.PaymentMethod = strings.TrimSpace(meta.PaymentMethod)
		order.PaymentStatus = nextPayment
		order.Status = domain.OrderRevised
		order.UpdatedAt = s.now()
		if err := tx.UpdateOrder(ctx, *order); err != nil {
			return err
		}
		return tx.ReplaceOrderItems(ctx, orderID, items)
	})
	if err != nil {
		return domain.SuccessResponse{}, err
	}

	s.committed(ctx, storeID, "order_revise", "order", orderID, fmt.Sprintf("lines=%d", len(lines)))
	return domain.SuccessResponse{Success: true}, nil
}

func (s *Service) MarkPaid(ctx context.Context, storeID string, orderID string) (domain.SuccessResponse, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.SuccessResponse{}, store.NewValidationError("order_id", "required")
	}

	err := s.repo.WithinTx(ctx, storeID, func(tx store.Tx) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("order %s: %w", orderID, err)
		}
		if !order.PaymentStatus.CanBecome(domain.PaymentPaid) {
			return fmt.Errorf("order %s cannot be marked paid from %s: %w", orderID, order.PaymentStatus, store.ErrConflict)
		}
		order.PaymentStatus = domain.PaymentPaid
		order.UpdatedAt = s.now()
		return tx.UpdateOrder(ctx, *order)
	})
	if err != nil {
		return domain.SuccessResponse{}, err
	}

	s.committed(ctx, storeID, "order_mark_paid", "order", orderID, "")
	return domain.SuccessResponse{Success: true}, nil
}

// VoidOrder deletes an order and returns every line to stock.
func (s *Service) VoidOrder(ctx context.Context, storeID string, orderID string) (domain.SuccessResponse, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.SuccessResponse{}, store.NewValidationError("order_id", "required")
	}

	var lines int
	err := s.repo.WithinTx(ctx, storeID, func(tx store.Tx) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("order %s: %w", orderID, err)
		}
		if !order.Status.CanBecome(domain.OrderVoided) {
			return fmt.Errorf("order %s is %s: %w", orderID, order.Status, store.ErrConflict)
		}
		lines = len(order.Items)
		if err := returnLines(ctx, tx, order.Items); err != nil {
			return err
		}
		return tx.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return domain.SuccessResponse{}, err
	}

	s.committed(ctx, storeID, "order_void", "order", orderID, fmt.Sprintf("lines=%d", lines))
	return domain.SuccessResponse{Success: true}, nil
}

// ComputeFinancials derives an order's figures from its lines. Each line's
// cost basis is used as stored.
func ComputeFinancials(items []domain.OrderItem, expenseTotal decimal.Decimal) domain.Financials {
	revenue := decimal.Zero
	cogs := decimal.Zero
	for _, item := range items {
		revenue = revenue.Add(item.Subtotal)
		cogs = cogs.Add(item.CostBasis.Mul(item.Qty))
	}
	gross := revenue.Sub(cogs)
	return domain.Financials{
		Revenue:      revenue,
		COGS:         cogs,
		GrossProfit:  gross,
		ExpenseTotal: expenseTotal,
		NetProfit:    gross.Sub(expenseTotal),
	}
}

func saleLines(items []domain.OrderLineRequest) ([]saleLine, error) {
	rules := numberRules{}
	lines := make([]saleLine, 0, len(items))
	for i, item := range items {
		rules.positive(fmt.Sprintf("items[%d].qty", i), item.Qty.Decimal)
		rules.nonNegative(fmt.Sprintf("items[%d].price", i), item.Price.Decimal)
		lines = append(lines, saleLine{
			itemID: strings.TrimSpace(item.ItemID),
			qty:    item.Qty.Decimal,
			price:  item.Price.Decimal,
		})
	}
	if err := rules.err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// applySale takes each line out of stock in order. A later line for the same
// item sees the stock left by earlier lines. The cost basis of a line is the
// item's average cost at the moment it is taken.
func applySale(ctx context.Context, tx store.Tx, lines []saleLine) ([]domain.OrderItem, error) {
	if err := lockItems(ctx, tx, saleItemIDs(lines)); err != nil {
		return nil, err
	}
	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		before, err := ledger.DecreaseStock(ctx, tx, line.itemID, line.qty)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("item %s: %w", line.itemID, err)
			}
			return nil, err
		}
		items = append(items, domain.OrderItem{
			ItemID:    before.ID,
			Name:      before.Name,
			Qty:       line.qty,
			Unit:      before.Unit,
			Price:     line.price,
			Subtotal:  line.qty.Mul(line.price),
			CostBasis: before.AvgCost,
		})
	}
	return items, nil
}

// returnLines puts sold quantities back. Lines whose item has since been
// deleted are skipped.
func returnLines(ctx context.Context, tx store.Tx, items []domain.OrderItem) error {
	if err := lockItems(ctx, tx, orderItemIDs(items)); err != nil {
		return err
	}
	for _, item := range items {
		if item.ItemID == "" {
			continue
		}
		_, err := ledger.ReturnStock(ctx, tx, item.ItemID, item.Qty)
		if errors.Is(err, store.ErrNotFound) {
			log.Info().Str("store_id", tx.StoreID()).Str("item_id", item.ItemID).Msg("skipping stock return for deleted item")
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// lockItems takes the item row locks in ascending id order before any line
// is applied, so two orders touching the same items queue instead of
// deadlocking. Missing items are left for the per-line pass to report.
func lockItems(ctx context.Context, tx store.Tx, ids []string) error {
	ids = slices.Compact(slices.Sorted(slices.Values(ids)))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, err := tx.LockItem(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}

func saleItemIDs(lines []saleLine) []string {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.itemID)
	}
	return ids
}

func orderItemIDs(items []domain.OrderItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ItemID)
	}
	return ids
}
