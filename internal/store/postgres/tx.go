package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	"warungkas/backend/internal/domain"
	"warungkas/backend/internal/store"
)

// txStore implements store.Tx on top of one *sql.Tx. Every statement carries
// the store_id predicate.
type txStore struct {
	tx      *sql.Tx
	storeID string
}

func (t *txStore) StoreID() string {
	return t.storeID
}

func (t *txStore) LockItem(ctx context.Context, itemID string) (*domain.InventoryItem, error) {
	item, err := scanItem(t.tx.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM inventory_items
		WHERE store_id = $1 AND id = $2
		FOR UPDATE
	`, t.storeID, itemID))
	if err != nil {
		return nil, notFound(err)
	}
	return item, nil
}

func (t *txStore) LockItemByBarcode(ctx context.Context, barcode string) (*domain.InventoryItem, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, store.ErrNotFound
	}
	item, err := scanItem(t.tx.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM inventory_items
		WHERE store_id = $1 AND barcode = $2
		ORDER BY created_at ASC, id ASC
		LIMIT 1
		FOR UPDATE
	`, t.storeID, barcode))
	if err != nil {
		return nil, notFound(err)
	}
	return item, nil
}

func (t *txStore) LockItemByName(ctx context.Context, name string) (*domain.InventoryItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, store.ErrNotFound
	}
	item, err := scanItem(t.tx.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM inventory_items
		WHERE store_id = $1 AND lower(btrim(name)) = lower($2)
		ORDER BY created_at ASC, id ASC
		LIMIT 1
		FOR UPDATE
	`, t.storeID, name))
	if err != nil {
		return nil, notFound(err)
	}
	return item, nil
}

func (t *txStore) InsertItem(ctx context.Context, item domain.InventoryItem) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO inventory_items (
			id, store_id, name, stock, unit, avg_cost, last_price, sell_price,
			min_stock, last_supplier, category, barcode, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, item.ID, t.storeID, item.Name, item.Stock, item.Unit, item.AvgCost, item.LastPrice, item.SellPrice,
		item.MinStock, item.LastSupplier, item.Category, item.Barcode, item.CreatedAt, item.UpdatedAt)
	return err
}

func (t *txStore) UpdateItemLevels(ctx context.Context, itemID string, stock decimal.Decimal, avgCost decimal.Decimal) error {
	return affectedOrNotFound(t.tx.ExecContext(ctx, `
		UPDATE inventory_items
		SET stock = $3, avg_cost = $4, updated_at = now()
		WHERE store_id = $1 AND id = $2
	`, t.storeID, itemID, stock, avgCost))
}

func (t *txStore) UpdateItemDetails(ctx context.Context, item domain.InventoryItem) error {
	return affectedOrNotFound(t.tx.ExecContext(ctx, `
		UPDATE inventory_items
		SET name = $3, unit = $4, last_price = $5, sell_price = $6, min_stock = $7,
			last_supplier = $8, category = $9, barcode = $10, updated_at = now()
		WHERE store_id = $1 AND id = $2
	`, t.storeID, item.ID, item.Name, item.Unit, item.LastPrice, item.SellPrice, item.MinStock,
		item.LastSupplier, item.Category, item.Barcode))
}

func (t *txStore) DeleteItem(ctx context.Context, itemID string) error {
	return affectedOrNotFound(t.tx.ExecContext(ctx, `
		DELETE FROM inventory_items
		WHERE store_id = $1 AND id = $2
	`, t.storeID, itemID))
}

func (t *txStore) InsertRestockLog(ctx context.Context, entry domain.RestockLog) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO restock_logs (
			id, store_id, item_id, item_name, qty, unit, price_per_unit, total_cost,
			supplier, input_date, barcode, category, status, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, entry.ID, t.storeID, nullIfEmpty(entry.ItemID), entry.ItemName, entry.Qty, entry.Unit, entry.PricePerUnit,
		entry.TotalCost, entry.Supplier, entry.InputDate, entry.Barcode, entry.Category, entry.Status, entry.CreatedAt)
	return err
}

func (t *txStore) LockRestockLog(ctx context.Context, logID string) (*domain.RestockLog, error) {
	entry, err := scanRestockLog(t.tx.QueryRowContext(ctx, `
		SELECT `+restockColumns+`
		FROM restock_logs
		WHERE store_id = $1 AND id = $2
		FOR UPDATE
	`, t.storeID, logID))
	if err != nil {
		return nil, notFound(err)
	}
	return entry, nil
}

func (t *txStore) UpdateRestockLog(ctx context.Context, entry domain.RestockLog) error {
	return affectedOrNotFound(t.tx.ExecContext(ctx, `
		UPDATE restock_logs
		SET item_id = $3, item_name = $4, qty = $5, unit = $6, price_per_unit = $7,
			total_cost = $8, supplier = $9, input_date = $10, barcode = $11,
			category = $12, status = $13
		WHERE store_id = $1 AND id = $2
	`, t.storeID, entry.ID, nullIfEmpty(entry.ItemID), entry.ItemName, entry.Qty, entry.Unit, entry.PricePerUnit,
		entry.TotalCost, entry.Supplier, entry.InputDate, entry.Barcode, entry.Category, entry.Status))
}

func (t *txStore) DeleteRestockLog(ctx context.Context, logID string) error {
	return affectedOrNotFound(t.tx.ExecContext(ctx, `
		DELETE FROM restock_logs
		WHERE store_id = $1 AND id = $2
	`, t.storeID, logID))
}

func (t *txStore) InsertOrder(ctx context.Context, order domain.Order) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, store_id, type, date, customer_name, notes, payment_method, payment_status,
			cashier_name, status, revenue, cogs, gross_profit, expense_total, net_profit,
			created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`, order.ID, t.storeID, order.Type, order.Date, order.CustomerName, order.Notes, order.PaymentMethod,
		order.PaymentStatus, order.CashierName, order.Status, order.Financials.Revenue, order.Financials.COGS,
		order.Financials.GrossProfit, order.Financials.ExpenseTotal, order.Financials.NetProfit,
		order.CreatedAt, order.UpdatedAt)
	if err != nil {
		return err
	}
	if err := t.insertOrderItems(ctx, order.ID, order.Items); err != nil {
		return err
	}
	return t.insertOrderExpenses(ctx, order.ID, order.Expenses)
}

func (t *txStore) LockOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return queryOrder(ctx, t.tx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE store_id = $1 AND id = $2
		FOR UPDATE
	`, t.storeID, orderID)
}

func (t *txStore) UpdateOrder(ctx context.Context, order domain.Order) error {
	return affectedOrNotFound(t.tx.ExecContext(ctx, `
		UPDATE orders
		SET date = $3, customer_name = $4, notes = $5, payment_method = $6,
			payment_status = $7, cashier_name = $8, status = $9, revenue = $10,
			cogs = $11, gross_profit = $12, expense_total = $13, net_profit = $14,
			updated_at = $15
		WHERE store_id = $1 AND id = $2
	`, t.storeID, order.ID, order.Date, order.CustomerName, order.Notes, order.PaymentMethod,
		order.PaymentStatus, order.CashierName, order.Status, order.Financials.Revenue,
		order.Financials.COGS, order.Financials.GrossProfit, order.Financials.ExpenseTotal,
		order.Financials.NetProfit, order.UpdatedAt))
}

func (t *txStore) ReplaceOrderItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	if err := t.ensureOrder(ctx, orderID); err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID); err != nil {
		return err
	}
	return t.insertOrderItems(ctx, orderID, items)
}

func (t *txStore) ReplaceOrderExpenses(ctx context.Context, orderID string, expenses []domain.OrderExpense) error {
	if err := t.ensureOrder(ctx, orderID); err != nil {
		return err
	}
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM order_expenses WHERE order_id = $1`, orderID); err != nil {
		return err
	}
	return t.insertOrderExpenses(ctx, orderID, expenses)
}

func (t *txStore) DeleteOrder(ctx context.Context, orderID string) error {
	return affectedOrNotFound(t.tx.ExecContext(ctx, `
		DELETE FROM orders
		WHERE store_id = $1 AND id = $2
	`, t.storeID, orderID))
}

func (t *txStore) InsertGeneralExpense(ctx context.Context, expense domain.GeneralExpense) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO general_expenses (id, store_id, description, category, amount, date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, expense.ID, t.storeID, expense.Description, expense.Category, expense.Amount, expense.Date, expense.CreatedAt)
	return err
}

func (t *txStore) DeleteGeneralExpense(ctx context.Context, expenseID string) error {
	return affectedOrNotFound(t.tx.ExecContext(ctx, `
		DELETE FROM general_expenses
		WHERE store_id = $1 AND id = $2
	`, t.storeID, expenseID))
}

func (t *txStore) InsertWithdrawal(ctx context.Context, withdrawal domain.Withdrawal) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO withdrawals (id, store_id, description, amount, date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, withdrawal.ID, t.storeID, withdrawal.Description, withdrawal.Amount, withdrawal.Date, withdrawal.CreatedAt)
	return err
}

func (t *txStore) DeleteWithdrawal(ctx context.Context, withdrawalID string) error {
	return affectedOrNotFound(t.tx.ExecContext(ctx, `
		DELETE FROM withdrawals
		WHERE store_id = $1 AND id = $2
	`, t.storeID, withdrawalID))
}

func (t *txStore) ensureOrder(ctx context.Context, orderID string) error {
	var exists bool
	err := t.tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM orders WHERE store_id = $1 AND id = $2)
	`, t.storeID, orderID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}
	return nil
}

func (t *txStore) insertOrderItems(ctx context.Context, orderID string, items []domain.OrderItem) error {
	for i, item := range items {
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, line_no, item_id, name, qty, unit, price, subtotal, cost_basis)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, orderID, i, item.ItemID, item.Name, item.Qty, item.Unit, item.Price, item.Subtotal, item.CostBasis)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *txStore) insertOrderExpenses(ctx context.Context, orderID string, expenses []domain.OrderExpense) error {
	for i, expense := range expenses {
		_, err := t.tx.ExecContext(ctx, `
			INSERT INTO order_expenses (order_id, line_no, description, amount)
			VALUES ($1,$2,$3,$4)
		`, orderID, i, expense.Description, expense.Amount)
		if err != nil {
			return err
		}
	}
	return nil
}

var _ store.Tx = (*txStore)(nil)
