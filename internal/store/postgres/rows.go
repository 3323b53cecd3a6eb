package postgres

import (
	"context"
	"database/sql"

	"warungkas/backend/internal/domain"
)

const itemColumns = `id, store_id, name, stock, unit, avg_cost, last_price, sell_price,
	min_stock, last_supplier, category, barcode, created_at, updated_at`

const restockColumns = `id, store_id, COALESCE(item_id,''), item_name, qty, unit, price_per_unit,
	total_cost, supplier, input_date, barcode, category, status, created_at`

const orderColumns = `id, store_id, type, date, customer_name, notes, payment_method,
	payment_status, cashier_name, status, revenue, cogs, gross_profit, expense_total,
	net_profit, created_at, updated_at`

func scanItem(row rowScanner) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := row.Scan(
		&item.ID,
		&item.StoreID,
		&item.Name,
		&item.Stock,
		&item.Unit,
		&item.AvgCost,
		&item.LastPrice,
		&item.SellPrice,
		&item.MinStock,
		&item.LastSupplier,
		&item.Category,
		&item.Barcode,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return &item, nil
}

func scanRestockLog(row rowScanner) (*domain.RestockLog, error) {
	var entry domain.RestockLog
	err := row.Scan(
		&entry.ID,
		&entry.StoreID,
		&entry.ItemID,
		&entry.ItemName,
		&entry.Qty,
		&entry.Unit,
		&entry.PricePerUnit,
		&entry.TotalCost,
		&entry.Supplier,
		&entry.InputDate,
		&entry.Barcode,
		&entry.Category,
		&entry.Status,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.InputDate = entry.InputDate.UTC()
	entry.CreatedAt = entry.CreatedAt.UTC()
	return &entry, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID,
		&order.StoreID,
		&order.Type,
		&order.Date,
		&order.CustomerName,
		&order.Notes,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.CashierName,
		&order.Status,
		&order.Financials.Revenue,
		&order.Financials.COGS,
		&order.Financials.GrossProfit,
		&order.Financials.ExpenseTotal,
		&order.Financials.NetProfit,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.Date = order.Date.UTC()
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()
	order.Items = []domain.OrderItem{}
	order.Expenses = []domain.OrderExpense{}
	return &order, nil
}

// loadOrderItems runs query, which must select order_id followed by the line
// columns, and groups the lines by order in line order.
func loadOrderItems(ctx context.Context, q queryer, query string, args ...any) (map[string][]domain.OrderItem, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make(map[string][]domain.OrderItem)
	for rows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := rows.Scan(&orderID, &item.ItemID, &item.Name, &item.Qty, &item.Unit, &item.Price, &item.Subtotal, &item.CostBasis); err != nil {
			return nil, err
		}
		lines[orderID] = append(lines[orderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func loadOrderExpenses(ctx context.Context, q queryer, query string, args ...any) (map[string][]domain.OrderExpense, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make(map[string][]domain.OrderExpense)
	for rows.Next() {
		var orderID string
		var expense domain.OrderExpense
		if err := rows.Scan(&orderID, &expense.Description, &expense.Amount); err != nil {
			return nil, err
		}
		expenses[orderID] = append(expenses[orderID], expense)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

// fillOrder loads the lines and expenses of a single order.
func fillOrder(ctx context.Context, q queryer, order *domain.Order) error {
	items, err := loadOrderItems(ctx, q, `
		SELECT order_id, item_id, name, qty, unit, price, subtotal, cost_basis
		FROM order_items
		WHERE order_id = $1
		ORDER BY line_no ASC
	`, order.ID)
	if err != nil {
		return err
	}
	expenses, err := loadOrderExpenses(ctx, q, `
		SELECT order_id, description, amount
		FROM order_expenses
		WHERE order_id = $1
		ORDER BY line_no ASC
	`, order.ID)
	if err != nil {
		return err
	}
	if lines, ok := items[order.ID]; ok {
		order.Items = lines
	}
	if lines, ok := expenses[order.ID]; ok {
		order.Expenses = lines
	}
	return nil
}

func queryOrder(ctx context.Context, q queryer, query string, args ...any) (*domain.Order, error) {
	order, err := scanOrder(q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, notFound(err)
	}
	if err := fillOrder(ctx, q, order); err != nil {
		return nil, err
	}
	return order, nil
}

var _ queryer = (*sql.DB)(nil)
var _ queryer = (*sql.Tx)(nil)
