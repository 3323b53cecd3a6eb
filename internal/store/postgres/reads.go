package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"warungkas/backend/internal/domain"
	"warungkas/backend/internal/store"
	"warungkas/backend/internal/xid"
)

// Snapshot reads every collection of one store inside a single read-only
// REPEATABLE READ transaction so the lists agree with each other.
func (s *Store) Snapshot(ctx context.Context, storeID string) (*domain.StoreSnapshot, error) {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, transactionFailure(err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	snap := &domain.StoreSnapshot{
		StoreID:     storeID,
		GeneratedAt: time.Now().UTC(),
	}

	profile, err := getStoreProfile(ctx, sqlTx, storeID)
	switch {
	case err == nil:
		snap.Profile = profile
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	if snap.Items, err = listItems(ctx, sqlTx, storeID); err != nil {
		return nil, err
	}
	if snap.Orders, err = listOrders(ctx, sqlTx, storeID); err != nil {
		return nil, err
	}
	if snap.RestockLogs, err = listRestockLogs(ctx, sqlTx, storeID); err != nil {
		return nil, err
	}
	if snap.GeneralExpenses, err = listGeneralExpenses(ctx, sqlTx, storeID); err != nil {
		return nil, err
	}
	if snap.Withdrawals, err = listWithdrawals(ctx, sqlTx, storeID); err != nil {
		return nil, err
	}

	if err := sqlTx.Commit(); err != nil {
		return nil, transactionFailure(err)
	}
	return snap, nil
}

func listItems(ctx context.Context, q queryer, storeID string) ([]domain.InventoryItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM inventory_items
		WHERE store_id = $1
		ORDER BY lower(name) ASC, id ASC
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.InventoryItem, 0, 64)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func listOrders(ctx context.Context, q queryer, storeID string) ([]domain.Order, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE store_id = $1
		ORDER BY date DESC, id DESC
	`, storeID)
	if err != nil {
		return nil, err
	}
	orders := make([]domain.Order, 0, 64)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	items, err := loadOrderItems(ctx, q, `
		SELECT oi.order_id, oi.item_id, oi.name, oi.qty, oi.unit, oi.price, oi.subtotal, oi.cost_basis
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.store_id = $1
		ORDER BY oi.order_id, oi.line_no ASC
	`, storeID)
	if err != nil {
		return nil, err
	}
	expenses, err := loadOrderExpenses(ctx, q, `
		SELECT oe.order_id, oe.description, oe.amount
		FROM order_expenses oe
		JOIN orders o ON o.id = oe.order_id
		WHERE o.store_id = $1
		ORDER BY oe.order_id, oe.line_no ASC
	`, storeID)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if lines, ok := items[orders[i].ID]; ok {
			orders[i].Items = lines
		}
		if lines, ok := expenses[orders[i].ID]; ok {
			orders[i].Expenses = lines
		}
	}
	return orders, nil
}

func listRestockLogs(ctx context.Context, q queryer, storeID string) ([]domain.RestockLog, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+restockColumns+`
		FROM restock_logs
		WHERE store_id = $1
		ORDER BY input_date DESC, id DESC
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.RestockLog, 0, 64)
	for rows.Next() {
		entry, err := scanRestockLog(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func listGeneralExpenses(ctx context.Context, q queryer, storeID string) ([]domain.GeneralExpense, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, store_id, description, category, amount, date, created_at
		FROM general_expenses
		WHERE store_id = $1
		ORDER BY date DESC, id DESC
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.GeneralExpense, 0, 32)
	for rows.Next() {
		var expense domain.GeneralExpense
		if err := rows.Scan(&expense.ID, &expense.StoreID, &expense.Description, &expense.Category, &expense.Amount, &expense.Date, &expense.CreatedAt); err != nil {
			return nil, err
		}
		expense.Date = expense.Date.UTC()
		expense.CreatedAt = expense.CreatedAt.UTC()
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

func listWithdrawals(ctx context.Context, q queryer, storeID string) ([]domain.Withdrawal, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, store_id, description, amount, date, created_at
		FROM withdrawals
		WHERE store_id = $1
		ORDER BY date DESC, id DESC
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	withdrawals := make([]domain.Withdrawal, 0, 32)
	for rows.Next() {
		var withdrawal domain.Withdrawal
		if err := rows.Scan(&withdrawal.ID, &withdrawal.StoreID, &withdrawal.Description, &withdrawal.Amount, &withdrawal.Date, &withdrawal.CreatedAt); err != nil {
			return nil, err
		}
		withdrawal.Date = withdrawal.Date.UTC()
		withdrawal.CreatedAt = withdrawal.CreatedAt.UTC()
		withdrawals = append(withdrawals, withdrawal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return withdrawals, nil
}

func (s *Store) GetItem(ctx context.Context, storeID string, itemID string) (*domain.InventoryItem, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, `
		SELECT `+itemColumns+`
		FROM inventory_items
		WHERE store_id = $1 AND id = $2
	`, storeID, itemID))
	if err != nil {
		return nil, notFound(err)
	}
	return item, nil
}

func (s *Store) GetOrder(ctx context.Context, storeID string, orderID string) (*domain.Order, error) {
	return queryOrder(ctx, s.db, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE store_id = $1 AND id = $2
	`, storeID, orderID)
}

func (s *Store) GetRestockLog(ctx context.Context, storeID string, logID string) (*domain.RestockLog, error) {
	entry, err := scanRestockLog(s.db.QueryRowContext(ctx, `
		SELECT `+restockColumns+`
		FROM restock_logs
		WHERE store_id = $1 AND id = $2
	`, storeID, logID))
	if err != nil {
		return nil, notFound(err)
	}
	return entry, nil
}

func (s *Store) GetStoreProfile(ctx context.Context, storeID string) (*domain.StoreProfile, error) {
	return getStoreProfile(ctx, s.db, storeID)
}

func getStoreProfile(ctx context.Context, q queryer, storeID string) (*domain.StoreProfile, error) {
	var profile domain.StoreProfile
	err := q.QueryRowContext(ctx, `
		SELECT store_id, name, COALESCE(alias,''), address, phone, updated_at
		FROM store_profiles
		WHERE store_id = $1
	`, storeID).Scan(&profile.StoreID, &profile.Name, &profile.Alias, &profile.Address, &profile.Phone, &profile.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	profile.UpdatedAt = profile.UpdatedAt.UTC()
	return &profile, nil
}

func (s *Store) SaveStoreProfile(ctx context.Context, profile domain.StoreProfile) (*domain.StoreProfile, error) {
	profile.Alias = strings.ToLower(strings.TrimSpace(profile.Alias))
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO store_profiles (store_id, name, alias, address, phone, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
		ON CONFLICT (store_id)
		DO UPDATE SET name = EXCLUDED.name, alias = EXCLUDED.alias, address = EXCLUDED.address,
			phone = EXCLUDED.phone, updated_at = now()
		RETURNING updated_at
	`, profile.StoreID, profile.Name, nullIfEmpty(profile.Alias), profile.Address, profile.Phone).Scan(&profile.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("alias %q: %w", profile.Alias, store.ErrConflict)
		}
		return nil, err
	}
	profile.UpdatedAt = profile.UpdatedAt.UTC()
	return &profile, nil
}

func (s *Store) ResolveStoreAlias(ctx context.Context, alias string) (string, error) {
	var storeID string
	err := s.db.QueryRowContext(ctx, `
		SELECT store_id
		FROM store_profiles
		WHERE alias = $1
	`, strings.ToLower(strings.TrimSpace(alias))).Scan(&storeID)
	if err != nil {
		return "", notFound(err)
	}
	return storeID, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (
			id, store_id, actor_uid, actor_name, action, entity_type, entity_id, detail, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, entry.ID, entry.StoreID, entry.ActorUID, entry.ActorName, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, storeID string, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, actor_uid, actor_name, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		WHERE store_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, storeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.StoreID, &entry.ActorUID, &entry.ActorName, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" || user.PasswordHash == "" {
		return store.NewValidationError("email", "required")
	}
	if user.UID == "" {
		user.UID = xid.New("usr")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (uid, email, name, password_hash, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, user.UID, user.Email, user.Name, user.PasswordHash, user.Active, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email %q: %w", user.Email, store.ErrConflict)
		}
		return err
	}
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.UserAccount, error) {
	var user domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT uid, email, name, password_hash, active, created_at
		FROM app_users
		WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email))).Scan(&user.UID, &user.Email, &user.Name, &user.PasswordHash, &user.Active, &user.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

var _ store.Repository = (*Store)(nil)
