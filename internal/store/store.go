package store

import (
	"context"

	"github.com/shopspring/decimal"

	"warungkas/backend/internal/domain"
)

// Tx is a storage transaction bound to a single store. Every read and write
// is scoped to that store, and rows read through Lock* methods stay locked
// until the transaction ends.
type Tx interface {
	StoreID() string

	LockItem(ctx context.Context, itemID string) (*domain.InventoryItem, error)
	LockItemByBarcode(ctx context.Context, barcode string) (*domain.InventoryItem, error)
	LockItemByName(ctx context.Context, name string) (*domain.InventoryItem, error)
	InsertItem(ctx context.Context, item domain.InventoryItem) error
	// UpdateItemLevels writes stock and avg_cost. Only the ledger calls it.
	UpdateItemLevels(ctx context.Context, itemID string, stock decimal.Decimal, avgCost decimal.Decimal) error
	// UpdateItemDetails writes every item column except stock and avg_cost.
	UpdateItemDetails(ctx context.Context, item domain.InventoryItem) error
	DeleteItem(ctx context.Context, itemID string) error

	InsertRestockLog(ctx context.Context, entry domain.RestockLog) error
	LockRestockLog(ctx context.Context, logID string) (*domain.RestockLog, error)
	UpdateRestockLog(ctx context.Context, entry domain.RestockLog) error
	DeleteRestockLog(ctx context.Context, logID string) error

	InsertOrder(ctx context.Context, order domain.Order) error
	LockOrder(ctx context.Context, orderID string) (*domain.Order, error)
	// UpdateOrder writes header, status and financials. Lines and expenses
	// are replaced through their own methods.
	UpdateOrder(ctx context.Context, order domain.Order) error
	ReplaceOrderItems(ctx context.Context, orderID string, items []domain.OrderItem) error
	ReplaceOrderExpenses(ctx context.Context, orderID string, expenses []domain.OrderExpense) error
	DeleteOrder(ctx context.Context, orderID string) error

	InsertGeneralExpense(ctx context.Context, expense domain.GeneralExpense) error
	DeleteGeneralExpense(ctx context.Context, expenseID string) error
	InsertWithdrawal(ctx context.Context, withdrawal domain.Withdrawal) error
	DeleteWithdrawal(ctx context.Context, withdrawalID string) error
}

type Repository interface {
	// WithinTx runs fn in one transaction scoped to storeID. The transaction
	// commits only when fn returns nil.
	WithinTx(ctx context.Context, storeID string, fn func(tx Tx) error) error

	Snapshot(ctx context.Context, storeID string) (*domain.StoreSnapshot, error)
	GetItem(ctx context.Context, storeID string, itemID string) (*domain.InventoryItem, error)
	GetOrder(ctx context.Context, storeID string, orderID string) (*domain.Order, error)
	GetRestockLog(ctx context.Context, storeID string, logID string) (*domain.RestockLog, error)

	GetStoreProfile(ctx context.Context, storeID string) (*domain.StoreProfile, error)
	SaveStoreProfile(ctx context.Context, profile domain.StoreProfile) (*domain.StoreProfile, error)
	ResolveStoreAlias(ctx context.Context, alias string) (string, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, storeID string, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	GetUserByEmail(ctx context.Context, email string) (*domain.UserAccount, error)
}
