package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const OrderTypeSale = "sale"

type InventoryItem struct {
	ID           string          `json:"id"`
	StoreID      string          `json:"store_id"`
	Name         string          `json:"name"`
	Stock        decimal.Decimal `json:"stock"`
	Unit         string          `json:"unit"`
	AvgCost      decimal.Decimal `json:"avg_cost"`
	LastPrice    decimal.Decimal `json:"last_price"`
	SellPrice    decimal.Decimal `json:"sell_price"`
	MinStock     decimal.Decimal `json:"min_stock"`
	LastSupplier string          `json:"last_supplier"`
	Category     string          `json:"category"`
	Barcode      string          `json:"barcode"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// RestockLog is one purchase event. ItemName, Barcode and Category are copied
// at write time and never resolved from the item afterwards.
type RestockLog struct {
	ID           string          `json:"id"`
	StoreID      string          `json:"store_id"`
	ItemID       string          `json:"item_id,omitempty"`
	ItemName     string          `json:"item_name"`
	Qty          decimal.Decimal `json:"qty"`
	Unit         string          `json:"unit"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Supplier     string          `json:"supplier"`
	InputDate    time.Time       `json:"input_date"`
	Barcode      string          `json:"barcode"`
	Category     string          `json:"category"`
	Status       RestockStatus   `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

type OrderItem struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	Qty       decimal.Decimal `json:"qty"`
	Unit      string          `json:"unit"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CostBasis decimal.Decimal `json:"cost_basis"`
}

type OrderExpense struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type Financials struct {
	Revenue      decimal.Decimal `json:"revenue"`
	COGS         decimal.Decimal `json:"cogs"`
	GrossProfit  decimal.Decimal `json:"gross_profit"`
	ExpenseTotal decimal.Decimal `json:"expense_total"`
	NetProfit    decimal.Decimal `json:"net_profit"`
}

type Order struct {
	ID            string         `json:"id"`
	StoreID       string         `json:"store_id"`
	Type          string         `json:"type"`
	Date          time.Time      `json:"date"`
	CustomerName  string         `json:"customer_name"`
	Notes         string         `json:"notes"`
	PaymentMethod string         `json:"payment_method"`
	PaymentStatus PaymentStatus  `json:"payment_status"`
	CashierName   string         `json:"cashier_name"`
	Status        OrderStatus    `json:"status"`
	Items         []OrderItem    `json:"items"`
	Expenses      []OrderExpense `json:"expenses"`
	Financials    Financials     `json:"financials"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type GeneralExpense struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"store_id"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Withdrawal struct {
	ID          string          `json:"id"`
	StoreID     string          `json:"store_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"created_at"`
}

type StoreProfile struct {
	StoreID   string    `json:"store_id"`
	Name      string    `json:"name"`
	Alias     string    `json:"alias"`
	Address   string    `json:"address"`
	Phone     string    `json:"phone"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CashSummary struct {
	PaidRevenue     decimal.Decimal `json:"paid_revenue"`
	Receivables     decimal.Decimal `json:"receivables"`
	OrderExpenses   decimal.Decimal `json:"order_expenses"`
	GeneralExpenses decimal.Decimal `json:"general_expenses"`
	Withdrawals     decimal.Decimal `json:"withdrawals"`
	RestockSpend    decimal.Decimal `json:"restock_spend"`
	CashOnHand      decimal.Decimal `json:"cash_on_hand"`
}

// StoreSnapshot is everything a client needs to render one store.
type StoreSnapshot struct {
	StoreID         string           `json:"store_id"`
	Profile         *StoreProfile    `json:"profile,omitempty"`
	Items           []InventoryItem  `json:"items"`
	Orders          []Order          `json:"orders"`
	RestockLogs     []RestockLog     `json:"restock_logs"`
	GeneralExpenses []GeneralExpense `json:"general_expenses"`
	Withdrawals     []Withdrawal     `json:"withdrawals"`
	Cash            CashSummary      `json:"cash"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

type AuditLog struct {
	ID         string    `json:"id"`
	StoreID    string    `json:"store_id"`
	ActorUID   string    `json:"actor_uid"`
	ActorName  string    `json:"actor_name"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

type UserAccount struct {
	UID          string
	Email        string
	Name         string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
}

// Identity is the resolved caller of a request.
type Identity struct {
	UID     string
	Email   string
	Name    string
	StoreID string
}
