package domain

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	UID         string `json:"uid"`
	Name        string `json:"name"`
	ExpiresAt   string `json:"expires_at"`
}

type SuccessResponse struct {
	Success  bool     `json:"success"`
	Warnings []string `json:"warnings,omitempty"`
}

type RestockRequest struct {
	ExistingID   string `json:"existing_id"`
	ItemName     string `json:"item_name" validate:"required_without_all=ExistingID Barcode,max=200"`
	Barcode      string `json:"barcode" validate:"max=64"`
	Category     string `json:"category" validate:"max=100"`
	Unit         string `json:"unit" validate:"max=32"`
	Supplier     string `json:"supplier" validate:"max=200"`
	Quantity     Number `json:"quantity"`
	PricePerUnit Number `json:"price_per_unit"`
	SellPrice    Number `json:"sell_price"`
	Date         string `json:"date"`
}

type RestockResponse struct {
	ItemID string `json:"item_id"`
	LogID  string `json:"log_id"`
}

type RestockCorrectionRequest struct {
	ItemName     string `json:"item_name" validate:"required,max=200"`
	Barcode      string `json:"barcode" validate:"max=64"`
	Category     string `json:"category" validate:"max=100"`
	Unit         string `json:"unit" validate:"max=32"`
	Supplier     string `json:"supplier" validate:"max=200"`
	Quantity     Number `json:"quantity"`
	PricePerUnit Number `json:"price_per_unit"`
	SellPrice    Number `json:"sell_price"`
	Date         string `json:"date"`
}

type RestockReversalRequest struct {
	// AllowNegative acknowledges that the reversal may leave stock below zero.
	AllowNegative bool `json:"allow_negative"`
}

type OrderLineRequest struct {
	ItemID string `json:"item_id" validate:"required"`
	Qty    Number `json:"qty"`
	Price  Number `json:"price"`
	// Subtotal is accepted for compatibility and recomputed as qty*price.
	Subtotal Number `json:"subtotal"`
}

type OrderCreateRequest struct {
	Items         []OrderLineRequest `json:"items" validate:"required,min=1,dive"`
	Date          string             `json:"date"`
	CustomerName  string             `json:"customer_name" validate:"max=200"`
	Notes         string             `json:"notes" validate:"max=1000"`
	PaymentMethod string             `json:"payment_method" validate:"max=50"`
	PaymentStatus PaymentStatus      `json:"payment_status"`
	CashierName   string             `json:"cashier_name" validate:"max=200"`
}

type OrderCreateResponse struct {
	OrderID string `json:"order_id"`
}

type OrderMetadata struct {
	Date          string        `json:"date"`
	CustomerName  string        `json:"customer_name" validate:"max=200"`
	Notes         string        `json:"notes" validate:"max=1000"`
	PaymentMethod string        `json:"payment_method" validate:"max=50"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}

type OrderReviseRequest struct {
	Items    []OrderLineRequest `json:"items" validate:"required,min=1,dive"`
	Metadata OrderMetadata      `json:"metadata"`
}

type OrderExpenseInput struct {
	Description string `json:"description" validate:"required,max=200"`
	Amount      Number `json:"amount"`
}

type OrderExpensesRequest struct {
	Expenses []OrderExpenseInput `json:"expenses" validate:"dive"`
}

type ItemCreateRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Unit      string `json:"unit" validate:"max=32"`
	Category  string `json:"category" validate:"max=100"`
	Barcode   string `json:"barcode" validate:"max=64"`
	SellPrice Number `json:"sell_price"`
	MinStock  Number `json:"min_stock"`
}

type ItemUpdateRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Unit      *string `json:"unit,omitempty" validate:"omitempty,max=32"`
	Category  *string `json:"category,omitempty" validate:"omitempty,max=100"`
	Barcode   *string `json:"barcode,omitempty" validate:"omitempty,max=64"`
	SellPrice *Number `json:"sell_price,omitempty"`
	MinStock  *Number `json:"min_stock,omitempty"`
}

type GeneralExpenseRequest struct {
	Description string `json:"description" validate:"required,max=200"`
	Category    string `json:"category" validate:"max=100"`
	Amount      Number `json:"amount"`
	Date        string `json:"date"`
}

type WithdrawalRequest struct {
	Description string `json:"description" validate:"required,max=200"`
	Amount      Number `json:"amount"`
	Date        string `json:"date"`
}

type StoreProfileRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Alias   string `json:"alias" validate:"omitempty,min=3,max=40"`
	Address string `json:"address" validate:"max=500"`
	Phone   string `json:"phone" validate:"max=32"`
}
