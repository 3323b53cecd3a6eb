package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrTransactionFailure = errors.New("transaction failure")
)

const (
	KindNotFound           = "not_found"
	KindInsufficientStock  = "insufficient_stock"
	KindValidation         = "validation_error"
	KindConflict           = "conflict"
	KindTransactionFailure = "transaction_failure"
	KindInternal           = "internal"
)

// StockShortfallError reports which item could not cover a request.
type StockShortfallError struct {
	ItemID    string
	ItemName  string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *StockShortfallError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %s, requested %s, short by %s",
		e.ItemName, e.Available.String(), e.Requested.String(), e.Shortfall().String())
}

func (e *StockShortfallError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

func (e *StockShortfallError) Unwrap() error {
	return ErrInsufficientStock
}

type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field string, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+e.Fields[key])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Kind classifies err into one of the Kind* constants.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInsufficientStock):
		return KindInsufficientStock
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrTransactionFailure):
		return KindTransactionFailure
	default:
		return KindInternal
	}
}

// IsDomainError reports whether err already carries one of the store kinds.
func IsDomainError(err error) bool {
	kind := Kind(err)
	return kind != "" && kind != KindInternal
}
