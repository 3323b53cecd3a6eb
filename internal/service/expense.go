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

// SetOrderExpenses replaces an order's expenses and recomputes net profit
// from the stored gross profit.
func (s *Service) SetOrderExpenses(ctx context.Context, storeID string, orderID string, req domain.OrderExpensesRequest) (domain.SuccessResponse, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.SuccessResponse{}, store.NewValidationError("order_id", "required")
	}
	for i := range req.Expenses {
		req.Expenses[i].Description = strings.TrimSpace(req.Expenses[i].Description)
	}
	if err := s.validateRequest(req); err != nil {
		return domain.SuccessResponse{}, err
	}

	rules := numberRules{}
	expenses := make([]domain.OrderExpense, 0, len(req.Expenses))
	total := decimal.Zero
	for i, input := range req.Expenses {
		rules.nonNegative(fmt.Sprintf("expenses[%d].amount", i), input.Amount.Decimal)
		expenses = append(expenses, domain.OrderExpense{Description: input.Description, Amount: input.Amount.Decimal})
		total = total.Add(input.Amount.Decimal)
	}
	if err := rules.err(); err != nil {
		return domain.SuccessResponse{}, err
	}

	err := s.repo.WithinTx(ctx, storeID, func(tx store.Tx) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("order %s: %w", orderID, err)
		}
		order.Financials.ExpenseTotal = total
		order.Financials.NetProfit = order.Financials.GrossProfit.Sub(total)
		order.UpdatedAt = s.now()
		if err := tx.UpdateOrder(ctx, *order); err != nil {
			return err
		}
		return tx.ReplaceOrderExpenses(ctx, orderID, expenses)
	})
	if err != nil {
		return domain.SuccessResponse{}, err
	}

	s.committed(ctx, storeID, "order_expenses_set", "order", orderID,
		fmt.Sprintf("count=%d,total=%s", len(expenses), total.String()))
	return domain.SuccessResponse{Success: true}, nil
}

func (s *Service) CreateGeneralExpense(ctx context.Context, storeID string, req domain.GeneralExpenseRequest) (domain.GeneralExpense, error) {
	req.Description = strings.TrimSpace(req.Description)
	req.Category = strings.TrimSpace(req.Category)
	if err := s.validateRequest(req); err != nil {
		return domain.GeneralExpense{}, err
	}
	rules := numberRules{}
	rules.positive("amount", req.Amount.Decimal)
	if err := rules.err(); err != nil {
		return domain.GeneralExpense{}, err
	}
	date, err := s.parseDate("date", req.Date, s.now())
	if err != nil {
		return domain.GeneralExpense{}, err
	}

	expense := domain.GeneralExpense{
		ID:          xid.New("exp"),
		StoreID:     storeID,
		Description: req.Description,
		Category:    req.Category,
		Amount:      req.Amount.Decimal,
		Date:        date,
		CreatedAt:   s.now(),
	}
	err = s.repo.WithinTx(ctx, storeID, func(tx store.Tx) error {
		return tx.InsertGeneralExpense(ctx, expense)
	})
	if err != nil {
		return domain.GeneralExpense{}, err
	}

	s.committed(ctx, storeID, "expense_create", "expense", expense.ID, "amount="+expense.Amount.String())
	return expense, nil
}

func (s *Service) DeleteGeneralExpense(ctx context.Context, storeID string, expenseID string) error {
	expenseID = strings.TrimSpace(expenseID)
	err := s.repo.WithinTx(ctx, storeID, func(tx store.Tx) error {
		if err := tx.DeleteGeneralExpense(ctx, expenseID); err != nil {
			return fmt.Errorf("expense %s: %w", expenseID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.committed(ctx, storeID, "expense_delete", "expense", expenseID, "")
	return nil
}

func (s *Service) CreateWithdrawal(ctx context.Context, storeID string, req domain.WithdrawalRequest) (domain.Withdrawal, error) {
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validateRequest(req); err != nil {
		return domain.Withdrawal{}, err
	}
	rules := numberRules{}
	rules.positive("amount", req.Amount.Decimal)
	if err := rules.err(); err != nil {
		return domain.Withdrawal{}, err
	}
	date, err := s.parseDate("date", req.Date, s.now())
	if err != nil {
		return domain.Withdrawal{}, err
	}

	withdrawal := domain.Withdrawal{
		ID:          xid.New("wd"),
		StoreID:     storeID,
		Description: req.Description,
		Amount:      req.Amount.Decimal,
		Date:        date,
		CreatedAt:   s.now(),
	}
	err = s.repo.WithinTx(ctx, storeID, func(tx store.Tx) error {
		return tx.InsertWithdrawal(ctx, withdrawal)
	})
	if err != nil {
		return domain.Withdrawal{}, err
	}

	s.committed(ctx, storeID, "withdrawal_create", "withdrawal", withdrawal.ID, "amount="+withdrawal.Amount.String())
	return withdrawal, nil
}

func (s *Service) DeleteWithdrawal(ctx context.Context, storeID string, withdrawalID string) error {
	withdrawalID = strings.TrimSpace(withdrawalID)
	err := s.repo.WithinTx(ctx, storeID, func(tx store.Tx) error {
		if err := tx.DeleteWithdrawal(ctx, withdrawalID); err != nil {
			return fmt.Errorf("withdrawal %s: %w", withdrawalID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.committed(ctx, storeID, "withdrawal_delete", "withdrawal", withdrawalID, "")
	return nil
}
