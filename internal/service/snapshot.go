package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"warungkas/backend/internal/domain"
)

// Snapshot is the bulk read for one store. It is served from the snapshot
// cache when possible; every committed mutation moves the store's cache
// version forward. The version is read before loading, so a load that
// races a write is stored under the version the write retired.
func (s *Service) Snapshot(ctx context.Context, storeID string) (*domain.StoreSnapshot, error) {
	version, err := s.snapshots.Version(ctx, storeID)
	if err != nil {
		log.Warn().Err(err).Str("store_id", storeID).Msg("snapshot cache version read failed")
		return s.loadSnapshot(ctx, storeID)
	}

	cached, ok, err := s.snapshots.Get(ctx, storeID, version)
	if err != nil {
		log.Warn().Err(err).Str("store_id", storeID).Msg("snapshot cache read failed")
	}
	if ok {
		return cached, nil
	}

	snap, err := s.loadSnapshot(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if err := s.snapshots.Set(ctx, storeID, version, snap, s.snapshotTTL); err != nil {
		log.Warn().Err(err).Str("store_id", storeID).Msg("snapshot cache write failed")
	}
	return snap, nil
}

func (s *Service) loadSnapshot(ctx context.Context, storeID string) (*domain.StoreSnapshot, error) {
	snap, err := s.repo.Snapshot(ctx, storeID)
	if err != nil {
		return nil, err
	}
	snap.Cash = SummarizeCash(snap)
	return snap, nil
}

// SummarizeCash derives the till position from a snapshot. Unpaid orders
// count as receivables, not cash.
func SummarizeCash(snap *domain.StoreSnapshot) domain.CashSummary {
	summary := domain.CashSummary{
		PaidRevenue:     decimal.Zero,
		Receivables:     decimal.Zero,
		OrderExpenses:   decimal.Zero,
		GeneralExpenses: decimal.Zero,
		Withdrawals:     decimal.Zero,
		RestockSpend:    decimal.Zero,
	}
	for _, order := range snap.Orders {
		if order.PaymentStatus == domain.PaymentPaid {
			summary.PaidRevenue = summary.PaidRevenue.Add(order.Financials.Revenue)
		} else {
			summary.Receivables = summary.Receivables.Add(order.Financials.Revenue)
		}
		summary.OrderExpenses = summary.OrderExpenses.Add(order.Financials.ExpenseTotal)
	}
	for _, expense := range snap.GeneralExpenses {
		summary.GeneralExpenses = summary.GeneralExpenses.Add(expense.Amount)
	}
	for _, withdrawal := range snap.Withdrawals {
		summary.Withdrawals = summary.Withdrawals.Add(withdrawal.Amount)
	}
	for _, entry := range snap.RestockLogs {
		summary.RestockSpend = summary.RestockSpend.Add(entry.TotalCost)
	}
	summary.CashOnHand = summary.PaidRevenue.
		Sub(summary.OrderExpenses).
		Sub(summary.GeneralExpenses).
		Sub(summary.Withdrawals).
		Sub(summary.RestockSpend)
	return summary
}

func (s *Service) GetStoreProfile(ctx context.Context, storeID string) (*domain.StoreProfile, error) {
	return s.repo.GetStoreProfile(ctx, storeID)
}

func (s *Service) SaveStoreProfile(ctx context.Context, storeID string, req domain.StoreProfileRequest) (*domain.StoreProfile, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Alias = strings.ToLower(strings.TrimSpace(req.Alias))
	req.Address = strings.TrimSpace(req.Address)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	saved, err := s.repo.SaveStoreProfile(ctx, domain.StoreProfile{
		StoreID: storeID,
		Name:    req.Name,
		Alias:   req.Alias,
		Address: req.Address,
		Phone:   req.Phone,
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, storeID, "profile_save", "store", storeID, "alias="+saved.Alias)
	return saved, nil
}
