package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"warungkas/backend/internal/domain"
	"warungkas/backend/internal/store"
	"warungkas/backend/internal/xid"
)

// Store keeps every tenant in process memory. Writers are serialized and
// each transaction works on a private copy of its tenant, so a failed
// transaction leaves nothing behind.
type Store struct {
	mu           sync.RWMutex
	tenants      map[string]*tenant
	profiles     map[string]domain.StoreProfile
	aliases      map[string]string
	auditLogs    []domain.AuditLog
	usersByEmail map[string]domain.UserAccount
}

type tenant struct {
	items       map[string]domain.InventoryItem
	restocks    map[string]domain.RestockLog
	orders      map[string]domain.Order
	expenses    map[string]domain.GeneralExpense
	withdrawals map[string]domain.Withdrawal
}

func New() *Store {
	return &Store{
		tenants:      make(map[string]*tenant),
		profiles:     make(map[string]domain.StoreProfile),
		aliases:      make(map[string]string),
		auditLogs:    make([]domain.AuditLog, 0, 128),
		usersByEmail: make(map[string]domain.UserAccount),
	}
}

// NewSeeded returns a store with one owner account for dev/demo mode.
// Credentials come from SEED_OWNER_EMAIL and SEED_OWNER_PASSWORD; when unset,
// dev defaults are used with a warning. Production runs on Postgres.
func NewSeeded() *Store {
	s := New()

	email := envOr("SEED_OWNER_EMAIL", "owner@warungkas.local")
	password := envOr("SEED_OWNER_PASSWORD", "owner12345")
	if os.Getenv("SEED_OWNER_PASSWORD") == "" {
		log.Warn().Str("email", email).Msg("memory store: using default dev credentials, set SEED_OWNER_PASSWORD to override")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("memory store: failed to hash seed password")
	}
	uid := xid.New("usr")
	s.usersByEmail[strings.ToLower(email)] = domain.UserAccount{
		UID:          uid,
		Email:        strings.ToLower(email),
		Name:         "Pemilik Toko",
		PasswordHash: string(hash),
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	s.profiles[uid] = domain.StoreProfile{StoreID: uid, Name: "Toko Demo", UpdatedAt: time.Now().UTC()}
	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newTenant() *tenant {
	return &tenant{
		items:       make(map[string]domain.InventoryItem),
		restocks:    make(map[string]domain.RestockLog),
		orders:      make(map[string]domain.Order),
		expenses:    make(map[string]domain.GeneralExpense),
		withdrawals: make(map[string]domain.Withdrawal),
	}
}

func (t *tenant) clone() *tenant {
	out := newTenant()
	for id, item := range t.items {
		out.items[id] = item
	}
	for id, entry := range t.restocks {
		out.restocks[id] = entry
	}
	for id, order := range t.orders {
		out.orders[id] = cloneOrder(order)
	}
	for id, expense := range t.expenses {
		out.expenses[id] = expense
	}
	for id, withdrawal := range t.withdrawals {
		out.withdrawals[id] = withdrawal
	}
	return out
}

func (s *Store) WithinTx(ctx context.Context, storeID string, fn func(tx store.Tx) error) error {
	if strings.TrimSpace(storeID) == "" {
		return store.NewValidationError("store_id", "required")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrTransactionFailure, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tenants[storeID]
	if !ok {
		current = newTenant()
	}
	work := current.clone()
	if err := fn(&tx{storeID: storeID, data: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrTransactionFailure, err)
	}
	s.tenants[storeID] = work
	return nil
}

type tx struct {
	storeID string
	data    *tenant
}

func (t *tx) StoreID() string {
	return t.storeID
}

func (t *tx) LockItem(_ context.Context, itemID string) (*domain.InventoryItem, error) {
	item, ok := t.data.items[itemID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &item, nil
}

func (t *tx) LockItemByBarcode(_ context.Context, barcode string) (*domain.InventoryItem, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, store.ErrNotFound
	}
	return t.firstItem(func(item domain.InventoryItem) bool {
		return item.Barcode == barcode
	})
}

func (t *tx) LockItemByName(_ context.Context, name string) (*domain.InventoryItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, store.ErrNotFound
	}
	return t.firstItem(func(item domain.InventoryItem) bool {
		return strings.EqualFold(strings.TrimSpace(item.Name), name)
	})
}

// firstItem returns the oldest matching item so lookups are stable.
func (t *tx) firstItem(match func(domain.InventoryItem) bool) (*domain.InventoryItem, error) {
	var found *domain.InventoryItem
	for _, item := range t.data.items {
		if !match(item) {
			continue
		}
		if found == nil || compareItemAge(item, *found) < 0 {
			candidate := item
			found = &candidate
		}
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	return found, nil
}

func (t *tx) InsertItem(_ context.Context, item domain.InventoryItem) error {
	if _, exists := t.data.items[item.ID]; exists {
		return store.ErrConflict
	}
	item.StoreID = t.storeID
	t.data.items[item.ID] = item
	return nil
}

func (t *tx) UpdateItemLevels(_ context.Context, itemID string, stock decimal.Decimal, avgCost decimal.Decimal) error {
	item, ok := t.data.items[itemID]
	if !ok {
		return store.ErrNotFound
	}
	item.Stock = stock
	item.AvgCost = avgCost
	item.UpdatedAt = time.Now().UTC()
	t.data.items[itemID] = item
	return nil
}

func (t *tx) UpdateItemDetails(_ context.Context, item domain.InventoryItem) error {
	existing, ok := t.data.items[item.ID]
	if !ok {
		return store.ErrNotFound
	}
	item.StoreID = t.storeID
	item.Stock = existing.Stock
	item.AvgCost = existing.AvgCost
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now().UTC()
	t.data.items[item.ID] = item
	return nil
}

func (t *tx) DeleteItem(_ context.Context, itemID string) error {
	if _, ok := t.data.items[itemID]; !ok {
		return store.ErrNotFound
	}
	delete(t.data.items, itemID)
	return nil
}

func (t *tx) InsertRestockLog(_ context.Context, entry domain.RestockLog) error {
	if _, exists := t.data.restocks[entry.ID]; exists {
		return store.ErrConflict
	}
	entry.StoreID = t.storeID
	t.data.restocks[entry.ID] = entry
	return nil
}

func (t *tx) LockRestockLog(_ context.Context, logID string) (*domain.RestockLog, error) {
	entry, ok := t.data.restocks[logID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &entry, nil
}

func (t *tx) UpdateRestockLog(_ context.Context, entry domain.RestockLog) error {
	if _, ok := t.data.restocks[entry.ID]; !ok {
		return store.ErrNotFound
	}
	entry.StoreID = t.storeID
	t.data.restocks[entry.ID] = entry
	return nil
}

func (t *tx) DeleteRestockLog(_ context.Context, logID string) error {
	if _, ok := t.data.restocks[logID]; !ok {
		return store.ErrNotFound
	}
	delete(t.data.restocks, logID)
	return nil
}

func (t *tx) InsertOrder(_ context.Context, order domain.Order) error {
	if _, exists := t.data.orders[order.ID]; exists {
		return store.ErrConflict
	}
	order.StoreID = t.storeID
	t.data.orders[order.ID] = cloneOrder(order)
	return nil
}

func (t *tx) LockOrder(_ context.Context, orderID string) (*domain.Order, error) {
	order, ok := t.data.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cloned := cloneOrder(order)
	return &cloned, nil
}

func (t *tx) UpdateOrder(_ context.Context, order domain.Order) error {
	existing, ok := t.data.orders[order.ID]
	if !ok {
		return store.ErrNotFound
	}
	order.StoreID = t.storeID
	order.Items = existing.Items
	order.Expenses = existing.Expenses
	order.CreatedAt = existing.CreatedAt
	t.data.orders[order.ID] = cloneOrder(order)
	return nil
}

func (t *tx) ReplaceOrderItems(_ context.Context, orderID string, items []domain.OrderItem) error {
	order, ok := t.data.orders[orderID]
	if !ok {
		return store.ErrNotFound
	}
	order.Items = slices.Clone(items)
	t.data.orders[orderID] = order
	return nil
}

func (t *tx) ReplaceOrderExpenses(_ context.Context, orderID string, expenses []domain.OrderExpense) error {
	order, ok := t.data.orders[orderID]
	if !ok {
		return store.ErrNotFound
	}
	order.Expenses = slices.Clone(expenses)
	t.data.orders[orderID] = order
	return nil
}

func (t *tx) DeleteOrder(_ context.Context, orderID string) error {
	if _, ok := t.data.orders[orderID]; !ok {
		return store.ErrNotFound
	}
	delete(t.data.orders, orderID)
	return nil
}

func (t *tx) InsertGeneralExpense(_ context.Context, expense domain.GeneralExpense) error {
	if _, exists := t.data.expenses[expense.ID]; exists {
		return store.ErrConflict
	}
	expense.StoreID = t.storeID
	t.data.expenses[expense.ID] = expense
	return nil
}

func (t *tx) DeleteGeneralExpense(_ context.Context, expenseID string) error {
	if _, ok := t.data.expenses[expenseID]; !ok {
		return store.ErrNotFound
	}
	delete(t.data.expenses, expenseID)
	return nil
}

func (t *tx) InsertWithdrawal(_ context.Context, withdrawal domain.Withdrawal) error {
	if _, exists := t.data.withdrawals[withdrawal.ID]; exists {
		return store.ErrConflict
	}
	withdrawal.StoreID = t.storeID
	t.data.withdrawals[withdrawal.ID] = withdrawal
	return nil
}

func (t *tx) DeleteWithdrawal(_ context.Context, withdrawalID string) error {
	if _, ok := t.data.withdrawals[withdrawalID]; !ok {
		return store.ErrNotFound
	}
	delete(t.data.withdrawals, withdrawalID)
	return nil
}

func (s *Store) Snapshot(_ context.Context, storeID string) (*domain.StoreSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &domain.StoreSnapshot{
		StoreID:         storeID,
		Items:           []domain.InventoryItem{},
		Orders:          []domain.Order{},
		RestockLogs:     []domain.RestockLog{},
		GeneralExpenses: []domain.GeneralExpense{},
		Withdrawals:     []domain.Withdrawal{},
		GeneratedAt:     time.Now().UTC(),
	}
	if profile, ok := s.profiles[storeID]; ok {
		snap.Profile = &profile
	}

	data, ok := s.tenants[storeID]
	if !ok {
		return snap, nil
	}
	for _, item := range data.items {
		snap.Items = append(snap.Items, item)
	}
	for _, order := range data.orders {
		snap.Orders = append(snap.Orders, cloneOrder(order))
	}
	for _, entry := range data.restocks {
		snap.RestockLogs = append(snap.RestockLogs, entry)
	}
	for _, expense := range data.expenses {
		snap.GeneralExpenses = append(snap.GeneralExpenses, expense)
	}
	for _, withdrawal := range data.withdrawals {
		snap.Withdrawals = append(snap.Withdrawals, withdrawal)
	}

	slices.SortFunc(snap.Items, func(a, b domain.InventoryItem) int {
		if c := cmpString(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return cmpString(a.ID, b.ID)
	})
	slices.SortFunc(snap.Orders, func(a, b domain.Order) int {
		return newestFirst(a.Date, b.Date, a.ID, b.ID)
	})
	slices.SortFunc(snap.RestockLogs, func(a, b domain.RestockLog) int {
		return newestFirst(a.InputDate, b.InputDate, a.ID, b.ID)
	})
	slices.SortFunc(snap.GeneralExpenses, func(a, b domain.GeneralExpense) int {
		return newestFirst(a.Date, b.Date, a.ID, b.ID)
	})
	slices.SortFunc(snap.Withdrawals, func(a, b domain.Withdrawal) int {
		return newestFirst(a.Date, b.Date, a.ID, b.ID)
	})
	return snap, nil
}

func (s *Store) GetItem(_ context.Context, storeID string, itemID string) (*domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.tenants[storeID]
	if !ok {
		return nil, store.ErrNotFound
	}
	item, ok := data.items[itemID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &item, nil
}

func (s *Store) GetOrder(_ context.Context, storeID string, orderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.tenants[storeID]
	if !ok {
		return nil, store.ErrNotFound
	}
	order, ok := data.orders[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cloned := cloneOrder(order)
	return &cloned, nil
}

func (s *Store) GetRestockLog(_ context.Context, storeID string, logID string) (*domain.RestockLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.tenants[storeID]
	if !ok {
		return nil, store.ErrNotFound
	}
	entry, ok := data.restocks[logID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &entry, nil
}

func (s *Store) GetStoreProfile(_ context.Context, storeID string) (*domain.StoreProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[storeID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &profile, nil
}

func (s *Store) SaveStoreProfile(_ context.Context, profile domain.StoreProfile) (*domain.StoreProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile.Alias = strings.ToLower(strings.TrimSpace(profile.Alias))
	if profile.Alias != "" {
		if owner, taken := s.aliases[profile.Alias]; taken && owner != profile.StoreID {
			return nil, fmt.Errorf("alias %q: %w", profile.Alias, store.ErrConflict)
		}
	}
	if previous, ok := s.profiles[profile.StoreID]; ok && previous.Alias != "" && previous.Alias != profile.Alias {
		delete(s.aliases, previous.Alias)
	}
	if profile.Alias != "" {
		s.aliases[profile.Alias] = profile.StoreID
	}
	profile.UpdatedAt = time.Now().UTC()
	s.profiles[profile.StoreID] = profile
	saved := profile
	return &saved, nil
}

func (s *Store) ResolveStoreAlias(_ context.Context, alias string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	storeID, ok := s.aliases[strings.ToLower(strings.TrimSpace(alias))]
	if !ok {
		return "", store.ErrNotFound
	}
	return storeID, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, storeID string, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]domain.AuditLog, 0, limit)
	for i := len(s.auditLogs) - 1; i >= 0 && len(logs) < limit; i-- {
		if s.auditLogs[i].StoreID == storeID {
			logs = append(logs, s.auditLogs[i])
		}
	}
	return logs, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
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

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByEmail[user.Email]; exists {
		return fmt.Errorf("email %q: %w", user.Email, store.ErrConflict)
	}
	s.usersByEmail[user.Email] = user
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.usersByEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func compareItemAge(a domain.InventoryItem, b domain.InventoryItem) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmpString(a.ID, b.ID)
}

func newestFirst(a time.Time, b time.Time, aID string, bID string) int {
	if c := b.Compare(a); c != 0 {
		return c
	}
	return cmpString(bID, aID)
}

func cmpString(a string, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cloneOrder(src domain.Order) domain.Order {
	out := src
	out.Items = slices.Clone(src.Items)
	out.Expenses = slices.Clone(src.Expenses)
	return out
}
