package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"warungkas/backend/internal/cache"
	"warungkas/backend/internal/domain"
	"warungkas/backend/internal/store"
	"warungkas/backend/internal/xid"
)

type identityContextKey struct{}

func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(domain.Identity)
	return identity, ok
}

type Service struct {
	repo        store.Repository
	snapshots   cache.SnapshotCache
	snapshotTTL time.Duration
	validate    *validator.Validate
	now         func() time.Time
}

func New(repo store.Repository, snapshots cache.SnapshotCache, snapshotTTL time.Duration) *Service {
	if snapshots == nil {
		snapshots = cache.NoopSnapshotCache{}
	}
	if snapshotTTL <= 0 {
		snapshotTTL = 30 * time.Second
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Service{
		repo:        repo,
		snapshots:   snapshots,
		snapshotTTL: snapshotTTL,
		validate:    v,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ResolveStoreID picks the tenant for a caller. Without an override the
// caller's own uid is the store; an override may name a store id or alias.
func (s *Service) ResolveStoreID(ctx context.Context, uid string, override string) (string, error) {
	override = strings.TrimSpace(override)
	if override == "" {
		if uid == "" {
			return "", store.NewValidationError("store_id", "required")
		}
		return uid, nil
	}
	storeID, err := s.repo.ResolveStoreAlias(ctx, override)
	if err == nil {
		return storeID, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	return override, nil
}

func (s *Service) ListAuditLogs(ctx context.Context, storeID string, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListAuditLogs(ctx, storeID, limit)
}

func (s *Service) validateRequest(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", store.ErrValidation, err)
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fieldPath(fe)] = describeTag(fe)
	}
	return &store.ValidationError{Fields: fields}
}

// fieldPath drops the struct name from the namespace:
// "OrderCreateRequest.items[0].item_id" becomes "items[0].item_id".
func fieldPath(fe validator.FieldError) string {
	_, path, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		return fe.Field()
	}
	return path
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without", "required_without_all":
		return "required"
	case "min":
		return "must have at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "must be a valid email"
	default:
		return fe.Tag()
	}
}

// numberRules collects numeric checks the struct tags cannot express.
type numberRules map[string]string

func (r numberRules) positive(field string, value decimal.Decimal) {
	if r.outOfRange(field, value) {
		return
	}
	if !value.IsPositive() {
		r[field] = "must be greater than 0"
	}
}

func (r numberRules) nonNegative(field string, value decimal.Decimal) {
	if r.outOfRange(field, value) {
		return
	}
	if value.IsNegative() {
		r[field] = "must not be negative"
	}
}

func (r numberRules) outOfRange(field string, value decimal.Decimal) bool {
	if domain.InRange(value) {
		return false
	}
	r[field] = fmt.Sprintf("must have at most %d digits before and %d after the decimal point",
		domain.MaxIntegerDigits, domain.MaxFractionDigits)
	return true
}

func (r numberRules) err() error {
	if len(r) == 0 {
		return nil
	}
	return &store.ValidationError{Fields: r}
}

func (s *Service) parseDate(field string, raw string, fallback time.Time) (time.Time, error) {
	parsed, err := domain.ParseDate(raw, fallback)
	if err != nil {
		return time.Time{}, store.NewValidationError(field, "must be YYYY-MM-DD or RFC3339")
	}
	return parsed, nil
}

// committed runs after a successful transaction: the cached snapshot is
// dropped and an audit entry is written. Neither may fail the operation.
func (s *Service) committed(ctx context.Context, storeID string, action string, entityType string, entityID string, detail string) {
	if err := s.snapshots.Invalidate(ctx, storeID); err != nil {
		log.Warn().Err(err).Str("store_id", storeID).Msg("snapshot cache invalidation failed")
	}
	s.logAudit(ctx, storeID, action, entityType, entityID, detail)
}

func (s *Service) logAudit(ctx context.Context, storeID string, action string, entityType string, entityID string, detail string) {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		identity = domain.Identity{UID: "system", Name: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:         xid.New("audit"),
		StoreID:    storeID,
		ActorUID:   identity.UID,
		ActorName:  identity.Name,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  s.now(),
	}); err != nil {
		log.Warn().Err(err).
			Str("action", action).
			Str("entity", entityType+"/"+entityID).
			Msg("failed to write audit log")
	}
}

func defaultString(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
