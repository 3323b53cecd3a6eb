package cache

import (
	"context"
	"time"

	"warungkas/backend/internal/domain"
)

// SnapshotCache holds the bulk read of a store between mutations.
//
// Entries are keyed by a per-store version. Invalidate moves the version
// forward, so a snapshot loaded before a write and stored after it lands
// under a version nobody reads again.
type SnapshotCache interface {
	Version(ctx context.Context, storeID string) (int64, error)
	Get(ctx context.Context, storeID string, version int64) (*domain.StoreSnapshot, bool, error)
	Set(ctx context.Context, storeID string, version int64, value *domain.StoreSnapshot, ttl time.Duration) error
	Invalidate(ctx context.Context, storeID string) error
}

type NoopSnapshotCache struct{}

func (NoopSnapshotCache) Version(_ context.Context, _ string) (int64, error) {
	return 0, nil
}

func (NoopSnapshotCache) Get(_ context.Context, _ string, _ int64) (*domain.StoreSnapshot, bool, error) {
	return nil, false, nil
}

func (NoopSnapshotCache) Set(_ context.Context, _ string, _ int64, _ *domain.StoreSnapshot, _ time.Duration) error {
	return nil
}

func (NoopSnapshotCache) Invalidate(_ context.Context, _ string) error {
	return nil
}
