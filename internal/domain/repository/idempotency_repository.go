package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
)

// IdempotencyRepository stores replayable responses keyed by the client's Idempotency-Key
type IdempotencyRepository interface {
	// GetLive returns the unexpired record for key, or nil
	GetLive(ctx context.Context, key string, userID uuid.UUID, now time.Time) (*entity.IdempotencyKey, error)
	// Reserve inserts a pending record unless a live one exists for the key.
	// An expired record with the same key is replaced. It reports whether the caller now owns the key.
	Reserve(ctx context.Context, ikey *entity.IdempotencyKey, now time.Time) (bool, error)
	// Release drops a pending record so the key can be used again
	Release(ctx context.Context, key string, userID uuid.UUID) error
	// Save inserts or completes the record with the same key
	Save(ctx context.Context, ikey *entity.IdempotencyKey) error
	// DeleteExpired purges records that expired before now
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
