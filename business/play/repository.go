package play

import (
	"context"

	"myPromoGame/domain"
)

// PlayRecordRepository contract interface
type PlayRecordRepository interface {
	// FindLatest reports false when the user never played at the shop.
	FindLatest(ctx context.Context, userID, shopID uint64) (domain.PlayRecord, bool, error)
	Create(ctx context.Context, record *domain.PlayRecord) error
	Update(ctx context.Context, record *domain.PlayRecord) error
}

// Locker serializes plays of one user at one shop. Acquire returns
// domain.ErrPlayInProgress when the key stays held past the lock wait.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Drawer is the reward draw a play runs.
type Drawer interface {
	Draw(ctx context.Context, shopID uint64) (domain.DrawResult, error)
}
