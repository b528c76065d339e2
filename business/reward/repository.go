package reward

import (
	"context"

	"myPromoGame/domain"
)

// ShopRepository contract interface
type ShopRepository interface {
	FindByID(ctx context.Context, id uint64) (domain.Shop, error)
	// FindByIDForUpdate locks the shop row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uint64) (domain.Shop, error)
}

// GameAssignmentRepository contract interface
type GameAssignmentRepository interface {
	FindActive(ctx context.Context, shopID uint64) (domain.GameAssignment, bool, error)
}

// RewardRepository contract interface
type RewardRepository interface {
	// FindByShop returns every reward of the shop, ordered by creation.
	FindByShop(ctx context.Context, shopID uint64) ([]domain.Reward, error)
	FindByID(ctx context.Context, id uint64) (domain.Reward, error)
	// FindEligible returns ACTIVE rewards that are unlimited or still in stock,
	// ordered by created_at then id.
	FindEligible(ctx context.Context, shopID uint64) ([]domain.Reward, error)
	Create(ctx context.Context, reward *domain.Reward) error
	Update(ctx context.Context, reward *domain.Reward) error
	Delete(ctx context.Context, id uint64) error
	// DecrementIfPositive bumps winner_count and, for limited rewards,
	// decrements remaining_to_win only while it is positive. It reports false
	// when the reward was already out of stock.
	DecrementIfPositive(ctx context.Context, id uint64) (bool, error)
}

// EventRecorder receives one audit event per draw.
type EventRecorder interface {
	SaveEvent(ctx context.Context, event domain.DrawEvent) error
}

// Transactor opens a transaction, or a savepoint when ctx already carries one.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
