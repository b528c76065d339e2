package action

import (
	"context"

	"myPromoGame/domain"
)

// ShopRepository contract interface
type ShopRepository interface {
	FindByID(ctx context.Context, id uint64) (domain.Shop, error)
	FindByIDForUpdate(ctx context.Context, id uint64) (domain.Shop, error)
}

// Catalog is the read-only global list of engagement actions.
type Catalog interface {
	FindActive(ctx context.Context, actionID uint64) (domain.Action, bool, error)
}

// ChosenActionRepository contract interface
type ChosenActionRepository interface {
	// FindByShop returns the shop's actions ordered by position.
	FindByShop(ctx context.Context, shopID uint64) ([]domain.ChosenAction, error)
	Create(ctx context.Context, action *domain.ChosenAction) error
	Update(ctx context.Context, action *domain.ChosenAction) error
	Delete(ctx context.Context, id uint64) error
}
