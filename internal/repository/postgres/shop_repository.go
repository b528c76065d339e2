package postgres

import (
	"context"
	"errors"
	"fmt"

	"myPromoGame/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ShopRepository struct {
	DB *gorm.DB
}

func NewShopRepository(db *gorm.DB) *ShopRepository {
	return &ShopRepository{DB: db}
}

func (r *ShopRepository) Create(ctx context.Context, shop *domain.Shop) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := conn(ctx, r.DB).Create(shop).Error; err != nil {
		return fmt.Errorf("failed to create shop: %w", err)
	}

	return nil
}

func (r *ShopRepository) FindByID(ctx context.Context, id uint64) (domain.Shop, error) {
	return r.find(ctx, conn(ctx, r.DB), id)
}

// FindByIDForUpdate takes a row lock on the shop; call it inside a transaction.
func (r *ShopRepository) FindByIDForUpdate(ctx context.Context, id uint64) (domain.Shop, error) {
	return r.find(ctx, conn(ctx, r.DB).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *ShopRepository) find(ctx context.Context, db *gorm.DB, id uint64) (domain.Shop, error) {
	if err := ctx.Err(); err != nil {
		return domain.Shop{}, fmt.Errorf("context error: %w", err)
	}

	var shop domain.Shop
	if err := db.First(&shop, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Shop{}, domain.NewNotFoundError(domain.ResourceShop, id)
		}
		return domain.Shop{}, fmt.Errorf("failed to find shop: %w", err)
	}

	return shop, nil
}

type GameAssignmentRepository struct {
	DB *gorm.DB
}

func NewGameAssignmentRepository(db *gorm.DB) *GameAssignmentRepository {
	return &GameAssignmentRepository{DB: db}
}

func (r *GameAssignmentRepository) Create(ctx context.Context, assignment *domain.GameAssignment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := conn(ctx, r.DB).Create(assignment).Error; err != nil {
		return fmt.Errorf("failed to create game assignment: %w", err)
	}

	return nil
}

// FindActive returns the newest active assignment of the shop.
func (r *GameAssignmentRepository) FindActive(ctx context.Context, shopID uint64) (domain.GameAssignment, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.GameAssignment{}, false, fmt.Errorf("context error: %w", err)
	}

	var assignment domain.GameAssignment
	err := conn(ctx, r.DB).
		Where("shop_id = ? AND is_active = ?", shopID, true).
		Order("id DESC").
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.GameAssignment{}, false, nil
		}
		return domain.GameAssignment{}, false, fmt.Errorf("failed to find game assignment: %w", err)
	}

	return assignment, true, nil
}
