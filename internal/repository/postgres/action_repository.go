package postgres

import (
	"context"
	"errors"
	"fmt"

	"myPromoGame/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActionCatalogRepository struct {
	DB *gorm.DB
}

func NewActionCatalogRepository(db *gorm.DB) *ActionCatalogRepository {
	return &ActionCatalogRepository{DB: db}
}

// Upsert inserts or refreshes a catalog entry keyed by id.
func (r *ActionCatalogRepository) Upsert(ctx context.Context, action *domain.Action) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	err := conn(ctx, r.DB).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "type", "default_link", "is_active"}),
	}).Create(action).Error
	if err != nil {
		return fmt.Errorf("failed to upsert action: %w", err)
	}

	return nil
}

func (r *ActionCatalogRepository) FindActive(ctx context.Context, actionID uint64) (domain.Action, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Action{}, false, fmt.Errorf("context error: %w", err)
	}

	var action domain.Action
	err := conn(ctx, r.DB).Where("id = ? AND is_active = ?", actionID, true).First(&action).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Action{}, false, nil
		}
		return domain.Action{}, false, fmt.Errorf("failed to find action: %w", err)
	}

	return action, true, nil
}

type ChosenActionRepository struct {
	DB *gorm.DB
}

func NewChosenActionRepository(db *gorm.DB) *ChosenActionRepository {
	return &ChosenActionRepository{DB: db}
}

func (r *ChosenActionRepository) FindByShop(ctx context.Context, shopID uint64) ([]domain.ChosenAction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var actions []domain.ChosenAction
	err := conn(ctx, r.DB).
		Where("shop_id = ?", shopID).
		Order("position ASC, id ASC").
		Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find chosen actions: %w", err)
	}

	return actions, nil
}

func (r *ChosenActionRepository) Create(ctx context.Context, action *domain.ChosenAction) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := conn(ctx, r.DB).Create(action).Error; err != nil {
		return fmt.Errorf("failed to create chosen action: %w", err)
	}

	return nil
}

func (r *ChosenActionRepository) Update(ctx context.Context, action *domain.ChosenAction) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	updateData := map[string]interface{}{
		"action_id":   action.ActionID,
		"name":        action.Name,
		"position":    action.Position,
		"target_link": action.TargetLink,
	}

	result := conn(ctx, r.DB).Model(&domain.ChosenAction{}).Where("id = ?", action.ID).Updates(updateData)
	if result.Error != nil {
		return fmt.Errorf("failed to update chosen action: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError(domain.ResourceAction, action.ID)
	}

	return nil
}

func (r *ChosenActionRepository) Delete(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := conn(ctx, r.DB).Delete(&domain.ChosenAction{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete chosen action: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError(domain.ResourceAction, id)
	}

	return nil
}
