package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myPromoGame/domain"

	"gorm.io/gorm"
)

type RewardRepository struct {
	DB *gorm.DB
}

func NewRewardRepository(db *gorm.DB) *RewardRepository {
	return &RewardRepository{DB: db}
}

func (r *RewardRepository) FindByShop(ctx context.Context, shopID uint64) ([]domain.Reward, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rewards []domain.Reward
	err := conn(ctx, r.DB).
		Where("shop_id = ?", shopID).
		Order("created_at ASC, id ASC").
		Find(&rewards).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find rewards: %w", err)
	}

	return rewards, nil
}

func (r *RewardRepository) FindEligible(ctx context.Context, shopID uint64) ([]domain.Reward, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rewards []domain.Reward
	err := conn(ctx, r.DB).
		Where("shop_id = ? AND status = ?", shopID, domain.RewardStatusActive).
		Where("(is_unlimited = ? OR remaining_to_win > 0)", true).
		Order("created_at ASC, id ASC").
		Find(&rewards).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find eligible rewards: %w", err)
	}

	return rewards, nil
}

func (r *RewardRepository) FindByID(ctx context.Context, id uint64) (domain.Reward, error) {
	if err := ctx.Err(); err != nil {
		return domain.Reward{}, fmt.Errorf("context error: %w", err)
	}

	var reward domain.Reward
	if err := conn(ctx, r.DB).First(&reward, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Reward{}, domain.NewNotFoundError(domain.ResourceReward, id)
		}
		return domain.Reward{}, fmt.Errorf("failed to find reward: %w", err)
	}

	return reward, nil
}

func (r *RewardRepository) Create(ctx context.Context, reward *domain.Reward) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := conn(ctx, r.DB).Create(reward).Error; err != nil {
		return fmt.Errorf("failed to create reward: %w", err)
	}

	return nil
}

// Update writes the merchant-editable fields and reloads the row so the
// caller sees the current winner_count.
func (r *RewardRepository) Update(ctx context.Context, reward *domain.Reward) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	db := conn(ctx, r.DB)

	updateData := map[string]interface{}{
		"name":             reward.Name,
		"percentage":       reward.Percentage,
		"is_unlimited":     reward.IsUnlimited,
		"remaining_to_win": reward.RemainingToWin,
		"status":           reward.Status,
		"updated_at":       time.Now(),
	}

	result := db.Model(&domain.Reward{}).Where("id = ?", reward.ID).Updates(updateData)
	if result.Error != nil {
		return fmt.Errorf("failed to update reward: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError(domain.ResourceReward, reward.ID)
	}

	if err := db.First(reward, reward.ID).Error; err != nil {
		return fmt.Errorf("failed to reload reward: %w", err)
	}

	return nil
}

func (r *RewardRepository) Delete(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := conn(ctx, r.DB).Delete(&domain.Reward{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete reward: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError(domain.ResourceReward, id)
	}

	return nil
}

// DecrementIfPositive consumes one unit of stock in a single conditional
// UPDATE. Zero affected rows means another draw took the last unit.
func (r *RewardRepository) DecrementIfPositive(ctx context.Context, id uint64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}

	result := conn(ctx, r.DB).
		Model(&domain.Reward{}).
		Where("id = ? AND status = ?", id, domain.RewardStatusActive).
		Where("(is_unlimited = ? OR remaining_to_win > 0)", true).
		Updates(map[string]interface{}{
			"winner_count":     gorm.Expr("winner_count + 1"),
			"remaining_to_win": gorm.Expr("CASE WHEN is_unlimited THEN remaining_to_win ELSE remaining_to_win - 1 END"),
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to consume reward stock: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}
