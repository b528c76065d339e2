package postgres

import (
	"context"
	"errors"
	"fmt"

	"myPromoGame/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlayRecordRepository struct {
	DB *gorm.DB
}

func NewPlayRecordRepository(db *gorm.DB) *PlayRecordRepository {
	return &PlayRecordRepository{DB: db}
}

func (r *PlayRecordRepository) FindLatest(ctx context.Context, userID, shopID uint64) (domain.PlayRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.PlayRecord{}, false, fmt.Errorf("context error: %w", err)
	}

	var record domain.PlayRecord
	err := conn(ctx, r.DB).
		Where("user_id = ? AND shop_id = ?", userID, shopID).
		Order("last_played_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.PlayRecord{}, false, nil
		}
		return domain.PlayRecord{}, false, fmt.Errorf("failed to find play record: %w", err)
	}

	return record, true, nil
}

// Create inserts the first play of a user at a shop. A concurrent insert of
// the same pair loses on the unique index and is reported as an error.
func (r *PlayRecordRepository) Create(ctx context.Context, record *domain.PlayRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := conn(ctx, r.DB).Clauses(clause.OnConflict{DoNothing: true}).Create(record)
	if result.Error != nil {
		return fmt.Errorf("failed to create play record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrPlayInProgress
	}

	return nil
}

func (r *PlayRecordRepository) Update(ctx context.Context, record *domain.PlayRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	updateData := map[string]interface{}{
		"game_assignment_id": record.GameAssignmentID,
		"reward_id":          record.RewardID,
		"last_played_at":     record.LastPlayedAt,
		"play_count":         record.PlayCount,
	}

	result := conn(ctx, r.DB).Model(&domain.PlayRecord{}).Where("id = ?", record.ID).Updates(updateData)
	if result.Error != nil {
		return fmt.Errorf("failed to update play record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("play record not found")
	}

	return nil
}

type DrawEventRepository struct {
	DB *gorm.DB
}

func NewDrawEventRepository(db *gorm.DB) *DrawEventRepository {
	return &DrawEventRepository{DB: db}
}

func (r *DrawEventRepository) SaveEvent(ctx context.Context, event domain.DrawEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	// savepoint, so a failed audit insert does not abort the caller's transaction
	err := conn(ctx, r.DB).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&event).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save draw event: %w", err)
	}

	return nil
}

func (r *DrawEventRepository) FindByShop(ctx context.Context, shopID uint64, limit int) ([]domain.DrawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var events []domain.DrawEvent
	err := conn(ctx, r.DB).
		Where("shop_id = ?", shopID).
		Order("id DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find draw events: %w", err)
	}

	return events, nil
}
