package play

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myPromoGame/domain"
	"myPromoGame/pkg/logger"
	"myPromoGame/pkg/metrics"
	"myPromoGame/pkg/utils"
)

// Recorder runs a full play: cooldown gate, reward draw and play record
// upsert. Plays of the same user at the same shop never overlap.
type Recorder struct {
	gate    *EligibilityGate
	drawer  Drawer
	records PlayRecordRepository
	locker  Locker
	tx      Transactor
	now     func() time.Time
}

func NewRecorder(
	gate *EligibilityGate,
	drawer Drawer,
	records PlayRecordRepository,
	locker Locker,
	tx Transactor,
) *Recorder {
	return &Recorder{
		gate:    gate,
		drawer:  drawer,
		records: records,
		locker:  locker,
		tx:      tx,
		now:     gate.now,
	}
}

// LockKey is the key plays of one user at one shop serialize on.
func LockKey(userID, shopID uint64) string {
	return fmt.Sprintf("play:%d:%d", shopID, userID)
}

// RecordPlay lets the user play at the shop. gameAssignmentID may be 0, in
// which case the active assignment used by the draw is recorded.
func (r *Recorder) RecordPlay(ctx context.Context, userID, shopID, gameAssignmentID uint64) (domain.PlayOutcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.PlayOutcome{}, fmt.Errorf("context error: %w", err)
	}

	release, err := r.locker.Acquire(ctx, LockKey(userID, shopID))
	if err != nil {
		if errors.Is(err, domain.ErrPlayInProgress) {
			logger.Warn("play already in progress", "user_id", userID, "shop_id", shopID)
			return domain.PlayOutcome{}, err
		}
		return domain.PlayOutcome{}, fmt.Errorf("failed to acquire play lock: %w", err)
	}
	defer release()

	eligibility, err := r.gate.Check(ctx, userID, shopID)
	if err != nil {
		return domain.PlayOutcome{}, err
	}
	if !eligibility.Allowed {
		metrics.PlayCooldownRejections.Inc()
		cooldownErr := &domain.CooldownError{
			NextAllowedAt: *eligibility.NextAllowedAt,
			Remaining:     time.Duration(eligibility.RemainingMs) * time.Millisecond,
		}
		logger.Info("play rejected by cooldown",
			"user_id", userID,
			"shop_id", shopID,
			"next_allowed_at", cooldownErr.NextAllowedAt,
		)
		return domain.PlayOutcome{}, cooldownErr
	}

	var outcome domain.PlayOutcome
	err = r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		result, err := r.drawer.Draw(utils.WithUserID(ctx, userID), shopID)
		if err != nil {
			return err
		}

		assignmentID := gameAssignmentID
		if assignmentID == 0 {
			assignmentID = result.GameAssignmentID
		}

		record, err := r.upsertRecord(ctx, userID, shopID, assignmentID, result.Reward)
		if err != nil {
			return err
		}

		outcome = domain.PlayOutcome{
			Reward:        result.Reward,
			Message:       result.Message,
			Record:        record,
			NextAllowedAt: record.LastPlayedAt.Add(r.gate.cooldown),
		}
		return nil
	})
	if err != nil {
		logger.Error("failed to record play",
			"trace_id", utils.TraceIDFromContext(ctx),
			"user_id", userID,
			"shop_id", shopID,
			"error", err,
		)
		return domain.PlayOutcome{}, err
	}

	metrics.PlaysTotal.Inc()
	logger.Info("play recorded",
		"user_id", userID,
		"shop_id", shopID,
		"play_count", outcome.Record.PlayCount,
		"won", outcome.Reward != nil,
	)

	return outcome, nil
}

func (r *Recorder) upsertRecord(ctx context.Context, userID, shopID, assignmentID uint64, won *domain.Reward) (domain.PlayRecord, error) {
	var rewardID *uint64
	if won != nil {
		id := won.ID
		rewardID = &id
	}

	record, found, err := r.records.FindLatest(ctx, userID, shopID)
	if err != nil {
		return domain.PlayRecord{}, fmt.Errorf("failed to load play record: %w", err)
	}

	record.GameAssignmentID = assignmentID
	record.RewardID = rewardID
	record.LastPlayedAt = r.now()
	record.PlayCount++

	if !found {
		record.UserID = userID
		record.ShopID = shopID
		if err := r.records.Create(ctx, &record); err != nil {
			return domain.PlayRecord{}, fmt.Errorf("failed to create play record: %w", err)
		}
		return record, nil
	}

	if err := r.records.Update(ctx, &record); err != nil {
		return domain.PlayRecord{}, fmt.Errorf("failed to update play record: %w", err)
	}
	return record, nil
}
