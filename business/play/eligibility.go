package play

import (
	"context"
	"fmt"
	"time"

	"myPromoGame/domain"
)

const DefaultCooldown = 24 * time.Hour

// EligibilityGate decides whether a user may play at a shop again.
type EligibilityGate struct {
	records  PlayRecordRepository
	cooldown time.Duration
	now      func() time.Time
}

// NewEligibilityGate builds a gate. A non-positive cooldown falls back to
// DefaultCooldown and a nil clock to time.Now.
func NewEligibilityGate(records PlayRecordRepository, cooldown time.Duration, now func() time.Time) *EligibilityGate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if now == nil {
		now = time.Now
	}
	return &EligibilityGate{records: records, cooldown: cooldown, now: now}
}

func (g *EligibilityGate) Cooldown() time.Duration { return g.cooldown }

func (g *EligibilityGate) Check(ctx context.Context, userID, shopID uint64) (domain.Eligibility, error) {
	if err := ctx.Err(); err != nil {
		return domain.Eligibility{}, fmt.Errorf("context error: %w", err)
	}

	last, found, err := g.records.FindLatest(ctx, userID, shopID)
	if err != nil {
		return domain.Eligibility{}, fmt.Errorf("failed to load play record: %w", err)
	}
	if !found {
		return domain.Eligibility{Allowed: true}, nil
	}

	return Evaluate(last.LastPlayedAt, g.cooldown, g.now()), nil
}

// Evaluate is the cooldown rule on its own.
func Evaluate(lastPlayedAt time.Time, cooldown time.Duration, now time.Time) domain.Eligibility {
	next := lastPlayedAt.Add(cooldown)
	if !now.Before(next) {
		return domain.Eligibility{Allowed: true}
	}

	remaining := next.Sub(now)
	return domain.Eligibility{
		Allowed:       false,
		NextAllowedAt: &next,
		// round up so a blocked user never sees 0
		RemainingMs: int64((remaining + time.Millisecond - 1) / time.Millisecond),
	}
}
