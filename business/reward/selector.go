package reward

import (
	"context"
	"errors"
	"sort"
	"time"

	"myPromoGame/domain"
	"myPromoGame/pkg/logger"
	"myPromoGame/pkg/metrics"
	"myPromoGame/pkg/utils"

	"gorm.io/datatypes"
)

const (
	MessageNoWin         = "no win"
	MessageNoRewards     = "no rewards available"
	MessageNotSelected   = "no reward was selected"
	MessageUnavailable   = "reward unavailable"
	MessageError         = "error selecting reward"
	MessageGuaranteedWin = "guaranteed win"
	MessageWin           = "you won"

	defaultMaxAttempts = 2
)

// Selector performs the play-time weighted draw.
type Selector struct {
	shopRepo    ShopRepository
	gameRepo    GameAssignmentRepository
	rewardRepo  RewardRepository
	events      EventRecorder
	tx          Transactor
	rng         Rand
	maxAttempts int
}

func NewSelector(
	shopRepo ShopRepository,
	gameRepo GameAssignmentRepository,
	rewardRepo RewardRepository,
	events EventRecorder,
	tx Transactor,
	rng Rand,
	maxAttempts int,
) *Selector {
	if rng == nil {
		rng = NewRand(0)
	}
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	return &Selector{
		shopRepo:    shopRepo,
		gameRepo:    gameRepo,
		rewardRepo:  rewardRepo,
		events:      events,
		tx:          tx,
		rng:         rng,
		maxAttempts: maxAttempts,
	}
}

// Draw picks a reward for one play at the shop and consumes its stock.
//
// Only a missing shop or a missing active game assignment is returned as an
// error. Storage failures are logged and reported as a benign "no reward"
// result so a broken draw never breaks the player's game. The draw runs in
// its own (nested) transaction, so a failed statement is rolled back before
// the failure is recorded and the caller's transaction stays usable.
func (s *Selector) Draw(ctx context.Context, shopID uint64) (domain.DrawResult, error) {
	start := time.Now()
	defer func() {
		metrics.RewardDrawLatency.Observe(time.Since(start).Seconds())
	}()

	var result domain.DrawResult
	err := s.within(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.draw(ctx, shopID)
		return err
	})
	if err == nil {
		return result, nil
	}
	if domain.IsNotFound(err) {
		return domain.DrawResult{}, err
	}

	attempts := 0
	var failed *drawFailure
	if errors.As(err, &failed) {
		attempts = failed.attempts
		err = failed.err
	}
	return s.degrade(ctx, shopID, result, attempts, err), nil
}

// drawFailure carries a storage error out of the draw transaction so it is
// rolled back before being reported.
type drawFailure struct {
	attempts int
	err      error
}

func (e *drawFailure) Error() string { return e.err.Error() }

func (e *drawFailure) Unwrap() error { return e.err }

func (s *Selector) within(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.WithinTransaction(ctx, fn)
}

func (s *Selector) draw(ctx context.Context, shopID uint64) (domain.DrawResult, error) {
	shop, err := s.shopRepo.FindByID(ctx, shopID)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.DrawResult{}, err
		}
		return domain.DrawResult{}, &drawFailure{err: err}
	}

	assignment, ok, err := s.gameRepo.FindActive(ctx, shopID)
	if err != nil {
		return domain.DrawResult{}, &drawFailure{err: err}
	}
	if !ok {
		return domain.DrawResult{}, domain.NewNotFoundError(domain.ResourceActiveGameAssignment, shopID)
	}

	result := domain.DrawResult{
		GameAssignmentID: assignment.ID,
		Guaranteed:       shop.IsGuaranteedWin,
	}

	if !shop.IsGuaranteedWin {
		u := s.rng.Float64() * 100
		if u > shop.WinningPercentage {
			result.Message = MessageNoWin
			s.record(ctx, shopID, nil, domain.DrawOutcomeNoWin, 0, nil)
			return result, nil
		}
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		eligible, err := s.rewardRepo.FindEligible(ctx, shopID)
		if err != nil {
			return result, &drawFailure{attempts: attempt, err: err}
		}
		eligible = filterEligible(eligible)
		if len(eligible) == 0 {
			result.Message = MessageNoRewards
			s.record(ctx, shopID, nil, domain.DrawOutcomeNoRewards, attempt, nil)
			return result, nil
		}

		picked, ok := pickWeighted(eligible, s.rng.Float64()*100)
		if !ok {
			result.Message = MessageNotSelected
			s.record(ctx, shopID, nil, domain.DrawOutcomeNotSelected, attempt, nil)
			return result, nil
		}

		consumed, err := s.rewardRepo.DecrementIfPositive(ctx, picked.ID)
		if err != nil {
			return result, &drawFailure{attempts: attempt, err: err}
		}
		if !consumed {
			metrics.RewardStockConflicts.Inc()
			logger.Warn("reward stock taken by a concurrent draw",
				"trace_id", utils.TraceIDFromContext(ctx),
				"shop_id", shopID,
				"reward_id", picked.ID,
				"attempt", attempt,
			)
			continue
		}

		won := s.refresh(ctx, picked)
		result.Reward = &won
		result.Message = MessageWin
		if shop.IsGuaranteedWin {
			result.Message = MessageGuaranteedWin
		}
		s.record(ctx, shopID, &won.ID, domain.DrawOutcomeWon, attempt, nil)
		return result, nil
	}

	result.Message = MessageUnavailable
	s.record(ctx, shopID, nil, domain.DrawOutcomeUnavailable, s.maxAttempts, domain.ErrStockExhausted)
	return result, nil
}

// refresh rereads the reward after its stock was consumed. The stock is
// already taken at this point, so a failed read falls back to the local copy.
func (s *Selector) refresh(ctx context.Context, picked domain.Reward) domain.Reward {
	fresh, err := s.rewardRepo.FindByID(ctx, picked.ID)
	if err == nil {
		return fresh
	}

	logger.Warn("failed to reload drawn reward", "reward_id", picked.ID, "error", err)
	picked.WinnerCount++
	if !picked.IsUnlimited && picked.RemainingToWin != nil {
		left := *picked.RemainingToWin - 1
		picked.RemainingToWin = &left
	}
	return picked
}

func (s *Selector) degrade(ctx context.Context, shopID uint64, result domain.DrawResult, attempts int, cause error) domain.DrawResult {
	logger.Error("reward draw failed",
		"trace_id", utils.TraceIDFromContext(ctx),
		"shop_id", shopID,
		"attempts", attempts,
		"error", cause,
	)
	result.Reward = nil
	result.Message = MessageError
	s.record(ctx, shopID, nil, domain.DrawOutcomeError, attempts, cause)
	return result
}

func (s *Selector) record(ctx context.Context, shopID uint64, rewardID *uint64, outcome string, attempts int, cause error) {
	metrics.RewardDrawsTotal.WithLabelValues(outcome).Inc()

	if s.events == nil {
		return
	}

	eventCtx := datatypes.JSONMap{}
	if tid := utils.TraceIDFromContext(ctx); tid != "" {
		eventCtx["trace_id"] = tid
	}
	if cause != nil {
		eventCtx["error"] = cause.Error()
	}

	err := s.events.SaveEvent(ctx, domain.DrawEvent{
		ShopID:   shopID,
		UserID:   utils.UserIDFromContext(ctx),
		RewardID: rewardID,
		Outcome:  outcome,
		Attempts: attempts,
		Context:  eventCtx,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("failed to record draw event", "shop_id", shopID, "outcome", outcome, "error", err)
	}
}

// filterEligible drops anything the store should not have returned and pins
// the iteration order so a seeded draw is reproducible.
func filterEligible(rewards []domain.Reward) []domain.Reward {
	out := make([]domain.Reward, 0, len(rewards))
	for _, r := range rewards {
		if r.IsEligible() {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	return out
}

// pickWeighted walks the cumulative distribution of the eligible rewards,
// rescaled to 100, and returns the first reward whose bucket holds roll.
// When every weight is zero the rewards are equally likely.
func pickWeighted(eligible []domain.Reward, roll float64) (domain.Reward, bool) {
	total := 0.0
	for _, r := range eligible {
		total += r.Percentage
	}

	cumulative := 0.0
	for _, r := range eligible {
		if total <= 0 {
			cumulative += 100 / float64(len(eligible))
		} else {
			cumulative += r.Percentage / total * 100
		}
		if roll <= cumulative {
			return r, true
		}
	}

	return domain.Reward{}, false
}
