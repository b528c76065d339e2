package reward

import (
	"context"
	"fmt"
	"strings"

	"myPromoGame/business/syncset"
	"myPromoGame/domain"
	"myPromoGame/pkg/logger"
	"myPromoGame/pkg/metrics"
)

type SetSynchronizer struct {
	shopRepo   ShopRepository
	rewardRepo RewardRepository
	tx         syncset.Transactor
	validator  *SetValidator
}

func NewSetSynchronizer(
	shopRepo ShopRepository,
	rewardRepo RewardRepository,
	tx syncset.Transactor,
	validator *SetValidator,
) *SetSynchronizer {
	return &SetSynchronizer{
		shopRepo:   shopRepo,
		rewardRepo: rewardRepo,
		tx:         tx,
		validator:  validator,
	}
}

// Synchronize replaces the shop's reward set with inputs. Rewards missing
// from inputs are deleted, inputs without an id are created and the rest
// are updated when they differ from what is stored. Either every change
// lands or none does.
func (s *SetSynchronizer) Synchronize(ctx context.Context, shopID uint64, inputs []domain.RewardInput) (domain.RewardSyncResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.RewardSyncResult{}, fmt.Errorf("context error: %w", err)
	}

	shop, err := s.shopRepo.FindByID(ctx, shopID)
	if err != nil {
		logger.Error("failed to find shop for reward sync", "shop_id", shopID, "error", err)
		return domain.RewardSyncResult{}, err
	}

	var locked domain.Shop
	sync := syncset.Synchronizer[domain.Reward, domain.RewardInput]{
		Strategy: rewardStrategy(),
		Validate: func(ctx context.Context, incoming []domain.RewardInput) error {
			return s.validator.Validate(shop, incoming)
		},
		Load: func(ctx context.Context) ([]domain.Reward, error) {
			locked, err = s.shopRepo.FindByIDForUpdate(ctx, shopID)
			if err != nil {
				return nil, err
			}
			return s.rewardRepo.FindByShop(ctx, shopID)
		},
		Check: func(ctx context.Context, plan syncset.Plan[domain.Reward, domain.RewardInput]) error {
			// shop policy may have changed between the first read and the lock
			if locked.IsGuaranteedWin != shop.IsGuaranteedWin {
				if err := s.validator.Validate(locked, inputs); err != nil {
					return err
				}
			}
			return checkUnlimitedRemoval(locked, plan)
		},
		Applier: syncset.Applier[domain.Reward, domain.RewardInput]{
			Create: func(ctx context.Context, in domain.RewardInput) (domain.Reward, error) {
				r := domain.Reward{ShopID: shopID}
				applyInput(&r, in)
				if err := s.rewardRepo.Create(ctx, &r); err != nil {
					return domain.Reward{}, err
				}
				return r, nil
			},
			Update: func(ctx context.Context, stored domain.Reward, in domain.RewardInput) (domain.Reward, error) {
				applyInput(&stored, in)
				if err := s.rewardRepo.Update(ctx, &stored); err != nil {
					return domain.Reward{}, err
				}
				return stored, nil
			},
			Delete: func(ctx context.Context, stored domain.Reward) error {
				return s.rewardRepo.Delete(ctx, stored.ID)
			},
		},
	}

	result, err := sync.Run(ctx, s.tx, inputs)
	if err != nil {
		metrics.SyncTotal.WithLabelValues("reward", "rejected").Inc()
		logger.Warn("reward sync rejected", "shop_id", shopID, "error", err)
		return domain.RewardSyncResult{}, err
	}

	metrics.SyncTotal.WithLabelValues("reward", "applied").Inc()
	logger.Info("reward set synchronized",
		"shop_id", shopID,
		"created", len(result.Created),
		"updated", len(result.Updated),
		"deleted", len(result.DeletedIDs),
	)

	return result, nil
}

func rewardStrategy() syncset.Strategy[domain.Reward, domain.RewardInput] {
	return syncset.Strategy[domain.Reward, domain.RewardInput]{
		StoredID: func(r domain.Reward) uint64 { return r.ID },
		IncomingID: func(in domain.RewardInput) (uint64, bool) {
			if in.ID == nil || *in.ID == 0 {
				return 0, false
			}
			return *in.ID, true
		},
		Changed: rewardChanged,
		UnknownID: func(id uint64) error {
			return domain.NewNotFoundError(domain.ResourceReward, id)
		},
	}
}

func applyInput(r *domain.Reward, in domain.RewardInput) {
	r.Name = strings.TrimSpace(in.Name)
	r.Percentage = in.Percentage
	r.IsUnlimited = in.IsUnlimited
	r.RemainingToWin = stockOf(in)
	r.Status = in.EffectiveStatus()
}

func stockOf(in domain.RewardInput) *int {
	if in.IsUnlimited || in.RemainingToWin == nil {
		return nil
	}
	v := *in.RemainingToWin
	return &v
}

func rewardChanged(r domain.Reward, in domain.RewardInput) bool {
	if r.Name != strings.TrimSpace(in.Name) ||
		r.Percentage != in.Percentage ||
		r.IsUnlimited != in.IsUnlimited ||
		r.Status != in.EffectiveStatus() {
		return true
	}

	want := stockOf(in)
	switch {
	case r.RemainingToWin == nil && want == nil:
		return false
	case r.RemainingToWin == nil || want == nil:
		return true
	default:
		return *r.RemainingToWin != *want
	}
}

// checkUnlimitedRemoval refuses to turn a stored unlimited reward into a
// limited one on a guaranteed-win shop unless another stored reward stays
// ACTIVE and unlimited after the sync. Rewards created by the same
// submission do not count.
func checkUnlimitedRemoval(shop domain.Shop, plan syncset.Plan[domain.Reward, domain.RewardInput]) error {
	if !shop.IsGuaranteedWin {
		return nil
	}

	for i, c := range plan.Update {
		if !c.Stored.IsUnlimited || c.Incoming.IsUnlimited {
			continue
		}

		others := 0
		for _, r := range plan.Unchanged {
			if r.IsUnlimited && r.Status == domain.RewardStatusActive {
				others++
			}
		}
		for j, o := range plan.Update {
			if j != i && o.Incoming.IsUnlimited && o.Incoming.EffectiveStatus() == domain.RewardStatusActive {
				others++
			}
		}

		if others == 0 {
			return domain.NewValidationError(domain.KindCannotRemoveLastUnlimited, -1,
				"reward %q is the last unlimited reward of a guaranteed-win shop", c.Stored.Name)
		}
	}

	return nil
}
