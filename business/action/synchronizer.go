package action

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"myPromoGame/business/syncset"
	"myPromoGame/domain"
	"myPromoGame/pkg/logger"
	"myPromoGame/pkg/metrics"

	"github.com/go-playground/validator/v10"
)

type SetSynchronizer struct {
	shopRepo   ShopRepository
	catalog    Catalog
	chosenRepo ChosenActionRepository
	tx         syncset.Transactor
	validate   *validator.Validate
}

func NewSetSynchronizer(
	shopRepo ShopRepository,
	catalog Catalog,
	chosenRepo ChosenActionRepository,
	tx syncset.Transactor,
	validate *validator.Validate,
) *SetSynchronizer {
	if validate == nil {
		validate = validator.New()
	}
	return &SetSynchronizer{
		shopRepo:   shopRepo,
		catalog:    catalog,
		chosenRepo: chosenRepo,
		tx:         tx,
		validate:   validate,
	}
}

// Synchronize replaces the shop's ordered action list with inputs.
func (s *SetSynchronizer) Synchronize(ctx context.Context, shopID uint64, inputs []domain.ActionInput) (domain.ActionSyncResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.ActionSyncResult{}, fmt.Errorf("context error: %w", err)
	}

	if _, err := s.shopRepo.FindByID(ctx, shopID); err != nil {
		logger.Error("failed to find shop for action sync", "shop_id", shopID, "error", err)
		return domain.ActionSyncResult{}, err
	}

	resolved, err := s.resolve(ctx, inputs)
	if err != nil {
		metrics.SyncTotal.WithLabelValues("action", "rejected").Inc()
		logger.Warn("action sync rejected", "shop_id", shopID, "error", err)
		return domain.ActionSyncResult{}, err
	}

	sync := syncset.Synchronizer[domain.ChosenAction, domain.ActionInput]{
		Strategy: actionStrategy(),
		Load: func(ctx context.Context) ([]domain.ChosenAction, error) {
			if _, err := s.shopRepo.FindByIDForUpdate(ctx, shopID); err != nil {
				return nil, err
			}
			return s.chosenRepo.FindByShop(ctx, shopID)
		},
		Applier: syncset.Applier[domain.ChosenAction, domain.ActionInput]{
			Create: func(ctx context.Context, in domain.ActionInput) (domain.ChosenAction, error) {
				a := domain.ChosenAction{ShopID: shopID}
				applyInput(&a, in)
				if err := s.chosenRepo.Create(ctx, &a); err != nil {
					return domain.ChosenAction{}, err
				}
				return a, nil
			},
			Update: func(ctx context.Context, stored domain.ChosenAction, in domain.ActionInput) (domain.ChosenAction, error) {
				applyInput(&stored, in)
				if err := s.chosenRepo.Update(ctx, &stored); err != nil {
					return domain.ChosenAction{}, err
				}
				return stored, nil
			},
			Delete: func(ctx context.Context, stored domain.ChosenAction) error {
				return s.chosenRepo.Delete(ctx, stored.ID)
			},
		},
	}

	result, err := sync.Run(ctx, s.tx, resolved)
	if err != nil {
		metrics.SyncTotal.WithLabelValues("action", "rejected").Inc()
		logger.Warn("action sync rejected", "shop_id", shopID, "error", err)
		return domain.ActionSyncResult{}, err
	}

	metrics.SyncTotal.WithLabelValues("action", "applied").Inc()
	logger.Info("action set synchronized",
		"shop_id", shopID,
		"created", len(result.Created),
		"updated", len(result.Updated),
		"deleted", len(result.DeletedIDs),
	)

	return result, nil
}

// resolve validates inputs and fills in positions and catalog defaults.
// The returned slice is what gets diffed against storage.
func (s *SetSynchronizer) resolve(ctx context.Context, inputs []domain.ActionInput) ([]domain.ActionInput, error) {
	if len(inputs) == 0 {
		return nil, domain.NewValidationError(domain.KindEmptyActionSet, -1, "at least one action is required")
	}

	out := make([]domain.ActionInput, len(inputs))
	positions := make(map[int]int, len(inputs))

	for i, in := range inputs {
		if err := s.checkShape(i, in); err != nil {
			return nil, err
		}
		if in.Position == 0 {
			continue
		}
		if first, dup := positions[in.Position]; dup {
			return nil, domain.NewValidationError(domain.KindDuplicatePosition, i,
				"position %d is already used by item %d", in.Position, first)
		}
		positions[in.Position] = i
	}

	// blank positions take the lowest free slots, in list order
	next := 1
	for i, in := range inputs {
		if in.Position == 0 {
			for {
				if _, taken := positions[next]; !taken {
					break
				}
				next++
			}
			in.Position = next
			positions[next] = i
		}

		catalogAction, ok, err := s.catalog.FindActive(ctx, in.ActionID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up action %d: %w", in.ActionID, err)
		}
		if !ok {
			return nil, domain.NewValidationError(domain.KindUnknownOrInactiveAction, i,
				"action %d does not exist or is inactive", in.ActionID)
		}

		in.Name = strings.TrimSpace(in.Name)
		if in.Name == "" {
			in.Name = catalogAction.Name
		}
		in.TargetLink = strings.TrimSpace(in.TargetLink)
		if in.TargetLink == "" {
			in.TargetLink = catalogAction.DefaultLink
		}

		out[i] = in
	}

	return out, nil
}

func (s *SetSynchronizer) checkShape(i int, in domain.ActionInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	switch verrs[0].Field() {
	case "ActionID":
		return domain.NewValidationError(domain.KindUnknownOrInactiveAction, i, "action id is required")
	case "Position":
		return domain.NewValidationError(domain.KindInvalidPosition, i, "position must not be negative, got %d", in.Position)
	case "TargetLink":
		return domain.NewValidationError(domain.KindInvalidLink, i, "target link %q is not a valid url", in.TargetLink)
	default:
		return err
	}
}

func actionStrategy() syncset.Strategy[domain.ChosenAction, domain.ActionInput] {
	return syncset.Strategy[domain.ChosenAction, domain.ActionInput]{
		StoredID: func(a domain.ChosenAction) uint64 { return a.ID },
		IncomingID: func(in domain.ActionInput) (uint64, bool) {
			if in.ID == nil || *in.ID == 0 {
				return 0, false
			}
			return *in.ID, true
		},
		Changed: func(a domain.ChosenAction, in domain.ActionInput) bool {
			return a.ActionID != in.ActionID ||
				a.Name != in.Name ||
				a.Position != in.Position ||
				a.TargetLink != in.TargetLink
		},
		UnknownID: func(id uint64) error {
			return domain.NewNotFoundError(domain.ResourceAction, id)
		},
	}
}

func applyInput(a *domain.ChosenAction, in domain.ActionInput) {
	a.ActionID = in.ActionID
	a.Name = in.Name
	a.Position = in.Position
	a.TargetLink = in.TargetLink
}
