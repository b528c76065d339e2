package memory

import (
	"context"
	"fmt"
	"sort"

	"myPromoGame/domain"
)

type ShopRepository struct{ st *Store }

func NewShopRepository(st *Store) *ShopRepository { return &ShopRepository{st: st} }

func (r *ShopRepository) FindByID(ctx context.Context, id uint64) (domain.Shop, error) {
	if err := ctx.Err(); err != nil {
		return domain.Shop{}, fmt.Errorf("context error: %w", err)
	}

	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	shop, ok := r.st.shops[id]
	if !ok {
		return domain.Shop{}, domain.NewNotFoundError(domain.ResourceShop, id)
	}
	return shop, nil
}

// FindByIDForUpdate needs no row lock here: transactions are already serialized.
func (r *ShopRepository) FindByIDForUpdate(ctx context.Context, id uint64) (domain.Shop, error) {
	return r.FindByID(ctx, id)
}

type GameAssignmentRepository struct{ st *Store }

func NewGameAssignmentRepository(st *Store) *GameAssignmentRepository {
	return &GameAssignmentRepository{st: st}
}

func (r *GameAssignmentRepository) FindActive(ctx context.Context, shopID uint64) (domain.GameAssignment, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.GameAssignment{}, false, fmt.Errorf("context error: %w", err)
	}

	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	var found *domain.GameAssignment
	for _, a := range r.st.assignments {
		if a.ShopID != shopID || !a.IsActive {
			continue
		}
		if found == nil || a.ID > found.ID {
			a := a
			found = &a
		}
	}
	if found == nil {
		return domain.GameAssignment{}, false, nil
	}
	return *found, true, nil
}

type RewardRepository struct{ st *Store }

func NewRewardRepository(st *Store) *RewardRepository { return &RewardRepository{st: st} }

func (r *RewardRepository) byShop(shopID uint64, keep func(domain.Reward) bool) []domain.Reward {
	out := make([]domain.Reward, 0)
	for _, rw := range r.st.rewards {
		if rw.ShopID == shopID && keep(rw) {
			out = append(out, cloneReward(rw))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *RewardRepository) FindByShop(ctx context.Context, shopID uint64) ([]domain.Reward, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.byShop(shopID, func(domain.Reward) bool { return true }), nil
}

func (r *RewardRepository) FindEligible(ctx context.Context, shopID uint64) ([]domain.Reward, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.byShop(shopID, domain.Reward.IsEligible), nil
}

func (r *RewardRepository) FindByID(ctx context.Context, id uint64) (domain.Reward, error) {
	if err := ctx.Err(); err != nil {
		return domain.Reward{}, fmt.Errorf("context error: %w", err)
	}

	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	rw, ok := r.st.rewards[id]
	if !ok {
		return domain.Reward{}, domain.NewNotFoundError(domain.ResourceReward, id)
	}
	return cloneReward(rw), nil
}

func (r *RewardRepository) Create(ctx context.Context, reward *domain.Reward) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	defer r.st.lockWrite(ctx)()
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	reward.ID = r.st.id()
	reward.CreatedAt = r.st.now()
	reward.UpdatedAt = reward.CreatedAt
	r.st.rewards[reward.ID] = cloneReward(*reward)
	return nil
}

func (r *RewardRepository) Update(ctx context.Context, reward *domain.Reward) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	defer r.st.lockWrite(ctx)()
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	stored, ok := r.st.rewards[reward.ID]
	if !ok {
		return domain.NewNotFoundError(domain.ResourceReward, reward.ID)
	}

	// winner_count belongs to the draw
	reward.WinnerCount = stored.WinnerCount
	reward.CreatedAt = stored.CreatedAt
	reward.UpdatedAt = r.st.now()
	r.st.rewards[reward.ID] = cloneReward(*reward)
	return nil
}

func (r *RewardRepository) Delete(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	defer r.st.lockWrite(ctx)()
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if _, ok := r.st.rewards[id]; !ok {
		return domain.NewNotFoundError(domain.ResourceReward, id)
	}
	delete(r.st.rewards, id)
	return nil
}

func (r *RewardRepository) DecrementIfPositive(ctx context.Context, id uint64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("context error: %w", err)
	}

	defer r.st.lockWrite(ctx)()
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	rw, ok := r.st.rewards[id]
	if !ok {
		return false, domain.NewNotFoundError(domain.ResourceReward, id)
	}
	if !rw.IsUnlimited {
		if rw.RemainingToWin == nil || *rw.RemainingToWin <= 0 {
			return false, nil
		}
		left := *rw.RemainingToWin - 1
		rw.RemainingToWin = &left
	}
	rw.WinnerCount++
	rw.UpdatedAt = r.st.now()
	r.st.rewards[id] = rw
	return true, nil
}

type ActionCatalog struct{ st *Store }

func NewActionCatalog(st *Store) *ActionCatalog { return &ActionCatalog{st: st} }

func (r *ActionCatalog) FindActive(ctx context.Context, actionID uint64) (domain.Action, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Action{}, false, fmt.Errorf("context error: %w", err)
	}

	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	a, ok := r.st.actions[actionID]
	if !ok || !a.IsActive {
		return domain.Action{}, false, nil
	}
	return a, true, nil
}

type ChosenActionRepository struct{ st *Store }

func NewChosenActionRepository(st *Store) *ChosenActionRepository {
	return &ChosenActionRepository{st: st}
}

func (r *ChosenActionRepository) FindByShop(ctx context.Context, shopID uint64) ([]domain.ChosenAction, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	out := make([]domain.ChosenAction, 0)
	for _, a := range r.st.chosen {
		if a.ShopID == shopID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ChosenActionRepository) Create(ctx context.Context, action *domain.ChosenAction) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	defer r.st.lockWrite(ctx)()
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	action.ID = r.st.id()
	action.CreatedAt = r.st.now()
	action.UpdatedAt = action.CreatedAt
	r.st.chosen[action.ID] = *action
	return nil
}

func (r *ChosenActionRepository) Update(ctx context.Context, action *domain.ChosenAction) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	defer r.st.lockWrite(ctx)()
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	stored, ok := r.st.chosen[action.ID]
	if !ok {
		return domain.NewNotFoundError(domain.ResourceAction, action.ID)
	}
	action.CreatedAt = stored.CreatedAt
	action.UpdatedAt = r.st.now()
	r.st.chosen[action.ID] = *action
	return nil
}

func (r *ChosenActionRepository) Delete(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	defer r.st.lockWrite(ctx)()
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if _, ok := r.st.chosen[id]; !ok {
		return domain.NewNotFoundError(domain.ResourceAction, id)
	}
	delete(r.st.chosen, id)
	return nil
}

type PlayRecordRepository struct{ st *Store }

func NewPlayRecordRepository(st *Store) *PlayRecordRepository {
	return &PlayRecordRepository{st: st}
}

func (r *PlayRecordRepository) FindLatest(ctx context.Context, userID, shopID uint64) (domain.PlayRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.PlayRecord{}, false, fmt.Errorf("context error: %w", err)
	}

	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	var latest *domain.PlayRecord
	for _, p := range r.st.plays {
		if p.UserID != userID || p.ShopID != shopID {
			continue
		}
		if latest == nil || p.LastPlayedAt.After(latest.LastPlayedAt) {
			p := clonePlay(p)
			latest = &p
		}
	}
	if latest == nil {
		return domain.PlayRecord{}, false, nil
	}
	return *latest, true, nil
}

func (r *PlayRecordRepository) Create(ctx context.Context, record *domain.PlayRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	defer r.st.lockWrite(ctx)()
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	for _, p := range r.st.plays {
		if p.UserID == record.UserID && p.ShopID == record.ShopID {
			return fmt.Errorf("play record for user %d and shop %d already exists", record.UserID, record.ShopID)
		}
	}
	record.ID = r.st.id()
	record.CreatedAt = r.st.now()
	record.UpdatedAt = record.CreatedAt
	r.st.plays[record.ID] = clonePlay(*record)
	return nil
}

func (r *PlayRecordRepository) Update(ctx context.Context, record *domain.PlayRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	defer r.st.lockWrite(ctx)()
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	stored, ok := r.st.plays[record.ID]
	if !ok {
		return fmt.Errorf("play record %d not found", record.ID)
	}
	record.CreatedAt = stored.CreatedAt
	record.UpdatedAt = r.st.now()
	r.st.plays[record.ID] = clonePlay(*record)
	return nil
}

type DrawEventRepository struct{ st *Store }

func NewDrawEventRepository(st *Store) *DrawEventRepository {
	return &DrawEventRepository{st: st}
}

func (r *DrawEventRepository) SaveEvent(ctx context.Context, event domain.DrawEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	defer r.st.lockWrite(ctx)()
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	event.ID = r.st.id()
	event.CreatedAt = r.st.now()
	r.st.events = append(r.st.events, event)
	return nil
}

// FindByShop returns the newest events first.
func (r *DrawEventRepository) FindByShop(ctx context.Context, shopID uint64, limit int) ([]domain.DrawEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	out := make([]domain.DrawEvent, 0)
	for i := len(r.st.events) - 1; i >= 0; i-- {
		if r.st.events[i].ShopID != shopID {
			continue
		}
		out = append(out, r.st.events[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
