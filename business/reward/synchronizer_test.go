package reward

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myPromoGame/domain"
	"myPromoGame/internal/repository/memory"
)

type syncFixture struct {
	store   *memory.Store
	shop    domain.Shop
	rewards *memory.RewardRepository
	sync    *SetSynchronizer
}

func newSyncFixture(t *testing.T, shop domain.Shop) *syncFixture {
	t.Helper()
	st := memory.NewStore()
	f := &syncFixture{
		store:   st,
		shop:    st.AddShop(shop),
		rewards: memory.NewRewardRepository(st),
	}
	f.sync = NewSetSynchronizer(memory.NewShopRepository(st), f.rewards, st, NewSetValidator(nil))
	return f
}

func (f *syncFixture) stored(t *testing.T) []domain.Reward {
	t.Helper()
	got, err := f.rewards.FindByShop(context.Background(), f.shop.ID)
	require.NoError(t, err)
	return got
}

func asInputs(rewards []domain.Reward) []domain.RewardInput {
	out := make([]domain.RewardInput, 0, len(rewards))
	for _, r := range rewards {
		out = append(out, domain.RewardInput{
			ID:             idPtr(r.ID),
			Name:           r.Name,
			Percentage:     r.Percentage,
			IsUnlimited:    r.IsUnlimited,
			RemainingToWin: r.RemainingToWin,
			Status:         r.Status,
		})
	}
	return out
}

func TestSynchronize_CreatesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, domain.Shop{Name: "cafe", WinningPercentage: 50})

	res, err := f.sync.Synchronize(ctx, f.shop.ID, []domain.RewardInput{
		unlimited(" Drink ", 60),
		limited("Cake", 40, 10),
	})
	require.NoError(t, err)
	assert.Len(t, res.Created, 2)
	assert.Empty(t, res.Updated)
	assert.Empty(t, res.DeletedIDs)
	assert.Equal(t, "Drink", res.Created[0].Name)
	assert.Equal(t, domain.RewardStatusActive, res.Created[0].Status)
	assert.Nil(t, res.Created[0].RemainingToWin)

	again, err := f.sync.Synchronize(ctx, f.shop.ID, asInputs(f.stored(t)))
	require.NoError(t, err)
	assert.Empty(t, again.Created)
	assert.Empty(t, again.Updated)
	assert.Empty(t, again.DeletedIDs)
}

func TestSynchronize_CreateUpdateDelete(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, domain.Shop{Name: "cafe", WinningPercentage: 50})

	_, err := f.sync.Synchronize(ctx, f.shop.ID, []domain.RewardInput{
		unlimited("Drink", 60),
		limited("Cake", 40, 10),
	})
	require.NoError(t, err)
	stored := f.stored(t)

	drink := asInputs(stored)[0]
	drink.Percentage = 50

	res, err := f.sync.Synchronize(ctx, f.shop.ID, []domain.RewardInput{
		drink,
		unlimited("Cake", 50),
	})
	require.NoError(t, err)
	require.Len(t, res.Updated, 1)
	assert.Equal(t, 50.0, res.Updated[0].Percentage)
	require.Len(t, res.Created, 1)
	assert.Equal(t, "Cake", res.Created[0].Name)
	assert.Equal(t, []uint64{stored[1].ID}, res.DeletedIDs)

	sum := 0.0
	for _, r := range f.stored(t) {
		sum += r.Percentage
	}
	assert.Equal(t, 100.0, sum)
}

func TestSynchronize_EmptySetDeletesEverything(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, domain.Shop{Name: "cafe", WinningPercentage: 50})

	_, err := f.sync.Synchronize(ctx, f.shop.ID, []domain.RewardInput{unlimited("Drink", 100)})
	require.NoError(t, err)

	res, err := f.sync.Synchronize(ctx, f.shop.ID, nil)
	require.NoError(t, err)
	assert.Len(t, res.DeletedIDs, 1)
	assert.Empty(t, f.stored(t))
}

func TestSynchronize_ValidationWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, domain.Shop{Name: "cafe", IsGuaranteedWin: true})

	_, err := f.sync.Synchronize(ctx, f.shop.ID, []domain.RewardInput{limited("X", 100, 1)})
	requireKind(t, err, domain.KindGuaranteedWinRequiresUnlimited)
	assert.Empty(t, f.stored(t))
}

func TestSynchronize_CannotRemoveLastUnlimited(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, domain.Shop{Name: "cafe", IsGuaranteedWin: true})

	_, err := f.sync.Synchronize(ctx, f.shop.ID, []domain.RewardInput{
		unlimited("Drink", 60),
		limited("Cake", 40, 3),
	})
	require.NoError(t, err)
	before := f.stored(t)

	in := asInputs(before)
	in[0].IsUnlimited = false
	in[0].RemainingToWin = intPtr(5)
	in = append(in, unlimited("Cookie", 0.5))
	in[1].Percentage = 39.5

	_, err = f.sync.Synchronize(ctx, f.shop.ID, in)
	requireKind(t, err, domain.KindCannotRemoveLastUnlimited)
	assert.Equal(t, before, f.stored(t))
}

func TestSynchronize_UnlimitedRemovalAllowedWhenAnotherRemains(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, domain.Shop{Name: "cafe", IsGuaranteedWin: true})

	_, err := f.sync.Synchronize(ctx, f.shop.ID, []domain.RewardInput{
		unlimited("Drink", 60),
		unlimited("Cake", 40),
	})
	require.NoError(t, err)

	in := asInputs(f.stored(t))
	in[0].IsUnlimited = false
	in[0].RemainingToWin = intPtr(5)

	res, err := f.sync.Synchronize(ctx, f.shop.ID, in)
	require.NoError(t, err)
	require.Len(t, res.Updated, 1)
	assert.False(t, res.Updated[0].IsUnlimited)
	assert.Equal(t, 5, *res.Updated[0].RemainingToWin)
}

func TestSynchronize_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, domain.Shop{Name: "cafe", WinningPercentage: 50})

	_, err := f.sync.Synchronize(ctx, f.shop.ID+100, []domain.RewardInput{unlimited("Drink", 100)})
	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, domain.ResourceShop, nf.Resource)

	in := unlimited("Drink", 100)
	in.ID = idPtr(999)
	_, err = f.sync.Synchronize(ctx, f.shop.ID, []domain.RewardInput{in})
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, domain.ResourceReward, nf.Resource)
}

// rewardsFailingOn fails Create for one name to exercise rollback.
type rewardsFailingOn struct {
	*memory.RewardRepository
	name string
}

func (r rewardsFailingOn) Create(ctx context.Context, reward *domain.Reward) error {
	if reward.Name == r.name {
		return errors.New("insert failed")
	}
	return r.RewardRepository.Create(ctx, reward)
}

func TestSynchronize_RollsBackOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture(t, domain.Shop{Name: "cafe", WinningPercentage: 50})

	_, err := f.sync.Synchronize(ctx, f.shop.ID, []domain.RewardInput{unlimited("Drink", 100)})
	require.NoError(t, err)
	before := f.stored(t)

	failing := NewSetSynchronizer(
		memory.NewShopRepository(f.store),
		rewardsFailingOn{RewardRepository: f.rewards, name: "Boom"},
		f.store,
		NewSetValidator(nil),
	)
	_, err = failing.Synchronize(ctx, f.shop.ID, []domain.RewardInput{
		unlimited("Cake", 50),
		unlimited("Boom", 50),
	})
	require.Error(t, err)
	assert.Equal(t, before, f.stored(t))
}
