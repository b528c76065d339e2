package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"myPromoGame/domain"
)

func intPtr(v int) *int { return &v }

func TestWithinTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	shop := st.AddShop(domain.Shop{Name: "cafe", WinningPercentage: 50})
	rewards := NewRewardRepository(st)

	kept := &domain.Reward{ShopID: shop.ID, Name: "Drink", Percentage: 100, IsUnlimited: true, Status: domain.RewardStatusActive}
	require.NoError(t, rewards.Create(ctx, kept))

	boom := errors.New("boom")
	err := st.WithinTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, rewards.Delete(ctx, kept.ID))
		require.NoError(t, rewards.Create(ctx, &domain.Reward{ShopID: shop.ID, Name: "Cake", Percentage: 100, IsUnlimited: true}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := rewards.FindByShop(ctx, shop.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Drink", got[0].Name)
}

func TestWithinTransaction_Nested(t *testing.T) {
	st := NewStore()
	calls := 0
	err := st.WithinTransaction(context.Background(), func(ctx context.Context) error {
		return st.WithinTransaction(ctx, func(context.Context) error {
			calls++
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithinTransaction_RollbackKeepsOutsideWrites(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	rewards := NewRewardRepository(st)
	r := &domain.Reward{ShopID: 1, Name: "Cap", Percentage: 100, RemainingToWin: intPtr(2), Status: domain.RewardStatusActive}
	require.NoError(t, rewards.Create(ctx, r))

	entered := make(chan struct{})
	proceed := make(chan struct{})
	txErr := make(chan error, 1)
	go func() {
		txErr <- st.WithinTransaction(ctx, func(context.Context) error {
			close(entered)
			<-proceed
			return errors.New("boom")
		})
	}()
	<-entered

	written := make(chan struct{})
	go func() {
		defer close(written)
		ok, err := rewards.DecrementIfPositive(ctx, r.ID)
		assert.NoError(t, err)
		assert.True(t, ok)
	}()

	select {
	case <-written:
		t.Fatal("write outside the transaction did not wait for it")
	case <-time.After(50 * time.Millisecond):
	}

	close(proceed)
	require.Error(t, <-txErr)
	<-written

	got, err := rewards.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, *got.RemainingToWin)
	assert.Equal(t, 1, got.WinnerCount)
}

func TestDecrementIfPositive_NeverNegative(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	rewards := NewRewardRepository(st)
	r := &domain.Reward{ShopID: 1, Name: "Cap", Percentage: 10, RemainingToWin: intPtr(5), Status: domain.RewardStatusActive}
	require.NoError(t, rewards.Create(ctx, r))

	var wins atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := rewards.DecrementIfPositive(ctx, r.ID)
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 5, wins.Load())
	got, err := rewards.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, *got.RemainingToWin)
	assert.Equal(t, 5, got.WinnerCount)
	assert.False(t, got.IsEligible())
}

func TestRewardUpdate_KeepsWinnerCount(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	rewards := NewRewardRepository(st)
	r := &domain.Reward{ShopID: 1, Name: "Cap", Percentage: 10, IsUnlimited: true, Status: domain.RewardStatusActive}
	require.NoError(t, rewards.Create(ctx, r))
	_, err := rewards.DecrementIfPositive(ctx, r.ID)
	require.NoError(t, err)

	upd := domain.Reward{ID: r.ID, ShopID: 1, Name: "Hat", Percentage: 20, IsUnlimited: true, Status: domain.RewardStatusActive}
	require.NoError(t, rewards.Update(ctx, &upd))

	got, err := rewards.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hat", got.Name)
	assert.Equal(t, 1, got.WinnerCount)
}

func TestFindEligible_OrderAndFilter(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	st.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	})
	rewards := NewRewardRepository(st)

	for _, r := range []domain.Reward{
		{ShopID: 1, Name: "A", Percentage: 50, IsUnlimited: true, Status: domain.RewardStatusActive},
		{ShopID: 1, Name: "B", Percentage: 50, RemainingToWin: intPtr(0), Status: domain.RewardStatusActive},
		{ShopID: 1, Name: "C", Percentage: 50, IsUnlimited: true, Status: domain.RewardStatusArchived},
		{ShopID: 1, Name: "D", Percentage: 50, RemainingToWin: intPtr(3), Status: domain.RewardStatusActive},
		{ShopID: 2, Name: "E", Percentage: 50, IsUnlimited: true, Status: domain.RewardStatusActive},
	} {
		r := r
		require.NoError(t, rewards.Create(ctx, &r))
	}

	got, err := rewards.FindEligible(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "D", got[1].Name)
}

func TestChosenAction_FindByShopOrdersByPosition(t *testing.T) {
	ctx := context.Background()
	repo := NewChosenActionRepository(NewStore())
	require.NoError(t, repo.Create(ctx, &domain.ChosenAction{ShopID: 1, ActionID: 1, Position: 2}))
	require.NoError(t, repo.Create(ctx, &domain.ChosenAction{ShopID: 1, ActionID: 2, Position: 1}))
	require.NoError(t, repo.Create(ctx, &domain.ChosenAction{ShopID: 2, ActionID: 3, Position: 1}))

	got, err := repo.FindByShop(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.EqualValues(t, 2, got[0].ActionID)
	assert.EqualValues(t, 1, got[1].ActionID)
}

func TestPlayRecord_OnePerUserAndShop(t *testing.T) {
	ctx := context.Background()
	repo := NewPlayRecordRepository(NewStore())
	now := time.Now()

	rec := &domain.PlayRecord{UserID: 7, ShopID: 1, LastPlayedAt: now, PlayCount: 1}
	require.NoError(t, repo.Create(ctx, rec))
	assert.Error(t, repo.Create(ctx, &domain.PlayRecord{UserID: 7, ShopID: 1, LastPlayedAt: now}))

	rec.LastPlayedAt = now.Add(time.Hour)
	rec.PlayCount = 2
	require.NoError(t, repo.Update(ctx, rec))

	got, ok, err := repo.FindLatest(ctx, 7, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, got.PlayCount)

	_, ok, err = repo.FindLatest(ctx, 8, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}
