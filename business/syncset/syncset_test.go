package syncset

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	id   uint64
	name string
}

type item struct {
	id   *uint64
	name string
}

func idp(v uint64) *uint64 { return &v }

var testStrategy = Strategy[row, item]{
	StoredID: func(r row) uint64 { return r.id },
	IncomingID: func(i item) (uint64, bool) {
		if i.id == nil {
			return 0, false
		}
		return *i.id, true
	},
	Changed: func(r row, i item) bool { return r.name != i.name },
}

type passthroughTx struct {
	calls int
}

func (p *passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

func TestDiff_SplitsCreateUpdateDelete(t *testing.T) {
	stored := []row{{1, "a"}, {2, "b"}, {3, "c"}}
	incoming := []item{{idp(1), "a"}, {idp(2), "B"}, {nil, "d"}}

	plan, err := Diff(stored, incoming, testStrategy)
	require.NoError(t, err)

	assert.Equal(t, []item{{nil, "d"}}, plan.Create)
	require.Len(t, plan.Update, 1)
	assert.Equal(t, uint64(2), plan.Update[0].Stored.id)
	assert.Equal(t, "B", plan.Update[0].Incoming.name)
	assert.Equal(t, []row{{1, "a"}}, plan.Unchanged)
	assert.Equal(t, []row{{3, "c"}}, plan.Delete)
	assert.False(t, plan.Empty())
}

func TestDiff_IdenticalSetIsEmpty(t *testing.T) {
	stored := []row{{1, "a"}, {2, "b"}}
	incoming := []item{{idp(1), "a"}, {idp(2), "b"}}

	plan, err := Diff(stored, incoming, testStrategy)
	require.NoError(t, err)
	assert.True(t, plan.Empty())
	assert.Len(t, plan.Unchanged, 2)
}

func TestDiff_UnknownID(t *testing.T) {
	sentinel := errors.New("no such row")
	st := testStrategy
	st.UnknownID = func(id uint64) error { return sentinel }

	_, err := Diff([]row{{1, "a"}}, []item{{idp(9), "x"}}, st)
	require.ErrorIs(t, err, sentinel)
}

func TestDiff_DuplicateID(t *testing.T) {
	_, err := Diff([]row{{1, "a"}}, []item{{idp(1), "a"}, {idp(1), "b"}}, testStrategy)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than once")
}

func TestDiff_NilChangedUpdatesEveryMatch(t *testing.T) {
	st := testStrategy
	st.Changed = nil

	plan, err := Diff([]row{{1, "a"}}, []item{{idp(1), "a"}}, st)
	require.NoError(t, err)
	assert.Len(t, plan.Update, 1)
}

func TestSynchronizer_RunAppliesDeletesFirst(t *testing.T) {
	var ops []string
	store := map[uint64]row{1: {1, "a"}, 2: {2, "b"}}
	next := uint64(3)

	s := Synchronizer[row, item]{
		Strategy: testStrategy,
		Load: func(ctx context.Context) ([]row, error) {
			return []row{store[1], store[2]}, nil
		},
		Applier: Applier[row, item]{
			Create: func(ctx context.Context, in item) (row, error) {
				ops = append(ops, "create "+in.name)
				r := row{next, in.name}
				store[next] = r
				next++
				return r, nil
			},
			Update: func(ctx context.Context, r row, in item) (row, error) {
				ops = append(ops, "update "+in.name)
				r.name = in.name
				store[r.id] = r
				return r, nil
			},
			Delete: func(ctx context.Context, r row) error {
				ops = append(ops, "delete "+r.name)
				delete(store, r.id)
				return nil
			},
		},
	}

	tx := &passthroughTx{}
	res, err := s.Run(context.Background(), tx, []item{{idp(1), "a2"}, {nil, "c"}})
	require.NoError(t, err)

	assert.Equal(t, 1, tx.calls)
	assert.Equal(t, []string{"delete b", "update a2", "create c"}, ops)
	assert.Equal(t, []uint64{2}, res.DeletedIDs)
	require.Len(t, res.Updated, 1)
	require.Len(t, res.Created, 1)
	assert.Equal(t, "c", res.Created[0].name)
}

func TestSynchronizer_ValidateFailsBeforeTransaction(t *testing.T) {
	sentinel := errors.New("invalid")
	s := Synchronizer[row, item]{
		Strategy: testStrategy,
		Validate: func(ctx context.Context, incoming []item) error { return sentinel },
		Load: func(ctx context.Context) ([]row, error) {
			t.Fatal("load must not run")
			return nil, nil
		},
	}

	tx := &passthroughTx{}
	_, err := s.Run(context.Background(), tx, nil)
	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, 0, tx.calls)
}

func TestSynchronizer_CheckBlocksWrites(t *testing.T) {
	sentinel := errors.New("guard")
	s := Synchronizer[row, item]{
		Strategy: testStrategy,
		Load: func(ctx context.Context) ([]row, error) {
			return []row{{1, "a"}}, nil
		},
		Check: func(ctx context.Context, plan Plan[row, item]) error { return sentinel },
		Applier: Applier[row, item]{
			Delete: func(ctx context.Context, r row) error {
				t.Fatal("delete must not run")
				return nil
			},
		},
	}

	_, err := s.Run(context.Background(), &passthroughTx{}, nil)
	require.ErrorIs(t, err, sentinel)
}
