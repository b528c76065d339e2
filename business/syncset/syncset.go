// Package syncset reconciles a declared collection (what the merchant
// submitted) with the rows currently stored for it: rows missing from the
// submission are deleted, submissions without an id are created and matched
// pairs are updated when something observable changed.
package syncset

import (
	"context"
	"fmt"

	"myPromoGame/domain"
)

// Transactor runs fn inside a single database transaction. The context
// passed to fn carries the transaction and must be used for every write.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Change[S, I any] struct {
	Stored   S
	Incoming I
}

type Plan[S, I any] struct {
	Create    []I
	Update    []Change[S, I]
	Unchanged []S
	Delete    []S
}

// Empty reports whether applying the plan would write nothing.
func (p Plan[S, I]) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// Strategy tells Diff how to identify and compare the two sides.
type Strategy[S, I any] struct {
	StoredID   func(S) uint64
	IncomingID func(I) (uint64, bool)

	// Changed reports whether applying in to s would alter a persisted field.
	// A nil Changed treats every matched pair as an update.
	Changed func(s S, in I) bool

	// UnknownID builds the error for an incoming id that matches no stored row.
	UnknownID func(id uint64) error
}

func (st Strategy[S, I]) unknown(id uint64) error {
	if st.UnknownID != nil {
		return st.UnknownID(id)
	}
	return fmt.Errorf("unknown id %d", id)
}

// Diff splits incoming against stored. Stored order is preserved for
// deletions and unchanged rows, incoming order for creates and updates.
func Diff[S, I any](stored []S, incoming []I, st Strategy[S, I]) (Plan[S, I], error) {
	byID := make(map[uint64]S, len(stored))
	for _, s := range stored {
		byID[st.StoredID(s)] = s
	}

	var plan Plan[S, I]
	seen := make(map[uint64]struct{}, len(incoming))

	for _, in := range incoming {
		id, ok := st.IncomingID(in)
		if !ok {
			plan.Create = append(plan.Create, in)
			continue
		}

		s, exists := byID[id]
		if !exists {
			return Plan[S, I]{}, st.unknown(id)
		}
		if _, dup := seen[id]; dup {
			return Plan[S, I]{}, fmt.Errorf("id %d submitted more than once", id)
		}
		seen[id] = struct{}{}

		if st.Changed == nil || st.Changed(s, in) {
			plan.Update = append(plan.Update, Change[S, I]{Stored: s, Incoming: in})
		} else {
			plan.Unchanged = append(plan.Unchanged, s)
		}
	}

	for _, s := range stored {
		if _, kept := seen[st.StoredID(s)]; !kept {
			plan.Delete = append(plan.Delete, s)
		}
	}

	return plan, nil
}

// Applier holds the persistence callbacks used by Apply.
type Applier[S, I any] struct {
	Create func(ctx context.Context, in I) (S, error)
	Update func(ctx context.Context, stored S, in I) (S, error)
	Delete func(ctx context.Context, stored S) error
}

// Apply writes the plan. Deletes go first so freed names and positions can
// be reused by the updates and creates that follow.
func Apply[S, I any](ctx context.Context, plan Plan[S, I], st Strategy[S, I], ap Applier[S, I]) (domain.SyncResult[S], error) {
	result := domain.SyncResult[S]{
		Created:    make([]S, 0, len(plan.Create)),
		Updated:    make([]S, 0, len(plan.Update)),
		DeletedIDs: make([]uint64, 0, len(plan.Delete)),
	}

	for _, s := range plan.Delete {
		if err := ap.Delete(ctx, s); err != nil {
			return domain.SyncResult[S]{}, err
		}
		result.DeletedIDs = append(result.DeletedIDs, st.StoredID(s))
	}

	for _, c := range plan.Update {
		updated, err := ap.Update(ctx, c.Stored, c.Incoming)
		if err != nil {
			return domain.SyncResult[S]{}, err
		}
		result.Updated = append(result.Updated, updated)
	}

	for _, in := range plan.Create {
		created, err := ap.Create(ctx, in)
		if err != nil {
			return domain.SyncResult[S]{}, err
		}
		result.Created = append(result.Created, created)
	}

	return result, nil
}

// Synchronizer is the full declarative-collection algorithm: validate the
// submission, then load, diff, check and apply inside one transaction.
type Synchronizer[S, I any] struct {
	Strategy Strategy[S, I]
	Applier  Applier[S, I]

	// Validate runs before the transaction opens; nothing is written when it fails.
	Validate func(ctx context.Context, incoming []I) error

	// Load reads the stored rows. It runs inside the transaction and should
	// lock what it reads.
	Load func(ctx context.Context) ([]S, error)

	// Check inspects the computed plan before any write.
	Check func(ctx context.Context, plan Plan[S, I]) error
}

func (s Synchronizer[S, I]) Run(ctx context.Context, tx Transactor, incoming []I) (domain.SyncResult[S], error) {
	if s.Validate != nil {
		if err := s.Validate(ctx, incoming); err != nil {
			return domain.SyncResult[S]{}, err
		}
	}

	var result domain.SyncResult[S]
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		stored, err := s.Load(ctx)
		if err != nil {
			return err
		}

		plan, err := Diff(stored, incoming, s.Strategy)
		if err != nil {
			return err
		}

		if s.Check != nil {
			if err := s.Check(ctx, plan); err != nil {
				return err
			}
		}

		result, err = Apply(ctx, plan, s.Strategy, s.Applier)
		return err
	})
	if err != nil {
		return domain.SyncResult[S]{}, err
	}

	return result, nil
}
