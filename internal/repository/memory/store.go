// Package memory keeps the engine's tables in process. It backs the draw
// simulator and the service tests; production uses the postgres package.
package memory

import (
	"context"
	"sync"
	"time"

	"myPromoGame/domain"
)

type txKey struct{}

// Store holds every table behind one mutex. Transactions are serialized
// and roll back by restoring a snapshot taken when they began. Repository
// writes made outside a transaction wait for the open one to finish, so a
// rollback never discards them. The Add* seeding helpers do not wait and
// must not be used while a transaction is running.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	now  func() time.Time

	nextID      uint64
	shops       map[uint64]domain.Shop
	assignments map[uint64]domain.GameAssignment
	rewards     map[uint64]domain.Reward
	actions     map[uint64]domain.Action
	chosen      map[uint64]domain.ChosenAction
	plays       map[uint64]domain.PlayRecord
	events      []domain.DrawEvent
}

func NewStore() *Store {
	return &Store{
		now:         time.Now,
		shops:       make(map[uint64]domain.Shop),
		assignments: make(map[uint64]domain.GameAssignment),
		rewards:     make(map[uint64]domain.Reward),
		actions:     make(map[uint64]domain.Action),
		chosen:      make(map[uint64]domain.ChosenAction),
		plays:       make(map[uint64]domain.PlayRecord),
	}
}

// SetClock replaces the clock used for created_at/updated_at stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) id() uint64 {
	s.nextID++
	return s.nextID
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}

	return nil
}

// lockWrite holds back a write made outside a transaction until no
// transaction is open. Writes inside a transaction return at once.
func (s *Store) lockWrite(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

type snapshot struct {
	nextID      uint64
	shops       map[uint64]domain.Shop
	assignments map[uint64]domain.GameAssignment
	rewards     map[uint64]domain.Reward
	actions     map[uint64]domain.Action
	chosen      map[uint64]domain.ChosenAction
	plays       map[uint64]domain.PlayRecord
	events      []domain.DrawEvent
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		nextID:      s.nextID,
		shops:       copyMap(s.shops),
		assignments: copyMap(s.assignments),
		rewards:     make(map[uint64]domain.Reward, len(s.rewards)),
		actions:     copyMap(s.actions),
		chosen:      copyMap(s.chosen),
		plays:       make(map[uint64]domain.PlayRecord, len(s.plays)),
		events:      append([]domain.DrawEvent(nil), s.events...),
	}
	for k, v := range s.rewards {
		snap.rewards[k] = cloneReward(v)
	}
	for k, v := range s.plays {
		snap.plays[k] = clonePlay(v)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.nextID = snap.nextID
	s.shops = snap.shops
	s.assignments = snap.assignments
	s.rewards = snap.rewards
	s.actions = snap.actions
	s.chosen = snap.chosen
	s.plays = snap.plays
	s.events = snap.events
}

func copyMap[V any](m map[uint64]V) map[uint64]V {
	out := make(map[uint64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneReward(r domain.Reward) domain.Reward {
	if r.RemainingToWin != nil {
		v := *r.RemainingToWin
		r.RemainingToWin = &v
	}
	return r
}

func clonePlay(p domain.PlayRecord) domain.PlayRecord {
	if p.RewardID != nil {
		v := *p.RewardID
		p.RewardID = &v
	}
	return p
}

// AddShop inserts a shop and returns it with its id.
func (s *Store) AddShop(shop domain.Shop) domain.Shop {
	s.mu.Lock()
	defer s.mu.Unlock()

	shop.ID = s.id()
	if shop.Status == "" {
		shop.Status = domain.ShopStatusActive
	}
	shop.CreatedAt = s.now()
	shop.UpdatedAt = shop.CreatedAt
	s.shops[shop.ID] = shop
	return shop
}

// UpdateShop overwrites a stored shop.
func (s *Store) UpdateShop(shop domain.Shop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shop.UpdatedAt = s.now()
	s.shops[shop.ID] = shop
}

func (s *Store) AddGameAssignment(a domain.GameAssignment) domain.GameAssignment {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.id()
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	s.assignments[a.ID] = a
	return a
}

func (s *Store) AddAction(a domain.Action) domain.Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.ID = s.id()
	a.CreatedAt = s.now()
	s.actions[a.ID] = a
	return a
}

// Events returns a copy of the recorded draw events.
func (s *Store) Events() []domain.DrawEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.DrawEvent(nil), s.events...)
}
