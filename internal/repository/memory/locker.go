package memory

import (
	"context"
	"sync"
	"time"

	"myPromoGame/domain"
)

// Locker is a keyed mutex for single-process deployments.
type Locker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	wait  time.Duration
}

// NewLocker returns a Locker that gives up after wait. A zero wait fails
// immediately when the key is held.
func NewLocker(wait time.Duration) *Locker {
	return &Locker{slots: make(map[string]chan struct{}), wait: wait}
}

func (l *Locker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	ch := l.slot(key)
	release := func() { <-ch }

	select {
	case ch <- struct{}{}:
		return release, nil
	default:
	}

	if l.wait <= 0 {
		return nil, domain.ErrPlayInProgress
	}

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return release, nil
	case <-timer.C:
		return nil, domain.ErrPlayInProgress
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
