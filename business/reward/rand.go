package reward

import (
	"math/rand/v2"
	"sync"
)

// Rand is the uniform source used by the draw. Float64 returns a value in [0, 1).
type Rand interface {
	Float64() float64
}

type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Float64()
}

type globalRand struct{}

func (globalRand) Float64() float64 {
	return rand.Float64()
}

// NewRand returns a goroutine-safe source. A zero seed uses the runtime's
// randomly seeded generator; any other seed gives a reproducible sequence.
func NewRand(seed uint64) Rand {
	if seed == 0 {
		return globalRand{}
	}
	return &lockedRand{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}
