package processor

import (
	"math/rand/v2"
	"sync"
)

// Rand is the random source behind outcomes, confidence scores and stage
// delays. Implementations must be safe for concurrent use.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a goroutine-safe source. A zero seed draws a random one so
// production runs differ; any other seed replays the same sequence.
func NewRand(seed uint64) Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}
