package pet

import (
	"math/rand"
	"sync"
	"time"
)

// Clock supplies the engine's absolute time base in milliseconds.
type Clock interface {
	NowMillis() int64
}

// Rand is the random source behind probabilistic events.
type Rand interface {
	// Intn returns a uniform integer in [0,n).
	Intn(n int) int
}

// SystemClock reads Unix milliseconds.
type SystemClock struct{}

func (SystemClock) NowMillis() int64 { return time.Now().UnixMilli() }

// lockedRand makes a *rand.Rand safe to share with the minigame and templates.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a Rand seeded with seed.
func NewRand(seed int64) Rand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
