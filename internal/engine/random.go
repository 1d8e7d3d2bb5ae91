package engine

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Random is the source of every random draw the engine makes.
type Random interface {
	// IntRange returns a uniform integer in [min, max], both inclusive.
	IntRange(min, max int) int
	// Intn returns a uniform integer in [0, n).
	Intn(n int) int
}

// lockedRandom makes a *rand.Rand safe to share between the engine loop and
// construction code.
type lockedRandom struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandom returns a Random seeded with seed. A zero seed picks one from the
// wall clock.
func NewRandom(seed int64) Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRandom{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRandom) IntRange(min, max int) int {
	if max <= min {
		return min
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return min + l.r.Intn(max-min+1)
}

func (l *lockedRandom) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

// GeometricMean returns the n-th root of the product of values.
// An empty slice yields 0, as does any zero value.
func GeometricMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var logSum float64
	for _, v := range values {
		if v <= 0 {
			return 0
		}
		logSum += math.Log(v)
	}
	return math.Exp(logSum / float64(len(values)))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
