package engine

import (
	"fmt"
	"strings"
)

// Strategy decides which enemy squad an attacking squad targets.
type Strategy int

const (
	StrategyUnspecified Strategy = iota
	StrategyWeakest
	StrategyStrongest
	StrategyRandom
)

func (s Strategy) String() string {
	switch s {
	case StrategyWeakest:
		return "weakest"
	case StrategyStrongest:
		return "strongest"
	case StrategyRandom:
		return "random"
	default:
		return "unspecified"
	}
}

// ParseStrategy maps a configuration token to a Strategy.
// An empty token yields StrategyUnspecified without error.
func ParseStrategy(token string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "":
		return StrategyUnspecified, nil
	case "weakest":
		return StrategyWeakest, nil
	case "strongest":
		return StrategyStrongest, nil
	case "random":
		return StrategyRandom, nil
	default:
		return StrategyUnspecified, fmt.Errorf("%w: %q", ErrUnsupportedStrategy, token)
	}
}

// Select picks a squad from pool. It returns nil when the pool is empty.
// Ties under weakest and strongest go to the first squad found.
func (s Strategy) Select(pool []*Squad, rng Random) *Squad {
	if len(pool) == 0 {
		return nil
	}

	switch s {
	case StrategyWeakest:
		best := pool[0]
		bestDamage := best.Damage()
		for _, sq := range pool[1:] {
			if d := sq.Damage(); d < bestDamage {
				best, bestDamage = sq, d
			}
		}
		return best
	case StrategyStrongest:
		best := pool[0]
		bestDamage := best.Damage()
		for _, sq := range pool[1:] {
			if d := sq.Damage(); d > bestDamage {
				best, bestDamage = sq, d
			}
		}
		return best
	case StrategyRandom:
		return pool[rng.Intn(len(pool))]
	default:
		return nil
	}
}

// MarshalText encodes the strategy as its configuration token.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a configuration token.
func (s *Strategy) UnmarshalText(text []byte) error {
	if string(text) == "unspecified" {
		*s = StrategyUnspecified
		return nil
	}
	v, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
