package engine

import "errors"

// Configuration errors, returned by New before any timer starts.
var (
	ErrTooFewArmies        = errors.New("at least 2 armies need to be specified")
	ErrTooFewSquads        = errors.New("army has to contain at least 2 squads")
	ErrSquadSize           = errors.New("squad must have between 5 and 10 units")
	ErrUnsupportedStrategy = errors.New("unsupported strategy specified")
	ErrUnsupportedUnitType = errors.New("unsupported unit type specified")
)

// Runtime errors, returned by Run.
var (
	// ErrNoTarget means a squad became ready while no enemy squad was active.
	ErrNoTarget = errors.New("no enemy squad to target")
	// ErrStalemate means no active squad can win an attack against any target
	// it may pick, so the battle can never be decided.
	ErrStalemate = errors.New("battle reached a stalemate")
	// ErrStalled means a virtual clock ran out of timers before a winner emerged.
	ErrStalled = errors.New("battle stalled with no pending recharge")
	// ErrAlreadyRunning is returned when Run is called more than once.
	ErrAlreadyRunning = errors.New("battle already started")
)
