// Package engine simulates an asynchronous battle between armies of squads.
//
// Every unit recharges on its own timer. Timer callbacks never touch battle
// state: they enqueue a readiness signal that the single engine loop in Run
// consumes, so health, experience and readiness counters have one writer.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/battlesim/battlesim/internal/queue"
	"github.com/battlesim/battlesim/internal/scenario"
)

// Result is the terminal outcome of a battle.
type Result struct {
	// Winner is the name of the last active army.
	Winner  string
	Elapsed time.Duration
	Attacks int
	Hits    int
}

// signal is either a completed recharge or a request to re-evaluate a squad's
// barrier after it took casualties.
type signal struct {
	unit  *unit
	cycle uint64
	squad *Squad
}

// env is what units and squads need from their battle.
type env struct {
	clock    Clock
	rng      Random
	timeUnit time.Duration
	deliver  func(signal)
	notify   func(Event)
}

// Option configures a Battle.
type Option func(*options)

type options struct {
	clock    Clock
	rng      Random
	timeUnit time.Duration
	notifier Notifier
	logger   *slog.Logger
}

// WithClock sets the clock driving recharge timers. Defaults to RealClock.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithRandom overrides the random source. Defaults to one seeded from the scenario.
func WithRandom(r Random) Option {
	return func(o *options) { o.rng = r }
}

// WithTimeUnit sets the wall duration of one recharge time unit. Defaults to 1ms.
func WithTimeUnit(d time.Duration) Option {
	return func(o *options) { o.timeUnit = d }
}

// WithNotifier subscribes n to engine events.
func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Battle owns the armies and is the only authority on win detection.
//
// Query methods on Battle, Army, Squad and Unit read live state without
// locking. They are safe before Run, after Run returns, and from a Notifier.
// Concurrent observers use Snapshot instead.
type Battle struct {
	mu      sync.RWMutex
	armies  []*Army
	env     *env
	clock   Clock
	rng     Random
	logger  *slog.Logger
	signals *queue.Queue[signal]
	wake    chan struct{}

	started   atomic.Bool
	startedAt time.Time
	attacks   int
	hits      int
	result    *Result
}

// New validates cfg and builds every army, squad and unit. No timer starts
// until Run.
func New(cfg *scenario.Battle, opts ...Option) (*Battle, error) {
	plans, err := plan(cfg)
	if err != nil {
		return nil, err
	}

	o := options{
		clock:    RealClock{},
		timeUnit: time.Millisecond,
		notifier: nopNotifier{},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = NewRandom(cfg.Seed)
	}

	b := &Battle{
		clock:     o.clock,
		rng:       o.rng,
		logger:    o.logger,
		signals:   queue.New[signal](),
		wake:      make(chan struct{}, 1),
		startedAt: o.clock.Now(),
	}
	notifier := o.notifier
	b.env = &env{
		clock:    o.clock,
		rng:      o.rng,
		timeUnit: o.timeUnit,
		deliver:  b.deliver,
		notify: func(e Event) {
			e.Elapsed = b.Elapsed()
			notifier.Notify(e)
		},
	}

	for _, ap := range plans {
		a := &Army{name: ap.name, strategy: ap.strategy, battle: b}
		for i, sp := range ap.squads {
			a.squads = append(a.squads, newSquad(i, a, sp.strategy, sp.kinds, sp.size, b.env))
		}
		b.armies = append(b.armies, a)
		b.logger.Info("Initialized army", "army", a.name, "squads", len(a.squads))
	}

	return b, nil
}

type squadPlan struct {
	size     int
	strategy Strategy
	kinds    []UnitKind
}

type armyPlan struct {
	name     string
	strategy Strategy
	squads   []squadPlan
}

// Validate checks cfg without building anything. New runs the same checks.
func Validate(cfg *scenario.Battle) error {
	_, err := plan(cfg)
	return err
}

// plan validates the whole configuration before anything is built.
func plan(cfg *scenario.Battle) ([]armyPlan, error) {
	if cfg == nil || len(cfg.Armies) < 2 {
		return nil, ErrTooFewArmies
	}

	plans := make([]armyPlan, 0, len(cfg.Armies))
	for _, ac := range cfg.Armies {
		armyStrategy, err := ParseStrategy(ac.Strategy)
		if err != nil {
			return nil, fmt.Errorf("army %q: %w", ac.Name, err)
		}
		if len(ac.Squads) < 2 {
			return nil, fmt.Errorf("army %q: %w", ac.Name, ErrTooFewSquads)
		}

		ap := armyPlan{name: ac.Name, strategy: armyStrategy}
		for i, sc := range ac.Squads {
			if sc.Units < minSquadUnits || sc.Units > maxSquadUnits {
				return nil, fmt.Errorf("army %q squad %d: %w (got %d)", ac.Name, i, ErrSquadSize, sc.Units)
			}

			strategy, err := ParseStrategy(sc.Strategy)
			if err != nil {
				return nil, fmt.Errorf("army %q squad %d: %w", ac.Name, i, err)
			}
			if strategy == StrategyUnspecified {
				strategy = armyStrategy
			}
			if strategy == StrategyUnspecified {
				return nil, fmt.Errorf("army %q squad %d: %w: none set", ac.Name, i, ErrUnsupportedStrategy)
			}

			kinds := UnitKinds
			if len(sc.UnitTypes) > 0 {
				kinds = make([]UnitKind, 0, len(sc.UnitTypes))
				for _, token := range sc.UnitTypes {
					k, err := ParseUnitKind(token)
					if err != nil {
						return nil, fmt.Errorf("army %q squad %d: %w", ac.Name, i, err)
					}
					kinds = append(kinds, k)
				}
			}

			ap.squads = append(ap.squads, squadPlan{size: sc.Units, strategy: strategy, kinds: kinds})
		}
		plans = append(plans, ap)
	}
	return plans, nil
}

func (b *Battle) Armies() []*Army {
	return append([]*Army(nil), b.armies...)
}

// ActiveArmies returns the armies still able to fight.
func (b *Battle) ActiveArmies() []*Army {
	active := make([]*Army, 0, len(b.armies))
	for _, a := range b.armies {
		if a.IsActive() {
			active = append(active, a)
		}
	}
	return active
}

// EnemiesOf returns every active army other than army.
func (b *Battle) EnemiesOf(army *Army) []*Army {
	enemies := make([]*Army, 0, len(b.armies))
	for _, a := range b.ActiveArmies() {
		if a != army {
			enemies = append(enemies, a)
		}
	}
	return enemies
}

// EnemySquads pools the active squads of every enemy of army.
func (b *Battle) EnemySquads(army *Army) []*Squad {
	var pool []*Squad
	for _, a := range b.EnemiesOf(army) {
		pool = append(pool, a.ActiveSquads()...)
	}
	return pool
}

// WeakestSquad returns the enemy squad with the least total damage, or nil.
func (b *Battle) WeakestSquad(army *Army) *Squad {
	return StrategyWeakest.Select(b.EnemySquads(army), b.rng)
}

// StrongestSquad returns the enemy squad with the most total damage, or nil.
func (b *Battle) StrongestSquad(army *Army) *Squad {
	return StrategyStrongest.Select(b.EnemySquads(army), b.rng)
}

// RandomSquad returns a uniformly chosen enemy squad, or nil.
func (b *Battle) RandomSquad(army *Army) *Squad {
	return StrategyRandom.Select(b.EnemySquads(army), b.rng)
}

// targetsFor lists every squad s may pick under its strategy.
func (b *Battle) targetsFor(s *Squad) []*Squad {
	pool := b.EnemySquads(s.army)
	if s.strategy == StrategyRandom || len(pool) == 0 {
		return pool
	}
	return []*Squad{s.strategy.Select(pool, nil)}
}

// stalemated reports whether no active squad's best roll can beat the worst
// roll of a target it may pick. Probabilities and targets only change after a
// hit, so once this holds no attack will ever succeed.
func (b *Battle) stalemated() bool {
	for _, a := range b.ActiveArmies() {
		for _, s := range a.ActiveSquads() {
			_, hi := s.probabilityRange()
			for _, t := range b.targetsFor(s) {
				if lo, _ := t.probabilityRange(); hi > lo {
					return false
				}
			}
		}
	}
	return true
}

// SquadFor applies strategy to the enemies of army.
func (b *Battle) SquadFor(strategy Strategy, army *Army) *Squad {
	return strategy.Select(b.EnemySquads(army), b.rng)
}

// Elapsed is the clock time since the battle started.
func (b *Battle) Elapsed() time.Duration {
	return b.clock.Now().Sub(b.startedAt)
}

// Result returns the outcome once the battle has concluded.
func (b *Battle) Result() (Result, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.result == nil {
		return Result{}, false
	}
	return *b.result, true
}

// Run starts every unit's recharge and processes readiness signals until one
// army remains, ctx is done, the battle stalemates, or an invariant is
// violated. On error the returned Result holds the counters reached so far
// and no winner.
func (b *Battle) Run(ctx context.Context) (Result, error) {
	if !b.started.CompareAndSwap(false, true) {
		return Result{}, ErrAlreadyRunning
	}

	b.mu.Lock()
	b.startedAt = b.clock.Now()
	b.logger.Info("Battle started", "armies", len(b.armies))
	if b.checkWinner() {
		res := *b.result
		b.mu.Unlock()
		return res, nil
	}
	for _, a := range b.armies {
		for _, s := range a.squads {
			s.Recharge()
		}
	}
	b.mu.Unlock()

	stepper, virtual := b.clock.(Stepper)

	for {
		if err := ctx.Err(); err != nil {
			return b.abort(), err
		}

		if s, ok := b.signals.TryPop(); ok {
			b.mu.Lock()
			err := b.handle(s)
			res := b.result
			b.mu.Unlock()

			if err != nil {
				partial := b.abort()
				if errors.Is(err, ErrStalemate) {
					b.logger.Warn("Battle ended in stalemate",
						"attacks", partial.Attacks, "hits", partial.Hits, "elapsed", partial.Elapsed)
				} else {
					b.logger.Error("Battle aborted", "error", err)
				}
				return partial, err
			}
			if res != nil {
				return *res, nil
			}
			continue
		}

		if virtual {
			if !stepper.Step() {
				return b.abort(), ErrStalled
			}
			continue
		}

		select {
		case <-b.wake:
		case <-ctx.Done():
		}
	}
}

func (b *Battle) handle(s signal) error {
	if s.squad != nil {
		return s.squad.settle()
	}
	if s.unit == nil {
		return nil
	}
	if !s.unit.complete(s.cycle) {
		b.logger.Debug("Discarded recharge signal", "unit", s.unit.id, "cycle", s.cycle)
		return nil
	}
	return s.unit.parent.unitReady(s.unit.self)
}

// deliver is called from timer goroutines.
func (b *Battle) deliver(s signal) {
	b.signals.Push(s)
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// checkWinner concludes the battle once at most one army is active.
func (b *Battle) checkWinner() bool {
	if b.result != nil {
		return true
	}
	active := b.ActiveArmies()
	if len(active) > 1 {
		return false
	}

	var winner string
	if len(active) == 1 {
		winner = active[0].name
	}
	b.halt()
	b.result = &Result{
		Winner:  winner,
		Elapsed: b.Elapsed(),
		Attacks: b.attacks,
		Hits:    b.hits,
	}
	b.env.notify(Event{Kind: EventBattleConcluded, Winner: winner})
	b.logger.Info("Battle concluded", "winner", winner, "attacks", b.attacks, "hits", b.hits, "elapsed", b.result.Elapsed)
	return true
}

// halt cancels every pending recharge.
func (b *Battle) halt() {
	for _, a := range b.armies {
		for _, s := range a.squads {
			for _, u := range s.units {
				u.base().cancelRecharge()
				if v, ok := u.(*Vehicle); ok {
					for _, op := range v.operators {
						op.cancelRecharge()
					}
				}
			}
		}
	}
	b.signals.Clear()
}

// abort stops the battle and returns the partial counters.
func (b *Battle) abort() Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.halt()
	return Result{
		Elapsed: b.Elapsed(),
		Attacks: b.attacks,
		Hits:    b.hits,
	}
}
