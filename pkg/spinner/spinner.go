// Package spinner provides the cooperative checkpoint used by long
// traversals. A traversal calls Tick once per unit of work; after a bounded
// number of ticks, or once a wall-clock budget has elapsed, the spinner
// hands control to its Yield hook and then resumes where it left off.
//
// The hook decides what yielding means: a no-op for fully synchronous use,
// runtime.Gosched for goroutine fairness, or a suspension point supplied by
// an embedding scheduler.
package spinner

import (
	"runtime"
	"time"
)

const (
	// DefaultEvery is the number of ticks between checkpoints.
	DefaultEvery = 1000
	// DefaultBudget is the longest stretch of work between checkpoints.
	DefaultBudget = 10 * time.Millisecond
)

// YieldFunc is invoked at each checkpoint.
type YieldFunc func()

// Noop never yields.
func Noop() {}

// Gosched yields the processor to other goroutines.
func Gosched() { runtime.Gosched() }

// Checkpointer is the hook traversals depend on.
type Checkpointer interface {
	Tick()
}

// Spinner is a Checkpointer driven by a tick count and a time budget. It is
// not safe for concurrent use; give each traversal its own.
type Spinner struct {
	every  int
	budget time.Duration
	yield  YieldFunc
	now    func() time.Time

	ticks  int
	last   time.Time
	yields int
}

// Option configures a Spinner.
type Option func(*Spinner)

// WithEvery sets the tick interval. Values below one disable the count trigger.
func WithEvery(n int) Option {
	return func(s *Spinner) { s.every = n }
}

// WithBudget sets the wall-clock trigger. Zero disables it.
func WithBudget(d time.Duration) Option {
	return func(s *Spinner) { s.budget = d }
}

// WithYield replaces the default runtime.Gosched hook.
func WithYield(fn YieldFunc) Option {
	return func(s *Spinner) {
		if fn != nil {
			s.yield = fn
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Spinner) { s.now = now }
}

// New returns a Spinner with DefaultEvery, DefaultBudget and Gosched unless overridden.
func New(opts ...Option) *Spinner {
	s := &Spinner{
		every:  DefaultEvery,
		budget: DefaultBudget,
		yield:  Gosched,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.last = s.now()
	return s
}

// Tick records one unit of work and yields when a trigger fires.
func (s *Spinner) Tick() {
	s.ticks++
	if s.every > 0 && s.ticks >= s.every {
		s.spin()
		return
	}
	if s.budget > 0 && s.now().Sub(s.last) >= s.budget {
		s.spin()
	}
}

// Yields reports how many checkpoints have fired.
func (s *Spinner) Yields() int {
	return s.yields
}

func (s *Spinner) spin() {
	s.yield()
	s.yields++
	s.ticks = 0
	s.last = s.now()
}

// OrNoop returns c, or a Checkpointer that never yields when c is nil.
func OrNoop(c Checkpointer) Checkpointer {
	if c == nil {
		return noop{}
	}
	return c
}

type noop struct{}

func (noop) Tick() {}
