package spinner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSpinner_YieldsEveryN(t *testing.T) {
	calls := 0
	s := New(WithEvery(3), WithBudget(0), WithYield(func() { calls++ }))

	for range 10 {
		s.Tick()
	}

	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, s.Yields())
}

func TestSpinner_YieldsOnBudget(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	calls := 0
	s := New(WithEvery(0), WithBudget(5*time.Millisecond), WithClock(clock), WithYield(func() { calls++ }))

	s.Tick()
	assert.Equal(t, 0, calls)

	now = now.Add(5 * time.Millisecond)
	s.Tick()
	assert.Equal(t, 1, calls)

	s.Tick()
	assert.Equal(t, 1, calls, "budget restarts after a checkpoint")
}

func TestSpinner_Disabled(t *testing.T) {
	calls := 0
	s := New(WithEvery(0), WithBudget(0), WithYield(func() { calls++ }))
	for range 5000 {
		s.Tick()
	}
	assert.Zero(t, calls)
}

func TestOrNoop(t *testing.T) {
	c := OrNoop(nil)
	assert.NotPanics(t, c.Tick)

	s := New()
	assert.Same(t, s, OrNoop(s))
}
