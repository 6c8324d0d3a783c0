package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWasPassedBeforeSetNext(t *testing.T) {
	// GIVEN
	scheduler := New(1 * time.Second)

	// WHEN
	passed, err := scheduler.WasPassed()

	// THEN
	assert.ErrorIs(t, err, ErrNotScheduled)
	assert.False(t, passed)
}

func TestDeadlineNotYetPassed(t *testing.T) {
	// GIVEN
	scheduler := New(1 * time.Second)
	now := time.Now()
	err := scheduler.SetNextAt(now)
	assert.NoError(t, err)

	// WHEN
	passed, err := scheduler.WasPassedAt(now.Add(500 * time.Millisecond))

	// THEN
	assert.NoError(t, err)
	assert.False(t, passed)
}

func TestDeadlinePassed(t *testing.T) {
	// GIVEN
	scheduler := New(1 * time.Second)
	now := time.Now()
	err := scheduler.SetNextAt(now)
	assert.NoError(t, err)

	// WHEN
	passed, err := scheduler.WasPassedAt(now.Add(1500 * time.Millisecond))

	// THEN
	assert.NoError(t, err)
	assert.True(t, passed)
}

func TestDeadlineExactlyAtTrigger(t *testing.T) {
	// GIVEN
	scheduler := New(1 * time.Second)
	now := time.Now()
	err := scheduler.SetNextAt(now)
	assert.NoError(t, err)

	// WHEN
	passed, err := scheduler.WasPassedAt(now.Add(1 * time.Second))

	// THEN
	assert.NoError(t, err)
	assert.False(t, passed)
}

func TestClockWentBackwards(t *testing.T) {
	// GIVEN
	scheduler := New(1 * time.Second)
	now := time.Now()
	err := scheduler.SetNextAt(now)
	assert.NoError(t, err)

	// WHEN
	passed, err := scheduler.WasPassedAt(now.Add(-1 * time.Minute))

	// THEN
	assert.NoError(t, err)
	assert.True(t, passed)
}

func TestClockJumpedForward(t *testing.T) {
	// GIVEN
	scheduler := New(1 * time.Second)
	now := time.Now()
	err := scheduler.SetNextAt(now)
	assert.NoError(t, err)

	// WHEN more than twice the step delay has gone by, e.g. after suspend
	passed, err := scheduler.WasPassedAt(now.Add(5 * time.Second))

	// THEN
	assert.NoError(t, err)
	assert.True(t, passed)
}

func TestTripLimit(t *testing.T) {
	// GIVEN
	scheduler := NewLimited(1*time.Second, 3)
	now := time.Now()

	// WHEN the budget is used up
	for i := 0; i < 3; i++ {
		err := scheduler.SetNextAt(now)
		assert.NoError(t, err)
	}
	err := scheduler.SetNextAt(now)

	// THEN
	assert.ErrorIs(t, err, ErrLimitExceeded)
}

func TestTripLimitKeepsLastDeadline(t *testing.T) {
	// GIVEN
	scheduler := NewLimited(1*time.Second, 1)
	now := time.Now()
	err := scheduler.SetNextAt(now)
	assert.NoError(t, err)

	// WHEN arming fails, the previous deadline stays valid
	err = scheduler.SetNextAt(now.Add(500 * time.Millisecond))
	assert.ErrorIs(t, err, ErrLimitExceeded)
	passed, err := scheduler.WasPassedAt(now.Add(1500 * time.Millisecond))

	// THEN
	assert.NoError(t, err)
	assert.True(t, passed)
}

func TestSuggestStepDelay(t *testing.T) {
	// GIVEN
	cycleLength := 10 * time.Second

	// WHEN
	delay := SuggestStepDelay(cycleLength, 10, 0)

	// THEN
	assert.Equal(t, 1*time.Second, delay)
}

func TestSuggestStepDelayCapped(t *testing.T) {
	// GIVEN
	cycleLength := 60 * time.Second

	// WHEN
	delay := SuggestStepDelay(cycleLength, 10, 2*time.Second)

	// THEN
	assert.Equal(t, 2*time.Second, delay)
}
