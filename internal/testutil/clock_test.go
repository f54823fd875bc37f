package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock_StartsAtEpoch(t *testing.T) {
	clock := NewManualClock()
	assert.Equal(t, Epoch, clock.Now())
	assert.Zero(t, clock.Elapsed())
	assert.Empty(t, clock.Sleeps())
}

func TestManualClock_SleepAdvances(t *testing.T) {
	clock := NewManualClock()

	clock.Sleep(time.Millisecond)
	clock.Sleep(2 * time.Millisecond)

	assert.Equal(t, 3*time.Millisecond, clock.Elapsed())
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, clock.Sleeps())
}

func TestManualClock_AdvanceIsNotASleep(t *testing.T) {
	clock := NewManualClock()

	clock.Advance(time.Second)

	assert.Equal(t, Epoch.Add(time.Second), clock.Now())
	assert.Empty(t, clock.Sleeps())
}

func TestManualClock_ThreadSafe(t *testing.T) {
	clock := NewManualClock()
	const numGoroutines = 50
	const callsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				clock.Sleep(time.Microsecond)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, numGoroutines*callsPerGoroutine*time.Microsecond, clock.Elapsed())
	assert.Len(t, clock.Sleeps(), numGoroutines*callsPerGoroutine)
}
