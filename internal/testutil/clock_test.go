package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestDeterministicClock_StartsAtStart(t *testing.T) {
	clock := NewDeterministicClock(epoch, time.Second)
	assert.Equal(t, epoch, clock.Current())
	assert.Equal(t, int64(0), clock.Ticks())
}

func TestDeterministicClock_NextAdvancesOneStep(t *testing.T) {
	clock := NewDeterministicClock(epoch, time.Second)

	assert.Equal(t, epoch.Add(time.Second), clock.Next())
	assert.Equal(t, epoch.Add(time.Second), clock.Current())
	assert.Equal(t, epoch.Add(2*time.Second), clock.Next())
	assert.Equal(t, epoch.Add(3*time.Second), clock.Next())
	assert.Equal(t, int64(3), clock.Ticks())
}

func TestDeterministicClock_ZeroStepUsesDefault(t *testing.T) {
	clock := NewDeterministicClock(epoch, 0)
	assert.Equal(t, epoch.Add(DefaultStep), clock.Next())
}

func TestDeterministicClock_NormalizesToUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	clock := NewDeterministicClock(epoch.In(tokyo), time.Second)
	assert.Equal(t, time.UTC, clock.Current().Location())
	assert.True(t, epoch.Equal(clock.Current()))
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock(epoch, time.Second)
	clock.Next()
	clock.Next()

	clock.Reset()
	assert.Equal(t, epoch, clock.Current())
	assert.Equal(t, epoch.Add(time.Second), clock.Next())
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock(epoch, time.Millisecond)
	const numGoroutines = 50
	const callsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make([][]time.Time, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		results[i] = make([]time.Time, callsPerGoroutine)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				results[idx][j] = clock.Next()
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[time.Time]bool)
	for _, row := range results {
		for _, ts := range row {
			require.False(t, seen[ts], "duplicate tick %s", ts)
			seen[ts] = true
		}
	}
	assert.Len(t, seen, numGoroutines*callsPerGoroutine)
	assert.Equal(t, epoch.Add(numGoroutines*callsPerGoroutine*time.Millisecond), clock.Current())
}

func TestDeterministicClock_Deterministic(t *testing.T) {
	a := NewDeterministicClock(epoch, time.Second)
	b := NewDeterministicClock(epoch, time.Second)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}
}
