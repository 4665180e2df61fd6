package circuit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// outcomes replays f (failure) and s (success) records in order.
func outcomes(b *Breaker, seq string) (opened, closed int) {
	for _, r := range seq {
		var change Change
		switch r {
		case 'f':
			_, change = b.RecordFailure()
		case 's':
			_, change = b.RecordSuccess()
		}
		if change.Opened {
			opened++
		}
		if change.Closed {
			closed++
		}
	}
	return opened, closed
}

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name       string
		failures   int
		successes  int
		seq        string
		wantState  State
		wantOpened int
		wantClosed int
	}{
		{name: "fresh breaker is closed", failures: 3, successes: 1, seq: "", wantState: StateClosed},
		{name: "opens on the threshold failure", failures: 3, successes: 1, seq: "fff", wantState: StateOpen, wantOpened: 1},
		{name: "a success clears the failure streak", failures: 3, successes: 1, seq: "ffsff", wantState: StateClosed},
		{name: "failures while open do not reopen", failures: 1, successes: 1, seq: "fff", wantState: StateOpen, wantOpened: 1},
		{name: "closes after enough successes", failures: 1, successes: 2, seq: "fss", wantState: StateClosed, wantOpened: 1, wantClosed: 1},
		{name: "a failure restarts the success streak", failures: 1, successes: 3, seq: "fssfss", wantState: StateOpen, wantOpened: 1},
		{name: "flapping redis opens and closes each time", failures: 2, successes: 1, seq: "ffsffs", wantState: StateClosed, wantOpened: 2, wantClosed: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("notifications", WithFailureThreshold(tt.failures), WithSuccessThreshold(tt.successes))
			opened, closed := outcomes(b, tt.seq)
			assert.Equal(t, tt.wantState, b.State())
			assert.Equal(t, tt.wantOpened, opened)
			assert.Equal(t, tt.wantClosed, closed)
		})
	}
}

func TestBreakerFallbackSignals(t *testing.T) {
	b := New("notifications", WithFailureThreshold(2))

	useFallback, _ := b.RecordFailure()
	assert.False(t, useFallback, "below threshold the primary is still used")
	useFallback, _ = b.RecordFailure()
	assert.True(t, useFallback)

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
}

func TestRelayOutagePausesUntilCooldown(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	b := New("outbox-relay",
		WithFailureThreshold(3),
		WithCooldown(10*time.Second),
		WithClock(func() time.Time { return now }),
	)

	for i := 0; i < 3; i++ {
		require.True(t, b.Allow(), "tick %d reaches the broker", i)
		b.RecordFailure()
	}
	assert.False(t, b.Allow(), "relay skips ticks while the broker is down")

	now = now.Add(5 * time.Second)
	assert.False(t, b.Allow())

	now = now.Add(5 * time.Second)
	assert.True(t, b.Allow(), "one trial batch after the cooldown")
	assert.False(t, b.Allow(), "other ticks wait for the trial")

	b.RecordFailure()
	now = now.Add(10 * time.Second)
	require.True(t, b.Allow())
	b.RecordSuccess()
	assert.True(t, b.Allow())
	assert.Equal(t, "closed", b.State().String())
}

func TestResetClosesAnOpenBreaker(t *testing.T) {
	b := New("notifications", WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "notifications", b.Name())
}

func TestConcurrentFailuresOpenOnce(t *testing.T) {
	b := New("notifications", WithFailureThreshold(5))
	var opened atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, change := b.RecordFailure(); change.Opened {
				opened.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), opened.Load())
	assert.True(t, b.IsOpen())
}
