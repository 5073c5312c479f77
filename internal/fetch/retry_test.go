package fetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoff_ExponentialWithBoundedJitter(t *testing.T) {
	t.Parallel()

	base := 100 * time.Millisecond
	p := Bounded(10, base, 5*time.Second)

	for k := 0; k < 5; k++ {
		expected := base << uint(k)
		got := p.Backoff(k)
		require.GreaterOrEqual(t, got, expected, "attempt %d", k)
		require.Less(t, got, expected+base, "attempt %d jitter must stay below base", k)
	}
}

func TestBackoff_CappedAtMaxDelay(t *testing.T) {
	t.Parallel()

	base := 1 * time.Second
	maxDelay := 4 * time.Second
	p := Unbounded(base, maxDelay)

	got := p.Backoff(10)
	require.GreaterOrEqual(t, got, maxDelay)
	require.Less(t, got, maxDelay+base)
}

func TestExhausted(t *testing.T) {
	t.Parallel()

	bounded := Bounded(3, time.Second, time.Minute)
	require.True(t, bounded.IsBounded())
	require.False(t, bounded.Exhausted(2))
	require.True(t, bounded.Exhausted(3))
	require.True(t, bounded.Exhausted(4))

	unbounded := Unbounded(time.Second, time.Minute)
	require.False(t, unbounded.IsBounded())
	require.False(t, unbounded.Exhausted(1_000_000))
}

func TestBounded_ClampsAttempts(t *testing.T) {
	t.Parallel()

	p := Bounded(0, time.Second, time.Minute)
	require.True(t, p.Exhausted(1))
}

func TestPolicy_DefaultDelays(t *testing.T) {
	t.Parallel()

	p := Bounded(3, 0, 0)
	require.Equal(t, defaultBaseDelay, p.BaseDelay())
	require.GreaterOrEqual(t, p.Backoff(30), defaultMaxDelay)
}
