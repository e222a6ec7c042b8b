package ceremonyratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAllowConsumesTokensThenBlocks(t *testing.T) {
	l := New(2, 1, time.Hour)
	require.True(t, l.Allow("p0"))
	require.True(t, l.Allow("p0"))
	require.False(t, l.Allow("p0"))
}

func TestAllowIsPerParticipant(t *testing.T) {
	l := New(1, 1, time.Hour)
	require.True(t, l.Allow("p0"))
	require.True(t, l.Allow("p1"))
	require.False(t, l.Allow("p0"))
}

func TestResetRestoresTokens(t *testing.T) {
	l := New(1, 1, time.Hour)
	require.True(t, l.Allow("p0"))
	require.False(t, l.Allow("p0"))
	l.Reset("p0")
	require.True(t, l.Allow("p0"))
}

func TestAllowRefillsOverTime(t *testing.T) {
	l := New(1, 1, 10*time.Millisecond)
	require.True(t, l.Allow("p0"))
	require.False(t, l.Allow("p0"))
	time.Sleep(15 * time.Millisecond)
	require.True(t, l.Allow("p0"))
}
