package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimer_Stop_ReturnsElapsed(t *testing.T) {
	start := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	current := start
	nowFunc = func() time.Time { return current }
	t.Cleanup(func() { nowFunc = time.Now })

	tm := New("download")
	require.Equal(t, start, tm.Begin)
	current = start.Add(1500 * time.Millisecond)
	require.Equal(t, 1500*time.Millisecond, tm.Stop())
}
