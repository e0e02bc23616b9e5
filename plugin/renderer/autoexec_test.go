package renderer

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMountTriggersExactlyOnce(t *testing.T) {
	var runs, outcomes atomic.Int32
	m := NewMount(`{"url":"https://a.example"}`,
		func(ctx context.Context, raw string) string {
			runs.Add(1)
			return "done"
		},
		func(text string) {
			outcomes.Add(1)
		})

	require.Equal(t, StateArmed, m.State())
	require.True(t, m.Trigger(context.Background()))
	require.Equal(t, StateSettled, m.State())

	// Re-renders of the surrounding view call Trigger again; all are no-ops.
	require.False(t, m.Trigger(context.Background()))
	require.False(t, m.Trigger(context.Background()))

	require.Equal(t, int32(1), runs.Load())
	require.Equal(t, int32(1), outcomes.Load())
}

func TestMountConcurrentTrigger(t *testing.T) {
	var runs atomic.Int32
	m := NewMount("src",
		func(ctx context.Context, raw string) string {
			runs.Add(1)
			return "out"
		}, nil)

	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Trigger(context.Background()) {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), wins.Load())
	require.Equal(t, int32(1), runs.Load())
}

func TestMountOutcomeAfterSettle(t *testing.T) {
	m := NewMount("src",
		func(ctx context.Context, raw string) string { return "out" },
		nil)
	m.onMessage = func(text string) {
		require.Equal(t, "out", text)
		require.Equal(t, StateSettled, m.State())
	}
	require.True(t, m.Trigger(context.Background()))
}

func TestMountExpandedToggle(t *testing.T) {
	m := NewMount("raw source", func(ctx context.Context, raw string) string { return "" }, nil)

	require.False(t, m.Expanded())
	require.True(t, m.ToggleExpanded())
	require.False(t, m.ToggleExpanded())

	m.Trigger(context.Background())
	require.Equal(t, StateSettled, m.State())

	// Toggling stays available after the mount is terminal.
	require.True(t, m.ToggleExpanded())
	require.Equal(t, "raw source", m.Source())
}
