package watch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsInvalidSpec(t *testing.T) {
	_, err := New("every now and then", func(context.Context) {}, nil)
	assert.Error(t, err)
}

func TestWatcher_Next(t *testing.T) {
	w, err := New("0 */30 * * * *", func(context.Context) {}, nil)
	require.NoError(t, err)

	ref := time.Date(2025, 3, 1, 10, 12, 5, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC), w.Next(ref))
}

func TestWatcher_RunImmediateAndStop(t *testing.T) {
	var runs atomic.Int32
	w, err := New("@every 1h", func(ctx context.Context) { runs.Add(1) }, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, true) }()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
	assert.Equal(t, int32(1), runs.Load())
}

func TestWatcher_RunsOnSchedule(t *testing.T) {
	var runs atomic.Int32
	w, err := New("* * * * * *", func(ctx context.Context) { runs.Add(1) }, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx, false) }()

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
}
