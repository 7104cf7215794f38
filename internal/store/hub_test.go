package store

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"belanja/internal/core"
)

func TestHubNotifiesPerUser(t *testing.T) {
	var h Hub
	var a, b int
	cancelA := h.Add("u1", func(core.Snapshot) { a++ })
	h.Add("u2", func(core.Snapshot) { b++ })

	h.Notify("u1", core.Snapshot{})
	assert.Equal(t, 1, a)
	assert.Equal(t, 0, b)
	assert.True(t, h.Watched("u1"))

	cancelA()
	cancelA()
	h.Notify("u1", core.Snapshot{})
	assert.Equal(t, 1, a)
	assert.False(t, h.Watched("u1"))
}

func TestHubListenerMayUnsubscribeDuringNotify(t *testing.T) {
	var h Hub
	calls := 0
	var cancel func()
	cancel = h.Add("u1", func(core.Snapshot) {
		calls++
		cancel()
	})
	h.Notify("u1", core.Snapshot{})
	h.Notify("u1", core.Snapshot{})
	assert.Equal(t, 1, calls)
}

func TestHubDeliverKeepsReadOrder(t *testing.T) {
	var h Hub
	var mu sync.Mutex
	var seen []uint64
	cancel, err := h.Attach("u1", func(s core.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.Version)
	}, func() (core.Snapshot, error) { return core.Snapshot{Version: 0}, nil })
	require.NoError(t, err)
	defer cancel()

	started := make(chan struct{})
	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = h.Deliver("u1", func() (core.Snapshot, error) {
			close(started)
			<-release
			return core.Snapshot{Version: 1}, nil
		})
	}()
	<-started

	var newerRead atomic.Bool
	go func() {
		defer wg.Done()
		_ = h.Deliver("u1", func() (core.Snapshot, error) {
			newerRead.Store(true)
			return core.Snapshot{Version: 2}, nil
		})
	}()

	assert.Never(t, newerRead.Load, 50*time.Millisecond, 5*time.Millisecond,
		"a second read must wait until the first snapshot is delivered")
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{0, 1, 2}, seen)
}

func TestHubDeliverLoadError(t *testing.T) {
	var h Hub
	calls := 0
	h.Add("u1", func(core.Snapshot) { calls++ })

	err := h.Deliver("u1", func() (core.Snapshot, error) { return core.Snapshot{}, core.ErrPersistence })
	require.ErrorIs(t, err, core.ErrPersistence)
	assert.Zero(t, calls)

	_, err = h.Attach("u2", func(core.Snapshot) { calls++ }, func() (core.Snapshot, error) {
		return core.Snapshot{}, core.ErrPersistence
	})
	require.Error(t, err)
	assert.False(t, h.Watched("u2"))
}
