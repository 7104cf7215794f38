// Package state holds the latest document snapshot of one signed-in user.
//
// The container is only ever replaced wholesale from a store notification;
// nothing edits it in place. Each replacement bumps the version and tells
// observers which collections changed.
package state

import (
	"reflect"
	"sync"
	"sync/atomic"

	"belanja/internal/core"
)

// Change is delivered to observers after each replacement.
type Change struct {
	Version         uint64
	SessionsChanged bool
	HistoryChanged  bool
}

type Observer func(snap core.Snapshot, c Change)

// generations is process-wide so two containers never share a stamp.
var generations atomic.Uint64

type Container struct {
	mu         sync.RWMutex
	generation uint64
	snap       core.Snapshot
	observers  map[int]Observer
	nextID     int
}

func New() *Container {
	return &Container{
		generation: generations.Add(1),
		snap: core.Snapshot{
			Sessions: []core.Session{},
			History:  []core.HistoryRecord{},
		},
		observers: make(map[int]Observer),
	}
}

// Current returns the latest snapshot. Callers must treat its slices as
// read-only.
func (c *Container) Current() core.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

func (c *Container) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Version
}

// Stamp identifies the current snapshot across containers. Versions restart
// in every new container, generations do not.
func (c *Container) Stamp() (generation, version uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation, c.snap.Version
}

// Replace installs snap as the new state. The version in snap is ignored.
func (c *Container) Replace(snap core.Snapshot) Change {
	return c.replace(snap, false)
}

func (c *Container) replace(snap core.Snapshot, renew bool) Change {
	c.mu.Lock()
	if renew {
		c.generation = generations.Add(1)
	}
	prev := c.snap
	snap.Version = prev.Version + 1
	if snap.Sessions == nil {
		snap.Sessions = []core.Session{}
	}
	if snap.History == nil {
		snap.History = []core.HistoryRecord{}
	}
	c.snap = snap
	change := Change{
		Version:         snap.Version,
		SessionsChanged: !reflect.DeepEqual(prev.Sessions, snap.Sessions),
		HistoryChanged:  !reflect.DeepEqual(prev.History, snap.History),
	}
	observers := make([]Observer, 0, len(c.observers))
	for _, o := range c.observers {
		observers = append(observers, o)
	}
	c.mu.Unlock()

	for _, o := range observers {
		o(snap, change)
	}
	return change
}

// Reset drops the snapshot, as on sign-out. The version keeps counting
// and the generation is renewed.
func (c *Container) Reset() {
	c.replace(core.Snapshot{}, true)
}

// Observe registers o for future replacements and returns its removal func.
func (c *Container) Observe(o Observer) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.observers[id] = o
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}
