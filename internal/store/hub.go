package store

import (
	"sync"

	"belanja/internal/core"
)

// Hub fans snapshots out to per-user listeners. Backends embed it.
//
// Snapshots reach listeners through Attach and Deliver, which hold a
// per-user lock from the read until the last listener returns. A snapshot
// read later is therefore never delivered before one read earlier.
// Listeners must not write to the store.
type Hub struct {
	mu      sync.Mutex
	nextID  int
	subs    map[string]map[int]Listener
	ordered map[string]*sync.Mutex
}

func (h *Hub) userLock(userID string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ordered == nil {
		h.ordered = make(map[string]*sync.Mutex)
	}
	m, ok := h.ordered[userID]
	if !ok {
		m = &sync.Mutex{}
		h.ordered[userID] = m
	}
	return m
}

// Attach registers fn and hands it the snapshot returned by load before
// any later delivery for userID.
func (h *Hub) Attach(userID string, fn Listener, load func() (core.Snapshot, error)) (func(), error) {
	m := h.userLock(userID)
	m.Lock()
	defer m.Unlock()

	snap, err := load()
	if err != nil {
		return nil, err
	}
	cancel := h.Add(userID, fn)
	fn(snap)
	return cancel, nil
}

// Deliver reads a snapshot with load and notifies userID's listeners with
// it, in the order deliveries for userID acquire the user lock.
func (h *Hub) Deliver(userID string, load func() (core.Snapshot, error)) error {
	m := h.userLock(userID)
	m.Lock()
	defer m.Unlock()

	snap, err := load()
	if err != nil {
		return err
	}
	h.Notify(userID, snap)
	return nil
}

// Add registers fn for userID and returns its removal func.
func (h *Hub) Add(userID string, fn Listener) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs == nil {
		h.subs = make(map[string]map[int]Listener)
	}
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[int]Listener)
	}
	h.nextID++
	id := h.nextID
	h.subs[userID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[userID], id)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
		})
	}
}

// Notify calls every listener of userID with snap. Listeners run outside the
// hub lock so they may subscribe or unsubscribe.
func (h *Hub) Notify(userID string, snap core.Snapshot) {
	h.mu.Lock()
	listeners := make([]Listener, 0, len(h.subs[userID]))
	for _, fn := range h.subs[userID] {
		listeners = append(listeners, fn)
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// Watched reports whether userID has at least one listener.
func (h *Hub) Watched(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID]) > 0
}
