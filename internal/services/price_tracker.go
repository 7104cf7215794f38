package services

import (
	"maps"
	"sync"

	"belanja/internal/core"
)

// PriceEntry is the outcome of one price edit.
type PriceEntry struct {
	ItemID    string          `json:"itemId"`
	Value     int64           `json:"value"`
	Display   string          `json:"display"`
	LastPrice *int64          `json:"lastPrice"`
	Trend     core.PriceTrend `json:"trend"`
}

// PriceTracker holds the prices typed for the one open session. It has its
// own lock because snapshot observers reset it from store callbacks.
type PriceTracker struct {
	mu      sync.Mutex
	session *core.Session
	last    map[string]*int64
	prices  map[string]int64
}

func NewPriceTracker() *PriceTracker {
	return &PriceTracker{}
}

// Open makes session the active one and captures the last known price of
// each item from history as it is now.
func (t *PriceTracker) Open(session core.Session, history []core.HistoryRecord) {
	idx := core.NewPriceIndex(history)
	last := make(map[string]*int64, len(session.Items))
	for _, it := range session.Items {
		if p, ok := idx.LastPrice(it.Name); ok {
			last[it.ID] = &p
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.session = &session
	t.last = last
	t.prices = make(map[string]int64, len(session.Items))
}

// Close discards the active session and every typed price.
func (t *PriceTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeLocked()
}

func (t *PriceTracker) closeLocked() {
	t.session = nil
	t.last = nil
	t.prices = nil
}

// CloseIfMissing closes the active session when snap no longer has it.
func (t *PriceTracker) CloseIfMissing(snap core.Snapshot) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return false
	}
	if _, ok := snap.FindSession(t.session.ID); ok {
		return false
	}
	t.closeLocked()
	return true
}

func (t *PriceTracker) Active() (core.Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return core.Session{}, false
	}
	return *t.session, true
}

// SetPrice normalises raw and stores it for itemID, replacing any earlier
// value.
func (t *PriceTracker) SetPrice(itemID, raw string) (PriceEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return PriceEntry{}, core.ErrNoActiveSession
	}
	if _, ok := t.session.Item(itemID); !ok {
		return PriceEntry{}, core.ErrItemNotFound
	}

	value := core.NormalizePrice(raw)
	t.prices[itemID] = value
	last := t.last[itemID]

	return PriceEntry{
		ItemID:    itemID,
		Value:     value,
		Display:   core.FormatThousands(value),
		LastPrice: last,
		Trend:     core.ClassifyPrice(value, last),
	}, nil
}

// Price returns the stored price of itemID, 0 when none was typed.
func (t *PriceTracker) Price(itemID string) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prices[itemID]
}

// LiveTotal sums the stored prices at call time.
func (t *PriceTracker) LiveTotal() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total int64
	for _, p := range t.prices {
		total += p
	}
	return total
}

func (t *PriceTracker) Prices() map[string]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.prices)
}

// View returns the active session with a copy of its prices and their
// total, all read under one lock.
func (t *PriceTracker) View() (ActiveSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil {
		return ActiveSession{}, false
	}
	var total int64
	for _, p := range t.prices {
		total += p
	}
	return ActiveSession{Session: *t.session, Prices: maps.Clone(t.prices), Total: total}, true
}

// PricesFor returns a copy of the prices when sessionID is the active
// session, and nil otherwise.
func (t *PriceTracker) PricesFor(sessionID string) map[string]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.session == nil || t.session.ID != sessionID {
		return nil
	}
	return maps.Clone(t.prices)
}
