package core

import "strings"

// LastPrice returns the price of the most recent history record whose name
// matches name case-insensitively. Among records sharing the greatest
// timestamp the first one in slice order wins.
func LastPrice(history []HistoryRecord, name string) (int64, bool) {
	var (
		best  HistoryRecord
		found bool
	)
	for _, h := range history {
		if !strings.EqualFold(h.Name, name) {
			continue
		}
		if !found || h.Timestamp > best.Timestamp {
			best = h
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return best.Price, true
}

// LastPricePtr is LastPrice shaped for the nullable DraftItem.LastPrice field.
func LastPricePtr(history []HistoryRecord, name string) *int64 {
	p, ok := LastPrice(history, name)
	if !ok {
		return nil
	}
	return &p
}

// PriceIndex answers repeated last-price lookups over one history snapshot.
type PriceIndex struct {
	latest map[string]HistoryRecord
}

// NewPriceIndex builds an index with the same tie-breaking as LastPrice.
func NewPriceIndex(history []HistoryRecord) *PriceIndex {
	idx := &PriceIndex{latest: make(map[string]HistoryRecord, len(history))}
	for _, h := range history {
		key := foldKey(h.Name)
		cur, ok := idx.latest[key]
		if !ok || h.Timestamp > cur.Timestamp {
			idx.latest[key] = h
		}
	}
	return idx
}

// LastPrice returns the last price paid for name.
func (p *PriceIndex) LastPrice(name string) (int64, bool) {
	h, ok := p.latest[foldKey(name)]
	if !ok {
		return 0, false
	}
	return h.Price, true
}

// Len returns the number of distinct item names.
func (p *PriceIndex) Len() int {
	return len(p.latest)
}

// foldKey must agree with strings.EqualFold for the names we store.
func foldKey(s string) string {
	return strings.ToLower(strings.ToUpper(s))
}
