package services

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"belanja/internal/core"
)

// PriceLookup returns the most recent recorded price for name, or nil.
type PriceLookup func(name string) *int64

// DraftCart is the list of items being assembled before a session exists.
// It is not safe for concurrent use; Shopper serialises access.
type DraftCart struct {
	items  []core.DraftItem
	lastID int64
	prices PriceLookup
	loc    *time.Location
	now    func() time.Time
}

func NewDraftCart(prices PriceLookup, loc *time.Location, now func() time.Time) *DraftCart {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	if prices == nil {
		prices = func(string) *int64 { return nil }
	}
	return &DraftCart{prices: prices, loc: loc, now: now}
}

// Add appends an item. An empty targetDate means today.
func (c *DraftCart) Add(name, qty, unit, targetDate string) (core.DraftItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.DraftItem{}, core.ErrEmptyName
	}

	targetDate = strings.TrimSpace(targetDate)
	if targetDate == "" {
		targetDate = core.FormatISODate(c.now().In(c.loc))
	} else if _, err := core.ParseISODate(targetDate, c.loc); err != nil {
		return core.DraftItem{}, err
	}

	item := core.DraftItem{
		ID:           c.nextID(),
		Name:         name,
		Qty:          strings.TrimSpace(qty),
		Unit:         strings.TrimSpace(unit),
		LastPrice:    c.prices(name),
		SelectedDate: targetDate,
	}
	c.items = append(c.items, item)
	return item, nil
}

// Remove deletes the item at index. Out of range leaves the cart unchanged.
func (c *DraftCart) Remove(index int) error {
	if index < 0 || index >= len(c.items) {
		return core.ErrIndexOutOfRange
	}
	c.items = slices.Delete(c.items, index, index+1)
	return nil
}

func (c *DraftCart) Clear() {
	c.items = nil
}

func (c *DraftCart) Count() int {
	return len(c.items)
}

// Items returns a copy in insertion order.
func (c *DraftCart) Items() []core.DraftItem {
	return slices.Clone(c.items)
}

// nextID is time based but strictly increasing, so two adds within the same
// millisecond still get distinct ids.
func (c *DraftCart) nextID() string {
	id := max(c.now().UnixMilli(), c.lastID+1)
	c.lastID = id
	return strconv.FormatInt(id, 10)
}
