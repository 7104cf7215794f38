package core

import (
	"sort"
	"strings"
	"time"
)

// ItemAmount represents an amount aggregated by item name.
type ItemAmount struct {
	Name   string `json:"name"`
	Count  int    `json:"count"`
	Amount int64  `json:"amount"`
}

// MonthOverview is a compact summary for a specific year+month.
type MonthOverview struct {
	Year   int          `json:"year"`
	Month  int          `json:"month"` // 1-12
	Label  string       `json:"label"`
	Count  int          `json:"count"`
	Total  int64        `json:"total"`
	ByItem []ItemAmount `json:"byItem"`
}

// FilterByMonth returns the records whose timestamp falls in the given month
// in loc, most recent first. Records with equal timestamps keep their
// snapshot order.
func FilterByMonth(history []HistoryRecord, year int, month time.Month, loc *time.Location) []HistoryRecord {
	start, end := MonthBounds(year, month, loc)
	lo, hi := start.UnixMilli(), end.UnixMilli()

	out := make([]HistoryRecord, 0)
	for _, h := range history {
		if h.Timestamp >= lo && h.Timestamp < hi {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// MonthTotal sums prices over FilterByMonth. An empty month totals 0.
func MonthTotal(history []HistoryRecord, year int, month time.Month, loc *time.Location) int64 {
	var total int64
	for _, h := range FilterByMonth(history, year, month, loc) {
		total += h.Price
	}
	return total
}

// ReadMonthOverview builds the report header for a month: total, record
// count and per-item totals, largest first.
func ReadMonthOverview(history []HistoryRecord, year int, month time.Month, loc *time.Location) MonthOverview {
	records := FilterByMonth(history, year, month, loc)
	ov := MonthOverview{
		Year:   year,
		Month:  int(month),
		Label:  MonthName(month),
		Count:  len(records),
		ByItem: make([]ItemAmount, 0),
	}

	pos := make(map[string]int)
	for _, h := range records {
		ov.Total += h.Price
		key := foldKey(strings.TrimSpace(h.Name))
		i, ok := pos[key]
		if !ok {
			i = len(ov.ByItem)
			pos[key] = i
			ov.ByItem = append(ov.ByItem, ItemAmount{Name: strings.TrimSpace(h.Name)})
		}
		ov.ByItem[i].Count++
		ov.ByItem[i].Amount += h.Price
	}
	sort.SliceStable(ov.ByItem, func(i, j int) bool {
		return ov.ByItem[i].Amount > ov.ByItem[j].Amount
	})
	return ov
}
