package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"belanja/internal/core"
	ports "belanja/internal/sheets"
)

// Column layout of the history sheet.
const (
	colDate = iota
	colLabel
	colName
	colQty
	colUnit
	colPrice
	colUser
	colID
	numCols
)

// historyRow renders r as a sheet row.
func historyRow(userID string, r core.HistoryRecord, loc *time.Location) []interface{} {
	row := make([]interface{}, numCols)
	row[colDate] = core.FormatISODate(time.UnixMilli(r.Timestamp).In(loc))
	row[colLabel] = r.SessionDate
	row[colName] = r.Name
	row[colQty] = r.Qty
	row[colUnit] = r.Unit
	row[colPrice] = r.Price
	row[colUser] = userID
	row[colID] = r.ID
	return row
}

// parseHistoryRows converts a values matrix back into records. Rows without
// a parsable date or price, such as a header, are skipped.
func parseHistoryRows(values [][]interface{}, loc *time.Location) []ports.MirroredRecord {
	var out []ports.MirroredRecord
	for _, raw := range values {
		row := toStrings(raw)
		d, err := core.ParseISODate(safeGet(row, colDate), loc)
		if err != nil {
			continue
		}
		price, ok := parsePrice(safeGet(row, colPrice))
		if !ok {
			continue
		}
		out = append(out, ports.MirroredRecord{
			UserID: safeGet(row, colUser),
			Record: core.HistoryRecord{
				ID:          safeGet(row, colID),
				Name:        safeGet(row, colName),
				Qty:         safeGet(row, colQty),
				Unit:        safeGet(row, colUnit),
				Price:       price,
				SessionDate: safeGet(row, colLabel),
				Timestamp:   d.UnixMilli(),
			},
		})
	}
	return out
}

// parsePrice accepts plain integers and values the sheet formatted with
// thousands separators.
func parsePrice(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, v >= 0
	}
	if strings.ContainsAny(s, ".,") && !strings.ContainsFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != ','
	}) {
		return core.NormalizePrice(s), true
	}
	return 0, false
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
