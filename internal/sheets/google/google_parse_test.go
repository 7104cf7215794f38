package google

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"belanja/internal/core"
)

var wib = time.FixedZone("WIB", 7*60*60)

func TestHistoryRowRoundTrip(t *testing.T) {
	rec := core.HistoryRecord{
		ID:          "h1",
		Name:        "Telur",
		Qty:         "2",
		Unit:        "kg",
		Price:       15000,
		SessionDate: "1 Mei 2024",
		Timestamp:   time.Date(2024, time.May, 1, 0, 0, 0, 0, wib).UnixMilli(),
	}

	row := historyRow("u1", rec, wib)
	assert.Equal(t, []interface{}{"2024-05-01", "1 Mei 2024", "Telur", "2", "kg", int64(15000), "u1", "h1"}, row)

	header := []interface{}{"Tanggal", "Sesi", "Nama", "Jumlah", "Satuan", "Harga", "User", "ID"}
	parsed := parseHistoryRows([][]interface{}{header, row}, wib)
	require.Len(t, parsed, 1)
	assert.Equal(t, "u1", parsed[0].UserID)
	assert.Equal(t, rec, parsed[0].Record)
}

func TestParseHistoryRowsSkipsBadRows(t *testing.T) {
	values := [][]interface{}{
		{},
		{"2024-05-02", "2 Mei 2024", "Beras", "5", "kg", "55.000", "u1", "h2"},
		{"2024-05-03", "3 Mei 2024", "Gula", "1", "kg", "n/a", "u1", "h3"},
		{"not a date", "", "Kopi", "", "", "1000"},
		{"2024-05-04", "4 Mei 2024", "Susu", "1", "l", "-5"},
	}
	parsed := parseHistoryRows(values, wib)
	require.Len(t, parsed, 1)
	assert.Equal(t, int64(55000), parsed[0].Record.Price)
	assert.Equal(t, "h2", parsed[0].Record.ID)
}

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"15000", 15000, true},
		{"15.000", 15000, true},
		{"1,250", 1250, true},
		{"", 0, false},
		{"Rp", 0, false},
		{"-1", 0, false},
	}
	for _, tc := range cases {
		got, ok := parsePrice(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		baseName string
		year     int
		expected string
	}{
		{"Riwayat", 2025, "2025 Riwayat"},
		{"", 2023, ""},
		{"Belanja Rumah", 2022, "2022 Belanja Rumah"},
		{"2025 Already Prefixed", 2024, "2025 Already Prefixed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, yearPrefixedName(tt.baseName, tt.year))
	}
}

func TestYearsOfGroupsByLocalYear(t *testing.T) {
	c := &Client{loc: wib}
	recs := []core.HistoryRecord{
		{Timestamp: time.Date(2025, time.January, 1, 0, 0, 0, 0, wib).UnixMilli()},
		{Timestamp: time.Date(2024, time.December, 31, 23, 0, 0, 0, wib).UnixMilli()},
		{Timestamp: time.Date(2025, time.March, 1, 0, 0, 0, 0, wib).UnixMilli()},
	}
	assert.Equal(t, []int{2024, 2025}, c.yearsOf(recs))
}

func TestClientRequiresService(t *testing.T) {
	c := &Client{spreadsheetID: "test", historyBase: "Riwayat", loc: wib}
	_, err := c.AppendHistory(context.Background(), "u1", []core.HistoryRecord{{ID: "h1", Name: "Telur"}})
	require.Error(t, err)
	_, err = c.ListHistory(context.Background(), 2024, time.May)
	require.Error(t, err)
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", "Riwayat", wib)
	require.EqualError(t, err, "missing GOOGLE_SPREADSHEET_ID")
}

func TestNewRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), "sheet-id", "", wib)
	require.ErrorContains(t, err, "missing service account credentials")
}
