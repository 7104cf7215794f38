package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"belanja/internal/config"
	"belanja/internal/core"
	"belanja/internal/sheets"
	"belanja/internal/storage"
	"belanja/internal/store"
)

var wib = time.FixedZone("WIB", 7*60*60)

type fakeSheets struct {
	appended []core.HistoryRecord
	rows     []sheets.MirroredRecord
}

func (f *fakeSheets) AppendHistory(_ context.Context, _ string, records []core.HistoryRecord) (string, error) {
	f.appended = append(f.appended, records...)
	return "Riwayat!A2", nil
}

func (f *fakeSheets) ListHistory(context.Context, int, time.Month) ([]sheets.MirroredRecord, error) {
	return f.rows, nil
}

func newTestApp(t *testing.T) (*app, *fakeSheets) {
	t.Helper()
	cfg := &config.Config{
		SQLiteDBPath:  filepath.Join(t.TempDir(), "belanja.db"),
		DefaultUserID: "household",
		Timezone:      "Asia/Jakarta",
		LogLevel:      "error",
	}
	a := newApp(cfg)
	a.loc = wib
	a.now = func() time.Time { return time.Date(2024, time.May, 20, 9, 0, 0, 0, wib) }
	fs := &fakeSheets{}
	a.newSheets = func(context.Context) (sheetsClient, error) { return fs, nil }
	t.Cleanup(a.close)
	return a, fs
}

func seed(t *testing.T, a *app) {
	t.Helper()
	repo, err := a.repository()
	require.NoError(t, err)
	ts := time.Date(2024, time.May, 1, 0, 0, 0, 0, wib).UnixMilli()
	require.NoError(t, repo.Commit(context.Background(), "household", store.Batch{Inserts: []core.HistoryRecord{
		{ID: "h1", ItemID: "i1", Name: "Telur", Qty: "1", Unit: "kg", Price: 15000, SessionDate: "1 Mei 2024", Timestamp: ts},
		{ID: "h2", ItemID: "i2", Name: "Beras", Qty: "5", Unit: "kg", Price: 50000, SessionDate: "1 Mei 2024", Timestamp: ts},
	}}))
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmdWith(a, io.Discard)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestHistoryCommand(t *testing.T) {
	a, _ := newTestApp(t)
	seed(t, a)

	out, err := run(t, a, "history", "--month", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Mei 2024")
	assert.Contains(t, out, "Telur")
	assert.Contains(t, out, "5 kg")
	assert.Contains(t, out, "Total: Rp 65.000 (2 items)")

	out, err = run(t, a, "history", "--month", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: Rp 0 (0 items)")

	_, err = run(t, a, "history", "--month", "13")
	require.Error(t, err)
}

func TestLastPriceCommand(t *testing.T) {
	a, _ := newTestApp(t)
	seed(t, a)

	out, err := run(t, a, "last-price", "TELUR")
	require.NoError(t, err)
	assert.Contains(t, out, "Rp 15.000")

	out, err = run(t, a, "last-price", "kopi")
	require.NoError(t, err)
	assert.Contains(t, out, "no price recorded")
}

func TestExportCommandSkipsMirrored(t *testing.T) {
	a, fs := newTestApp(t)
	seed(t, a)

	out, err := run(t, a, "export", "--month", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "exported 2 records")
	assert.Len(t, fs.appended, 2)

	repo, err := a.repository()
	require.NoError(t, err)
	status, err := repo.MirrorStatus(context.Background(), "h1")
	require.NoError(t, err)
	assert.Equal(t, storage.MirrorDone, status)

	out, err = run(t, a, "export", "--month", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to export")

	_, err = run(t, a, "export", "--month", "5", "--force")
	require.NoError(t, err)
	assert.Len(t, fs.appended, 4)
}

func TestSheetsCommand(t *testing.T) {
	a, fs := newTestApp(t)
	fs.rows = []sheets.MirroredRecord{{UserID: "household", Record: core.HistoryRecord{Name: "Gula", Price: 14000, Timestamp: time.Date(2024, time.May, 2, 0, 0, 0, 0, wib).UnixMilli()}}}

	out, err := run(t, a, "sheets", "--month", "5", "--year", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, "Gula")
	assert.Contains(t, out, "Total: Rp 14.000 (1 rows)")
}

func TestMigrateCommand(t *testing.T) {
	a, _ := newTestApp(t)

	out, err := run(t, a, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "version 2")

	out, err = run(t, a, "migrate", "down")
	require.NoError(t, err)
	assert.Contains(t, out, "version 1")

	_, err = run(t, a, "migrate", "down", "zero")
	require.Error(t, err)
}
