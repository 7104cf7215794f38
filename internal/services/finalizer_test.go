package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"belanja/internal/core"
	"belanja/internal/state"
	"belanja/internal/store/memory"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return "h" + strconv.Itoa(n)
	}
}

func TestFinalizerRecords(t *testing.T) {
	f := NewFinalizer(nil, state.New(), NewPriceTracker(), "u1", wib)
	f.newID = sequentialIDs()

	sess := core.Session{
		ID:      "s1",
		ISODate: "2024-05-01",
		DateStr: "1 Mei 2024",
		Items: []core.DraftItem{
			{ID: "a", Name: "Telur", Qty: "1", Unit: "kg"},
			{ID: "b", Name: "Gula", Qty: "2", Unit: "kg"},
		},
	}
	recs := f.Records(sess, map[string]int64{"a": 15000})

	require.Len(t, recs, 2)
	want := time.Date(2024, time.May, 1, 0, 0, 0, 0, wib).UnixMilli()
	assert.Equal(t, core.HistoryRecord{
		ID: "h1", ItemID: "a", Name: "Telur", Qty: "1", Unit: "kg",
		Price: 15000, SessionDate: "1 Mei 2024", Timestamp: want,
	}, recs[0])
	assert.Equal(t, int64(0), recs[1].Price, "unpriced items are recorded at zero")
	assert.Equal(t, want, recs[1].Timestamp)
}

func TestFinalizerRecordsFallsBackToCreatedAt(t *testing.T) {
	f := NewFinalizer(nil, state.New(), NewPriceTracker(), "u1", wib)
	recs := f.Records(core.Session{CreatedAt: 42, Items: []core.DraftItem{{ID: "a", Name: "Kopi"}}}, nil)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(42), recs[0].Timestamp)
	assert.NotEmpty(t, recs[0].ID)
}

func TestFinalizerFinishKeepsActiveSessionOfOthers(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	mem.Seed("u1", []core.Session{
		{ID: "s1", ISODate: "2024-05-01", Items: []core.DraftItem{{ID: "a", Name: "Telur"}}},
		{ID: "s2", ISODate: "2024-05-02", Items: []core.DraftItem{{ID: "b", Name: "Beras"}}},
	}, nil)

	st := state.New()
	cancel, err := mem.Subscribe(ctx, "u1", func(s core.Snapshot) { st.Replace(s) })
	require.NoError(t, err)
	defer cancel()

	tracker := NewPriceTracker()
	s2, _ := st.Current().FindSession("s2")
	tracker.Open(s2, nil)
	_, err = tracker.SetPrice("b", "50.000")
	require.NoError(t, err)

	f := NewFinalizer(mem, st, tracker, "u1", wib)
	recs, err := f.Finish(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(0), recs[0].Price)

	active, ok := tracker.Active()
	require.True(t, ok, "finishing another session leaves the open one alone")
	assert.Equal(t, "s2", active.ID)
	assert.Equal(t, int64(50000), tracker.LiveTotal())

	_, err = f.Finish(ctx, "s1")
	require.ErrorIs(t, err, core.ErrSessionNotFound)
}
