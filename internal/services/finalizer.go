package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"belanja/internal/core"
	"belanja/internal/state"
	"belanja/internal/store"
)

// Finalizer turns a pending session into history records in one atomic
// store batch.
type Finalizer struct {
	store   store.DocumentStore
	state   *state.Container
	tracker *PriceTracker
	userID  string
	loc     *time.Location
	newID   func() string
}

func NewFinalizer(ds store.DocumentStore, st *state.Container, tracker *PriceTracker, userID string, loc *time.Location) *Finalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Finalizer{
		store:   ds,
		state:   st,
		tracker: tracker,
		userID:  userID,
		loc:     loc,
		newID:   uuid.NewString,
	}
}

// Records builds the history records for sess. Items without a typed price
// are recorded at 0.
func (f *Finalizer) Records(sess core.Session, prices map[string]int64) []core.HistoryRecord {
	ts := core.SessionTimestamp(sess, f.loc)
	out := make([]core.HistoryRecord, 0, len(sess.Items))
	for _, it := range sess.Items {
		out = append(out, core.HistoryRecord{
			ID:          f.newID(),
			ItemID:      it.ID,
			Name:        it.Name,
			Qty:         it.Qty,
			Unit:        it.Unit,
			Price:       prices[it.ID],
			SessionDate: sess.DateStr,
			Timestamp:   ts,
		})
	}
	return out
}

// Finish writes one history record per item of sessionID and deletes the
// session, all or nothing. On failure no state changes.
func (f *Finalizer) Finish(ctx context.Context, sessionID string) ([]core.HistoryRecord, error) {
	sess, ok := f.state.Current().FindSession(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, sessionID)
	}

	prices := f.tracker.PricesFor(sessionID)
	records := f.Records(sess, prices)

	err := f.store.Commit(ctx, f.userID, store.Batch{
		Inserts:        records,
		DeleteSessions: []string{sessionID},
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to finalize session",
			"user_id", f.userID,
			"session_id", sessionID,
			"error", err)
		return nil, fmt.Errorf("finalize session: %w", err)
	}

	if prices != nil {
		f.tracker.Close()
	}

	var total int64
	for _, r := range records {
		total += r.Price
	}
	slog.InfoContext(ctx, "Session finalized",
		"user_id", f.userID,
		"session_id", sessionID,
		"item_count", len(records),
		"total", total)

	return records, nil
}
