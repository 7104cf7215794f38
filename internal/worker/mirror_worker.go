package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"belanja/internal/amqp"
	"belanja/internal/core"
	"belanja/internal/sheets"
	"belanja/internal/storage"
	"belanja/internal/store"
)

// MirrorRepository is the part of the SQLite store the worker needs.
type MirrorRepository interface {
	GetHistory(ctx context.Context, userID string, ids []string) ([]core.HistoryRecord, error)
	GetPendingMirror(ctx context.Context, limit int) ([]storage.PendingMirrorRow, error)
	MirrorStatus(ctx context.Context, id string) (string, error)
	MarkMirrored(ctx context.Context, id string) error
	MarkMirrorError(ctx context.Context, id string) error
}

// MirrorWorker copies finalized history records to Google Sheets.
type MirrorWorker struct {
	repo      MirrorRepository
	sheets    sheets.HistoryWriter
	batchSize int
}

func NewMirrorWorker(repo MirrorRepository, writer sheets.HistoryWriter, batchSize int) *MirrorWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &MirrorWorker{repo: repo, sheets: writer, batchSize: batchSize}
}

// HandleChange mirrors the records of a finalized session. Other change
// kinds are acknowledged and ignored.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	if msg.Kind != store.ChangeFinalized || len(msg.HistoryIDs) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing finalized session",
		"user_id", msg.UserID,
		"session_id", msg.SessionID,
		"records", len(msg.HistoryIDs))

	records, err := w.repo.GetHistory(ctx, msg.UserID, msg.HistoryIDs)
	if err != nil {
		return fmt.Errorf("get history from storage: %w", err)
	}

	// Redelivered messages must not duplicate rows.
	pending := records[:0]
	for _, r := range records {
		status, err := w.repo.MirrorStatus(ctx, r.ID)
		if err != nil {
			return fmt.Errorf("get mirror status: %w", err)
		}
		if status != storage.MirrorDone {
			pending = append(pending, r)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	return w.mirror(ctx, msg.UserID, pending)
}

// ProcessPending mirrors records that were never copied, or whose copy
// failed. It backs up lost or failed change messages.
func (w *MirrorWorker) ProcessPending(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck is ProcessPending with a larger batch, run once when the
// worker starts.
func (w *MirrorWorker) StartupSyncCheck(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize*5)
}

func (w *MirrorWorker) processPending(ctx context.Context, limit int) error {
	rows, err := w.repo.GetPendingMirror(ctx, limit)
	if err != nil {
		return fmt.Errorf("get pending records: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending records", "count", len(rows))

	var order []string
	byUser := map[string][]core.HistoryRecord{}
	for _, r := range rows {
		if _, ok := byUser[r.UserID]; !ok {
			order = append(order, r.UserID)
		}
		byUser[r.UserID] = append(byUser[r.UserID], r.Record)
	}

	failed := 0
	for _, userID := range order {
		if err := w.mirror(ctx, userID, byUser[userID]); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror pending records", "user_id", userID, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("mirror failed for %d of %d users", failed, len(order))
	}
	return nil
}

// Run calls ProcessPending every interval until ctx is done.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				slog.WarnContext(ctx, "Periodic mirror pass failed", "error", err)
			}
		}
	}
}

func (w *MirrorWorker) mirror(ctx context.Context, userID string, records []core.HistoryRecord) error {
	ref, err := w.sheets.AppendHistory(ctx, userID, records)
	if err != nil {
		for _, r := range records {
			if markErr := w.repo.MarkMirrorError(ctx, r.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark mirror error", "history_id", r.ID, "error", markErr)
			}
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	for _, r := range records {
		if err := w.repo.MarkMirrored(ctx, r.ID); err != nil {
			// The rows are in the sheet already.
			slog.ErrorContext(ctx, "Failed to mark as mirrored", "history_id", r.ID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Records mirrored to sheets",
		"user_id", userID,
		"count", len(records),
		"sheets_ref", ref)
	return nil
}
