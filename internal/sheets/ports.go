package sheets

import (
	"context"
	"time"

	"belanja/internal/core"
)

// Ports for outbound adapters.
type (
	// HistoryWriter mirrors finalized history records to a spreadsheet.
	HistoryWriter interface {
		AppendHistory(ctx context.Context, userID string, records []core.HistoryRecord) (rowRef string, err error)
	}

	// HistoryLister reads mirrored records back for a given month.
	HistoryLister interface {
		ListHistory(ctx context.Context, year int, month time.Month) ([]MirroredRecord, error)
	}
)

// MirroredRecord is one spreadsheet row.
type MirroredRecord struct {
	UserID string
	Record core.HistoryRecord
}
