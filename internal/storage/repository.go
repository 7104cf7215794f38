package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"belanja/internal/core"
	"belanja/internal/store"
)

// SQLiteRepository is the durable document store. Sessions keep their items
// as a JSON column; history records are plain rows.
type SQLiteRepository struct {
	store.Hub

	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time keeps batches serialised without SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Load(ctx context.Context, userID string) (core.Snapshot, error) {
	sessions, err := r.queries.ListSessions(ctx, userID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: list sessions: %v", core.ErrPersistence, err)
	}
	history, err := r.queries.ListHistory(ctx, userID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("%w: list history: %v", core.ErrPersistence, err)
	}
	return core.Snapshot{Sessions: sessions, History: history}, nil
}

func (r *SQLiteRepository) Subscribe(ctx context.Context, userID string, fn store.Listener) (func(), error) {
	return r.Attach(userID, fn, func() (core.Snapshot, error) { return r.Load(ctx, userID) })
}

func (r *SQLiteRepository) Refresh(ctx context.Context, userID string) error {
	if !r.Watched(userID) {
		return nil
	}
	return r.Deliver(userID, func() (core.Snapshot, error) { return r.Load(ctx, userID) })
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, userID string, s core.Session) (core.Session, error) {
	if err := s.Validate(); err != nil {
		return core.Session{}, err
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if err := r.queries.InsertSession(ctx, userID, s); err != nil {
		return core.Session{}, classify(err, "insert session "+s.ID)
	}

	slog.InfoContext(ctx, "Session saved to SQLite",
		"user_id", userID,
		"session_id", s.ID,
		"item_count", len(s.Items))

	r.notify(ctx, userID)
	return s, nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteSession(ctx, userID, id)
	if err != nil {
		return classify(err, "delete session "+id)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	r.notify(ctx, userID)
	return nil
}

func (r *SQLiteRepository) DeleteHistory(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteHistory(ctx, userID, id)
	if err != nil {
		return classify(err, "delete history "+id)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrHistoryNotFound, id)
	}
	r.notify(ctx, userID)
	return nil
}

// Commit runs the batch in one transaction. A session that vanished since
// the caller read it rolls everything back.
func (r *SQLiteRepository) Commit(ctx context.Context, userID string, b store.Batch) error {
	if b.Empty() {
		return nil
	}
	for _, h := range b.Inserts {
		if err := h.Validate(); err != nil {
			return err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", core.ErrPersistence, err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for _, id := range b.DeleteSessions {
		n, err := q.DeleteSession(ctx, userID, id)
		if err != nil {
			return classify(err, "delete session "+id)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
		}
	}
	for _, h := range b.Inserts {
		if err := q.InsertHistory(ctx, userID, h); err != nil {
			return classify(err, "insert history "+h.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", core.ErrPersistence, err)
	}

	slog.InfoContext(ctx, "Batch committed to SQLite",
		"user_id", userID,
		"inserted", len(b.Inserts),
		"deleted_sessions", len(b.DeleteSessions))

	r.notify(ctx, userID)
	return nil
}

// GetHistory returns userID's records among ids.
func (r *SQLiteRepository) GetHistory(ctx context.Context, userID string, ids []string) ([]core.HistoryRecord, error) {
	recs, err := r.queries.GetHistoryByIDs(ctx, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("get history by ids: %w", err)
	}
	return recs, nil
}

// GetPendingMirror returns up to limit records awaiting the spreadsheet copy.
func (r *SQLiteRepository) GetPendingMirror(ctx context.Context, limit int) ([]PendingMirrorRow, error) {
	rows, err := r.queries.GetPendingMirror(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending mirror: %w", err)
	}
	return rows, nil
}

func (r *SQLiteRepository) MarkMirrored(ctx context.Context, id string) error {
	if err := r.queries.SetMirrorStatus(ctx, id, MirrorDone, r.now().UnixMilli()); err != nil {
		return fmt.Errorf("mark history mirrored: %w", err)
	}
	slog.DebugContext(ctx, "History record marked as mirrored", "history_id", id)
	return nil
}

func (r *SQLiteRepository) MarkMirrorError(ctx context.Context, id string) error {
	if err := r.queries.SetMirrorStatus(ctx, id, MirrorError, 0); err != nil {
		return fmt.Errorf("mark history mirror error: %w", err)
	}
	slog.WarnContext(ctx, "History record marked with mirror error", "history_id", id)
	return nil
}

// MirrorStatus reports the mirror state of one history record.
func (r *SQLiteRepository) MirrorStatus(ctx context.Context, id string) (string, error) {
	status, err := r.queries.GetMirrorStatus(ctx, id)
	if err != nil {
		return "", fmt.Errorf("get mirror status: %w", err)
	}
	return status, nil
}

// ListUsers returns every user id that owns at least one document.
func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]string, error) {
	users, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// notify pushes a fresh snapshot to userID's listeners. The write is already
// durable, so a failed re-read is only logged.
func (r *SQLiteRepository) notify(ctx context.Context, userID string) {
	if !r.Watched(userID) {
		return
	}
	err := r.Deliver(userID, func() (core.Snapshot, error) { return r.Load(ctx, userID) })
	if err != nil {
		slog.ErrorContext(ctx, "Failed to reload snapshot after write",
			"user_id", userID, "error", err)
	}
}

func classify(err error, what string) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("%w: %s", core.ErrDuplicateDocument, what)
		}
	}
	return fmt.Errorf("%w: %s: %v", core.ErrPersistence, what, err)
}

var _ store.DocumentStore = (*SQLiteRepository)(nil)
