// Package store defines the document store the shopping engine persists to.
//
// A store keeps two collections per user, sessions and history. Every
// committed write is followed by a notification carrying the user's full
// document set; subscribers replace their view with it wholesale.
package store

import (
	"context"

	"belanja/internal/core"
)

// Listener receives the full document set of one user after each change.
type Listener func(snap core.Snapshot)

// Batch is an atomic multi-document write: every insert and every session
// delete is applied, or none is.
type Batch struct {
	Inserts        []core.HistoryRecord
	DeleteSessions []string
}

// Empty reports whether the batch carries no writes.
func (b Batch) Empty() bool {
	return len(b.Inserts) == 0 && len(b.DeleteSessions) == 0
}

// Ports for outbound adapters.
type (
	// DocumentStore is implemented by the memory and SQLite backends.
	DocumentStore interface {
		// Load returns the current document set for userID.
		Load(ctx context.Context, userID string) (core.Snapshot, error)

		// Subscribe registers fn and delivers the current document set to it
		// before returning. The returned func unregisters fn.
		Subscribe(ctx context.Context, userID string, fn Listener) (cancel func(), err error)

		// Refresh re-reads userID's documents and notifies subscribers. It is
		// used when another process changed the store.
		Refresh(ctx context.Context, userID string) error

		// CreateSession persists s. An empty s.ID is replaced by a new id.
		CreateSession(ctx context.Context, userID string, s core.Session) (core.Session, error)

		// DeleteSession fails with core.ErrSessionNotFound when id is absent.
		DeleteSession(ctx context.Context, userID, id string) error

		// DeleteHistory fails with core.ErrHistoryNotFound when id is absent.
		DeleteHistory(ctx context.Context, userID, id string) error

		// Commit applies b atomically. A session listed for deletion that is
		// absent fails the whole batch with core.ErrSessionNotFound.
		Commit(ctx context.Context, userID string, b Batch) error
	}

	// Publisher forwards committed changes to other processes.
	Publisher interface {
		PublishChange(ctx context.Context, c Change) error
	}
)

const (
	ChangeSessionCreated ChangeKind = "session_created"
	ChangeSessionDeleted ChangeKind = "session_deleted"
	ChangeHistoryDeleted ChangeKind = "history_deleted"
	ChangeFinalized      ChangeKind = "finalized"
	ChangeResync         ChangeKind = "resync"
)

// ChangeKind names the write that produced a Change.
type ChangeKind string

// Change describes one committed write.
type Change struct {
	UserID     string
	Kind       ChangeKind
	SessionID  string
	HistoryIDs []string
}
