package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"belanja/internal/core"
	"belanja/internal/store"
)

// Fault is consulted before every write. A non-nil error rejects the write
// without changing any document.
type Fault func(op string) error

type docs struct {
	sessions []core.Session
	history  []core.HistoryRecord
}

type Store struct {
	store.Hub

	mu    sync.Mutex
	users map[string]*docs
	fault Fault
}

func New() *Store {
	return &Store{users: make(map[string]*docs)}
}

// SetFault installs f, or clears the hook when f is nil.
func (s *Store) SetFault(f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

// Seed replaces userID's documents without consulting the fault hook.
func (s *Store) Seed(userID string, sessions []core.Session, history []core.HistoryRecord) {
	s.mu.Lock()
	s.users[userID] = &docs{
		sessions: slices.Clone(sessions),
		history:  slices.Clone(history),
	}
	s.mu.Unlock()
	s.publish(userID)
}

func (s *Store) Load(_ context.Context, userID string) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(userID), nil
}

func (s *Store) Subscribe(ctx context.Context, userID string, fn store.Listener) (func(), error) {
	return s.Attach(userID, fn, func() (core.Snapshot, error) { return s.Load(ctx, userID) })
}

func (s *Store) Refresh(ctx context.Context, userID string) error {
	return s.Deliver(userID, func() (core.Snapshot, error) { return s.Load(ctx, userID) })
}

// publish re-reads userID's documents so a slow listener can never hand
// out a snapshot older than one already delivered.
func (s *Store) publish(userID string) {
	_ = s.Deliver(userID, func() (core.Snapshot, error) { return s.Load(context.Background(), userID) })
}

func (s *Store) CreateSession(_ context.Context, userID string, sess core.Session) (core.Session, error) {
	if err := sess.Validate(); err != nil {
		return core.Session{}, err
	}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	sess.Items = slices.Clone(sess.Items)

	s.mu.Lock()
	if err := s.check("create_session"); err != nil {
		s.mu.Unlock()
		return core.Session{}, err
	}
	d := s.userLocked(userID)
	if slices.ContainsFunc(d.sessions, func(x core.Session) bool { return x.ID == sess.ID }) {
		s.mu.Unlock()
		return core.Session{}, fmt.Errorf("%w: session %s", core.ErrDuplicateDocument, sess.ID)
	}
	d.sessions = append(d.sessions, sess)
	s.mu.Unlock()

	s.publish(userID)
	return sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, userID, id string) error {
	return s.Commit(ctx, userID, store.Batch{DeleteSessions: []string{id}})
}

func (s *Store) DeleteHistory(_ context.Context, userID, id string) error {
	s.mu.Lock()
	if err := s.check("delete_history"); err != nil {
		s.mu.Unlock()
		return err
	}
	d := s.userLocked(userID)
	i := slices.IndexFunc(d.history, func(h core.HistoryRecord) bool { return h.ID == id })
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", core.ErrHistoryNotFound, id)
	}
	d.history = slices.Delete(slices.Clone(d.history), i, i+1)
	s.mu.Unlock()

	s.publish(userID)
	return nil
}

// Commit builds the new collections aside and swaps them in only when every
// write in b is valid.
func (s *Store) Commit(_ context.Context, userID string, b store.Batch) error {
	if b.Empty() {
		return nil
	}
	for _, h := range b.Inserts {
		if err := h.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	if err := s.check("commit"); err != nil {
		s.mu.Unlock()
		return err
	}
	d := s.userLocked(userID)

	sessions := slices.Clone(d.sessions)
	for _, id := range b.DeleteSessions {
		i := slices.IndexFunc(sessions, func(x core.Session) bool { return x.ID == id })
		if i < 0 {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
		}
		sessions = slices.Delete(sessions, i, i+1)
	}

	history := slices.Clone(d.history)
	seen := make(map[string]struct{}, len(history)+len(b.Inserts))
	for _, h := range history {
		seen[h.ID] = struct{}{}
	}
	for _, h := range b.Inserts {
		if _, dup := seen[h.ID]; dup || h.ID == "" {
			s.mu.Unlock()
			return fmt.Errorf("%w: history %q", core.ErrDuplicateDocument, h.ID)
		}
		seen[h.ID] = struct{}{}
		history = append(history, h)
	}

	d.sessions, d.history = sessions, history
	s.mu.Unlock()

	s.publish(userID)
	return nil
}

func (s *Store) check(op string) error {
	if s.fault == nil {
		return nil
	}
	if err := s.fault(op); err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrPersistence, op, err)
	}
	return nil
}

func (s *Store) userLocked(userID string) *docs {
	d, ok := s.users[userID]
	if !ok {
		d = &docs{}
		s.users[userID] = d
	}
	return d
}

// snapshotLocked returns copies so listeners never alias store state.
func (s *Store) snapshotLocked(userID string) core.Snapshot {
	d, ok := s.users[userID]
	if !ok {
		return core.Snapshot{}
	}
	sessions := make([]core.Session, len(d.sessions))
	for i, sess := range d.sessions {
		sess.Items = slices.Clone(sess.Items)
		sessions[i] = sess
	}
	return core.Snapshot{
		Sessions: sessions,
		History:  slices.Clone(d.history),
	}
}

var _ store.DocumentStore = (*Store)(nil)
