package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"belanja/internal/core"
	"belanja/internal/state"
	"belanja/internal/store"
)

// SessionService creates, lists and deletes pending sessions of one user.
type SessionService struct {
	store  store.DocumentStore
	state  *state.Container
	userID string
	loc    *time.Location
}

func NewSessionService(ds store.DocumentStore, st *state.Container, userID string, loc *time.Location) *SessionService {
	if loc == nil {
		loc = time.Local
	}
	return &SessionService{store: ds, state: st, userID: userID, loc: loc}
}

// Create persists a session holding items. The first item's date is the
// date of the whole session.
func (s *SessionService) Create(ctx context.Context, items []core.DraftItem) (core.Session, error) {
	if len(items) == 0 {
		return core.Session{}, core.ErrEmptyDraft
	}
	ref, err := core.ParseISODate(items[0].SelectedDate, s.loc)
	if err != nil {
		return core.Session{}, err
	}

	sess := core.Session{
		Items:     slices.Clone(items),
		CreatedAt: ref.UnixMilli(),
		DateStr:   core.FormatDateLabel(ref),
		ISODate:   core.FormatISODate(ref),
		Status:    core.StatusPending,
	}
	if err := sess.Validate(); err != nil {
		return core.Session{}, err
	}

	created, err := s.store.CreateSession(ctx, s.userID, sess)
	if err != nil {
		return core.Session{}, fmt.Errorf("create session: %w", err)
	}

	slog.InfoContext(ctx, "Session created",
		"user_id", s.userID,
		"session_id", created.ID,
		"item_count", len(created.Items),
		"date", created.ISODate)

	return created, nil
}

// List returns the sessions of the latest snapshot in store order.
func (s *SessionService) List() []core.Session {
	return slices.Clone(s.state.Current().Sessions)
}

func (s *SessionService) Get(id string) (core.Session, bool) {
	return s.state.Current().FindSession(id)
}

func (s *SessionService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteSession(ctx, s.userID, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	slog.InfoContext(ctx, "Session deleted", "user_id", s.userID, "session_id", id)
	return nil
}
