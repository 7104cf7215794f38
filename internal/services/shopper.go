package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"belanja/internal/core"
	"belanja/internal/state"
	"belanja/internal/store"
)

// ActiveSession is the open session with its typed prices.
type ActiveSession struct {
	Session core.Session     `json:"session"`
	Prices  map[string]int64 `json:"prices"`
	Total   int64            `json:"total"`
}

// Shopper is everything one signed-in user works with: the draft cart, the
// snapshot of their documents and the session open for pricing. Operations
// are serialised so concurrent requests of one user never interleave.
type Shopper struct {
	mu     sync.Mutex
	userID string
	loc    *time.Location
	store  store.DocumentStore

	state     *state.Container
	cart      *DraftCart
	tracker   *PriceTracker
	sessions  *SessionService
	finalizer *Finalizer

	unsubscribe func()
	unobserve   func()
}

func NewShopper(ds store.DocumentStore, userID string, loc *time.Location, now func() time.Time) *Shopper {
	if loc == nil {
		loc = time.Local
	}
	st := state.New()
	tracker := NewPriceTracker()
	s := &Shopper{
		userID:    userID,
		loc:       loc,
		store:     ds,
		state:     st,
		tracker:   tracker,
		sessions:  NewSessionService(ds, st, userID, loc),
		finalizer: NewFinalizer(ds, st, tracker, userID, loc),
	}
	s.cart = NewDraftCart(s.lastPrice, loc, now)
	return s
}

func (s *Shopper) UserID() string { return s.userID }

// SignIn subscribes to the user's documents. The first snapshot is in place
// when it returns.
func (s *Shopper) SignIn(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		return nil
	}

	s.unobserve = s.state.Observe(func(snap core.Snapshot, c state.Change) {
		if c.SessionsChanged && s.tracker.CloseIfMissing(snap) {
			slog.Info("Active session closed after it disappeared from the store",
				"user_id", s.userID, "version", c.Version)
		}
	})

	cancel, err := s.store.Subscribe(ctx, s.userID, func(snap core.Snapshot) {
		s.state.Replace(snap)
	})
	if err != nil {
		s.unobserve()
		s.unobserve = nil
		return fmt.Errorf("subscribe: %w", err)
	}
	s.unsubscribe = cancel

	slog.InfoContext(ctx, "User signed in", "user_id", s.userID, "version", s.state.Version())
	return nil
}

// SignOut stops the subscription and drops all local state.
func (s *Shopper) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.unobserve != nil {
		s.unobserve()
		s.unobserve = nil
	}
	s.tracker.Close()
	s.cart.Clear()
	s.state.Reset()
	slog.Info("User signed out", "user_id", s.userID)
}

func (s *Shopper) lastPrice(name string) *int64 {
	return core.LastPricePtr(s.state.Current().History, name)
}

// Draft cart

func (s *Shopper) AddDraftItem(name, qty, unit, date string) (core.DraftItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Add(name, qty, unit, date)
}

func (s *Shopper) RemoveDraftItem(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Remove(index)
}

func (s *Shopper) ClearDraft() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
}

func (s *Shopper) Draft() []core.DraftItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Items()
}

// Sessions

// CreateSession turns the draft into a pending session. The draft is kept
// when the store rejects the write.
func (s *Shopper) CreateSession(ctx context.Context) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.sessions.Create(ctx, s.cart.Items())
	if err != nil {
		return core.Session{}, err
	}
	s.cart.Clear()
	return sess, nil
}

func (s *Shopper) Sessions() []core.Session {
	return s.sessions.List()
}

func (s *Shopper) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions.Delete(ctx, id)
}

// OpenSession makes id the session being priced, discarding prices typed
// for any previous one.
func (s *Shopper) OpenSession(id string) (core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.state.Current()
	sess, ok := snap.FindSession(id)
	if !ok {
		return core.Session{}, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	s.tracker.Open(sess, snap.History)
	return sess, nil
}

func (s *Shopper) CloseSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracker.Close()
}

func (s *Shopper) Active() (ActiveSession, bool) {
	return s.tracker.View()
}

// Price entry

func (s *Shopper) SetPrice(itemID, raw string) (PriceEntry, error) {
	return s.tracker.SetPrice(itemID, raw)
}

func (s *Shopper) LiveTotal() int64 {
	return s.tracker.LiveTotal()
}

// Finalization

// Finish finalizes the active session.
func (s *Shopper) Finish(ctx context.Context) ([]core.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.tracker.Active()
	if !ok {
		return nil, core.ErrNoActiveSession
	}
	return s.finalizer.Finish(ctx, sess.ID)
}

// FinishSession finalizes id. Prices are only carried over when id is the
// active session.
func (s *Shopper) FinishSession(ctx context.Context, id string) ([]core.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalizer.Finish(ctx, id)
}

// History

func (s *Shopper) History() []core.HistoryRecord {
	return slices.Clone(s.state.Current().History)
}

func (s *Shopper) MonthHistory(year int, month time.Month) ([]core.HistoryRecord, int64) {
	h := s.state.Current().History
	return core.FilterByMonth(h, year, month, s.loc), core.MonthTotal(h, year, month, s.loc)
}

func (s *Shopper) Overview(year int, month time.Month) core.MonthOverview {
	return core.ReadMonthOverview(s.state.Current().History, year, month, s.loc)
}

func (s *Shopper) DeleteHistory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.DeleteHistory(ctx, s.userID, id); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	slog.InfoContext(ctx, "History record deleted", "user_id", s.userID, "history_id", id)
	return nil
}

func (s *Shopper) LastPrice(name string) (int64, bool) {
	return core.LastPrice(s.state.Current().History, name)
}

// Snapshot returns the latest snapshot with its version.
func (s *Shopper) Snapshot() core.Snapshot {
	return s.state.Current()
}

// Stamp identifies the snapshot Overview and History currently read from.
// It differs between two Shoppers for the same user.
func (s *Shopper) Stamp() (generation, version uint64) {
	return s.state.Stamp()
}
