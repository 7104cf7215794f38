package services

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"belanja/internal/core"
	"belanja/internal/store"
)

// Registry keeps one signed-in Shopper per user id.
type Registry struct {
	store store.DocumentStore
	loc   *time.Location
	now   func() time.Time

	mu       sync.Mutex
	shoppers map[string]*Shopper

	refresh singleflight.Group
}

func NewRegistry(ds store.DocumentStore, loc *time.Location) *Registry {
	return &Registry{
		store:    ds,
		loc:      loc,
		now:      time.Now,
		shoppers: make(map[string]*Shopper),
	}
}

// Get returns the Shopper of userID, signing it in on first use.
func (r *Registry) Get(ctx context.Context, userID string) (*Shopper, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, core.ErrEmptyUserID
	}

	r.mu.Lock()
	if s, ok := r.shoppers[userID]; ok {
		r.mu.Unlock()
		return s, nil
	}
	r.mu.Unlock()

	s := NewShopper(r.store, userID, r.loc, r.now)
	if err := s.SignIn(ctx); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.shoppers[userID]; ok {
		// Lost a race with a concurrent sign-in.
		s.SignOut()
		return existing, nil
	}
	r.shoppers[userID] = s
	return s, nil
}

// SignOut drops userID's Shopper. It reports whether one was signed in.
func (r *Registry) SignOut(userID string) bool {
	r.mu.Lock()
	s, ok := r.shoppers[userID]
	delete(r.shoppers, userID)
	r.mu.Unlock()

	if ok {
		s.SignOut()
	}
	return ok
}

// Refresh re-reads userID's documents from the store. Concurrent refreshes
// of one user collapse into a single read.
func (r *Registry) Refresh(ctx context.Context, userID string) error {
	r.mu.Lock()
	_, ok := r.shoppers[userID]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	_, err, shared := r.refresh.Do(userID, func() (interface{}, error) {
		return nil, r.store.Refresh(ctx, userID)
	})
	if err != nil {
		slog.ErrorContext(ctx, "Failed to refresh snapshot", "user_id", userID, "error", err)
		return err
	}
	slog.DebugContext(ctx, "Snapshot refreshed", "user_id", userID, "shared", shared)
	return nil
}

// HandleChange refreshes the user a change from another process belongs to.
func (r *Registry) HandleChange(ctx context.Context, c store.Change) error {
	return r.Refresh(ctx, c.UserID)
}

func (r *Registry) Users() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]string, 0, len(r.shoppers))
	for u := range r.shoppers {
		users = append(users, u)
	}
	slices.Sort(users)
	return users
}

// Close signs every user out.
func (r *Registry) Close() {
	for _, u := range r.Users() {
		r.SignOut(u)
	}
}
