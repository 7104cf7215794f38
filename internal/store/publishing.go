package store

import (
	"context"
	"log/slog"

	"belanja/internal/core"
)

// PublishingStore forwards every successful write of the wrapped store to a
// Publisher. Publish failures are logged and never fail the write, which is
// already durable by then.
type PublishingStore struct {
	DocumentStore
	pub Publisher
}

// WithPublisher wraps ds. A nil pub returns ds unchanged.
func WithPublisher(ds DocumentStore, pub Publisher) DocumentStore {
	if pub == nil {
		return ds
	}
	return &PublishingStore{DocumentStore: ds, pub: pub}
}

func (p *PublishingStore) CreateSession(ctx context.Context, userID string, s core.Session) (core.Session, error) {
	created, err := p.DocumentStore.CreateSession(ctx, userID, s)
	if err != nil {
		return created, err
	}
	p.publish(ctx, Change{UserID: userID, Kind: ChangeSessionCreated, SessionID: created.ID})
	return created, nil
}

func (p *PublishingStore) DeleteSession(ctx context.Context, userID, id string) error {
	if err := p.DocumentStore.DeleteSession(ctx, userID, id); err != nil {
		return err
	}
	p.publish(ctx, Change{UserID: userID, Kind: ChangeSessionDeleted, SessionID: id})
	return nil
}

func (p *PublishingStore) DeleteHistory(ctx context.Context, userID, id string) error {
	if err := p.DocumentStore.DeleteHistory(ctx, userID, id); err != nil {
		return err
	}
	p.publish(ctx, Change{UserID: userID, Kind: ChangeHistoryDeleted, HistoryIDs: []string{id}})
	return nil
}

func (p *PublishingStore) Commit(ctx context.Context, userID string, b Batch) error {
	if err := p.DocumentStore.Commit(ctx, userID, b); err != nil {
		return err
	}
	c := Change{UserID: userID, Kind: ChangeFinalized}
	if len(b.DeleteSessions) > 0 {
		c.SessionID = b.DeleteSessions[0]
	}
	for _, h := range b.Inserts {
		c.HistoryIDs = append(c.HistoryIDs, h.ID)
	}
	p.publish(ctx, c)
	return nil
}

func (p *PublishingStore) publish(ctx context.Context, c Change) {
	if err := p.pub.PublishChange(ctx, c); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change",
			"user_id", c.UserID,
			"kind", c.Kind,
			"session_id", c.SessionID,
			"error", err)
	}
}
