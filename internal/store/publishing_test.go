package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"belanja/internal/core"
	"belanja/internal/store"
	"belanja/internal/store/memory"
)

type recordingPublisher struct {
	changes []store.Change
	err     error
}

func (r *recordingPublisher) PublishChange(_ context.Context, c store.Change) error {
	r.changes = append(r.changes, c)
	return r.err
}

func TestWithPublisherForwardsSuccessfulWrites(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	pub := &recordingPublisher{}
	ds := store.WithPublisher(mem, pub)

	sess, err := ds.CreateSession(ctx, "u1", core.Session{
		Items: []core.DraftItem{{ID: "i1", Name: "Telur", SelectedDate: "2024-05-01"}},
	})
	require.NoError(t, err)

	require.NoError(t, ds.Commit(ctx, "u1", store.Batch{
		Inserts:        []core.HistoryRecord{{ID: "h1", Name: "Telur", Price: 15000}},
		DeleteSessions: []string{sess.ID},
	}))

	// Failed writes are not published.
	require.ErrorIs(t, ds.DeleteHistory(ctx, "u1", "missing"), core.ErrHistoryNotFound)

	require.Len(t, pub.changes, 2)
	assert.Equal(t, store.ChangeSessionCreated, pub.changes[0].Kind)
	assert.Equal(t, sess.ID, pub.changes[0].SessionID)
	assert.Equal(t, store.Change{
		UserID:     "u1",
		Kind:       store.ChangeFinalized,
		SessionID:  sess.ID,
		HistoryIDs: []string{"h1"},
	}, pub.changes[1])
}

func TestWithPublisherIgnoresPublishErrors(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("broker down")}
	ds := store.WithPublisher(memory.New(), pub)

	_, err := ds.CreateSession(ctx, "u1", core.Session{
		Items: []core.DraftItem{{ID: "i1", Name: "Telur", SelectedDate: "2024-05-01"}},
	})
	require.NoError(t, err)
	assert.Len(t, pub.changes, 1)
}

func TestWithPublisherNil(t *testing.T) {
	mem := memory.New()
	assert.Same(t, mem, store.WithPublisher(mem, nil))
}
