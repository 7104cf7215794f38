package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"belanja/internal/core"
	"belanja/internal/store"
)

func session(id string, names ...string) core.Session {
	s := core.Session{ID: id, CreatedAt: 1, DateStr: "1 Mei 2024", ISODate: "2024-05-01", Status: core.StatusPending}
	for i, n := range names {
		s.Items = append(s.Items, core.DraftItem{ID: id + "-" + string(rune('a'+i)), Name: n, SelectedDate: "2024-05-01"})
	}
	return s
}

func TestSubscribeDeliversCurrentAndLaterSnapshots(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed("u1", []core.Session{session("s1", "Telur")}, nil)

	var got []core.Snapshot
	cancel, err := s.Subscribe(ctx, "u1", func(snap core.Snapshot) { got = append(got, snap) })
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Sessions, 1)

	_, err = s.CreateSession(ctx, "u1", session("", "Beras"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Len(t, got[1].Sessions, 2)
	assert.NotEmpty(t, got[1].Sessions[1].ID)

	cancel()
	require.NoError(t, s.DeleteSession(ctx, "u1", "s1"))
	assert.Len(t, got, 2, "cancelled listener must not be called")
}

func TestUsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.CreateSession(ctx, "u1", session("s1", "Telur"))
	require.NoError(t, err)

	snap, err := s.Load(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, snap.Sessions)
	require.ErrorIs(t, s.DeleteSession(ctx, "u2", "s1"), core.ErrSessionNotFound)
}

func TestCreateSessionRejectsEmpty(t *testing.T) {
	s := New()
	_, err := s.CreateSession(context.Background(), "u1", core.Session{})
	require.ErrorIs(t, err, core.ErrEmptyDraft)
}

func TestCommitIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed("u1", []core.Session{session("s1", "Telur")}, []core.HistoryRecord{{ID: "h0", Name: "Gula", Price: 1}})

	t.Run("missing session", func(t *testing.T) {
		err := s.Commit(ctx, "u1", store.Batch{
			Inserts:        []core.HistoryRecord{{ID: "h1", Name: "Telur", Price: 15000}},
			DeleteSessions: []string{"nope"},
		})
		require.ErrorIs(t, err, core.ErrSessionNotFound)
	})

	t.Run("duplicate id", func(t *testing.T) {
		err := s.Commit(ctx, "u1", store.Batch{
			Inserts:        []core.HistoryRecord{{ID: "h0", Name: "Telur", Price: 15000}},
			DeleteSessions: []string{"s1"},
		})
		require.ErrorIs(t, err, core.ErrDuplicateDocument)
	})

	t.Run("fault", func(t *testing.T) {
		s.SetFault(func(string) error { return errors.New("unavailable") })
		defer s.SetFault(nil)
		err := s.Commit(ctx, "u1", store.Batch{
			Inserts:        []core.HistoryRecord{{ID: "h1", Name: "Telur", Price: 15000}},
			DeleteSessions: []string{"s1"},
		})
		require.ErrorIs(t, err, core.ErrPersistence)
	})

	snap, _ := s.Load(ctx, "u1")
	assert.Len(t, snap.Sessions, 1)
	assert.Len(t, snap.History, 1)

	require.NoError(t, s.Commit(ctx, "u1", store.Batch{
		Inserts:        []core.HistoryRecord{{ID: "h1", Name: "Telur", Price: 15000}},
		DeleteSessions: []string{"s1"},
	}))
	snap, _ = s.Load(ctx, "u1")
	assert.Empty(t, snap.Sessions)
	assert.Len(t, snap.History, 2)
}

func TestDeleteHistory(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed("u1", nil, []core.HistoryRecord{{ID: "h1", Name: "Telur", Price: 1}, {ID: "h2", Name: "Beras", Price: 2}})

	require.NoError(t, s.DeleteHistory(ctx, "u1", "h1"))
	require.ErrorIs(t, s.DeleteHistory(ctx, "u1", "h1"), core.ErrHistoryNotFound)

	snap, _ := s.Load(ctx, "u1")
	require.Len(t, snap.History, 1)
	assert.Equal(t, "h2", snap.History[0].ID)
}

func TestSnapshotsDoNotAliasStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed("u1", []core.Session{session("s1", "Telur")}, nil)

	snap, _ := s.Load(ctx, "u1")
	snap.Sessions[0].Items[0].Name = "changed"

	again, _ := s.Load(ctx, "u1")
	assert.Equal(t, "Telur", again.Sessions[0].Items[0].Name)
}
