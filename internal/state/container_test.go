package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"belanja/internal/core"
)

func TestReplaceBumpsVersionAndReportsChanges(t *testing.T) {
	c := New()
	assert.Equal(t, uint64(0), c.Version())

	var seen []Change
	c.Observe(func(_ core.Snapshot, ch Change) { seen = append(seen, ch) })

	sessions := []core.Session{{ID: "s1", Items: []core.DraftItem{{ID: "i1", Name: "Telur"}}}}
	ch := c.Replace(core.Snapshot{Version: 99, Sessions: sessions})
	assert.Equal(t, Change{Version: 1, SessionsChanged: true, HistoryChanged: false}, ch)

	history := []core.HistoryRecord{{ID: "h1", Name: "Telur", Price: 15000}}
	ch = c.Replace(core.Snapshot{Sessions: sessions, History: history})
	assert.Equal(t, Change{Version: 2, SessionsChanged: false, HistoryChanged: true}, ch)

	ch = c.Replace(core.Snapshot{Sessions: sessions, History: history})
	assert.Equal(t, Change{Version: 3}, ch)

	assert.Len(t, seen, 3)
	assert.Equal(t, uint64(3), c.Current().Version)
	assert.Equal(t, history, c.Current().History)
}

func TestResetClearsButKeepsCounting(t *testing.T) {
	c := New()
	c.Replace(core.Snapshot{History: []core.HistoryRecord{{ID: "h1"}}})
	c.Reset()

	cur := c.Current()
	assert.Equal(t, uint64(2), cur.Version)
	assert.Empty(t, cur.History)
	assert.NotNil(t, cur.Sessions)
}

func TestStampNeverRepeatsAcrossContainers(t *testing.T) {
	a := New()
	a.Replace(core.Snapshot{})
	genA, verA := a.Stamp()
	assert.Equal(t, uint64(1), verA)

	// A fresh container restarts its version but not its generation.
	b := New()
	b.Replace(core.Snapshot{})
	genB, verB := b.Stamp()
	assert.Equal(t, verA, verB)
	assert.NotEqual(t, genA, genB)

	b.Reset()
	genReset, _ := b.Stamp()
	assert.NotEqual(t, genB, genReset)

	b.Replace(core.Snapshot{})
	genNext, _ := b.Stamp()
	assert.Equal(t, genReset, genNext)
}

func TestObserveCancel(t *testing.T) {
	c := New()
	n := 0
	cancel := c.Observe(func(core.Snapshot, Change) { n++ })
	c.Replace(core.Snapshot{})
	cancel()
	c.Replace(core.Snapshot{})
	assert.Equal(t, 1, n)
}
