package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"belanja/internal/core"
)

var wib = time.FixedZone("WIB", 7*60*60)

// fixedClock returns a clock frozen at t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestDraftCartAdd(t *testing.T) {
	now := time.Date(2024, time.May, 1, 23, 30, 0, 0, wib)
	last := int64(50000)
	lookup := func(name string) *int64 {
		if name == "Beras" {
			return &last
		}
		return nil
	}
	c := NewDraftCart(lookup, wib, fixedClock(now))

	item, err := c.Add("  Beras ", " 5 ", "kg", "")
	require.NoError(t, err)
	assert.Equal(t, "Beras", item.Name)
	assert.Equal(t, "5", item.Qty)
	assert.Equal(t, "2024-05-01", item.SelectedDate, "empty date defaults to today in the configured zone")
	require.NotNil(t, item.LastPrice)
	assert.Equal(t, int64(50000), *item.LastPrice)

	second, err := c.Add("Telur", "2", "kg", "2024-05-03")
	require.NoError(t, err)
	assert.Nil(t, second.LastPrice)
	assert.NotEqual(t, item.ID, second.ID, "ids stay unique within one millisecond")
	assert.Equal(t, 2, c.Count())
}

func TestDraftCartAddRejects(t *testing.T) {
	c := NewDraftCart(nil, wib, nil)

	_, err := c.Add("   ", "1", "kg", "")
	require.ErrorIs(t, err, core.ErrEmptyName)
	require.ErrorIs(t, err, core.ErrValidation)

	_, err = c.Add("Telur", "1", "kg", "01/05/2024")
	require.ErrorIs(t, err, core.ErrInvalidDate)

	assert.Equal(t, 0, c.Count())
}

func TestDraftCartAddRemoveRestores(t *testing.T) {
	c := NewDraftCart(nil, wib, nil)
	_, err := c.Add("Telur", "2", "kg", "2024-05-01")
	require.NoError(t, err)
	before := c.Items()

	_, err = c.Add("Gula", "1", "kg", "2024-05-01")
	require.NoError(t, err)
	require.NoError(t, c.Remove(c.Count()-1))

	assert.Equal(t, before, c.Items())
}

func TestDraftCartRemoveOutOfRange(t *testing.T) {
	c := NewDraftCart(nil, wib, nil)
	_, _ = c.Add("Telur", "2", "kg", "2024-05-01")

	for _, i := range []int{-1, 1, 5} {
		require.ErrorIs(t, c.Remove(i), core.ErrIndexOutOfRange)
	}
	assert.Equal(t, 1, c.Count())

	c.Clear()
	assert.Equal(t, 0, c.Count())
	assert.Empty(t, c.Items())
}

func TestDraftCartItemsIsCopy(t *testing.T) {
	c := NewDraftCart(nil, wib, nil)
	_, _ = c.Add("Telur", "2", "kg", "2024-05-01")
	items := c.Items()
	items[0].Name = "changed"
	assert.Equal(t, "Telur", c.Items()[0].Name)
}
