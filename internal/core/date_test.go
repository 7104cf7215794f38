package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDateLabel(t *testing.T) {
	cases := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), "1 Mei 2024"},
		{time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), "31 Desember 2025"},
		{time.Date(2023, time.August, 17, 0, 0, 0, 0, time.UTC), "17 Agustus 2023"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatDateLabel(tc.in))
	}
	assert.Equal(t, "", MonthName(13))
}

func TestParseISODate(t *testing.T) {
	d, err := ParseISODate("2024-05-01", wib)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.May, 1, 0, 0, 0, 0, wib), d)
	assert.Equal(t, "2024-05-01", FormatISODate(d))

	_, err = ParseISODate("2024-13-01", wib)
	require.ErrorIs(t, err, ErrInvalidDate)
	_, err = ParseISODate("", nil)
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestSessionTimestamp(t *testing.T) {
	may1 := time.Date(2024, time.May, 1, 0, 0, 0, 0, wib).UnixMilli()

	assert.Equal(t, may1, SessionTimestamp(Session{ISODate: "2024-05-01", CreatedAt: 42}, wib))
	assert.Equal(t, int64(42), SessionTimestamp(Session{ISODate: "", CreatedAt: 42}, wib))
	assert.Equal(t, int64(42), SessionTimestamp(Session{ISODate: "garbage", CreatedAt: 42}, wib))
}

func TestMonthBounds(t *testing.T) {
	start, end := MonthBounds(2024, time.December, time.UTC)
	assert.Equal(t, time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), end)
}
