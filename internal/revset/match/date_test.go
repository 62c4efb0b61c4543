package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/revset/internal/revset/types"
)

var fixedNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func millisAt(t time.Time) types.Timestamp {
	return types.Timestamp{Millis: types.MillisSinceEpoch(t.UnixMilli())}
}

func TestParseDatePattern_RelativeAgo(t *testing.T) {
	p, err := ParseDatePattern("2 hours ago", "after", fixedNow)
	require.NoError(t, err)
	assert.True(t, p.Matches(millisAt(fixedNow.Add(-1*time.Hour))))
	assert.False(t, p.Matches(millisAt(fixedNow.Add(-3*time.Hour))))
}

func TestParseDatePattern_TodayYesterday(t *testing.T) {
	before, err := ParseDatePattern("today", "before", fixedNow)
	require.NoError(t, err)
	assert.True(t, before.Matches(millisAt(fixedNow.AddDate(0, 0, -1))))
	assert.False(t, before.Matches(millisAt(fixedNow)))

	after, err := ParseDatePattern("yesterday", "after", fixedNow)
	require.NoError(t, err)
	assert.True(t, after.Matches(millisAt(fixedNow)))
}

func TestParseDatePattern_AbsoluteDate(t *testing.T) {
	p, err := ParseDatePattern("2026-01-01", "after", fixedNow)
	require.NoError(t, err)
	assert.True(t, p.Matches(millisAt(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))))
	assert.False(t, p.Matches(millisAt(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))))
}

func TestParseDatePattern_UnrecognizedErrors(t *testing.T) {
	_, err := ParseDatePattern("whenever", "after", fixedNow)
	assert.Error(t, err)
}

func TestParseDatePattern_InvalidKindErrors(t *testing.T) {
	_, err := ParseDatePattern("today", "sometime", fixedNow)
	assert.Error(t, err)
}

func TestParseDatePattern_RelativeMonthAndYear(t *testing.T) {
	month, err := ParseDatePattern("1 month ago", "after", fixedNow)
	require.NoError(t, err)
	assert.True(t, month.Matches(millisAt(fixedNow.AddDate(0, -1, 1))))

	year, err := ParseDatePattern("1 year", "before", fixedNow)
	require.NoError(t, err)
	assert.True(t, year.Matches(millisAt(fixedNow)))
}
