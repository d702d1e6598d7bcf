package fieldscore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func TestCategory(t *testing.T) {
	assert.Equal(t, 100.0, Category(int64Ptr(3), int64Ptr(3)))
	assert.Equal(t, 0.0, Category(int64Ptr(3), int64Ptr(4)))
	assert.Equal(t, 0.0, Category(nil, int64Ptr(3)))
	assert.Equal(t, 0.0, Category(int64Ptr(3), nil))
	assert.Equal(t, 0.0, Category(nil, nil))
}

func TestLocation(t *testing.T) {
	t.Run("identical scores 100", func(t *testing.T) {
		assert.InDelta(t, 100.0, Location(strPtr("Main Library"), strPtr("main library")), 0.01)
	})

	t.Run("similar strings score high", func(t *testing.T) {
		score := Location(strPtr("library entrance"), strPtr("library entrence"))
		assert.Greater(t, score, 80.0)
	})

	t.Run("unrelated strings score low", func(t *testing.T) {
		score := Location(strPtr("gym"), strPtr("cafeteria building two"))
		assert.Less(t, score, 40.0)
	})

	t.Run("missing or blank scores 0", func(t *testing.T) {
		assert.Equal(t, 0.0, Location(nil, strPtr("gym")))
		assert.Equal(t, 0.0, Location(strPtr("gym"), nil))
		assert.Equal(t, 0.0, Location(strPtr("   "), strPtr("gym")))
	})
}

func TestTime(t *testing.T) {
	lost := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("same moment scores 100", func(t *testing.T) {
		assert.InDelta(t, 100.0, Time(timePtr(lost), timePtr(lost), 7), 1e-9)
	})

	t.Run("linear decay inside window", func(t *testing.T) {
		found := lost.Add(3.5 * 24 * time.Hour)
		assert.InDelta(t, 50.0, Time(timePtr(lost), timePtr(found), 7), 1e-9)
	})

	t.Run("at window boundary scores 0", func(t *testing.T) {
		found := lost.Add(7 * 24 * time.Hour)
		assert.InDelta(t, 0.0, Time(timePtr(lost), timePtr(found), 7), 1e-9)
	})

	t.Run("beyond window scores 0", func(t *testing.T) {
		found := lost.Add(20 * 24 * time.Hour)
		assert.Equal(t, 0.0, Time(timePtr(lost), timePtr(found), 7))
	})

	t.Run("found before lost scores 0", func(t *testing.T) {
		found := lost.Add(-24 * time.Hour)
		assert.Equal(t, 0.0, Time(timePtr(lost), timePtr(found), 7))
	})

	t.Run("missing date scores 0", func(t *testing.T) {
		assert.Equal(t, 0.0, Time(nil, timePtr(lost), 7))
		assert.Equal(t, 0.0, Time(timePtr(lost), nil, 7))
	})

	t.Run("window clamped", func(t *testing.T) {
		found := lost.Add(12 * time.Hour)
		// windowDays 0 clamps to 1 day
		assert.InDelta(t, 50.0, Time(timePtr(lost), timePtr(found), 0), 1e-9)
		// windowDays 100 clamps to 30 days
		found15 := lost.Add(15 * 24 * time.Hour)
		assert.InDelta(t, 50.0, Time(timePtr(lost), timePtr(found15), 100), 1e-9)
	})
}
