package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOf(t *testing.T) {
	moscow, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	// 22:30 UTC is already the next day in Moscow (UTC+3).
	at := time.Date(2026, 7, 9, 22, 30, 0, 0, time.UTC)

	utcDay := DayOf(at, time.UTC)
	assert.Equal(t, time.Date(2026, 7, 9, 0, 0, 0, 0, time.UTC), utcDay.Start)
	assert.Equal(t, time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC), utcDay.End)

	mskDay := DayOf(at, moscow)
	assert.Equal(t, time.Date(2026, 7, 10, 0, 0, 0, 0, moscow), mskDay.Start)
	assert.True(t, mskDay.Contains(at))
	assert.False(t, mskDay.Contains(mskDay.End))
	assert.True(t, mskDay.Contains(mskDay.Start))

	assert.Equal(t, utcDay, DayOf(at, nil))
}

func TestValidMoodScore(t *testing.T) {
	for _, n := range []int{1, 5, 10} {
		assert.True(t, ValidMoodScore(n), n)
	}
	for _, n := range []int{-1, 0, 11, 100} {
		assert.False(t, ValidMoodScore(n), n)
	}
}
