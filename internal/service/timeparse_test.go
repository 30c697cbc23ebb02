package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/belldivine070/CMS/internal/service"
)

func TestParseScheduledTimeWithOffset(t *testing.T) {
	assert := assert.New(t)

	got, err := service.ParseScheduledTime("2026-03-01T15:00:00+03:00", "")
	assert.Nil(err)
	assert.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), got)
	assert.Equal(time.UTC, got.Location())
}

func TestParseScheduledTimeNaiveWithHint(t *testing.T) {
	assert := assert.New(t)

	// Nairobi is UTC+3, no DST.
	got, err := service.ParseScheduledTime("2026-03-01T15:00", "Africa/Nairobi")
	assert.Nil(err)
	assert.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), got)
}

func TestParseScheduledTimeNaiveDefaultsToUTC(t *testing.T) {
	assert := assert.New(t)

	got, err := service.ParseScheduledTime("2026-03-01 15:00:00", "")
	assert.Nil(err)
	assert.Equal(time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC), got)
}

func TestParseScheduledTimeBadHintFallsBackToUTC(t *testing.T) {
	assert := assert.New(t)

	got, err := service.ParseScheduledTime("2026-03-01T15:00", "Mars/Olympus")
	assert.Nil(err)
	assert.Equal(time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC), got)
}

func TestParseScheduledTimeRejectsGarbage(t *testing.T) {
	assert := assert.New(t)

	_, err := service.ParseScheduledTime("next tuesday", "UTC")
	assert.NotNil(err)

	_, err = service.ParseScheduledTime("", "UTC")
	assert.NotNil(err)
}
