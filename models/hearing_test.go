package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rentcontroldept/rcd-api/models"
)

func TestTimesOverlap(t *testing.T) {
	// plain overlap
	assert.True(t, models.TimesOverlap("09:00", "10:00", "09:30", "10:30"))
	assert.True(t, models.TimesOverlap("09:30", "10:30", "09:00", "10:00"))

	// containment
	assert.True(t, models.TimesOverlap("09:00", "12:00", "10:00", "11:00"))
	assert.True(t, models.TimesOverlap("10:00", "11:00", "09:00", "12:00"))

	// identical windows
	assert.True(t, models.TimesOverlap("09:00", "10:00", "09:00", "10:00"))

	// back-to-back windows share only the boundary and do not conflict
	assert.False(t, models.TimesOverlap("09:00", "10:00", "10:00", "11:00"))
	assert.False(t, models.TimesOverlap("10:00", "11:00", "09:00", "10:00"))

	// fully disjoint
	assert.False(t, models.TimesOverlap("09:00", "10:00", "14:00", "15:00"))
}

func TestValidHearingStatus(t *testing.T) {
	assert.True(t, models.ValidHearingStatus(models.HearingStatusScheduled))
	assert.True(t, models.ValidHearingStatus(models.HearingStatusCompleted))
	assert.True(t, models.ValidHearingStatus(models.HearingStatusCancelled))
	assert.True(t, models.ValidHearingStatus(models.HearingStatusPostponed))
	assert.False(t, models.ValidHearingStatus("adjourned"))
	assert.False(t, models.ValidHearingStatus(""))
}
