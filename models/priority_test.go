package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rentcontroldept/rcd-api/models"
)

func TestClassifyPriorityCriticalTypes(t *testing.T) {
	assert.Equal(t, models.PriorityCritical, models.ClassifyPriority(models.CaseTypeIllegalEviction, 0, 5000))
	assert.Equal(t, models.PriorityCritical, models.ClassifyPriority(models.CaseTypeHarassment, 0, 5000))
	assert.Equal(t, models.PriorityCritical, models.ClassifyPriority(models.CaseTypeHealthAndSafety, 0, 5000))

	// the claim amount never lowers a critical type
	assert.Equal(t, models.PriorityCritical, models.ClassifyPriority(models.CaseTypeIllegalEviction, 1, 5000))
}

func TestClassifyPriorityHighTypes(t *testing.T) {
	assert.Equal(t, models.PriorityHigh, models.ClassifyPriority(models.CaseTypeRepairNeglect, 0, 5000))
}

func TestClassifyPriorityRentArrearsThreshold(t *testing.T) {
	// the boundary itself is medium; only strictly above is high
	assert.Equal(t, models.PriorityMedium, models.ClassifyPriority(models.CaseTypeRentArrears, 4999.99, 5000))
	assert.Equal(t, models.PriorityMedium, models.ClassifyPriority(models.CaseTypeRentArrears, 5000, 5000))
	assert.Equal(t, models.PriorityHigh, models.ClassifyPriority(models.CaseTypeRentArrears, 5000.01, 5000))

	// a configured threshold moves the boundary
	assert.Equal(t, models.PriorityMedium, models.ClassifyPriority(models.CaseTypeRentArrears, 6000, 10000))
	assert.Equal(t, models.PriorityHigh, models.ClassifyPriority(models.CaseTypeRentArrears, 10001, 10000))
}

func TestClassifyPriorityDefaultsToMedium(t *testing.T) {
	assert.Equal(t, models.PriorityMedium, models.ClassifyPriority(models.CaseTypeNoiseComplaint, 100000, 5000))
	assert.Equal(t, models.PriorityMedium, models.ClassifyPriority(models.CaseTypeOther, 0, 5000))
	assert.Equal(t, models.PriorityMedium, models.ClassifyPriority("unknown", 0, 5000))
}

func TestValidPriority(t *testing.T) {
	assert.True(t, models.ValidPriority(models.PriorityCritical))
	assert.True(t, models.ValidPriority(models.PriorityHigh))
	assert.True(t, models.ValidPriority(models.PriorityMedium))
	assert.False(t, models.ValidPriority("low"))
	assert.False(t, models.ValidPriority(""))
}
