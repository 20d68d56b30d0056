package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeFillsEmptySlots(t *testing.T) {
	merged := MergeLeadInfo(LeadInfo{}, LeadInfo{Name: strp("Dani"), Confidence: ConfidenceHigh})
	assert.Equal(t, "Dani", *merged.Name)
	assert.Nil(t, merged.Need)
	assert.Nil(t, merged.ContactPreference)
	assert.Equal(t, ConfidenceHigh, merged.Confidence)
}

func TestMergeExistingWins(t *testing.T) {
	existing := LeadInfo{Name: strp("Dani"), Confidence: ConfidenceHigh}
	merged := MergeLeadInfo(existing, LeadInfo{Name: strp("Other"), Confidence: ConfidenceMedium})
	assert.Equal(t, "Dani", *merged.Name)
}

func TestMergeNeverRegressesToNil(t *testing.T) {
	existing := LeadInfo{
		Name: strp("Dani"),
		Need: strp("branding"),
	}
	merged := MergeLeadInfo(existing, LeadInfo{Confidence: ConfidenceLow})
	assert.Equal(t, "Dani", *merged.Name)
	assert.Equal(t, "branding", *merged.Need)
}

func TestMergeConfidenceTakesLatest(t *testing.T) {
	existing := LeadInfo{Name: strp("Dani"), Confidence: ConfidenceHigh}
	merged := MergeLeadInfo(existing, LeadInfo{Confidence: ConfidenceLow})
	assert.Equal(t, ConfidenceLow, merged.Confidence)
}

func TestMergeIdempotent(t *testing.T) {
	a := LeadInfo{Name: strp("Dani"), Confidence: ConfidenceMedium}
	b := LeadInfo{Need: strp("seo"), ContactPreference: strp("email"), Confidence: ConfidenceHigh}

	once := MergeLeadInfo(a, b)
	twice := MergeLeadInfo(a, once)
	assert.Equal(t, once, twice)
}

func TestComplete(t *testing.T) {
	assert.False(t, LeadInfo{}.Complete())
	assert.False(t, LeadInfo{Name: strp("a"), Need: strp("b")}.Complete())
	assert.True(t, LeadInfo{Name: strp("a"), Need: strp("b"), ContactPreference: strp("c")}.Complete())
}
