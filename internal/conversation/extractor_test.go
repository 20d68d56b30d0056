package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseExtractionWellFormed(t *testing.T) {
	got := ParseExtraction(`{"name":"Dani","need":"new logo","contact_preference":null,"confidence":"high"}`)
	assert.Equal(t, "Dani", *got.Name)
	assert.Equal(t, "new logo", *got.Need)
	assert.Nil(t, got.ContactPreference)
	assert.Equal(t, ConfidenceHigh, got.Confidence)
}

func TestParseExtractionCodeFence(t *testing.T) {
	got := ParseExtraction("```json\n{\"name\":\"Dani\",\"confidence\":\"medium\"}\n```")
	assert.Equal(t, "Dani", *got.Name)
	assert.Equal(t, ConfidenceMedium, got.Confidence)
}

func TestParseExtractionSurroundingProse(t *testing.T) {
	got := ParseExtraction(`Here is the extraction: {"need":"seo audit","confidence":"low"} hope that helps`)
	assert.Equal(t, "seo audit", *got.Need)
}

func TestParseExtractionDegradesOnGarbage(t *testing.T) {
	for _, text := range []string{"", "not json at all", "{broken", `["array"]`} {
		got := ParseExtraction(text)
		assert.Equal(t, DegradedExtraction(), got, "input %q", text)
	}
}

func TestParseExtractionNormalizesEmptyAndUnknown(t *testing.T) {
	got := ParseExtraction(`{"name":"  ","need":"null","contact_preference":"unknown","confidence":"HIGH"}`)
	assert.Nil(t, got.Name)
	assert.Nil(t, got.Need)
	assert.Nil(t, got.ContactPreference)
	assert.Equal(t, ConfidenceHigh, got.Confidence)
}

func TestParseExtractionUnknownConfidenceIsLow(t *testing.T) {
	got := ParseExtraction(`{"confidence":"very sure"}`)
	assert.Equal(t, ConfidenceLow, got.Confidence)
}
