package conversation

import (
	"context"
	"encoding/json"
	"strings"
)

// Extractor classifies an inbound message into qualification slots.
// Implementations must not leak retry or backoff behavior into callers; a
// failed extraction returns an error and the caller degrades to
// DegradedExtraction so the conversation can continue on the next turn.
type Extractor interface {
	Extract(ctx context.Context, message string, prior []TranscriptMessage, current State) (LeadInfo, error)
}

// DegradedExtraction is the all-null, low-confidence record used when the
// classifier fails or returns something unusable.
func DegradedExtraction() LeadInfo {
	return LeadInfo{Confidence: ConfidenceLow}
}

// rawExtraction mirrors the JSON shape the classifier is prompted to emit.
type rawExtraction struct {
	Name              *string `json:"name"`
	Need              *string `json:"need"`
	ContactPreference *string `json:"contact_preference"`
	Confidence        string  `json:"confidence"`
}

// ParseExtraction decodes classifier output into a LeadInfo, tolerating code
// fences, surrounding prose, empty strings, and unknown confidence values.
// Malformed output degrades to all-null/low rather than failing the turn.
func ParseExtraction(text string) LeadInfo {
	payload := extractJSONObject(text)
	if payload == "" {
		return DegradedExtraction()
	}

	var raw rawExtraction
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return DegradedExtraction()
	}

	return LeadInfo{
		Name:              normalizeSlot(raw.Name),
		Need:              normalizeSlot(raw.Need),
		ContactPreference: normalizeSlot(raw.ContactPreference),
		Confidence:        normalizeConfidence(raw.Confidence),
	}
}

// extractJSONObject pulls the first top-level JSON object out of model text,
// stripping markdown fences the model sometimes wraps around it.
func extractJSONObject(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func normalizeSlot(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" || strings.EqualFold(trimmed, "null") || strings.EqualFold(trimmed, "unknown") {
		return nil
	}
	return &trimmed
}

func normalizeConfidence(s string) Confidence {
	switch Confidence(strings.ToLower(strings.TrimSpace(s))) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMedium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
