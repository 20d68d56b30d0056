package conversation

// Confidence grades the quality of the most recent extraction.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// LeadInfo is the accumulated qualification slot record for a conversation.
// Nil means the slot has not been filled yet.
type LeadInfo struct {
	Name              *string    `json:"name"`
	Need              *string    `json:"need"`
	ContactPreference *string    `json:"contact_preference"`
	Confidence        Confidence `json:"confidence"`
}

// Complete reports whether all three qualification slots are filled.
func (i LeadInfo) Complete() bool {
	return i.Name != nil && i.Need != nil && i.ContactPreference != nil
}

// MergeLeadInfo folds a fresh extraction into the accumulated record.
// For each slot the existing value wins once set; the extractor can
// legitimately return nil for a slot it saw nothing new about, and a filled
// slot must never regress. Corrections in later messages do not override a
// first answer. Confidence is the exception: it describes the latest
// extraction, so it always takes the extracted value.
func MergeLeadInfo(existing, extracted LeadInfo) LeadInfo {
	merged := LeadInfo{
		Name:              existing.Name,
		Need:              existing.Need,
		ContactPreference: existing.ContactPreference,
		Confidence:        extracted.Confidence,
	}
	if merged.Name == nil {
		merged.Name = extracted.Name
	}
	if merged.Need == nil {
		merged.Need = extracted.Need
	}
	if merged.ContactPreference == nil {
		merged.ContactPreference = extracted.ContactPreference
	}
	return merged
}
