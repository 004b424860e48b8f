package relevance

import "time"

// ComponentWeights defines the relative importance of the composite
// score's components. The defaults intentionally sum below 1.0: the
// remainder is reserved for the diversity adjustment, which is applied
// as a selection-time constraint rather than a per-article weight.
type ComponentWeights struct {
	PreferenceMatch float64 `json:"preference_match"`
	Engagement      float64 `json:"engagement"`
	Recency         float64 `json:"recency"`
	Quality         float64 `json:"quality"`
}

// DefaultWeights returns the default component weights.
func DefaultWeights() ComponentWeights {
	return ComponentWeights{
		PreferenceMatch: 0.30,
		Engagement:      0.25,
		Recency:         0.20,
		Quality:         0.15,
	}
}

// normalized scales the weights to sum to 1.0 so composite scores stay
// in [0,100] regardless of configuration.
func (w ComponentWeights) normalized() ComponentWeights {
	total := w.PreferenceMatch + w.Engagement + w.Recency + w.Quality
	if total <= 0 {
		return DefaultWeights().normalized()
	}
	return ComponentWeights{
		PreferenceMatch: w.PreferenceMatch / total,
		Engagement:      w.Engagement / total,
		Recency:         w.Recency / total,
		Quality:         w.Quality / total,
	}
}

// RecencyParams tunes the recency decay curve: full score inside the
// freshness window, exponential decay with the given half-life after
// it, bottoming out at Floor (a fraction of the full score).
type RecencyParams struct {
	FreshWindow time.Duration
	HalfLife    time.Duration
	Floor       float64
}

// DefaultRecencyParams returns the default decay tuning.
func DefaultRecencyParams() RecencyParams {
	return RecencyParams{
		FreshWindow: 24 * time.Hour,
		HalfLife:    72 * time.Hour,
		Floor:       0.1,
	}
}

// Preference match tier multipliers. An exact subscribed-topic match
// outranks a related-category match, which outranks a tag mention,
// which outranks a partial text match.
const (
	tierExactTopic   = 1.0
	tierRelatedTopic = 0.7
	tierTagMention   = 0.4
	tierPartialText  = 0.2

	// neutralPreference is used when the user has no profile; new
	// users still receive a ranked (if less personalized) result.
	neutralPreference = 50.0
)
