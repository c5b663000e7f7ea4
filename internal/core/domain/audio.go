package domain

// DurationCategory is a coarse bucket derived from audio length,
// used to select a base transcription timeout.
type DurationCategory string

const (
	CategoryShort    DurationCategory = "short"     // [0s, 30s)
	CategoryMedium   DurationCategory = "medium"    // [30s, 120s)
	CategoryLong     DurationCategory = "long"      // [120s, 300s)
	CategoryVeryLong DurationCategory = "very_long" // [300s, inf)
)

// categoryTimeouts maps each duration category to its base timeout in seconds.
var categoryTimeouts = map[DurationCategory]int{
	CategoryShort:    60,
	CategoryMedium:   180,
	CategoryLong:     300,
	CategoryVeryLong: 600,
}

// CategoryForDuration assigns the duration category for an audio length
// in seconds. Boundaries are half-open [low, high) except the final
// category which is unbounded above.
func CategoryForDuration(seconds float64) DurationCategory {
	switch {
	case seconds < 30:
		return CategoryShort
	case seconds < 120:
		return CategoryMedium
	case seconds < 300:
		return CategoryLong
	default:
		return CategoryVeryLong
	}
}

// TimeoutForCategory returns the base timeout in seconds for a category.
// Unknown categories fall back to the medium timeout.
func TimeoutForCategory(c DurationCategory) int {
	if t, ok := categoryTimeouts[c]; ok {
		return t
	}
	return categoryTimeouts[CategoryMedium]
}

// Rank orders categories short < medium < long < very_long.
func (c DurationCategory) Rank() int {
	switch c {
	case CategoryShort:
		return 0
	case CategoryMedium:
		return 1
	case CategoryLong:
		return 2
	default:
		return 3
	}
}

// AudioProfile holds the derived characteristics of an audio clip.
// It is recomputed on every recovery call and never persisted directly,
// though it is embedded in recovery log entries.
type AudioProfile struct {
	DurationSeconds    float64          `json:"duration_seconds"`
	ChannelCount       int              `json:"channel_count"`
	SampleRate         int              `json:"sample_rate"`
	SignalQualityScore float64          `json:"signal_quality_score"`
	Category           DurationCategory `json:"duration_category"`
	RecommendedTimeout int              `json:"recommended_timeout_seconds"`
	Degraded           bool             `json:"degraded,omitempty"`
}

// DegradedProfile returns the fallback profile used when audio metadata
// could not be determined. Analysis failures must not block recovery.
func DegradedProfile() AudioProfile {
	return AudioProfile{
		SignalQualityScore: 0.5,
		Category:           CategoryMedium,
		RecommendedTimeout: TimeoutForCategory(CategoryMedium),
		Degraded:           true,
	}
}
