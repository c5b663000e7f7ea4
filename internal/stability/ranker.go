package stability

import (
	"sort"

	"github.com/voxmend/voxmend/internal/core/domain"
)

// BackendClass groups backends by the audio they handle best. The
// ranker consults a per-class adjustment table, so tuning for a new
// backend means registering a class, not editing the sort.
type BackendClass string

const (
	ClassShortAudio    BackendClass = "short"  // on-device, best on short clean clips
	ClassMediumAudio   BackendClass = "medium" // GPU batch, best on mid-length clips
	ClassCloudFallback BackendClass = "cloud"  // remote API, most reliable on hard audio
)

// AdjustFunc returns an additive score adjustment for a profile.
type AdjustFunc func(profile domain.AudioProfile) float64

// classAdjustments maps each backend class to its ranking heuristic.
var classAdjustments = map[BackendClass]AdjustFunc{
	ClassShortAudio: func(p domain.AudioProfile) float64 {
		if p.SignalQualityScore > 0.7 && p.DurationSeconds < 120 {
			return 0.1
		}
		if p.DurationSeconds > 300 {
			return -0.2
		}
		return 0
	},
	ClassMediumAudio: func(p domain.AudioProfile) float64 {
		if p.DurationSeconds > 30 && p.DurationSeconds < 300 {
			return 0.1
		}
		return 0
	},
	ClassCloudFallback: func(p domain.AudioProfile) float64 {
		if p.SignalQualityScore < 0.5 || p.DurationSeconds > 300 {
			return 0.2
		}
		return 0
	},
}

// Ranker orders candidate backends best-first for a given clip.
type Ranker struct {
	classes map[string]BackendClass // backend name -> class
}

// NewRanker creates a ranker with the given backend class assignments.
// Backends without a class get no heuristic adjustment.
func NewRanker(classes map[string]BackendClass) *Ranker {
	if classes == nil {
		classes = make(map[string]BackendClass)
	}
	return &Ranker{classes: classes}
}

// Rank scores every candidate and returns the full list ordered by
// descending adjusted score. No candidate is ever filtered out; ties
// keep the input order.
func (r *Ranker) Rank(candidates []string, profile domain.AudioProfile, tracker *Tracker) []string {
	type scored struct {
		name  string
		score float64
	}

	list := make([]scored, 0, len(candidates))
	for _, name := range candidates {
		stat := tracker.GetStat(name)
		score := stat.SuccessRateEMA

		if class, ok := r.classes[name]; ok {
			if adjust, ok := classAdjustments[class]; ok {
				score += adjust(profile)
			}
		}

		if stat.ConsecutiveFailures > 3 {
			penalty := float64(stat.ConsecutiveFailures) * 0.05
			if penalty > 0.3 {
				penalty = 0.3
			}
			score -= penalty
		}

		list = append(list, scored{name: name, score: score})
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].score > list[j].score
	})

	ranked := make([]string, len(list))
	for i, s := range list {
		ranked[i] = s.name
	}
	return ranked
}
