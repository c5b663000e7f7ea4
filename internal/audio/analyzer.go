// Package audio inspects and conditions audio clips ahead of
// transcription. The analyzer reads WAV metadata plus a short sample to
// score signal quality; the preprocessor rewrites clips whose format or
// quality is likely to trip up a backend.
package audio

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/voxmend/voxmend/internal/core/domain"
)

// qualitySampleSeconds bounds how much audio the analyzer decodes.
// Large clips are never read in full.
const qualitySampleSeconds = 5

// Analyzer derives audio profiles from files on disk.
type Analyzer struct {
	log *slog.Logger
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(log *slog.Logger) *Analyzer {
	if log == nil {
		log = slog.Default()
	}
	return &Analyzer{log: log}
}

// Analyze inspects an audio file and derives its profile.
//
// A missing file returns domain.ErrAudioNotFound. Any decode problem
// returns a degraded medium-category profile with a nil error so a
// bad header never blocks recovery attempts.
func (a *Analyzer) Analyze(audioPath string) (domain.AudioProfile, error) {
	if _, err := os.Stat(audioPath); err != nil {
		if os.IsNotExist(err) {
			return domain.AudioProfile{}, fmt.Errorf("%w: %s", domain.ErrAudioNotFound, audioPath)
		}
		return domain.AudioProfile{}, fmt.Errorf("stat %s: %w", audioPath, err)
	}

	f, err := os.Open(audioPath)
	if err != nil {
		a.log.Warn("Audio open failed, using degraded profile", "path", audioPath, "error", err)
		return domain.DegradedProfile(), nil
	}
	defer f.Close()

	format, err := decodeWAVHeader(f)
	if err != nil {
		a.log.Warn("Audio decode failed, using degraded profile", "path", audioPath, "error", err)
		return domain.DegradedProfile(), nil
	}

	duration := format.durationSeconds()

	samples, err := readSamples(f, format, format.SampleRate*qualitySampleSeconds)
	if err != nil || len(samples) == 0 {
		a.log.Warn("Audio sample read failed, using degraded profile", "path", audioPath, "error", err)
		profile := domain.DegradedProfile()
		profile.DurationSeconds = duration
		profile.ChannelCount = format.Channels
		profile.SampleRate = format.SampleRate
		return profile, nil
	}

	rms, peak := rmsAndPeak(samples)
	category := domain.CategoryForDuration(duration)

	return domain.AudioProfile{
		DurationSeconds:    duration,
		ChannelCount:       format.Channels,
		SampleRate:         format.SampleRate,
		SignalQualityScore: qualityScore(rms, peak, duration),
		Category:           category,
		RecommendedTimeout: domain.TimeoutForCategory(category),
	}, nil
}

func rmsAndPeak(samples []float64) (rms, peak float64) {
	var sumSquares float64
	for _, s := range samples {
		sumSquares += s * s
		if abs := math.Abs(s); abs > peak {
			peak = abs
		}
	}
	rms = math.Sqrt(sumSquares / float64(len(samples)))
	return rms, peak
}

// qualityScore combines signal strength, dynamic range, and a duration
// penalty into a [0, 1] score. An RMS around 0.1 counts as a full-strength
// signal; the peak/RMS ratio is capped at 10; clips over 300s are
// progressively penalized.
func qualityScore(rms, peak, duration float64) float64 {
	signalStrength := math.Min(rms/0.1, 1.0)

	dynamicRange := 0.0
	if rms > 0 {
		dynamicRange = math.Min(peak/rms, 10.0) / 10.0
	}

	durationScore := 1.0
	if duration >= 300 {
		durationScore = math.Max(0.5, 300/duration)
	}

	quality := signalStrength*0.4 + dynamicRange*0.3 + durationScore*0.3
	return math.Min(math.Max(quality, 0.0), 1.0)
}
