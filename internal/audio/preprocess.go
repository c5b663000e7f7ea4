package audio

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/voxmend/voxmend/internal/core/domain"
)

const canonicalRate = 16000

// Preprocessor rewrites audio into the canonical mono/16kHz form the
// backends handle best. Every failure path returns the original,
// unmodified audio path; preprocessing is an optimization, never a gate.
type Preprocessor struct {
	log *slog.Logger
}

// NewPreprocessor creates a preprocessor.
func NewPreprocessor(log *slog.Logger) *Preprocessor {
	if log == nil {
		log = slog.Default()
	}
	return &Preprocessor{log: log}
}

// Needed reports whether a clip should be preprocessed at all.
func (p *Preprocessor) Needed(profile domain.AudioProfile) bool {
	if profile.Degraded {
		return false
	}
	return profile.SignalQualityScore <= 0.7 ||
		profile.SampleRate != canonicalRate ||
		profile.ChannelCount != 1
}

// Process writes a mono 16kHz peak-normalized copy of the input next to
// it and returns its path. On any failure the original path is returned.
func (p *Preprocessor) Process(audioPath string) string {
	out, err := p.process(audioPath)
	if err != nil {
		p.log.Warn("Audio preprocessing failed, using original", "path", audioPath, "error", err)
		return audioPath
	}
	p.log.Debug("Audio preprocessed", "path", audioPath, "processed", out)
	return out
}

func (p *Preprocessor) process(audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	format, err := decodeWAVHeader(f)
	if err != nil {
		return "", fmt.Errorf("decode audio: %w", err)
	}

	// Full decode; preprocessing only runs on clips worth rewriting.
	samples, err := readSamples(f, format, 0)
	if err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if len(samples) == 0 {
		return "", fmt.Errorf("no samples in %s", audioPath)
	}

	if format.SampleRate != canonicalRate {
		samples = resample(samples, format.SampleRate, canonicalRate)
	}
	normalize(samples, 0.95)

	dir, name := filepath.Split(audioPath)
	outPath := filepath.Join(dir, "processed_"+name)
	if err := writeWAV(outPath, samples, canonicalRate); err != nil {
		return "", fmt.Errorf("write processed audio: %w", err)
	}
	return outPath, nil
}

// resample converts samples between rates by linear interpolation.
func resample(samples []float64, fromRate, toRate int) []float64 {
	if fromRate == toRate || len(samples) < 2 {
		return samples
	}
	outLen := int(float64(len(samples)) * float64(toRate) / float64(fromRate))
	if outLen < 2 {
		return samples
	}
	out := make([]float64, outLen)
	ratio := float64(len(samples)-1) / float64(outLen-1)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

// normalize scales samples in place so the peak hits target.
func normalize(samples []float64, target float64) {
	var peak float64
	for _, s := range samples {
		if abs := math.Abs(s); abs > peak {
			peak = abs
		}
	}
	if peak == 0 {
		return
	}
	scale := target / peak
	for i := range samples {
		samples[i] *= scale
	}
}
