// Package dsp implements the small amount of sample processing the
// recorder needs: energy-based silence trimming, RMS normalization,
// and level checks for take validation.
//
// All functions treat their input as immutable and return fresh
// buffers, so callers can keep the raw take around after processing.
// Anything heavier (resampling, filtering, codecs) is out of scope —
// the training framework wants plain trimmed, level-matched WAV files.
package dsp

import (
	"errors"
	"math"
)

// Default thresholds, matched to what the Piper dataset tooling expects.
const (
	// DefaultSilenceThreshold is the fraction of a take's peak below
	// which the smoothed envelope counts as silence.
	DefaultSilenceThreshold = 0.01

	// DefaultMinSpeech is the minimum seconds of audio a trim may leave
	// behind; shorter results mean the detector misfired and the take
	// is returned untrimmed.
	DefaultMinSpeech = 0.1

	// DefaultTargetRMS is the loudness level takes are normalized to.
	DefaultTargetRMS = 0.15

	// DefaultPeakCeiling caps the post-normalization peak to keep a
	// margin below full scale.
	DefaultPeakCeiling = 0.95

	// DefaultMinRMS and DefaultMaxRMS are the accept gates: a raw take
	// outside this RMS range was spoken too far from or too close to
	// the microphone and should be re-recorded.
	DefaultMinRMS = 0.02
	DefaultMaxRMS = 0.9
)

// padSeconds of audio are kept on each side of detected speech so the
// trim never clips a soft onset or trailing consonant.
const padSeconds = 0.05

// maxSmoothWindow bounds the moving-average window used to smooth the
// rectified signal before threshold detection.
const maxSmoothWindow = 512

// Gate errors returned by CheckLevel.
var (
	ErrTooQuiet = errors.New("take level too low")
	ErrTooLoud  = errors.New("take level too high")
)

// Settings holds the tunable processing thresholds. The zero value is
// not useful; start from DefaultSettings.
type Settings struct {
	SilenceThreshold float64 // fraction of the take's peak below which audio is silence
	MinSpeech        float64 // seconds; shortest result a trim may produce
	TargetRMS        float64 // normalization target
	PeakCeiling      float64 // absolute peak allowed after normalization
	MinRMS           float64 // accept gate: quietest acceptable raw take
	MaxRMS           float64 // accept gate: loudest acceptable raw take
}

// DefaultSettings returns the stock thresholds.
func DefaultSettings() Settings {
	return Settings{
		SilenceThreshold: DefaultSilenceThreshold,
		MinSpeech:        DefaultMinSpeech,
		TargetRMS:        DefaultTargetRMS,
		PeakCeiling:      DefaultPeakCeiling,
		MinRMS:           DefaultMinRMS,
		MaxRMS:           DefaultMaxRMS,
	}
}

// Peak returns the largest absolute sample value, 0 for an empty buffer.
func Peak(s []float64) float64 {
	peak := 0.0
	for _, v := range s {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}

// RMS returns the root-mean-square level, 0 for an empty buffer.
func RMS(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(s)))
}

// TailPeak returns the peak over the trailing window seconds of the
// buffer. The live level meter samples the last 100 ms this way.
func TailPeak(s []float64, rate int, window float64) float64 {
	n := int(window * float64(rate))
	if n <= 0 || n > len(s) {
		n = len(s)
	}
	return Peak(s[len(s)-n:])
}

// TrimSilence removes leading and trailing silence from s.
//
// The signal is rectified and smoothed with a centered moving average
// (window = min(512, len/10)) so brief dips inside words do not cause
// cuts. The threshold is a fraction of the take's own peak, so the cut
// points depend only on the signal's shape, never its level: a take
// Normalize has rescaled trims at exactly the same positions. The
// first and last samples above the cut bound the kept region, padded
// by 50 ms on each side. If the region would be shorter than minSpeech
// seconds the input is returned unchanged (as a copy): a near-empty
// result means the threshold ate the whole take.
func TrimSilence(s []float64, rate int, threshold, minSpeech float64) []float64 {
	n := len(s)
	if n == 0 {
		return []float64{}
	}

	smoothed := smoothedAbs(s)
	cut := threshold * Peak(s)

	pad := int(padSeconds * float64(rate))
	start := 0
	for i := 0; i < n; i++ {
		if smoothed[i] > cut {
			start = max(0, i-pad)
			break
		}
	}
	end := n
	for i := n - 1; i >= 0; i-- {
		if smoothed[i] > cut {
			end = min(n, i+pad)
			break
		}
	}

	minFrames := int(minSpeech * float64(rate))
	if end-start < minFrames {
		out := make([]float64, n)
		copy(out, s)
		return out
	}

	out := make([]float64, end-start)
	copy(out, s[start:end])
	return out
}

// smoothedAbs rectifies s and applies a zero-padded centered moving
// average, computed with a prefix sum so large takes stay cheap.
func smoothedAbs(s []float64) []float64 {
	n := len(s)
	window := min(maxSmoothWindow, n/10)
	if window <= 1 {
		out := make([]float64, n)
		for i, v := range s {
			out[i] = math.Abs(v)
		}
		return out
	}

	prefix := make([]float64, n+1)
	for i, v := range s {
		prefix[i+1] = prefix[i] + math.Abs(v)
	}

	out := make([]float64, n)
	half := (window - 1) / 2
	for i := 0; i < n; i++ {
		hi := min(n-1, i+half)
		lo := max(0, i+half-window+1)
		out[i] = (prefix[hi+1] - prefix[lo]) / float64(window)
	}
	return out
}

// Normalize scales s so its RMS hits targetRMS, then rescales down if
// the resulting peak exceeds peakCeiling. Silent input is returned
// unchanged (as a copy) since there is no level to correct.
func Normalize(s []float64, targetRMS, peakCeiling float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)

	cur := RMS(out)
	if cur <= 0 {
		return out
	}

	scale := targetRMS / cur
	for i := range out {
		out[i] *= scale
	}
	if peak := Peak(out); peak > peakCeiling {
		clamp := peakCeiling / peak
		for i := range out {
			out[i] *= clamp
		}
	}
	return out
}

// Process runs the full post-processing chain: trim then normalize.
// Deterministic for a given buffer and settings, and idempotent — a
// second pass changes neither the trimmed length nor the levels.
func Process(s []float64, rate int, st Settings) []float64 {
	trimmed := TrimSilence(s, rate, st.SilenceThreshold, st.MinSpeech)
	return Normalize(trimmed, st.TargetRMS, st.PeakCeiling)
}

// CheckLevel validates a raw take's RMS against the accept gates.
func CheckLevel(rms float64, st Settings) error {
	if rms < st.MinRMS {
		return ErrTooQuiet
	}
	if rms > st.MaxRMS {
		return ErrTooLoud
	}
	return nil
}

// Level classifies a peak amplitude for the live meter.
type Level string

// Meter bands, from the original recorder's LED indicator.
const (
	LevelQuiet    Level = "quiet"
	LevelGood     Level = "good"
	LevelLoud     Level = "loud"
	LevelClipping Level = "clipping"
)

// Classify maps a peak amplitude to a meter band.
func Classify(peak float64) Level {
	switch {
	case peak < 0.05:
		return LevelQuiet
	case peak < 0.7:
		return LevelGood
	case peak < 0.9:
		return LevelLoud
	default:
		return LevelClipping
	}
}
