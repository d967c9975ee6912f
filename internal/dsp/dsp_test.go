package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRate = 22050

// sine generates n samples of a 220.5 Hz tone at the given amplitude.
func sine(n int, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*float64(i)/100)
	}
	return out
}

// speechSignal builds half a second of silence, one second of tone, and
// another half second of silence — the shape of a typical take.
func speechSignal(amp float64) []float64 {
	out := make([]float64, 0, 2*testRate)
	out = append(out, make([]float64, testRate/2)...)
	out = append(out, sine(testRate, amp)...)
	out = append(out, make([]float64, testRate/2)...)
	return out
}

func TestPeakAndRMS(t *testing.T) {
	assert.Equal(t, 0.0, Peak(nil))
	assert.Equal(t, 0.0, RMS(nil))

	s := []float64{0.1, -0.5, 0.3}
	assert.InDelta(t, 0.5, Peak(s), 1e-12)
	assert.InDelta(t, math.Sqrt((0.01+0.25+0.09)/3), RMS(s), 1e-12)

	// A sine's RMS is amp/sqrt(2).
	assert.InDelta(t, 0.5/math.Sqrt2, RMS(sine(testRate, 0.5)), 1e-3)
}

func TestTailPeak(t *testing.T) {
	s := make([]float64, testRate)
	for i := testRate - testRate/10; i < testRate; i++ {
		s[i] = 0.8
	}
	assert.InDelta(t, 0.8, TailPeak(s, testRate, 0.1), 1e-12)

	// Window longer than the buffer falls back to the whole buffer.
	assert.InDelta(t, 0.8, TailPeak(s[testRate-10:], testRate, 0.1), 1e-12)
}

func TestTrimSilenceRemovesLeadingAndTrailing(t *testing.T) {
	in := speechSignal(0.5)
	orig := append([]float64(nil), in...)

	out := TrimSilence(in, testRate, DefaultSilenceThreshold, DefaultMinSpeech)

	require.Less(t, len(out), len(in), "surrounding silence should be dropped")
	require.GreaterOrEqual(t, len(out), testRate, "the tone itself must survive")
	assert.InDelta(t, 0.5, Peak(out), 1e-9, "speech content preserved")
	assert.Equal(t, orig, in, "input buffer must not be mutated")
}

func TestTrimSilenceAllSilent(t *testing.T) {
	in := make([]float64, testRate)
	out := TrimSilence(in, testRate, DefaultSilenceThreshold, DefaultMinSpeech)
	assert.Len(t, out, len(in), "nothing above threshold leaves the take whole")
}

func TestTrimSilenceKeepsShortTakes(t *testing.T) {
	// A take shorter than the minimum speech window is returned as-is
	// rather than trimmed into a fragment.
	n := int(0.08 * testRate)
	in := sine(n, 0.5)
	out := TrimSilence(in, testRate, DefaultSilenceThreshold, DefaultMinSpeech)
	assert.Len(t, out, n)
}

func TestTrimSilenceEmpty(t *testing.T) {
	assert.Empty(t, TrimSilence(nil, testRate, DefaultSilenceThreshold, DefaultMinSpeech))
}

func TestTrimSilenceScaleInvariant(t *testing.T) {
	// Normalize rescales a take after trimming; re-trimming the scaled
	// result must cut at the same sample positions, so the cut points
	// cannot depend on absolute level.
	in := speechSignal(0.5)
	scaled := make([]float64, len(in))
	for i, v := range in {
		scaled[i] = v * 0.45
	}

	out := TrimSilence(in, testRate, DefaultSilenceThreshold, DefaultMinSpeech)
	outScaled := TrimSilence(scaled, testRate, DefaultSilenceThreshold, DefaultMinSpeech)

	require.Equal(t, len(out), len(outScaled))
	assert.InDelta(t, 0.45*Peak(out), Peak(outScaled), 1e-12)
}

func TestNormalizeHitsTarget(t *testing.T) {
	in := sine(testRate, 0.05)
	out := Normalize(in, DefaultTargetRMS, DefaultPeakCeiling)

	assert.InDelta(t, DefaultTargetRMS, RMS(out), 1e-9)
	assert.Less(t, Peak(out), DefaultPeakCeiling)
	assert.InDelta(t, 0.05/math.Sqrt2, RMS(in), 1e-3, "input untouched")
}

func TestNormalizePeakCeiling(t *testing.T) {
	// Mostly quiet signal with one spike: normalizing the RMS would
	// push the spike past full scale, so the ceiling clamp must engage.
	in := sine(testRate, 0.01)
	in[100] = 0.5

	out := Normalize(in, DefaultTargetRMS, DefaultPeakCeiling)

	assert.InDelta(t, DefaultPeakCeiling, Peak(out), 1e-9)
	assert.Less(t, RMS(out), DefaultTargetRMS, "clamp trades target RMS for headroom")
}

func TestNormalizeSilent(t *testing.T) {
	in := make([]float64, 1000)
	out := Normalize(in, DefaultTargetRMS, DefaultPeakCeiling)
	assert.Equal(t, in, out)
}

func TestProcessIdempotent(t *testing.T) {
	st := DefaultSettings()
	in := speechSignal(0.5)

	once := Process(in, testRate, st)
	twice := Process(once, testRate, st)
	thrice := Process(twice, testRate, st)

	require.Equal(t, len(once), len(twice), "second pass must not trim further")
	require.Equal(t, len(twice), len(thrice))
	assert.InDelta(t, RMS(once), RMS(twice), 1e-9)
	assert.InDelta(t, Peak(once), Peak(twice), 1e-9)
}

func TestProcessDoesNotMutateInput(t *testing.T) {
	in := speechSignal(0.3)
	orig := append([]float64(nil), in...)
	_ = Process(in, testRate, DefaultSettings())
	assert.Equal(t, orig, in)
}

func TestCheckLevel(t *testing.T) {
	st := DefaultSettings()
	tests := []struct {
		name    string
		rms     float64
		wantErr error
	}{
		{"too quiet", 0.01, ErrTooQuiet},
		{"at low gate", 0.02, nil},
		{"normal", 0.15, nil},
		{"at high gate", 0.9, nil},
		{"too loud", 0.95, ErrTooLoud},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckLevel(tt.rms, st)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		peak float64
		want Level
	}{
		{0.0, LevelQuiet},
		{0.04, LevelQuiet},
		{0.05, LevelGood},
		{0.5, LevelGood},
		{0.7, LevelLoud},
		{0.89, LevelLoud},
		{0.9, LevelClipping},
		{1.0, LevelClipping},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.peak), "peak %v", tt.peak)
	}
}
