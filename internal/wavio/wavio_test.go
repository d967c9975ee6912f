package wavio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "001.wav")

	in := make([]float64, 2205)
	for i := range in {
		in[i] = 0.4 * math.Sin(2*math.Pi*float64(i)/100)
	}

	require.NoError(t, WriteFile(path, in, 22050))

	out, rate, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 22050, rate)
	require.Len(t, out, len(in))

	// Amplitudes survive within int16 quantization error.
	for i := range in {
		require.InDelta(t, in[i], out[i], 1.0/32767+1e-9, "sample %d", i)
	}
}

func TestWriteFileClampsOutOfRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")

	require.NoError(t, WriteFile(path, []float64{1.5, -2.0, 0.0}, 22050))

	out, _, err := ReadFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out[0], 1e-9)
	assert.InDelta(t, -1.0, out[1], 1e-4)
	assert.InDelta(t, 0.0, out[2], 1e-9)
}

func TestWriteFileLeavesNoTempBehind(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteFile(filepath.Join(dir, "002.wav"), []float64{0.1, 0.2}, 22050))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "002.wav", entries[0].Name())
}

func TestReadFileMissing(t *testing.T) {
	_, _, err := ReadFile(filepath.Join(t.TempDir(), "nope.wav"))
	assert.Error(t, err)
}

func TestMeasure(t *testing.T) {
	samples := []float64{0.5, -0.25, 0.1, 0.0}
	info := Measure(samples, 4)

	assert.InDelta(t, 1.0, info.Seconds, 1e-12)
	assert.InDelta(t, 0.5, info.Max, 1e-12)
	assert.InDelta(t, -0.25, info.Min, 1e-12)
	assert.InDelta(t, math.Sqrt((0.25+0.0625+0.01)/4), info.RMS, 1e-12)

	// All-positive buffers report the true minimum, not zero.
	pos := Measure([]float64{0.3, 0.2, 0.4}, 3)
	assert.InDelta(t, 0.2, pos.Min, 1e-12)
}
