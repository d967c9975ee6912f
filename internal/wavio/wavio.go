// Package wavio reads and writes the mono 16-bit PCM WAV files the
// dataset is made of.
//
// Samples cross the package boundary as normalized float64 slices in
// [-1, 1]; the int16 scaling stays in here. Writes go through a
// dot-prefixed temp file in the target directory followed by a rename,
// so a crash mid-write never leaves a partial recording visible.
package wavio

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/voicebooth/voicebooth/internal/dsp"
)

// scale maps [-1, 1] floats onto the int16 range.
const scale = 32767

// WriteFile encodes samples as a mono 16-bit WAV at the given rate and
// places it at path atomically. Out-of-range samples are clamped.
func WriteFile(path string, samples []float64, rate int) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := encode(tmp, samples, rate); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("placing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func encode(f *os.File, samples []float64, rate int) error {
	data := make([]int, len(samples))
	for i, v := range samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		data[i] = int(v * scale)
	}

	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{SampleRate: rate, NumChannels: 1},
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}
	return nil
}

// ReadFile decodes a WAV file into normalized samples and its sample
// rate. Multi-channel input is rejected — the dataset is mono.
func ReadFile(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	if buf.Format.NumChannels != 1 {
		return nil, 0, fmt.Errorf("decoding %s: want mono, got %d channels", filepath.Base(path), buf.Format.NumChannels)
	}

	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v) / scale
	}
	return samples, buf.Format.SampleRate, nil
}

// Info summarizes a recording for review output.
type Info struct {
	Seconds float64
	Min     float64
	Max     float64
	RMS     float64
}

// Measure computes the review stats line for a sample buffer.
func Measure(samples []float64, rate int) Info {
	info := Info{RMS: dsp.RMS(samples)}
	if rate > 0 {
		info.Seconds = float64(len(samples)) / float64(rate)
	}
	for i, v := range samples {
		if i == 0 || v < info.Min {
			info.Min = v
		}
		if i == 0 || v > info.Max {
			info.Max = v
		}
	}
	return info
}
