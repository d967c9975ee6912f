// Package synth defines the interface for rendering text to speech
// with a trained voice. It backs the say command and the post-export
// smoke test.
//
// The training framework itself is never linked in; synthesizers are
// thin clients over external tools.
package synth

import "context"

// Options tunes synthesis. Zero values leave the backend's own
// defaults in place.
type Options struct {
	// LengthScale sets the speaking rate: 1.0 is the voice's trained
	// pace, larger is slower.
	LengthScale float64

	// NoiseScale sets audio variation between renditions.
	NoiseScale float64

	// NoiseW sets phoneme duration variation.
	NoiseW float64
}

// Synthesizer renders text as a WAV file.
type Synthesizer interface {
	// Synthesize writes the spoken text to a WAV file at path.
	Synthesize(ctx context.Context, text, path string, opts Options) error

	// Close releases any resources held by the synthesizer.
	Close() error
}
