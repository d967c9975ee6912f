package session

import "github.com/voicebooth/voicebooth/internal/dsp"

// Take is one capture attempt at a prompt. It holds the raw samples
// exactly as the device delivered them; trimming and normalization
// happen at Accept so a rejected take costs nothing.
type Take struct {
	// Index is the 1-based prompt position the take was recorded for.
	Index int

	// Text is the prompt sentence that was read.
	Text string

	// Samples are the raw device samples, untrimmed and unnormalized.
	Samples []float64

	// Rate is the capture sample rate in Hz.
	Rate int
}

// Seconds returns the take length in seconds.
func (t *Take) Seconds() float64 {
	if t.Rate <= 0 {
		return 0
	}
	return float64(len(t.Samples)) / float64(t.Rate)
}

// Peak returns the raw peak amplitude.
func (t *Take) Peak() float64 { return dsp.Peak(t.Samples) }

// RMS returns the raw RMS level the accept gates check.
func (t *Take) RMS() float64 { return dsp.RMS(t.Samples) }

// Level classifies the take's peak for the meter readout.
func (t *Take) Level() dsp.Level { return dsp.Classify(dsp.Peak(t.Samples)) }
