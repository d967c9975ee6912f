package main

import (
	"context"

	"github.com/voicebooth/voicebooth/internal/synth"
)

// speak renders one utterance to a WAV file and closes the synthesizer
// when done. Both say and the post-export test synthesis go through
// here, so they depend on the synth contract rather than a concrete
// backend.
func speak(ctx context.Context, syn synth.Synthesizer, text, path string, opts synth.Options) error {
	defer syn.Close()
	return syn.Synthesize(ctx, text, path, opts)
}
