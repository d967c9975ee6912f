// Voicebooth is a command-line recording booth for building piper TTS
// training datasets. It records one clip per prompt sentence, keeps
// the dataset manifest in step with the files on disk, promotes
// finished recordings into the trainer's dataset directory, and drives
// the framework's checkpoint exporter.
//
// Typical flow:
//
//	voicebooth init
//	voicebooth record
//	voicebooth promote
//	voicebooth export --name myvoice
//	voicebooth say "Did it work?"
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
