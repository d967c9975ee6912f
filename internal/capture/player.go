package capture

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/voicebooth/voicebooth/internal/config"
)

// Player plays WAV files through an OS playback tool, used to review
// takes before accepting them and to audition synthesized audio.
type Player struct {
	binary string
}

// NewPlayer builds a Player from config, defaulting to aplay on Linux
// and afplay on macOS.
func NewPlayer(cfg config.PlaybackConfig) *Player {
	bin := cfg.Binary
	if bin == "" {
		bin = defaultPlaybackBinary()
	}
	return &Player{binary: bin}
}

func defaultPlaybackBinary() string {
	if runtime.GOOS == "darwin" {
		return "afplay"
	}
	return "aplay"
}

// playbackArgs builds the argv tail for playing path with tool.
func playbackArgs(tool, path string) []string {
	if filepath.Base(tool) == "aplay" {
		return []string{"-q", path}
	}
	return []string{path}
}

// Play blocks until the file has played or ctx is cancelled.
// Cancellation is reported as the context's error, not a device
// failure.
func (p *Player) Play(ctx context.Context, path string) error {
	if _, err := exec.LookPath(p.binary); err != nil {
		return &DeviceError{Device: p.binary, Err: err}
	}

	cmd := exec.CommandContext(ctx, p.binary, playbackArgs(p.binary, path)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return &DeviceError{Device: p.binary, Err: fmt.Errorf("%w: %s", err, msg)}
		}
		return &DeviceError{Device: p.binary, Err: err}
	}
	return nil
}
