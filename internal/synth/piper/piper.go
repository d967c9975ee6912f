// Package piper implements synth.Synthesizer by driving the piper CLI:
// text goes in on stdin, a WAV file comes out at the requested path.
package piper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/voicebooth/voicebooth/internal/config"
	"github.com/voicebooth/voicebooth/internal/synth"
)

// Client shells out to the piper binary once per synthesis call.
type Client struct {
	binary string
	model  string
	config string
}

// New builds a piper client. The voice model must exist; with no
// config path given, <model>.json next to it is assumed, matching how
// piper distributes voices.
func New(cfg config.PiperConfig) (*Client, error) {
	if cfg.Model == "" {
		return nil, errors.New("no voice model configured")
	}
	if _, err := os.Stat(cfg.Model); err != nil {
		return nil, fmt.Errorf("voice model: %w", err)
	}

	configPath := cfg.Config
	if configPath == "" {
		configPath = cfg.Model + ".json"
	}
	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("voice config: %w", err)
	}

	binary := cfg.Binary
	if binary == "" {
		binary = "piper"
	}
	return &Client{binary: binary, model: cfg.Model, config: configPath}, nil
}

// Synthesize runs piper once with text on stdin. A non-zero exit
// surfaces piper's stderr in the returned error.
func (c *Client) Synthesize(ctx context.Context, text, path string, opts synth.Options) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("nothing to synthesize")
	}

	slog.Debug("synthesizing",
		"model", filepath.Base(c.model),
		"chars", len(text),
		"output", path)

	cmd := exec.CommandContext(ctx, c.binary, c.args(path, opts)...)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("piper: %w: %s", err, msg)
		}
		return fmt.Errorf("piper: %w", err)
	}
	return nil
}

// args assembles the piper argv for one call. Scale flags are only
// passed when set, so piper's own defaults stay in charge otherwise.
func (c *Client) args(path string, opts synth.Options) []string {
	args := []string{
		"--model", c.model,
		"--config", c.config,
		"--output_file", path,
	}
	if opts.LengthScale > 0 {
		args = append(args, "--length_scale", formatScale(opts.LengthScale))
	}
	if opts.NoiseScale > 0 {
		args = append(args, "--noise_scale", formatScale(opts.NoiseScale))
	}
	if opts.NoiseW > 0 {
		args = append(args, "--noise_w", formatScale(opts.NoiseW))
	}
	return args
}

func formatScale(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Close is a no-op; piper runs per request and holds nothing open.
func (c *Client) Close() error { return nil }
