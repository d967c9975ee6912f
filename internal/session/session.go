// Package session implements the recording session: it walks the
// prompt list, captures one take per prompt through a capture device,
// post-processes accepted takes, and keeps the on-disk manifest in
// step with the recordings actually present.
//
// Completion state is derived from the files in the working directory,
// never from a session file, so an interrupted session resumes by
// simply starting again on the same directory. A session is
// single-owner: all methods are meant to be called from one goroutine.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/voicebooth/voicebooth/internal/capture"
	"github.com/voicebooth/voicebooth/internal/dsp"
	"github.com/voicebooth/voicebooth/internal/manifest"
	"github.com/voicebooth/voicebooth/internal/wavio"
)

// ErrFinished is returned by Record once every prompt has a recording.
var ErrFinished = errors.New("every prompt already has a recording")

// readSeconds is the chunk size Record pulls from the device, small
// enough that a stop lands quickly.
const readSeconds = 0.1

// Config carries the per-session capture and processing settings.
type Config struct {
	// SampleRate is the capture rate in Hz.
	SampleRate int

	// MaxTakeSeconds caps a single take so a forgotten stop cannot
	// grow the buffer without bound.
	MaxTakeSeconds float64

	// DSP holds the trim and normalization settings plus the accept
	// gates.
	DSP dsp.Settings
}

// Session walks a prompt list and manages the takes for one working
// directory.
type Session struct {
	prompts []string
	dir     string
	cfg     Config

	current int // 1-based index to record next; 0 once all are done
	done    map[int]bool
	pending *Take

	log *slog.Logger
}

// New opens a session over workingDir, creating the directory if
// needed. A prompt counts as recorded exactly when its file exists, so
// resuming after a crash or restart needs no bookkeeping beyond the
// directory itself. The current prompt starts at the lowest incomplete
// index.
func New(prompts []string, workingDir string, cfg Config) (*Session, error) {
	if len(prompts) == 0 {
		return nil, errors.New("session needs at least one prompt")
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", cfg.SampleRate)
	}
	if err := os.MkdirAll(workingDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating working dir: %w", err)
	}

	s := &Session{
		prompts: prompts,
		dir:     workingDir,
		cfg:     cfg,
		done:    make(map[int]bool),
		log:     slog.With("session", uuid.NewString()),
	}

	entries, err := os.ReadDir(workingDir)
	if err != nil {
		return nil, fmt.Errorf("scanning working dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if i, ok := manifest.Index(e.Name()); ok && i <= len(prompts) {
			s.done[i] = true
		}
	}
	s.current = s.nextIncomplete(0)

	s.log.Info("session opened",
		"prompts", len(prompts),
		"recorded", len(s.done),
		"working_dir", workingDir)
	return s, nil
}

// Len returns the number of prompts.
func (s *Session) Len() int { return len(s.prompts) }

// Current returns the 1-based index of the prompt to record next, or
// 0 when every prompt has a recording.
func (s *Session) Current() int { return s.current }

// Prompt returns the text for a 1-based index, or "" out of range.
func (s *Session) Prompt(i int) string {
	if i < 1 || i > len(s.prompts) {
		return ""
	}
	return s.prompts[i-1]
}

// Done reports whether prompt i has an accepted recording.
func (s *Session) Done(i int) bool { return s.done[i] }

// Completed returns the recorded prompt indices in ascending order.
func (s *Session) Completed() []int {
	out := make([]int, 0, len(s.done))
	for i := range s.done {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Finished reports whether every prompt has a recording.
func (s *Session) Finished() bool { return s.current == 0 }

// nextIncomplete returns the first index without a recording after
// `after`, wrapping to the start; 0 when everything is recorded.
func (s *Session) nextIncomplete(after int) int {
	n := len(s.prompts)
	for i := after + 1; i <= n; i++ {
		if !s.done[i] {
			return i
		}
	}
	for i := 1; i <= after && i <= n; i++ {
		if !s.done[i] {
			return i
		}
	}
	return 0
}

// Record captures a take for the current prompt. The device is opened
// for exactly this call and released before it returns, success or
// not, so the hardware is free between takes.
//
// Capture runs until the device stream ends, the duration cap is hit,
// or ctx is cancelled. Cancellation is the stop signal, not an error:
// the take holds whatever was captured up to that point. Nothing is
// written to disk here; a failed or discarded take leaves the working
// directory untouched.
func (s *Session) Record(ctx context.Context, dev capture.Device) (*Take, error) {
	if s.current == 0 {
		return nil, ErrFinished
	}
	idx := s.current

	if err := dev.Open(ctx); err != nil {
		return nil, fmt.Errorf("prompt %d: %w", idx, err)
	}
	defer dev.Close()

	s.log.Debug("take started", "prompt", idx, "device", dev.Name())

	maxSamples := int(s.cfg.MaxTakeSeconds * float64(s.cfg.SampleRate))
	chunk := make([]float64, max(1, int(readSeconds*float64(s.cfg.SampleRate))))
	var samples []float64
	for len(samples) < maxSamples {
		if ctx.Err() != nil {
			break
		}
		n, err := dev.Read(chunk)
		samples = append(samples, chunk[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				break
			}
			return nil, fmt.Errorf("prompt %d: %w", idx, err)
		}
	}
	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}

	take := &Take{
		Index:   idx,
		Text:    s.prompts[idx-1],
		Samples: samples,
		Rate:    s.cfg.SampleRate,
	}
	s.pending = take
	s.log.Debug("take finished", "prompt", idx, "seconds", take.Seconds())
	return take, nil
}

// CheckLevel runs the accept gates against a raw take, returning
// dsp.ErrTooQuiet or dsp.ErrTooLoud when it falls outside them.
func (s *Session) CheckLevel(t *Take) error {
	if err := dsp.CheckLevel(t.RMS(), s.cfg.DSP); err != nil {
		return fmt.Errorf("prompt %d: %w", t.Index, err)
	}
	return nil
}

// Accept post-processes a take and writes it into the working
// directory, replacing any earlier recording for the same prompt. The
// current prompt then advances to the next incomplete index. Returns
// the path written.
func (s *Session) Accept(t *Take) (string, error) {
	if t.Index < 1 || t.Index > len(s.prompts) {
		return "", fmt.Errorf("prompt %d out of range", t.Index)
	}

	processed := dsp.Process(t.Samples, t.Rate, s.cfg.DSP)
	name := manifest.FileFor(t.Index)
	path := filepath.Join(s.dir, name)
	if err := wavio.WriteFile(path, processed, t.Rate); err != nil {
		return "", fmt.Errorf("prompt %d: %w", t.Index, err)
	}

	s.done[t.Index] = true
	s.pending = nil
	s.current = s.nextIncomplete(t.Index)
	s.log.Info("take accepted",
		"prompt", t.Index,
		"file", name,
		"seconds", float64(len(processed))/float64(t.Rate))
	return path, nil
}

// Reject drops the pending take. The current prompt is unchanged, so
// the next Record retries it.
func (s *Session) Reject() {
	if s.pending != nil {
		s.log.Debug("take rejected", "prompt", s.pending.Index)
		s.pending = nil
	}
}

// Skip moves on to the next incomplete prompt without recording the
// current one. With only one incomplete prompt left it stays put.
func (s *Session) Skip() {
	if s.current == 0 {
		return
	}
	s.pending = nil
	s.current = s.nextIncomplete(s.current)
}

// Delete removes the recording for a prompt, which counts as
// incomplete again. When the deleted index precedes the current one it
// becomes current, so the redo happens next.
func (s *Session) Delete(index int) error {
	if index < 1 || index > len(s.prompts) {
		return fmt.Errorf("prompt %d out of range", index)
	}

	name := manifest.FileFor(index)
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", name, err)
	}
	delete(s.done, index)
	if s.current == 0 || index < s.current {
		s.current = index
	}
	s.log.Info("recording deleted", "prompt", index, "file", name)
	return nil
}

// WriteManifest rescans the working directory and rewrites the
// manifest from the recordings actually present, so it can never refer
// to a deleted file. Files that do not match the recording name
// pattern, or whose index has no prompt, are left out with a warning.
func (s *Session) WriteManifest() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("scanning working dir: %w", err)
	}

	var out []manifest.Entry
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == manifest.Filename || strings.HasPrefix(name, ".") {
			continue
		}
		i, ok := manifest.Index(name)
		if !ok {
			s.log.Warn("ignoring foreign file in working dir", "file", name)
			continue
		}
		if i > len(s.prompts) {
			s.log.Warn("ignoring recording with no matching prompt", "file", name, "prompts", len(s.prompts))
			continue
		}
		out = append(out, manifest.Entry{File: name, Text: s.prompts[i-1]})
	}

	if err := manifest.Write(s.dir, out); err != nil {
		return err
	}
	s.log.Debug("manifest written", "entries", len(out))
	return nil
}
