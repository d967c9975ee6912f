// Package export turns a training checkpoint into an installed ONNX
// voice. The conversion itself is the training framework's exporter,
// run as an external command; this package locates the newest
// checkpoint under the training workspace, invokes the exporter, and
// installs the output files under piper's voice naming convention.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// AutoVersion selects the highest-numbered training run.
const AutoVersion = -1

// Runner executes an external command. It is an interface so tests can
// stand in for the exporter.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands on the host, folding stderr into the
// returned error.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Config describes one export.
type Config struct {
	Command     []string // exporter argv prefix, e.g. python3 -m piper.train.export_onnx
	TrainingDir string   // training workspace holding lightning_logs and config.json
	ModelDir    string   // destination for the installed voice files
	Voice       string   // base voice name; files install as en_US-<Voice>.onnx[.json]
	Version     int      // training run to export, or AutoVersion for the newest
	Checkpoint  string   // explicit checkpoint path, skipping discovery
}

// Model points at an installed voice.
type Model struct {
	ModelPath  string // en_US-<name>.onnx
	ConfigPath string // en_US-<name>.onnx.json
}

// LatestVersion returns the highest-numbered version_N run under the
// training workspace's lightning_logs directory.
func LatestVersion(trainingDir string) (int, error) {
	logsDir := filepath.Join(trainingDir, "lightning_logs")
	entries, err := os.ReadDir(logsDir)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", logsDir, err)
	}

	latest := -1
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		rest, ok := strings.CutPrefix(e.Name(), "version_")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			continue
		}
		if n > latest {
			latest = n
		}
	}
	if latest < 0 {
		return 0, fmt.Errorf("no training runs under %s", logsDir)
	}
	return latest, nil
}

// LatestCheckpoint returns the newest *.ckpt by modification time in
// versionDir's checkpoints directory. Mtime rather than name, because
// checkpoint names carry epoch and step counts that do not sort
// numerically as strings.
func LatestCheckpoint(versionDir string) (string, error) {
	ckptDir := filepath.Join(versionDir, "checkpoints")
	entries, err := os.ReadDir(ckptDir)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", ckptDir, err)
	}

	var (
		newest  string
		modTime time.Time
	)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".ckpt") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		if newest == "" || info.ModTime().After(modTime) {
			newest = e.Name()
			modTime = info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no checkpoints under %s", ckptDir)
	}
	return filepath.Join(ckptDir, newest), nil
}

// Export runs the exporter against the selected checkpoint and
// installs the output as en_US-<voice>.onnx plus its JSON config. The
// training workspace's config.json is preferred for the installed
// config; the exporter's own config output is the fallback.
func Export(ctx context.Context, r Runner, cfg Config) (*Model, error) {
	if len(cfg.Command) == 0 {
		return nil, errors.New("no exporter command configured")
	}
	if cfg.Voice == "" {
		return nil, errors.New("no voice name configured")
	}

	ckpt := cfg.Checkpoint
	if ckpt == "" {
		version := cfg.Version
		if version == AutoVersion {
			v, err := LatestVersion(cfg.TrainingDir)
			if err != nil {
				return nil, err
			}
			version = v
		}
		versionDir := filepath.Join(cfg.TrainingDir, "lightning_logs", fmt.Sprintf("version_%d", version))
		c, err := LatestCheckpoint(versionDir)
		if err != nil {
			return nil, err
		}
		ckpt = c
	} else if _, err := os.Stat(ckpt); err != nil {
		return nil, fmt.Errorf("checkpoint: %w", err)
	}

	if err := os.MkdirAll(cfg.ModelDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating model dir: %w", err)
	}

	rawModel := filepath.Join(cfg.ModelDir, "model.onnx")
	args := append(append([]string{}, cfg.Command[1:]...),
		"--checkpoint", ckpt,
		"--output-file", rawModel)

	slog.Info("exporting checkpoint", "checkpoint", ckpt, "output", rawModel)
	if err := r.Run(ctx, cfg.Command[0], args...); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	return install(cfg, rawModel)
}

// install moves the exported files to their voice-named destinations.
func install(cfg Config, rawModel string) (*Model, error) {
	if _, err := os.Stat(rawModel); err != nil {
		return nil, fmt.Errorf("exporter produced no model: %w", err)
	}

	base := "en_US-" + cfg.Voice
	model := filepath.Join(cfg.ModelDir, base+".onnx")
	modelCfg := filepath.Join(cfg.ModelDir, base+".onnx.json")

	if err := os.Rename(rawModel, model); err != nil {
		return nil, fmt.Errorf("installing model: %w", err)
	}

	trainCfg := filepath.Join(cfg.TrainingDir, "config.json")
	exportedCfg := filepath.Join(cfg.ModelDir, "config.json")
	switch {
	case exists(trainCfg):
		if err := copyFile(trainCfg, modelCfg); err != nil {
			return nil, fmt.Errorf("installing config: %w", err)
		}
	case exists(exportedCfg):
		if err := os.Rename(exportedCfg, modelCfg); err != nil {
			return nil, fmt.Errorf("installing config: %w", err)
		}
	default:
		return nil, fmt.Errorf("no config.json in %s or %s", cfg.TrainingDir, cfg.ModelDir)
	}

	slog.Info("voice installed", "model", model, "config", modelCfg)
	return &Model{ModelPath: model, ConfigPath: modelCfg}, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// copyFile copies src to dst through a temp file in dst's directory,
// renamed into place once fully written, so an interrupted install
// never leaves a truncated file under the voice name.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
