// Package dataset promotes a finished working directory into the
// dataset directory the training framework reads.
//
// Promotion is an explicit copy, never a move: the working directory
// stays intact for further editing, and the dataset directory only
// ever sees complete files because every copy lands under a temporary
// name first and is renamed into place.
package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/voicebooth/voicebooth/internal/manifest"
)

var (
	// ErrStale means the manifest references a recording that is not
	// in the working directory, so the manifest needs rewriting first.
	ErrStale = errors.New("manifest references a missing recording")

	// ErrConflict means the dataset directory already holds a file
	// with the same name but different content, and overwriting was
	// not requested.
	ErrConflict = errors.New("dataset already contains a different version")
)

// Result reports what a promotion did.
type Result struct {
	Copied  int // files written into the dataset directory
	Skipped int // files already present with identical content
}

// Promote copies every manifest-listed recording plus the manifest
// itself into dataDir. The manifest is checked against the working
// directory and the destination is checked for conflicts before
// anything is copied, so a refused promotion leaves both directories
// exactly as they were.
func Promote(workDir, dataDir string, overwrite bool) (*Result, error) {
	entries, err := manifest.Read(workDir)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if _, err := os.Stat(filepath.Join(workDir, e.File)); err != nil {
			return nil, fmt.Errorf("%s: %w", e.File, ErrStale)
		}
	}

	files := make([]string, 0, len(entries)+1)
	for _, e := range entries {
		files = append(files, e.File)
	}
	files = append(files, manifest.Filename)

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating dataset dir: %w", err)
	}

	// Settle every conflict before the first copy.
	identical := make(map[string]bool)
	for _, name := range files {
		same, exists, err := sameContent(filepath.Join(workDir, name), filepath.Join(dataDir, name))
		if err != nil {
			return nil, err
		}
		switch {
		case !exists:
		case same:
			identical[name] = true
		case !overwrite:
			return nil, fmt.Errorf("%s: %w", name, ErrConflict)
		}
	}

	res := &Result{}
	for _, name := range files {
		if identical[name] {
			res.Skipped++
			continue
		}
		if err := copyFile(filepath.Join(workDir, name), filepath.Join(dataDir, name)); err != nil {
			return nil, err
		}
		res.Copied++
	}

	slog.Info("dataset promoted",
		"recordings", len(entries),
		"copied", res.Copied,
		"skipped", res.Skipped,
		"dataset_dir", dataDir)
	return res, nil
}

// sameContent reports whether dst exists and matches src byte for
// byte, compared by digest.
func sameContent(src, dst string) (same, exists bool, err error) {
	dstSum, err := digest(dst)
	if errors.Is(err, fs.ErrNotExist) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	srcSum, err := digest(src)
	if err != nil {
		return false, false, err
	}
	return srcSum == dstSum, true, nil
}

func digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// copyFile copies src to dst through a dot-prefixed temp file in dst's
// directory, renamed into place once fully written.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filepath.Base(src), err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("copying %s: %w", filepath.Base(src), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("placing %s: %w", filepath.Base(dst), err)
	}
	return nil
}
