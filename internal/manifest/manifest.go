// Package manifest owns the metadata.csv contract between the recorder
// and the training framework: one line per recording, filename and
// transcript joined by a pipe, sorted by filename, UTF-8 with LF line
// endings. Recording filenames are zero-padded 1-based indices
// ("001.wav"), which makes filename order and prompt order coincide.
//
// The delimiter and field order are fixed by the framework's dataset
// loader, not by this tool.
package manifest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Filename is the manifest file name inside a dataset directory.
const Filename = "metadata.csv"

const delimiter = "|"

// Entry pairs a recording file with the transcript read for it.
type Entry struct {
	File string
	Text string
}

// FileFor returns the recording filename for a 1-based prompt index.
func FileFor(index int) string {
	return fmt.Sprintf("%03d.wav", index)
}

// Index parses a recording filename back into its prompt index. Only
// names that FileFor would produce are accepted, so stray files in the
// working directory never masquerade as recordings.
func Index(name string) (int, bool) {
	base, ok := strings.CutSuffix(name, ".wav")
	if !ok || base == "" {
		return 0, false
	}
	i, err := strconv.Atoi(base)
	if err != nil || i < 1 || FileFor(i) != name {
		return 0, false
	}
	return i, true
}

// Write rewrites the manifest in dir from entries, sorted by filename,
// via a temp file and rename so readers never see a half-written
// manifest.
func Write(dir string, entries []Entry) error {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].File < sorted[j].File })

	var sb strings.Builder
	for _, e := range sorted {
		sb.WriteString(e.File)
		sb.WriteString(delimiter)
		sb.WriteString(e.Text)
		sb.WriteString("\n")
	}

	tmp, err := os.CreateTemp(dir, "."+Filename+".tmp")
	if err != nil {
		return fmt.Errorf("creating manifest temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(sb.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing manifest temp: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, Filename)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("placing manifest: %w", err)
	}
	return nil
}

// Read parses the manifest in dir. Blank and malformed lines are
// skipped, matching how the training framework's loader treats them.
// A missing manifest surfaces the underlying fs.ErrNotExist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, Filename))
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		file, text, ok := strings.Cut(line, delimiter)
		if !ok {
			continue
		}
		entries = append(entries, Entry{File: file, Text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return entries, nil
}
