package capture

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/voicebooth/voicebooth/internal/config"
)

// Mic captures from a microphone by spawning an OS capture tool that
// writes raw s16le mono samples to stdout.
type Mic struct {
	binary string
	args   []string
	rate   int

	cmd    *exec.Cmd
	stdout io.ReadCloser
	buf    []byte
}

// NewMic builds a Mic from config. With no binary configured an
// OS-appropriate default is picked: arecord on Linux, sox's rec
// elsewhere. Explicit args replace the generated ones entirely.
func NewMic(cfg config.CaptureConfig, rate int) *Mic {
	bin := cfg.Binary
	if bin == "" {
		bin = defaultCaptureBinary()
	}
	args := cfg.Args
	if len(args) == 0 {
		args = captureArgs(bin, rate, cfg.Device)
	}
	return &Mic{binary: bin, args: args, rate: rate}
}

func defaultCaptureBinary() string {
	if runtime.GOOS == "linux" {
		return "arecord"
	}
	return "rec"
}

// captureArgs builds the argument list that makes tool stream raw
// s16le mono at rate on stdout. Unknown tools get no arguments; use
// the args config key for those.
func captureArgs(tool string, rate int, device string) []string {
	switch filepath.Base(tool) {
	case "arecord":
		args := []string{"-q", "-f", "S16_LE", "-r", strconv.Itoa(rate), "-c", "1", "-t", "raw"}
		if device != "" {
			args = append(args, "-D", device)
		}
		return args
	case "rec":
		return []string{"-q", "-t", "raw", "-b", "16", "-e", "signed-integer", "-r", strconv.Itoa(rate), "-c", "1", "-"}
	default:
		return nil
	}
}

func (m *Mic) Name() string { return m.binary }

// Open starts the capture tool. Cancelling ctx kills it, which ends
// the sample stream.
func (m *Mic) Open(ctx context.Context) error {
	if m.cmd != nil {
		return &DeviceError{Device: m.binary, Err: errors.New("already open")}
	}
	if _, err := exec.LookPath(m.binary); err != nil {
		return &DeviceError{Device: m.binary, Err: err}
	}

	cmd := exec.CommandContext(ctx, m.binary, m.args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &DeviceError{Device: m.binary, Err: err}
	}
	if err := cmd.Start(); err != nil {
		return &DeviceError{Device: m.binary, Err: err}
	}

	m.cmd = cmd
	m.stdout = stdout
	slog.Debug("capture device opened", "tool", m.binary, "rate", m.rate)
	return nil
}

// Read fills p with normalized samples. A short final read still
// returns the samples it got, paired with io.EOF.
func (m *Mic) Read(p []float64) (int, error) {
	if m.stdout == nil {
		return 0, &DeviceError{Device: m.binary, Err: errors.New("device not open")}
	}

	want := len(p) * 2
	if cap(m.buf) < want {
		m.buf = make([]byte, want)
	}
	n, err := io.ReadFull(m.stdout, m.buf[:want])
	count := decodeSamples(m.buf[:n-n%2], p)

	switch {
	case err == nil:
		return count, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return count, io.EOF
	default:
		return count, &DeviceError{Device: m.binary, Err: err}
	}
}

// Close stops the capture tool and reaps it. The tool is killed rather
// than asked to stop, so the exit status is deliberately ignored.
func (m *Mic) Close() error {
	if m.cmd == nil {
		return nil
	}
	m.stdout.Close()
	if m.cmd.Process != nil {
		m.cmd.Process.Kill()
	}
	m.cmd.Wait()
	m.cmd = nil
	m.stdout = nil
	slog.Debug("capture device released", "tool", m.binary)
	return nil
}

// decodeSamples converts little-endian int16 PCM bytes into normalized
// floats in out and returns how many samples were decoded.
func decodeSamples(b []byte, out []float64) int {
	n := len(b) / 2
	if n > len(out) {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		out[i] = float64(int16(binary.LittleEndian.Uint16(b[2*i:]))) / 32768
	}
	return n
}
