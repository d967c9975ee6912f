// Package capture provides audio input and output for the recording
// booth by driving the operating system's audio tools as subprocesses.
//
// There is no in-process audio stack: a capture tool (arecord, or
// sox's rec) streams raw signed 16-bit little-endian mono samples over
// stdout at the session sample rate, and a playback tool (aplay,
// afplay) plays finished WAV files for review. Both binaries are
// overridable through configuration, so any tool that speaks the same
// raw format slots in.
package capture

import (
	"context"
	"fmt"
)

// DeviceError reports a capture or playback failure. It wraps the
// underlying error from the OS tool so callers can still inspect it.
type DeviceError struct {
	Device string // tool or device name
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device %s: %v", e.Device, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Device is the capture surface a recording session reads from.
//
// A device is acquired per take: Open before the first Read, Close as
// soon as the take ends, success or not, so other programs can use the
// hardware between takes.
type Device interface {
	// Name identifies the device in logs and errors.
	Name() string

	// Open acquires the device. The context bounds the whole capture:
	// cancelling it stops the stream, after which Read drains whatever
	// is buffered and then reports the end of the stream.
	Open(ctx context.Context) error

	// Read fills p with normalized samples in [-1, 1] and returns how
	// many were delivered. io.EOF signals the end of the stream; any
	// other failure surfaces as a *DeviceError.
	Read(p []float64) (int, error)

	// Close releases the device. Safe to call more than once.
	Close() error
}
