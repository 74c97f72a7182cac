// Package capture defines the contracts of the external collaborators the
// kiosk drives once per frame tick: the camera, the face detector and the
// operator display. Implementations backed by OpenCV live in internal/opencv;
// in-memory ones for tests live in capture/mock.
package capture

import (
	"errors"
	"image"
)

// ErrCameraUnavailable is returned by an Opener when the device cannot be opened.
var ErrCameraUnavailable = errors.New("camera unavailable")

// Camera is an exclusively owned frame source.
type Camera interface {
	// Read returns the next frame. ok is false on a transient failure; the
	// caller retries on its next tick.
	Read() (frame image.Image, ok bool)
	Close() error
}

// Opener acquires the camera for the duration of one mode session.
type Opener func() (Camera, error)

// DetectParams are the fixed detector settings passed on every call.
type DetectParams struct {
	ScaleFactor  float64
	MinNeighbors int
	MinSize      int // pixels, 0 = no lower bound
}

// Detector finds face regions in a grayscale frame. Zero regions is a valid result.
type Detector interface {
	Detect(gray *image.Gray, params DetectParams) []image.Rectangle
}

// Signal is the operator input observed once per tick.
type Signal int

const (
	SignalNone Signal = iota
	SignalCapture
	SignalCancel
)

func (s Signal) String() string {
	switch s {
	case SignalCapture:
		return "capture"
	case SignalCancel:
		return "cancel"
	default:
		return "none"
	}
}

// Display renders the annotated frame and reports operator input.
type Display interface {
	Show(frame image.Image) error
	// WaitKey polls operator input without blocking for longer than one tick.
	WaitKey() Signal
}
