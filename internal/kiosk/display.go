package kiosk

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
)

// RemoteDisplay is a capture.Display for operators that are not at the
// machine: it keeps the latest annotated frame as JPEG and takes capture and
// cancel signals from Send.
type RemoteDisplay struct {
	mu      sync.RWMutex
	frame   []byte
	frames  int
	signals chan capture.Signal
	wait    time.Duration
}

// NewRemoteDisplay creates a display. WaitKey blocks up to wait for a signal,
// which also paces the loop when the camera delivers frames faster.
func NewRemoteDisplay(wait time.Duration) *RemoteDisplay {
	return &RemoteDisplay{
		signals: make(chan capture.Signal, 1),
		wait:    wait,
	}
}

// Show implements capture.Display.
func (d *RemoteDisplay) Show(frame image.Image) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: constants.FrameJPEGQuality}); err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	d.mu.Lock()
	d.frame = buf.Bytes()
	d.frames++
	d.mu.Unlock()
	return nil
}

// WaitKey implements capture.Display.
func (d *RemoteDisplay) WaitKey() capture.Signal {
	if d.wait <= 0 {
		select {
		case sig := <-d.signals:
			return sig
		default:
			return capture.SignalNone
		}
	}

	timer := time.NewTimer(d.wait)
	defer timer.Stop()
	select {
	case sig := <-d.signals:
		return sig
	case <-timer.C:
		return capture.SignalNone
	}
}

// Send queues an operator signal. It reports false when a signal is already
// pending.
func (d *RemoteDisplay) Send(sig capture.Signal) bool {
	select {
	case d.signals <- sig:
		return true
	default:
		return false
	}
}

// Frame returns the latest frame as JPEG, or false before the first frame.
func (d *RemoteDisplay) Frame() ([]byte, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.frame, d.frame != nil
}

// Frames returns how many frames were shown.
func (d *RemoteDisplay) Frames() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.frames
}
