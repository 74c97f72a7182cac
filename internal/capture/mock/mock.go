// Package mock provides in-memory camera, detector and display implementations
// for testing the capture loop without a device.
package mock

import (
	"image"
	"sync"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
)

// Camera replays a fixed list of frames. A nil entry simulates a failed read.
// After the list is exhausted the last entry repeats.
type Camera struct {
	mu     sync.Mutex
	Frames []image.Image
	reads  int
	closed bool
}

// Read implements capture.Camera.
func (c *Camera) Read() (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Frames) == 0 {
		c.reads++
		return nil, false
	}
	i := min(c.reads, len(c.Frames)-1)
	c.reads++
	f := c.Frames[i]
	return f, f != nil
}

// Close implements capture.Camera.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Reads returns how many times Read was called.
func (c *Camera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

// Closed reports whether Close was called.
func (c *Camera) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Opener counts opens and hands out Cam, or Err when set.
type Opener struct {
	mu    sync.Mutex
	Cam   *Camera
	Err   error
	opens int
}

// Open matches capture.Opener.
func (o *Opener) Open() (capture.Camera, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opens++
	if o.Err != nil {
		return nil, o.Err
	}
	return o.Cam, nil
}

// Opens returns how many times Open was called.
func (o *Opener) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

// Detector returns the same regions for every frame and records the params it saw.
type Detector struct {
	mu      sync.Mutex
	Regions []image.Rectangle
	params  []capture.DetectParams
}

// Detect implements capture.Detector.
func (d *Detector) Detect(gray *image.Gray, params capture.DetectParams) []image.Rectangle {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.params = append(d.params, params)
	return d.Regions
}

// Calls returns the params of every Detect call.
func (d *Detector) Calls() []capture.DetectParams {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]capture.DetectParams(nil), d.params...)
}

// Display records shown frames and plays back a script of signals, one per
// WaitKey call. Once the script runs out it returns SignalCancel so a test
// loop always terminates.
type Display struct {
	mu      sync.Mutex
	Script  []capture.Signal
	shown   []image.Image
	polls   int
	ShowErr error
}

// Show implements capture.Display.
func (d *Display) Show(frame image.Image) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown = append(d.shown, frame)
	return d.ShowErr
}

// WaitKey implements capture.Display.
func (d *Display) WaitKey() capture.Signal {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.polls
	d.polls++
	if i < len(d.Script) {
		return d.Script[i]
	}
	return capture.SignalCancel
}

// Shown returns the frames passed to Show.
func (d *Display) Shown() []image.Image {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]image.Image(nil), d.shown...)
}

// Polls returns how many times WaitKey was called.
func (d *Display) Polls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.polls
}
