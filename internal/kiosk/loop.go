package kiosk

import (
	"context"
	"fmt"
	"image"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/imaging"
)

// Controls are the operator side of a running mode.
type Controls struct {
	Display capture.Display
	Notify  func(Event)
}

func (c Controls) notify(e Event) {
	if c.Notify != nil {
		c.Notify(e)
	}
}

// tick is one processed camera frame.
type tick struct {
	gray   *image.Gray
	faces  []image.Rectangle
	canvas *image.RGBA
}

// mode is the per-frame behaviour plugged into run.
type mode interface {
	// mirror reports whether frames are flipped before processing.
	mirror() bool
	// annotate handles the detected faces and draws onto the canvas.
	annotate(t *tick) error
	// signal reacts to operator input. t is nil when the frame read failed.
	signal(ctx context.Context, sig capture.Signal, t *tick) (done bool, err error)
}

// run drives cam until the mode finishes, the operator cancels or ctx is done.
// It returns the number of frames processed.
func (k *Kiosk) run(ctx context.Context, cam capture.Camera, m mode, c Controls) (int, error) {
	frames := 0
	for {
		if err := ctx.Err(); err != nil {
			return frames, err
		}

		frame, ok := cam.Read()
		if !ok {
			k.logger.Debug("frame read failed, retrying")
			done, err := m.signal(ctx, c.Display.WaitKey(), nil)
			if err != nil || done {
				return frames, err
			}
			continue
		}

		t := &tick{}
		if m.mirror() {
			t.canvas = imaging.MirrorHorizontal(frame)
		} else {
			t.canvas = imaging.ToRGBA(frame)
		}
		t.gray = imaging.ToGray(t.canvas)
		t.faces = k.detector.Detect(t.gray, k.params)
		frames++

		if err := m.annotate(t); err != nil {
			return frames, err
		}
		if err := c.Display.Show(t.canvas); err != nil {
			return frames, fmt.Errorf("showing frame: %w", err)
		}

		done, err := m.signal(ctx, c.Display.WaitKey(), t)
		if err != nil || done {
			return frames, err
		}
	}
}
