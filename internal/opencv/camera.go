// Package opencv implements the capture contracts and the recognizer matcher
// with gocv. It is the only package that needs cgo and an OpenCV install with
// the contrib modules.
package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
)

type camera struct {
	vc  *gocv.VideoCapture
	buf gocv.Mat
}

// OpenCamera returns an Opener for the video device with the given index.
func OpenCamera(device int) capture.Opener {
	return func() (capture.Camera, error) {
		vc, err := gocv.VideoCaptureDevice(device)
		if err != nil {
			return nil, fmt.Errorf("%w: device %d: %w", capture.ErrCameraUnavailable, device, err)
		}
		if !vc.IsOpened() {
			vc.Close()
			return nil, fmt.Errorf("%w: device %d", capture.ErrCameraUnavailable, device)
		}
		return &camera{vc: vc, buf: gocv.NewMat()}, nil
	}
}

func (c *camera) Read() (image.Image, bool) {
	if ok := c.vc.Read(&c.buf); !ok || c.buf.Empty() {
		return nil, false
	}
	img, err := c.buf.ToImage()
	if err != nil {
		return nil, false
	}
	return img, true
}

func (c *camera) Close() error {
	c.buf.Close()
	return c.vc.Close()
}
