package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
)

// Key codes read from the window.
const (
	keyEscape = 27
	keySpace  = 32
)

// Window is a local capture.Display: ESC cancels, SPACE captures.
type Window struct {
	win *gocv.Window
}

// NewWindow opens a named window.
func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

// Show implements capture.Display.
func (w *Window) Show(frame image.Image) error {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return fmt.Errorf("converting frame: %w", err)
	}
	defer mat.Close()
	w.win.IMShow(mat)
	return nil
}

// WaitKey implements capture.Display. Closing the window counts as cancel.
func (w *Window) WaitKey() capture.Signal {
	key := w.win.WaitKey(1)
	if !w.win.IsOpen() {
		return capture.SignalCancel
	}
	switch key {
	case keyEscape:
		return capture.SignalCancel
	case keySpace:
		return capture.SignalCapture
	}
	return capture.SignalNone
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}
