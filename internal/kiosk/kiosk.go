// Package kiosk runs the two operator modes, enrollment and attendance, on top
// of the gallery, the recognizer and the ledger. A Kiosk is the single owner of
// that state and lets at most one mode hold the camera at a time.
package kiosk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/gallery"
	"github.com/kozaktomas/attendance-kiosk/internal/ledger"
	"github.com/kozaktomas/attendance-kiosk/internal/recognizer"
)

var (
	// ErrModeActive is returned when a mode is started while another one holds the camera.
	ErrModeActive = errors.New("another mode is already active")

	// ErrNoKnownFaces is returned by attendance when no one is enrolled.
	ErrNoKnownFaces = errors.New("no known faces, enroll someone first")
)

// Options wires a Kiosk to its collaborators.
type Options struct {
	Gallery    *gallery.Store
	Recognizer *recognizer.Recognizer
	Ledger     *ledger.Ledger
	Detector   capture.Detector
	OpenCamera capture.Opener
	Detect     capture.DetectParams
	Threshold  float64
	Logger     *slog.Logger
}

// Kiosk is the application context shared by the CLI and the HTTP surface.
type Kiosk struct {
	gallery    *gallery.Store
	recognizer *recognizer.Recognizer
	ledger     *ledger.Ledger
	detector   capture.Detector
	openCamera capture.Opener
	params     capture.DetectParams
	threshold  float64
	logger     *slog.Logger

	mu       sync.Mutex
	active   bool
	snapshot *gallery.Snapshot
	current  *Session
}

// New creates a kiosk. Call Startup before running a mode.
func New(opts Options) *Kiosk {
	k := &Kiosk{
		gallery:    opts.Gallery,
		recognizer: opts.Recognizer,
		ledger:     opts.Ledger,
		detector:   opts.Detector,
		openCamera: opts.OpenCamera,
		params:     opts.Detect,
		threshold:  opts.Threshold,
		logger:     opts.Logger,
		snapshot:   &gallery.Snapshot{},
	}
	if k.threshold <= 0 {
		k.threshold = constants.DefaultRecognitionThreshold
	}
	if k.params.ScaleFactor <= 1 {
		k.params.ScaleFactor = constants.DefaultScaleFactor
	}
	if k.params.MinNeighbors <= 0 {
		k.params.MinNeighbors = constants.DefaultMinNeighbors
	}
	if k.logger == nil {
		k.logger = slog.Default()
	}
	return k
}

// Startup loads the gallery, trains the recognizer and makes sure the
// attendance table exists. An empty gallery is not an error.
func (k *Kiosk) Startup(ctx context.Context) error {
	if _, err := k.Reload(ctx, nil); err != nil && !errors.Is(err, gallery.ErrNoKnownFaces) {
		return err
	}
	if err := k.ledger.EnsureInitialized(); err != nil {
		return fmt.Errorf("initializing attendance table: %w", err)
	}
	return nil
}

// Reload rescans the gallery and retrains the recognizer from scratch. When
// the gallery is empty the recognizer is left untrained and
// gallery.ErrNoKnownFaces is returned along with the empty snapshot.
func (k *Kiosk) Reload(ctx context.Context, progress gallery.Progress) (*gallery.Snapshot, error) {
	snap, loadErr := k.gallery.Reload(ctx, progress)
	if loadErr != nil && !errors.Is(loadErr, gallery.ErrNoKnownFaces) {
		return nil, fmt.Errorf("loading gallery: %w", loadErr)
	}

	if err := k.recognizer.Retrain(snap); err != nil {
		return nil, err
	}

	k.mu.Lock()
	k.snapshot = snap
	k.mu.Unlock()

	return snap, loadErr
}

// Summary lists the enrolled identities of the last loaded gallery.
func (k *Kiosk) Summary() []gallery.IdentitySummary {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.snapshot.Summary()
}

// Threshold returns the acceptance threshold.
func (k *Kiosk) Threshold() float64 { return k.threshold }

// Ledger returns the attendance table.
func (k *Kiosk) Ledger() *ledger.Ledger { return k.ledger }

// acquire takes the single mode slot.
func (k *Kiosk) acquire() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.active {
		return ErrModeActive
	}
	k.active = true
	return nil
}

func (k *Kiosk) release() {
	k.mu.Lock()
	k.active = false
	k.mu.Unlock()
}

// Active reports whether a mode currently holds the camera.
func (k *Kiosk) Active() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.active
}

func (k *Kiosk) open() (capture.Camera, error) {
	cam, err := k.openCamera()
	if err != nil {
		if errors.Is(err, capture.ErrCameraUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", capture.ErrCameraUnavailable, err)
	}
	return cam, nil
}

func (k *Kiosk) closeCamera(cam capture.Camera) {
	if err := cam.Close(); err != nil {
		k.logger.Warn("releasing camera", "error", err)
	}
}
