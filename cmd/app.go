package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/config"
	"github.com/kozaktomas/attendance-kiosk/internal/gallery"
	"github.com/kozaktomas/attendance-kiosk/internal/kiosk"
	"github.com/kozaktomas/attendance-kiosk/internal/ledger"
	"github.com/kozaktomas/attendance-kiosk/internal/opencv"
	"github.com/kozaktomas/attendance-kiosk/internal/recognizer"
)

// app holds everything a command needs, built from the loaded config.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	gallery *gallery.Store
	ledger  *ledger.Ledger
	kiosk   *kiosk.Kiosk
	closers []func() error
}

// loadConfig loads the config and builds the logger for it.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return cfg, logger, nil
}

// newMatcher picks the recognition engine.
func newMatcher(engine string) recognizer.Matcher {
	if engine == config.EngineBuiltin {
		return recognizer.NewLBPH()
	}
	return opencv.NewLBPHMatcher()
}

// newApp wires the kiosk. withCamera also loads the face cascade and binds
// the configured camera device; commands that never open the camera skip it.
// A non-zero threshold overrides the configured one.
func newApp(withCamera bool, threshold float64) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := setThreshold(cfg, threshold); err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	a.gallery = gallery.NewStore(gallery.Options{
		Dir:      cfg.Gallery.Dir,
		FaceSize: cfg.Gallery.FaceSize,
		Format:   cfg.Gallery.ThumbnailFormat,
		Logger:   logger,
	})
	a.ledger = ledger.New(cfg.Ledger.Path, ledger.WithLogger(logger))

	rec := recognizer.New(newMatcher(cfg.Recognition.Engine), logger)
	a.closers = append(a.closers, rec.Close)

	opts := kiosk.Options{
		Gallery:    a.gallery,
		Recognizer: rec,
		Ledger:     a.ledger,
		Detect: capture.DetectParams{
			ScaleFactor:  cfg.Detection.ScaleFactor,
			MinNeighbors: cfg.Detection.MinNeighbors,
			MinSize:      cfg.Detection.MinSize,
		},
		Threshold: cfg.Recognition.Threshold,
		Logger:    logger,
	}

	if withCamera {
		detector, err := opencv.NewCascadeDetector(cfg.Detection.CascadePath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, detector.Close)
		opts.Detector = detector
		opts.OpenCamera = opencv.OpenCamera(cfg.Camera.Device)
	}

	a.kiosk = kiosk.New(opts)
	return a, nil
}

// Close releases native resources in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("releasing resource", "error", err)
		}
	}
}

// setThreshold overrides the configured threshold when the flag is set.
func setThreshold(cfg *config.Config, threshold float64) error {
	if threshold == 0 {
		return nil
	}
	if threshold < 0 {
		return fmt.Errorf("%w: threshold must be positive", config.ErrInvalidConfig)
	}
	cfg.Recognition.Threshold = threshold
	return nil
}
