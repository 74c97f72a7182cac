package opencv

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
)

// ErrCascadeLoad is returned when the Haar cascade file cannot be loaded.
var ErrCascadeLoad = errors.New("failed to load face cascade classifier")

// CascadeDetector finds frontal faces with a Haar cascade.
type CascadeDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
}

// NewCascadeDetector loads the cascade at path.
func NewCascadeDetector(path string) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("%w: %s", ErrCascadeLoad, path)
	}
	return &CascadeDetector{classifier: classifier}, nil
}

// Detect implements capture.Detector.
func (d *CascadeDetector) Detect(gray *image.Gray, params capture.DetectParams) []image.Rectangle {
	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil
	}
	defer mat.Close()

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.DetectMultiScaleWithParams(
		mat,
		params.ScaleFactor,
		params.MinNeighbors,
		0,
		image.Pt(params.MinSize, params.MinSize),
		image.Point{},
	)
}

// Close releases the classifier.
func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}
