package opencv

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"

	"github.com/kozaktomas/attendance-kiosk/internal/recognizer"
)

// LBPHMatcher is a recognizer.Matcher backed by OpenCV's LBPH face recognizer.
// Every Train builds a fresh model.
type LBPHMatcher struct {
	mu    sync.Mutex
	model *contrib.LBPHFaceRecognizer
}

// NewLBPHMatcher creates an untrained matcher.
func NewLBPHMatcher() *LBPHMatcher {
	return &LBPHMatcher{}
}

// Train implements recognizer.Matcher.
func (m *LBPHMatcher) Train(samples []*image.Gray, labels []int) error {
	if len(samples) == 0 {
		return errors.New("no training samples")
	}
	if len(samples) != len(labels) {
		return fmt.Errorf("got %d samples but %d labels", len(samples), len(labels))
	}

	mats := make([]gocv.Mat, 0, len(samples))
	defer func() {
		for _, mat := range mats {
			mat.Close()
		}
	}()
	for i, s := range samples {
		mat, err := gocv.ImageGrayToMatGray(s)
		if err != nil {
			return fmt.Errorf("converting sample %d: %w", i, err)
		}
		mats = append(mats, mat)
	}

	model := contrib.NewLBPHFaceRecognizer()
	model.Train(mats, labels)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.model != nil {
		m.model.Close()
	}
	m.model = model
	return nil
}

// Predict implements recognizer.Matcher.
func (m *LBPHMatcher) Predict(sample *image.Gray) (int, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.model == nil {
		return -1, 0, recognizer.ErrUntrained
	}

	mat, err := gocv.ImageGrayToMatGray(sample)
	if err != nil {
		return -1, 0, fmt.Errorf("converting sample: %w", err)
	}
	defer mat.Close()

	resp := m.model.PredictExtendedResponse(mat)
	return int(resp.Label), float64(resp.Confidence), nil
}

// Close implements recognizer.Matcher.
func (m *LBPHMatcher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.model == nil {
		return nil
	}
	err := m.model.Close()
	m.model = nil
	return err
}
