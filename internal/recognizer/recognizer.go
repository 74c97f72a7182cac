// Package recognizer adapts a trainable face matcher to the gallery. It owns
// the label -> identity map of the snapshot it was last trained on, so callers
// only ever see identity strings.
package recognizer

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/kozaktomas/attendance-kiosk/internal/gallery"
)

// ErrUntrained is returned by Classify before a non-empty gallery was trained.
var ErrUntrained = errors.New("recognizer is not trained")

// Matcher is the external trainable classifier. Train always starts from
// scratch; Predict returns the nearest label and a non-negative distance.
type Matcher interface {
	Train(samples []*image.Gray, labels []int) error
	Predict(sample *image.Gray) (label int, distance float64, err error)
	Close() error
}

// Match is a classification result. Whether it is accepted is up to the
// caller (see Accept).
type Match struct {
	Identity string  `json:"identity"`
	Distance float64 `json:"distance"`
}

// Accept applies the decision rule: a match is accepted only when its
// distance is strictly below the threshold.
func Accept(distance, threshold float64) bool {
	return distance < threshold
}

// Recognizer wraps a Matcher together with the identities it was trained on.
type Recognizer struct {
	mu         sync.Mutex
	matcher    Matcher
	identities []string
	trained    bool
	logger     *slog.Logger
}

// New creates an untrained recognizer.
func New(m Matcher, logger *slog.Logger) *Recognizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recognizer{matcher: m, logger: logger}
}

// Retrain rebuilds the model from the full snapshot. An empty snapshot skips
// training and leaves the recognizer untrained.
func (r *Recognizer) Retrain(snap *gallery.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if snap.Empty() {
		r.trained = false
		r.identities = nil
		r.logger.Warn("gallery is empty, recognizer left untrained")
		return nil
	}

	if err := r.matcher.Train(snap.Thumbnails, snap.Labels); err != nil {
		r.trained = false
		r.identities = nil
		return fmt.Errorf("training recognizer: %w", err)
	}

	r.identities = append([]string(nil), snap.Identities...)
	r.trained = true
	r.logger.Info("recognizer trained", "faces", snap.Len(), "identities", r.identities)
	return nil
}

// Classify finds the enrolled identity nearest to crop.
func (r *Recognizer) Classify(crop *image.Gray) (Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.trained {
		return Match{}, ErrUntrained
	}

	label, distance, err := r.matcher.Predict(crop)
	if err != nil {
		return Match{}, fmt.Errorf("predicting face: %w", err)
	}
	if label < 0 || label >= len(r.identities) {
		return Match{}, fmt.Errorf("matcher returned unknown label %d", label)
	}

	return Match{Identity: r.identities[label], Distance: distance}, nil
}

// Trained reports whether Classify may be called.
func (r *Recognizer) Trained() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trained
}

// Identities returns the identities of the current model.
func (r *Recognizer) Identities() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.identities...)
}

// Close releases the matcher.
func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.matcher.Close()
}
