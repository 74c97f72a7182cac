package kiosk

import (
	"context"
	"fmt"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/gallery"
	"github.com/kozaktomas/attendance-kiosk/internal/imaging"
)

// EnrollResult describes how an enrollment session ended.
type EnrollResult struct {
	Identity string `json:"identity"`
	Captured bool   `json:"captured"`
	Path     string `json:"path,omitempty"`
}

// Enroll shows the live camera with detected faces boxed until the operator
// captures or cancels. A capture with at least one face in view stores the
// first face under identity and retrains the recognizer. Captures with no
// face in view are ignored. Cancelling leaves the gallery untouched.
func (k *Kiosk) Enroll(ctx context.Context, identity string, c Controls) (EnrollResult, error) {
	if err := k.acquire(); err != nil {
		return EnrollResult{}, err
	}
	defer k.release()

	identity, cam, err := k.prepareEnroll(identity)
	if err != nil {
		return EnrollResult{}, err
	}
	defer k.closeCamera(cam)

	return k.runEnroll(ctx, cam, identity, c)
}

// prepareEnroll returns the normalized identity and an open camera.
func (k *Kiosk) prepareEnroll(identity string) (string, capture.Camera, error) {
	identity = gallery.NormalizeIdentity(identity)
	if err := gallery.ValidateIdentity(identity); err != nil {
		return "", nil, err
	}

	k.mu.Lock()
	similar := k.snapshot.LookAlikes(identity)
	k.mu.Unlock()
	if len(similar) > 0 {
		k.logger.Warn("enrolling a name similar to existing identities", "identity", identity, "existing", similar)
	}

	cam, err := k.open()
	if err != nil {
		return "", nil, err
	}
	return identity, cam, nil
}

func (k *Kiosk) runEnroll(ctx context.Context, cam capture.Camera, identity string, c Controls) (EnrollResult, error) {
	k.logger.Info("enrollment started", "identity", identity)
	m := &enrollMode{k: k, identity: identity, controls: c}
	m.result.Identity = identity

	if _, err := k.run(ctx, cam, m, c); err != nil {
		return m.result, err
	}
	if !m.result.Captured {
		k.logger.Info("enrollment cancelled", "identity", identity)
	}
	return m.result, nil
}

type enrollMode struct {
	k        *Kiosk
	identity string
	controls Controls
	result   EnrollResult
}

func (m *enrollMode) mirror() bool { return false }

func (m *enrollMode) annotate(t *tick) error {
	for _, face := range t.faces {
		imaging.DrawBox(t.canvas, face, imaging.Accepted, imaging.BoxThickness)
	}
	return nil
}

func (m *enrollMode) signal(ctx context.Context, sig capture.Signal, t *tick) (bool, error) {
	switch sig {
	case capture.SignalCancel:
		return true, nil
	case capture.SignalCapture:
		if t == nil || len(t.faces) == 0 {
			return false, nil
		}
	default:
		return false, nil
	}

	k := m.k
	thumb := imaging.Thumbnail(t.gray, t.faces[0], k.gallery.FaceSize())
	path, err := k.gallery.AddCapture(m.identity, thumb)
	if err != nil {
		return true, fmt.Errorf("saving capture: %w", err)
	}
	m.result.Captured = true
	m.result.Path = path

	if _, err := k.Reload(ctx, nil); err != nil {
		return true, fmt.Errorf("retraining after capture: %w", err)
	}

	m.controls.notify(Event{
		Type:     EventCaptured,
		Message:  fmt.Sprintf("Face for %s captured", m.identity),
		Identity: m.identity,
		Path:     path,
	})
	return true, nil
}
