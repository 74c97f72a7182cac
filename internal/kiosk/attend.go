package kiosk

import (
	"context"
	"errors"
	"fmt"
	"image/color"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/imaging"
	"github.com/kozaktomas/attendance-kiosk/internal/ledger"
	"github.com/kozaktomas/attendance-kiosk/internal/recognizer"
)

// AttendResult summarises an attendance session.
type AttendResult struct {
	Marked []ledger.Record `json:"marked"`
	Frames int             `json:"frames"`
}

// Attend recognizes every face in the mirrored camera view and marks accepted
// identities present, at most once per day each. It runs until the operator
// cancels or ctx is done. With no one enrolled it fails with ErrNoKnownFaces
// before the camera is opened.
func (k *Kiosk) Attend(ctx context.Context, c Controls) (AttendResult, error) {
	if err := k.acquire(); err != nil {
		return AttendResult{}, err
	}
	defer k.release()

	cam, err := k.prepareAttend()
	if err != nil {
		return AttendResult{}, err
	}
	defer k.closeCamera(cam)

	return k.runAttend(ctx, cam, c)
}

func (k *Kiosk) prepareAttend() (capture.Camera, error) {
	if !k.recognizer.Trained() {
		return nil, ErrNoKnownFaces
	}
	return k.open()
}

func (k *Kiosk) runAttend(ctx context.Context, cam capture.Camera, c Controls) (AttendResult, error) {
	k.logger.Info("attendance started", "identities", k.recognizer.Identities())
	m := &attendMode{k: k, controls: c}

	frames, err := k.run(ctx, cam, m, c)
	m.result.Frames = frames
	k.logger.Info("attendance stopped", "marked", len(m.result.Marked), "frames", frames)
	return m.result, err
}

type attendMode struct {
	k        *Kiosk
	controls Controls
	result   AttendResult
}

func (m *attendMode) mirror() bool { return true }

func (m *attendMode) annotate(t *tick) error {
	k := m.k
	for _, face := range t.faces {
		label := constants.UnknownIdentity
		var c color.Color = imaging.Rejected

		match, err := k.recognizer.Classify(imaging.Thumbnail(t.gray, face, k.gallery.FaceSize()))
		switch {
		case errors.Is(err, recognizer.ErrUntrained):
			// gallery was emptied by a reload while running
		case err != nil:
			k.logger.Warn("classifying face", "error", err)
		case recognizer.Accept(match.Distance, k.threshold):
			label = match.Identity
			c = imaging.Accepted
			if err := m.mark(match.Identity); err != nil {
				return err
			}
		default:
			k.logger.Debug("face rejected", "nearest", match.Identity, "distance", match.Distance)
		}

		imaging.DrawBox(t.canvas, face, c, imaging.BoxThickness)
		imaging.DrawLabel(t.canvas, label, imaging.LabelOrigin(face), c)
	}
	return nil
}

func (m *attendMode) mark(identity string) error {
	rec, marked, err := m.k.ledger.MarkPresent(identity)
	if err != nil {
		return fmt.Errorf("marking %s present: %w", identity, err)
	}
	if !marked {
		return nil
	}
	m.result.Marked = append(m.result.Marked, rec)
	m.controls.notify(Event{
		Type:     EventMarked,
		Message:  fmt.Sprintf("%s marked present at %s", identity, rec.Time),
		Identity: identity,
		Record:   &rec,
	})
	return nil
}

func (m *attendMode) signal(_ context.Context, sig capture.Signal, _ *tick) (bool, error) {
	return sig == capture.SignalCancel, nil
}
