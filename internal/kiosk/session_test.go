package kiosk

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"testing"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/gallery"
	"github.com/kozaktomas/attendance-kiosk/internal/imaging"
)

const sessionWait = time.Millisecond

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func drain(ch chan Event) []string {
	var types []string
	for {
		select {
		case e := <-ch:
			types = append(types, e.Type)
		default:
			return types
		}
	}
}

func contains(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

func TestStartSession_Enroll(t *testing.T) {
	f := newFixture(t, noiseFrame(11))
	if err := f.kiosk.Startup(context.Background()); err != nil {
		t.Fatal(err)
	}

	s, err := f.kiosk.StartSession(ModeEnroll, "dave", sessionWait)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	events := s.AddListener()

	waitFor(t, func() bool { _, ok := s.Frame(); return ok })
	if err := s.Capture(); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	waitDone(t, s)

	info := s.Info()
	if info.Status != SessionCompleted {
		t.Fatalf("status = %s (%s), want completed", info.Status, info.Error)
	}
	res, ok := info.Result.(EnrollResult)
	if !ok || !res.Captured || res.Identity != "dave" {
		t.Errorf("result = %#v", info.Result)
	}
	if info.CompletedAt == nil {
		t.Error("completed_at not set")
	}
	if !f.camera.Closed() || f.kiosk.Active() {
		t.Error("session did not release the camera")
	}
	if ids := f.kiosk.recognizer.Identities(); len(ids) != 1 || ids[0] != "dave" {
		t.Errorf("identities = %v", ids)
	}

	types := drain(events)
	if !contains(types, EventCaptured) || !contains(types, EventCompleted) {
		t.Errorf("events = %v, want captured and completed", types)
	}
}

func TestStartSession_EnrollStoppedWithoutCapture(t *testing.T) {
	f := newFixture(t, noiseFrame(11))

	s, err := f.kiosk.StartSession(ModeEnroll, "dave", sessionWait)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	waitDone(t, s)

	if got := s.GetStatus(); got != SessionCancelled {
		t.Errorf("status = %s, want cancelled", got)
	}
	if files := galleryFiles(t, f.dir); len(files) != 0 {
		t.Errorf("gallery files = %v", files)
	}
	if err := s.Capture(); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("Capture after end = %v, want ErrSessionEnded", err)
	}
}

func TestStartSession_Attendance(t *testing.T) {
	alice := noiseFrame(21)
	f := newFixture(t, imaging.MirrorHorizontal(alice))
	f.enrollFrom(t, "alice", alice)
	if err := f.kiosk.Startup(context.Background()); err != nil {
		t.Fatal(err)
	}

	s, err := f.kiosk.StartSession(ModeAttendance, "ignored", sessionWait)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if s.Identity != "" {
		t.Errorf("attendance session identity = %q", s.Identity)
	}

	waitFor(t, func() bool { return s.Info().Frames >= 3 })
	frame, ok := s.Frame()
	if !ok {
		t.Fatal("no frame available")
	}
	img, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		t.Fatalf("frame is not a JPEG: %v", err)
	}
	if img.Bounds().Dx() != 100 {
		t.Errorf("frame width = %d", img.Bounds().Dx())
	}

	if err := s.Capture(); !errors.Is(err, ErrNotEnrolling) {
		t.Errorf("Capture on attendance = %v, want ErrNotEnrolling", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatal(err)
	}
	waitDone(t, s)

	info := s.Info()
	if info.Status != SessionCompleted {
		t.Errorf("status = %s, want completed", info.Status)
	}
	res := info.Result.(AttendResult)
	if len(res.Marked) != 1 || res.Marked[0].Name != "alice" {
		t.Errorf("marked = %+v", res.Marked)
	}
}

func TestStartSession_ModeGuard(t *testing.T) {
	f := newFixture(t, noiseFrame(11))

	s, err := f.kiosk.StartSession(ModeEnroll, "dave", sessionWait)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.kiosk.StartSession(ModeEnroll, "erin", sessionWait); !errors.Is(err, ErrModeActive) {
		t.Errorf("second StartSession = %v, want ErrModeActive", err)
	}
	if _, err := f.kiosk.Enroll(context.Background(), "erin", Controls{Display: script()}); !errors.Is(err, ErrModeActive) {
		t.Errorf("Enroll during session = %v, want ErrModeActive", err)
	}
	if _, err := f.kiosk.Attend(context.Background(), Controls{Display: script()}); !errors.Is(err, ErrModeActive) {
		t.Errorf("Attend during session = %v, want ErrModeActive", err)
	}
	if f.opener.Opens() != 1 {
		t.Errorf("opens = %d, want 1", f.opener.Opens())
	}

	s.Cancel()
	waitDone(t, s)
	if got := s.GetStatus(); got != SessionCancelled {
		t.Errorf("status = %s, want cancelled", got)
	}

	next, err := f.kiosk.StartSession(ModeEnroll, "erin", sessionWait)
	if err != nil {
		t.Fatalf("StartSession after release: %v", err)
	}
	if cur, _ := f.kiosk.CurrentSession(); cur != next {
		t.Error("current session not replaced")
	}
	if f.kiosk.SessionByID(s.ID) != nil {
		t.Error("old session still addressable")
	}
	if err := f.kiosk.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.kiosk.Active() {
		t.Error("mode slot held after shutdown")
	}
}

func TestStartSession_Errors(t *testing.T) {
	f := newFixture(t, noiseFrame(11))

	tests := []struct {
		name     string
		mode     Mode
		identity string
		wantErr  error
	}{
		{name: "unknown mode", mode: "dance", wantErr: ErrUnknownMode},
		{name: "invalid identity", mode: ModeEnroll, identity: "a_b", wantErr: gallery.ErrInvalidIdentity},
		{name: "empty gallery", mode: ModeAttendance, wantErr: ErrNoKnownFaces},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.kiosk.StartSession(tt.mode, tt.identity, sessionWait)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if f.kiosk.Active() {
				t.Error("mode slot not released")
			}
		})
	}

	if _, err := f.kiosk.CurrentSession(); !errors.Is(err, ErrNoSession) {
		t.Errorf("CurrentSession = %v, want ErrNoSession", err)
	}
	if f.opener.Opens() != 0 {
		t.Errorf("opens = %d, want 0", f.opener.Opens())
	}
}

func TestStartSession_CameraFailure(t *testing.T) {
	f := newFixture(t)
	f.opener.Err = capture.ErrCameraUnavailable

	_, err := f.kiosk.StartSession(ModeEnroll, "dave", sessionWait)
	if !errors.Is(err, capture.ErrCameraUnavailable) {
		t.Errorf("error = %v, want ErrCameraUnavailable", err)
	}
	if f.kiosk.Active() {
		t.Error("mode slot not released")
	}
}

func TestRemoteDisplay(t *testing.T) {
	d := NewRemoteDisplay(0)

	if got := d.WaitKey(); got != capture.SignalNone {
		t.Errorf("WaitKey with nothing queued = %v", got)
	}
	if !d.Send(capture.SignalCapture) {
		t.Fatal("Send on empty queue failed")
	}
	if d.Send(capture.SignalCancel) {
		t.Error("Send should refuse while a signal is pending")
	}
	if got := d.WaitKey(); got != capture.SignalCapture {
		t.Errorf("WaitKey = %v, want capture", got)
	}
	if _, ok := d.Frame(); ok {
		t.Error("Frame before Show should be empty")
	}
	if err := d.Show(noiseFrame(1)); err != nil {
		t.Fatal(err)
	}
	if _, ok := d.Frame(); !ok || d.Frames() != 1 {
		t.Error("Show did not store the frame")
	}
}
