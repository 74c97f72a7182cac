package kiosk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
)

// Mode names a kiosk mode.
type Mode string

// Modes a session can run.
const (
	ModeAttendance Mode = "attendance"
	ModeEnroll     Mode = "enroll"
)

// SessionStatus represents the lifecycle of a background session.
type SessionStatus string

// SessionStatus constants.
const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
	SessionFailed    SessionStatus = "failed"
)

// Terminal reports whether the session has ended.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled || s == SessionFailed
}

var (
	ErrUnknownMode  = errors.New("unknown mode")
	ErrNoSession    = errors.New("no session")
	ErrSessionEnded = errors.New("session has ended")
	ErrNotEnrolling = errors.New("session is not an enrollment")
)

// Session is a mode running in the background, driven through a
// RemoteDisplay instead of a local window.
type Session struct {
	EventBroadcaster

	ID       string
	Mode     Mode
	Identity string

	display *RemoteDisplay
	cancel  context.CancelFunc
	done    chan struct{}

	stateMu     sync.RWMutex
	status      SessionStatus
	errMsg      string
	startedAt   time.Time
	completedAt *time.Time
	result      any
}

// SessionInfo is the JSON view of a session.
type SessionInfo struct {
	ID          string        `json:"id"`
	Mode        Mode          `json:"mode"`
	Identity    string        `json:"identity,omitempty"`
	Status      SessionStatus `json:"status"`
	Error       string        `json:"error,omitempty"`
	Frames      int           `json:"frames"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Result      any           `json:"result,omitempty"`
}

// Info returns a consistent snapshot of the session state.
func (s *Session) Info() SessionInfo {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return SessionInfo{
		ID:          s.ID,
		Mode:        s.Mode,
		Identity:    s.Identity,
		Status:      s.status,
		Error:       s.errMsg,
		Frames:      s.display.Frames(),
		StartedAt:   s.startedAt,
		CompletedAt: s.completedAt,
		Result:      s.result,
	}
}

// GetStatus returns the current status.
func (s *Session) GetStatus() SessionStatus {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.status
}

// Frame returns the latest annotated frame as JPEG.
func (s *Session) Frame() ([]byte, bool) {
	return s.display.Frame()
}

// Capture asks a running enrollment to store the face in view.
func (s *Session) Capture() error {
	if s.Mode != ModeEnroll {
		return ErrNotEnrolling
	}
	if s.GetStatus().Terminal() {
		return ErrSessionEnded
	}
	s.display.Send(capture.SignalCapture)
	return nil
}

// Stop ends the session the way the operator's cancel key does. If the
// signal cannot be queued the session context is cancelled instead.
func (s *Session) Stop() error {
	if s.GetStatus().Terminal() {
		return ErrSessionEnded
	}
	if !s.display.Send(capture.SignalCancel) {
		s.cancel()
	}
	return nil
}

// Cancel aborts the session through its context.
func (s *Session) Cancel() {
	s.cancel()
}

// Done is closed once the session has ended and released the camera.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) finish(result any, err error) {
	now := time.Now()

	s.stateMu.Lock()
	s.completedAt = &now
	s.result = result
	switch {
	case err == nil:
		s.status = SessionCompleted
		if r, ok := result.(EnrollResult); ok && !r.Captured {
			s.status = SessionCancelled
		}
	case errors.Is(err, context.Canceled):
		s.status = SessionCancelled
	default:
		s.status = SessionFailed
		s.errMsg = err.Error()
	}
	status := s.status
	s.stateMu.Unlock()

	switch status {
	case SessionCompleted:
		s.SendEvent(Event{Type: EventCompleted, Message: fmt.Sprintf("%s session completed", s.Mode)})
	case SessionCancelled:
		s.SendEvent(Event{Type: EventCancelled, Message: fmt.Sprintf("%s session cancelled", s.Mode)})
	default:
		s.SendEvent(Event{Type: EventFailed, Message: s.errMsg})
	}
	close(s.done)
}

// StartSession runs a mode in the background. Validation, the mode guard and
// opening the camera happen before it returns, so those errors are reported
// synchronously. wait paces the loop between frames.
func (k *Kiosk) StartSession(mode Mode, identity string, wait time.Duration) (*Session, error) {
	if mode != ModeAttendance && mode != ModeEnroll {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if err := k.acquire(); err != nil {
		return nil, err
	}

	var cam capture.Camera
	var err error
	if mode == ModeEnroll {
		identity, cam, err = k.prepareEnroll(identity)
	} else {
		identity = ""
		cam, err = k.prepareAttend()
	}
	if err != nil {
		k.release()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        uuid.New().String(),
		Mode:      mode,
		Identity:  identity,
		display:   NewRemoteDisplay(wait),
		cancel:    cancel,
		done:      make(chan struct{}),
		status:    SessionRunning,
		startedAt: time.Now(),
	}

	k.mu.Lock()
	k.current = s
	k.mu.Unlock()

	k.logger.Info("session started", "id", s.ID, "mode", mode)
	go k.runSession(ctx, s, cam)
	return s, nil
}

func (k *Kiosk) runSession(ctx context.Context, s *Session, cam capture.Camera) {
	defer s.cancel()

	controls := Controls{Display: s.display, Notify: s.SendEvent}
	s.SendEvent(Event{Type: EventStarted, Identity: s.Identity, Message: fmt.Sprintf("%s session started", s.Mode)})
	result, err := func() (any, error) {
		defer k.release()
		defer k.closeCamera(cam)
		if s.Mode == ModeEnroll {
			return k.runEnroll(ctx, cam, s.Identity, controls)
		}
		return k.runAttend(ctx, cam, controls)
	}()

	if err != nil && !errors.Is(err, context.Canceled) {
		k.logger.Error("session failed", "id", s.ID, "mode", s.Mode, "error", err)
	}
	s.finish(result, err)
}

// CurrentSession returns the most recent session, which may have ended.
func (k *Kiosk) CurrentSession() (*Session, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.current == nil {
		return nil, ErrNoSession
	}
	return k.current, nil
}

// SessionByID returns the most recent session if it has the given ID.
func (k *Kiosk) SessionByID(id string) *Session {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.current == nil || k.current.ID != id {
		return nil
	}
	return k.current
}

// Shutdown cancels a running session and waits for it to release the camera.
func (k *Kiosk) Shutdown(ctx context.Context) error {
	s, err := k.CurrentSession()
	if err != nil {
		return nil
	}
	s.Cancel()
	select {
	case <-s.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
