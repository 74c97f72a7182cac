package handlers

import (
	"context"
	"encoding/json"
	"image"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/capture/mock"
	"github.com/kozaktomas/attendance-kiosk/internal/gallery"
	"github.com/kozaktomas/attendance-kiosk/internal/imaging"
	"github.com/kozaktomas/attendance-kiosk/internal/kiosk"
	"github.com/kozaktomas/attendance-kiosk/internal/ledger"
	"github.com/kozaktomas/attendance-kiosk/internal/recognizer"
)

const testFaceSize = 32

var (
	testNow  = time.Date(2024, 9, 2, 7, 55, 0, 0, time.Local)
	testFace = image.Rect(10, 10, 10+testFaceSize, 10+testFaceSize)
)

// testEnv is a kiosk wired to in-memory devices and a temp directory
type testEnv struct {
	kiosk  *kiosk.Kiosk
	store  *gallery.Store
	ledger *ledger.Ledger
	camera *mock.Camera
	opener *mock.Opener
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testFrame creates a 64x64 frame of random texture
func testFrame(seed uint64) *image.Gray {
	r := rand.New(rand.NewPCG(seed, seed+1))
	g := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range g.Pix {
		g.Pix[i] = uint8(10 + r.IntN(230))
	}
	return g
}

// newTestEnv creates a started kiosk whose camera shows frame
func newTestEnv(t *testing.T, frame image.Image) *testEnv {
	t.Helper()
	root := t.TempDir()
	env := &testEnv{camera: &mock.Camera{Frames: []image.Image{frame}}}
	env.opener = &mock.Opener{Cam: env.camera}
	env.store = gallery.NewStore(gallery.Options{
		Dir:      filepath.Join(root, "known_faces"),
		FaceSize: testFaceSize,
		Format:   "png",
		Logger:   quietLogger(),
		Now:      func() time.Time { return testNow },
	})
	env.ledger = ledger.New(filepath.Join(root, "attendance.csv"),
		ledger.WithClock(func() time.Time { return testNow }),
		ledger.WithLogger(quietLogger()))
	env.kiosk = kiosk.New(kiosk.Options{
		Gallery:    env.store,
		Recognizer: recognizer.New(recognizer.NewLBPH(), quietLogger()),
		Ledger:     env.ledger,
		Detector:   &mock.Detector{Regions: []image.Rectangle{testFace}},
		OpenCamera: env.opener.Open,
		Detect:     capture.DetectParams{ScaleFactor: 1.2, MinNeighbors: 5},
		Threshold:  60,
		Logger:     quietLogger(),
	})
	if err := env.kiosk.Startup(context.Background()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		env.kiosk.Shutdown(ctx)
	})
	return env
}

// enroll stores the face region of frame for identity and reloads the kiosk
func (env *testEnv) enroll(t *testing.T, identity string, frame *image.Gray) {
	t.Helper()
	if _, err := env.store.AddCapture(identity, imaging.Thumbnail(frame, testFace, testFaceSize)); err != nil {
		t.Fatalf("AddCapture: %v", err)
	}
	if _, err := env.kiosk.Reload(context.Background(), nil); err != nil {
		t.Fatalf("Reload: %v", err)
	}
}

// waitForSession waits until the current session has ended
func waitForSession(t *testing.T, k *kiosk.Kiosk) *kiosk.Session {
	t.Helper()
	s, err := k.CurrentSession()
	if err != nil {
		t.Fatalf("CurrentSession: %v", err)
	}
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
	}
	return s
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
