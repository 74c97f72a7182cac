package web

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/attendance-kiosk/internal/web/handlers"
	"github.com/kozaktomas/attendance-kiosk/internal/web/static"
)

func (s *Server) setupRoutes() {
	recordsHandler := handlers.NewRecordsHandler(s.kiosk.Ledger())
	galleryHandler := handlers.NewGalleryHandler(s.kiosk)
	sessionsHandler := handlers.NewSessionsHandler(s.kiosk, remoteTick, s.logger)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)

		// Attendance records
		r.Get("/records", recordsHandler.List)

		// Gallery
		r.Get("/gallery", galleryHandler.List)
		r.Post("/gallery/reload", galleryHandler.Reload)

		// Sessions (one active mode at a time)
		r.Post("/sessions", sessionsHandler.Start)
		r.Get("/sessions/current", sessionsHandler.Current)
		r.Delete("/sessions/current", sessionsHandler.Stop)
		r.Post("/sessions/current/capture", sessionsHandler.Capture)
		r.Get("/sessions/current/frame", sessionsHandler.Frame)
		r.Get("/sessions/{id}/events", sessionsHandler.Events)
	})

	// Serve the operator page
	s.router.Get("/*", s.serveStatic)
}

// serveStatic serves the embedded operator page and its assets
func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request) {
	if !static.HasDist() {
		http.NotFound(w, r)
		return
	}

	fs := static.GetFileSystem()
	path := r.URL.Path
	if path == "/" {
		path = "/index.html"
	}

	f, err := fs.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil || stat.IsDir() {
		http.NotFound(w, r)
		return
	}

	contentType := "application/octet-stream"
	switch {
	case strings.HasSuffix(path, ".html"):
		contentType = "text/html; charset=utf-8"
	case strings.HasSuffix(path, ".css"):
		contentType = "text/css; charset=utf-8"
	case strings.HasSuffix(path, ".js"):
		contentType = "application/javascript; charset=utf-8"
	case strings.HasSuffix(path, ".ico"):
		contentType = "image/x-icon"
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, f)
}
