// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Gallery constants
const (
	// DefaultFaceSize is the side length in pixels of every stored and classified thumbnail
	DefaultFaceSize = 200

	// DefaultGalleryDir is the directory holding enrolled face thumbnails
	DefaultGalleryDir = "known_faces"

	// DefaultThumbnailFormat is the image format used when persisting new captures
	DefaultThumbnailFormat = "jpg"

	// CaptureTimestampLayout names a capture with second resolution (YYYYMMDDhhmmss)
	CaptureTimestampLayout = "20060102150405"
)

// Recognition constants
const (
	// DefaultRecognitionThreshold is the exclusive upper bound on the LBPH distance
	// for a match to be accepted. Lower values = stricter matching
	DefaultRecognitionThreshold = 60.0

	// UnknownIdentity is the overlay label shown for rejected faces
	UnknownIdentity = "Unknown"

	// ExactScanLimit is the gallery size up to which the builtin matcher
	// compares against every sample instead of searching the HNSW graph
	ExactScanLimit = 64

	// HNSWMaxNeighbors is the M parameter of the builtin matcher's graph
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the candidate list size used when searching the graph
	HNSWEfSearch = 64

	// HNSWCandidates is how many graph neighbours are re-ranked with the exact distance
	HNSWCandidates = 8
)

// Detection constants
const (
	// DefaultScaleFactor is the cascade pyramid scale step
	DefaultScaleFactor = 1.2

	// DefaultMinNeighbors is the number of overlapping detections a region needs
	DefaultMinNeighbors = 5

	// DefaultCascadePath is the Haar cascade used for frontal face detection
	DefaultCascadePath = "haarcascade_frontalface_default.xml"
)

// Attendance constants
const (
	// DefaultLedgerPath is the attendance table
	DefaultLedgerPath = "attendance.csv"

	// DateLayout is the ledger Date column format (YYYY-MM-DD)
	DateLayout = "2006-01-02"

	// TimeLayout is the ledger Time column format (HH:MM:SS)
	TimeLayout = "15:04:05"
)

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for session event listener channels
	EventChannelBuffer = 100
)

// Web constants
const (
	// DefaultWebPort is the port the kiosk HTTP surface listens on
	DefaultWebPort = 8080

	// DefaultWebHost is the host the kiosk HTTP surface binds to
	DefaultWebHost = "127.0.0.1"

	// FrameJPEGQuality is the JPEG quality of the live frame served to the browser
	FrameJPEGQuality = 80

	// ThumbnailJPEGQuality is the JPEG quality of stored gallery thumbnails
	ThumbnailJPEGQuality = 95
)
