// Package gallery stores enrolled face thumbnails, one file per capture, and
// rebuilds the identity label map from the directory on every reload.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"

	"github.com/kozaktomas/attendance-kiosk/internal/constants"
	"github.com/kozaktomas/attendance-kiosk/internal/imaging"
)

// ErrNoKnownFaces is returned by Reload when the directory holds no usable thumbnail.
// The returned snapshot is still valid (and empty).
var ErrNoKnownFaces = errors.New("no known faces")

// isImageFile checks if a file has an accepted gallery extension
func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".bmp":
		return true
	}
	return false
}

// Options configures a Store.
type Options struct {
	Dir      string
	FaceSize int
	Format   string // "jpg" or "png" for new captures
	Logger   *slog.Logger
	Now      func() time.Time
}

// Store is the gallery directory.
type Store struct {
	dir      string
	faceSize int
	format   string
	logger   *slog.Logger
	now      func() time.Time
}

// NewStore creates a gallery store. The directory is created lazily.
func NewStore(opts Options) *Store {
	s := &Store{
		dir:      opts.Dir,
		faceSize: opts.FaceSize,
		format:   opts.Format,
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if s.faceSize <= 0 {
		s.faceSize = constants.DefaultFaceSize
	}
	if s.format == "" {
		s.format = constants.DefaultThumbnailFormat
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Dir returns the gallery directory.
func (s *Store) Dir() string { return s.dir }

// FaceSize returns the thumbnail side length in pixels.
func (s *Store) FaceSize() int { return s.faceSize }

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating gallery directory: %w", err)
	}
	return nil
}

// Progress is called after each candidate file is processed during Reload.
type Progress func(done, total int)

// Reload scans the directory and builds a fresh snapshot. Files that fail to
// decode are skipped. Labels are assigned per distinct identity in the order
// identities are first seen and are only valid for this snapshot.
func (s *Store) Reload(ctx context.Context, progress Progress) (*Snapshot, error) {
	if err := s.ensureDir(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading gallery directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}

	snap := &Snapshot{}
	labelOf := make(map[string]int)

	for i, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(i+1, len(files))
		}

		identity := IdentityFromFilename(name)

		thumb, err := s.load(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Debug("skipping unreadable gallery file", "file", name, "error", err)
			continue
		}

		label, ok := labelOf[identity]
		if !ok {
			label = len(snap.Identities)
			labelOf[identity] = label
			snap.Identities = append(snap.Identities, identity)
		}

		snap.Thumbnails = append(snap.Thumbnails, thumb)
		snap.Labels = append(snap.Labels, label)
		snap.Files = append(snap.Files, name)
	}

	if snap.Empty() {
		s.logger.Warn("no known faces", "dir", s.dir)
		return snap, ErrNoKnownFaces
	}

	s.logger.Info("gallery loaded", "faces", snap.Len(), "identities", len(snap.Identities))
	return snap, nil
}

// load decodes a thumbnail as grayscale at the face size.
func (s *Store) load(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return imaging.Resize(imaging.ToGray(img), s.faceSize), nil
}

// AddCapture persists a new thumbnail for identity and returns its path. The
// file is named <identity>_<YYYYMMDDhhmmss>.<ext>; a second capture within the
// same second gets a -N suffix on the timestamp instead of overwriting.
// In-memory state is not touched: call Reload afterwards.
func (s *Store) AddCapture(identity string, thumb *image.Gray) (string, error) {
	if err := ValidateIdentity(identity); err != nil {
		return "", err
	}
	if err := s.ensureDir(); err != nil {
		return "", err
	}

	thumb = imaging.Resize(thumb, s.faceSize)
	stamp := s.now().Format(constants.CaptureTimestampLayout)

	for n := 0; ; n++ {
		token := stamp
		if n > 0 {
			token = fmt.Sprintf("%s-%d", stamp, n)
		}
		path := filepath.Join(s.dir, fmt.Sprintf("%s_%s.%s", identity, token, s.format))

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating thumbnail file: %w", err)
		}

		if err := s.encode(f, thumb); err != nil {
			f.Close()
			os.Remove(path)
			return "", err
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("closing thumbnail file: %w", err)
		}

		s.logger.Info("face captured", "identity", identity, "file", filepath.Base(path))
		return path, nil
	}
}

func (s *Store) encode(f *os.File, thumb *image.Gray) error {
	var err error
	switch s.format {
	case "png":
		err = png.Encode(f, thumb)
	default:
		err = jpeg.Encode(f, thumb, &jpeg.Options{Quality: constants.ThumbnailJPEGQuality})
	}
	if err != nil {
		return fmt.Errorf("encoding thumbnail: %w", err)
	}
	return nil
}
