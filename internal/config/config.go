package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Recognition engines.
const (
	EngineOpenCV  = "opencv"
	EngineBuiltin = "builtin"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Gallery     GalleryConfig     `yaml:"gallery"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Detection   DetectionConfig   `yaml:"detection"`
	Camera      CameraConfig      `yaml:"camera"`
	Ledger      LedgerConfig      `yaml:"ledger"`
	Web         WebConfig         `yaml:"web"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type GalleryConfig struct {
	Dir             string `yaml:"dir"`
	FaceSize        int    `yaml:"face_size"`        // side of the square thumbnail in pixels
	ThumbnailFormat string `yaml:"thumbnail_format"` // jpg or png
}

type RecognitionConfig struct {
	Engine    string  `yaml:"engine"`    // opencv or builtin
	Threshold float64 `yaml:"threshold"` // accept when distance < threshold
}

type DetectionConfig struct {
	CascadePath  string  `yaml:"cascade_path"`
	ScaleFactor  float64 `yaml:"scale_factor"`
	MinNeighbors int     `yaml:"min_neighbors"`
	MinSize      int     `yaml:"min_size"` // 0 lets the detector pick
}

type CameraConfig struct {
	Device int `yaml:"device"`
}

type LedgerConfig struct {
	Path string `yaml:"path"`
}

type WebConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Defaults returns the configuration embedded in the binary.
func Defaults() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return &cfg
}

// Load builds the configuration from the embedded defaults, an optional YAML
// file and environment variables, in that order of precedence (env wins).
// An empty path falls back to KIOSK_CONFIG; a missing file is only an error
// when the path was given explicitly.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("KIOSK_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Gallery.Dir = envString("KIOSK_GALLERY_DIR", c.Gallery.Dir)
	c.Gallery.FaceSize = envInt("KIOSK_FACE_SIZE", c.Gallery.FaceSize)
	c.Gallery.ThumbnailFormat = envString("KIOSK_THUMBNAIL_FORMAT", c.Gallery.ThumbnailFormat)
	c.Recognition.Engine = envString("KIOSK_RECOGNIZER", c.Recognition.Engine)
	c.Recognition.Threshold = envFloat("KIOSK_THRESHOLD", c.Recognition.Threshold)
	c.Detection.CascadePath = envString("KIOSK_CASCADE_PATH", c.Detection.CascadePath)
	c.Camera.Device = envNonNegativeInt("KIOSK_CAMERA_DEVICE", c.Camera.Device)
	c.Ledger.Path = envString("KIOSK_LEDGER_PATH", c.Ledger.Path)
	c.Web.Host = envString("WEB_HOST", c.Web.Host)
	c.Web.Port = envInt("WEB_PORT", c.Web.Port)
	c.Logging.Level = envString("KIOSK_LOG_LEVEL", c.Logging.Level)

	if env := os.Getenv("WEB_ALLOWED_ORIGINS"); env != "" {
		var origins []string
		for o := range strings.SplitSeq(env, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.Web.AllowedOrigins = origins
	}
}

// Validate checks values that would otherwise fail deep inside a capture loop.
func (c *Config) Validate() error {
	switch {
	case c.Gallery.Dir == "":
		return fmt.Errorf("%w: gallery dir is empty", ErrInvalidConfig)
	case c.Gallery.FaceSize <= 0:
		return fmt.Errorf("%w: face size must be positive, got %d", ErrInvalidConfig, c.Gallery.FaceSize)
	case c.Recognition.Threshold <= 0:
		return fmt.Errorf("%w: threshold must be positive, got %g", ErrInvalidConfig, c.Recognition.Threshold)
	case c.Detection.ScaleFactor <= 1:
		return fmt.Errorf("%w: scale factor must be greater than 1, got %g", ErrInvalidConfig, c.Detection.ScaleFactor)
	case c.Detection.MinNeighbors < 0:
		return fmt.Errorf("%w: min neighbors must not be negative", ErrInvalidConfig)
	case c.Ledger.Path == "":
		return fmt.Errorf("%w: ledger path is empty", ErrInvalidConfig)
	}

	switch c.Gallery.ThumbnailFormat {
	case "jpg", "png":
	default:
		return fmt.Errorf("%w: unsupported thumbnail format %q", ErrInvalidConfig, c.Gallery.ThumbnailFormat)
	}

	switch c.Recognition.Engine {
	case EngineOpenCV, EngineBuiltin:
	default:
		return fmt.Errorf("%w: unknown recognition engine %q", ErrInvalidConfig, c.Recognition.Engine)
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps the configured level name to a slog level.
func (c LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.Level)
	}
	return level, nil
}

// Addr returns the host:port the web server binds to.
func (c WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// envString returns the env var value, or the default if unset or empty.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envNonNegativeInt is envInt that also accepts zero (camera device indexes start at 0).
func envNonNegativeInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a positive float from the environment.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}
