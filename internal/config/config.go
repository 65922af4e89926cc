// Package config loads application configuration from Viper-backed sources.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"cashlens/internal/common"

	"github.com/spf13/viper"
)

// DefaultBaseURL points at a classification server running on the local
// machine, the development setup the tool ships with.
const DefaultBaseURL = "http://127.0.0.1:5000/api"

// Capture configures where frames come from.
type Capture struct {
	// Source selects the frame source: "command" shells out to a grab
	// command producing one JPEG on stdout, "directory" cycles image
	// files from a folder.
	Source      string
	Command     string
	Directory   string
	Facing      string
	IdealWidth  int
	IdealHeight int
}

// Speech configures voice announcements.
type Speech struct {
	// Command overrides speaker autodetection (espeak-ng, espeak, say).
	Command  string
	Language string
	Enabled  bool
}

// Config is the full application configuration, resolved once at startup and
// passed explicitly to the components that need it.
type Config struct {
	BaseURL             string
	Capture             Capture
	Speech              Speech
	ConfidenceThreshold float64
	ScanInterval        time.Duration
}

// Load resolves configuration from Viper (config file or CASHLENS_ env vars),
// applying defaults for anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		BaseURL:             DefaultBaseURL,
		ConfidenceThreshold: 0.85,
		ScanInterval:        1500 * time.Millisecond,
		Capture: Capture{
			Source:      "command",
			Facing:      "environment",
			IdealWidth:  1280,
			IdealHeight: 720,
		},
		Speech: Speech{
			Enabled:  true,
			Language: "es-AR",
		},
	}

	if v := viper.GetString("api.base_url"); v != "" {
		cfg.BaseURL = v
	}
	if v := viper.GetFloat64("scan.confidence_threshold"); v > 0 {
		cfg.ConfidenceThreshold = v
	}
	if v := viper.GetDuration("scan.interval"); v > 0 {
		cfg.ScanInterval = v
	}
	if v := viper.GetString("capture.source"); v != "" {
		cfg.Capture.Source = v
	}
	if v := viper.GetString("capture.command"); v != "" {
		cfg.Capture.Command = v
	}
	if v := viper.GetString("capture.directory"); v != "" {
		cfg.Capture.Directory = ExpandPath(v)
	}
	if v := viper.GetString("capture.facing"); v != "" {
		cfg.Capture.Facing = v
	}
	if v := viper.GetInt("capture.ideal_width"); v > 0 {
		cfg.Capture.IdealWidth = v
	}
	if v := viper.GetInt("capture.ideal_height"); v > 0 {
		cfg.Capture.IdealHeight = v
	}
	if viper.IsSet("speech.enabled") {
		cfg.Speech.Enabled = viper.GetBool("speech.enabled")
	}
	if v := viper.GetString("speech.command"); v != "" {
		cfg.Speech.Command = v
	}
	if v := viper.GetString("speech.language"); v != "" {
		cfg.Speech.Language = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values no component could work with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: api.base_url %q is not a valid URL", common.ErrInvalidConfig, c.BaseURL)
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: scan.confidence_threshold must be in (0, 1], got %v", common.ErrInvalidConfig, c.ConfidenceThreshold)
	}
	if c.ScanInterval <= 0 {
		return fmt.Errorf("%w: scan.interval must be positive", common.ErrInvalidConfig)
	}
	switch c.Capture.Source {
	case "command", "directory":
	default:
		return fmt.Errorf("%w: capture.source must be \"command\" or \"directory\", got %q", common.ErrInvalidConfig, c.Capture.Source)
	}
	if c.Capture.Source == "directory" && c.Capture.Directory == "" {
		return fmt.Errorf("%w: capture.directory is required when capture.source is \"directory\"", common.ErrInvalidConfig)
	}
	return nil
}

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home + path[1:]
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}
