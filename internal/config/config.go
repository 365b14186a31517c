package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultDataDir      = "~/.local/share/streamly"
	defaultPollInterval = 500 * time.Millisecond
	defaultArtSize      = 512
	minPollInterval     = 50 * time.Millisecond
)

// AppConfig holds application configuration
type AppConfig struct {
	logger       *zap.Logger
	dataDir      string
	autoplay     string
	mpris        bool
	pollInterval time.Duration
	autoAdvance  bool
	artSize      int
}

// NewAppConfig creates a new application configuration instance
func NewAppConfig(logger *zap.Logger) *AppConfig {
	// Read from environment variables or use defaults
	dataDir := os.Getenv("STREAMLY_DATA_DIR")
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	dataDir = expandPath(dataDir)

	pollInterval := defaultPollInterval
	if raw := os.Getenv("STREAMLY_POLL_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d >= minPollInterval {
			pollInterval = d
		} else {
			logger.Warn("Ignoring invalid poll interval",
				zap.String("value", raw),
				zap.Duration("default", defaultPollInterval))
		}
	}

	artSize := defaultArtSize
	if raw := os.Getenv("STREAMLY_ART_SIZE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			artSize = n
		} else {
			logger.Warn("Ignoring invalid art size", zap.String("value", raw))
		}
	}

	cfg := &AppConfig{
		logger:       logger,
		dataDir:      dataDir,
		autoplay:     strings.TrimSpace(os.Getenv("STREAMLY_AUTOPLAY")),
		mpris:        parseSwitch(os.Getenv("STREAMLY_MPRIS"), true),
		pollInterval: pollInterval,
		autoAdvance:  parseSwitch(os.Getenv("STREAMLY_AUTO_ADVANCE"), true),
		artSize:      artSize,
	}

	logger.Info("Configuration loaded",
		zap.String("dataDir", cfg.dataDir),
		zap.String("autoplay", cfg.autoplay),
		zap.Bool("mpris", cfg.mpris),
		zap.Duration("pollInterval", cfg.pollInterval),
		zap.Bool("autoAdvance", cfg.autoAdvance),
		zap.Int("artSize", cfg.artSize))

	return cfg
}

// expandPath resolves environment variables and a leading ~
func expandPath(p string) string {
	p = os.ExpandEnv(p)
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return p
}

// parseSwitch accepts on/off style values, falling back to def
func parseSwitch(raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "on", "true", "yes":
		return true
	case "0", "off", "false", "no":
		return false
	default:
		return def
	}
}

// GetDataDir returns the root directory for the database and caches
func (c *AppConfig) GetDataDir() string {
	return c.dataDir
}

// GetAutoplayPlaylist returns the playlist to start on boot
func (c *AppConfig) GetAutoplayPlaylist() string {
	return c.autoplay
}

// MprisEnabled reports whether the D-Bus bridge should run
func (c *AppConfig) MprisEnabled() bool {
	return c.mpris
}

// GetPollInterval returns the position polling period
func (c *AppConfig) GetPollInterval() time.Duration {
	return c.pollInterval
}

// AutoAdvance reports whether finished tracks advance the queue
func (c *AppConfig) AutoAdvance() bool {
	return c.autoAdvance
}

// GetArtSize returns the cover edge length in pixels
func (c *AppConfig) GetArtSize() int {
	return c.artSize
}
