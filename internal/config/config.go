// Package config loads pipeline configuration from environment variables
// with built-in defaults (the same values the `default` struct tags record;
// the tags themselves are not read), mirroring a twelve-factor style: every knob has
// a sane default and can be overridden by an env var or an explicit
// command-line-style override passed to LoadWithOverrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
)

// globalConfig stores the last configuration loaded via LoadWithOverrides
// so packages that don't carry their own *Config (e.g. a demo cmd) can
// reach it without threading it through every call.
var (
	globalConfig *Config
	configMutex  sync.Mutex
)

// Config holds the full pipeline configuration.
type Config struct {
	Tiler    TilerConfig    `json:"tiler"`
	Geometry GeometryConfig `json:"geometry"`
	Codec    CodecConfig    `json:"codec"`
	Logging  LoggingConfig  `json:"logging"`
}

// LoadOptions holds command-line-style overrides, applied before env vars.
type LoadOptions struct {
	MaxDepth         int // 0 = no override
	EdgeThresholdDeg float64
	CompressionLevel int // -1 = no override
	LogLevel         string
}

// TilerConfig controls the kd-tree spatial partitioner (spec §4.3).
type TilerConfig struct {
	// MaxDepth bounds how many times the kd-tree descends before an entity
	// is forced to stay at its current node. Default 5 per spec.md §4.3.
	MaxDepth int `json:"maxDepth" env:"GEOPACK_TILER_MAX_DEPTH" default:"5"`
}

// GeometryConfig controls geometry-utility defaults (spec §4.1).
type GeometryConfig struct {
	// EdgeThresholdDeg is the dihedral-angle threshold, in degrees, above
	// which a shared triangle edge is emitted into edge_indices.
	EdgeThresholdDeg float64 `json:"edgeThresholdDeg" env:"GEOPACK_EDGE_THRESHOLD_DEG" default:"10"`
}

// CodecConfig controls the binary envelope's compression (spec §4.4, §6).
type CodecConfig struct {
	// CompressionLevel is passed to the zlib writer for every stream,
	// 0 (no compression) through 9 (best compression).
	CompressionLevel int `json:"compressionLevel" env:"GEOPACK_COMPRESSION_LEVEL" default:"6"`
}

// LoggingConfig mirrors the teacher's own logging config shape.
type LoggingConfig struct {
	Level        string `json:"level" env:"GEOPACK_LOG_LEVEL" default:"info"`
	Format       string `json:"format" env:"GEOPACK_LOG_FORMAT" default:"text"`
	EnableCaller bool   `json:"enableCaller" env:"GEOPACK_LOG_ENABLE_CALLER" default:"false"`
	File         string `json:"file" env:"GEOPACK_LOG_FILE" default:""`
}

// Load loads configuration from environment variables with defaults.
func Load() (*Config, error) {
	return LoadWithOverrides(LoadOptions{CompressionLevel: -1})
}

// LoadWithOverrides loads configuration, applying command-line-style
// overrides ahead of environment variables and built-in defaults.
func LoadWithOverrides(opts LoadOptions) (*Config, error) {
	cfg := &Config{}

	cfg.Tiler.MaxDepth = opts.MaxDepth
	if cfg.Tiler.MaxDepth == 0 {
		cfg.Tiler.MaxDepth = getIntWithDefault("GEOPACK_TILER_MAX_DEPTH", 5)
	}

	cfg.Geometry.EdgeThresholdDeg = opts.EdgeThresholdDeg
	if cfg.Geometry.EdgeThresholdDeg == 0 {
		cfg.Geometry.EdgeThresholdDeg = getFloatWithDefault("GEOPACK_EDGE_THRESHOLD_DEG", 10)
	}

	if opts.CompressionLevel >= 0 {
		cfg.Codec.CompressionLevel = opts.CompressionLevel
	} else {
		cfg.Codec.CompressionLevel = getIntWithDefault("GEOPACK_COMPRESSION_LEVEL", 6)
	}

	cfg.Logging.Level = getOverrideOrEnv(opts.LogLevel, "GEOPACK_LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvWithDefault("GEOPACK_LOG_FORMAT", "text")
	cfg.Logging.EnableCaller = getBoolWithDefault("GEOPACK_LOG_ENABLE_CALLER", false)
	cfg.Logging.File = getEnvWithDefault("GEOPACK_LOG_FILE", "")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	configMutex.Lock()
	globalConfig = cfg
	configMutex.Unlock()

	return cfg, nil
}

// GetGlobalConfig returns the last configuration loaded via
// LoadWithOverrides, or nil if none has been loaded yet.
func GetGlobalConfig() *Config {
	configMutex.Lock()
	defer configMutex.Unlock()
	return globalConfig
}

// Validate checks the configuration for internally consistent values.
func (c *Config) Validate() error {
	if c.Tiler.MaxDepth < 1 || c.Tiler.MaxDepth > 32 {
		return fmt.Errorf("tiler max depth out of range: %d", c.Tiler.MaxDepth)
	}

	if c.Geometry.EdgeThresholdDeg < 0 || c.Geometry.EdgeThresholdDeg >= 180 {
		return fmt.Errorf("edge threshold degrees out of range: %v", c.Geometry.EdgeThresholdDeg)
	}

	if c.Codec.CompressionLevel < 0 || c.Codec.CompressionLevel > 9 {
		return fmt.Errorf("compression level out of range: %d", c.Codec.CompressionLevel)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"text": true, "json": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getOverrideOrEnv returns the command-line override if set, else the env
// var if set, else the default.
func getOverrideOrEnv(override, envKey, defaultValue string) string {
	if override != "" {
		return override
	}
	return getEnvWithDefault(envKey, defaultValue)
}
