// Package config loads the icoutils settings file and layers environment
// variables and command-line flags on top of it.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/babs/icoutils/internal/bitpack"
)

// Config holds settings shared by icotool and wrestool.
type Config struct {
	AlphaThreshold int    `json:"alpha_threshold"`
	BitDepth       int    `json:"bit_depth"`
	Workers        int    `json:"workers"`
	Output         string `json:"output,omitempty"`
}

// Path is the settings file location.
var Path string

func init() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	Path = filepath.Join(home, ".config", "icoutils", "config.json")
}

// Default returns a Config with default values.
func Default() Config {
	return Config{
		AlphaThreshold: 127,
		BitDepth:       0,
		Workers:        4,
	}
}

func validAlphaThreshold(i int) bool { return i >= 0 && i <= 255 }
func validBitDepth(i int) bool { return i == 0 || bitpack.Valid(i) }
func validWorkers(i int) bool { return i > 0 }

// Load loads config from disk, creating a default if it doesn't exist.
// Missing fields keep their defaults via json.Unmarshal into a pre-populated struct.
func Load() Config {
	cfg := Default()

	data, err := os.ReadFile(Path)
	if err != nil {
		if os.IsNotExist(err) {
			if writeErr := Save(cfg); writeErr != nil {
				log.Printf("Failed to write default config: %v", writeErr)
			}
			return cfg
		}
		log.Printf("Failed to read config %s: %v", Path, err)
		return cfg
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("Failed to parse config %s: %v", Path, err)
		return Default()
	}

	defaults := Default()
	if !validAlphaThreshold(cfg.AlphaThreshold) {
		log.Printf("Invalid alpha_threshold %d in config, using default %d", cfg.AlphaThreshold, defaults.AlphaThreshold)
		cfg.AlphaThreshold = defaults.AlphaThreshold
	}
	if !validBitDepth(cfg.BitDepth) {
		log.Printf("Invalid bit_depth %d in config, using default %d", cfg.BitDepth, defaults.BitDepth)
		cfg.BitDepth = defaults.BitDepth
	}
	if !validWorkers(cfg.Workers) {
		log.Printf("Invalid workers %d in config, using default %d", cfg.Workers, defaults.Workers)
		cfg.Workers = defaults.Workers
	}
	return cfg
}

// Save writes config to disk with restrictive permissions (0600).
func Save(cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return writeFileSecure(Path, data)
}

// writeFileSecure writes data to path with 0600 permissions, creating parent dirs.
func writeFileSecure(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Overrides holds command-line values. The Set fields tell an explicit
// zero from an absent flag.
type Overrides struct {
	AlphaThreshold    int
	AlphaThresholdSet bool
	BitDepth          int
	BitDepthSet       bool
	Workers           int
	Output            string
}

// Apply applies env vars and flags to cfg. Priority: flag > env > config file.
func Apply(cfg *Config, o Overrides) {
	applyIntOverride(&cfg.AlphaThreshold, "ICOUTILS_ALPHA_THRESHOLD", "alpha-threshold",
		o.AlphaThreshold, o.AlphaThresholdSet, validAlphaThreshold)
	applyIntOverride(&cfg.BitDepth, "ICOUTILS_BIT_DEPTH", "bit-depth",
		o.BitDepth, o.BitDepthSet, validBitDepth)
	applyIntOverride(&cfg.Workers, "ICOUTILS_WORKERS", "workers",
		o.Workers, o.Workers != 0, validWorkers)
	applyStringOverride(&cfg.Output, "ICOUTILS_OUTPUT", o.Output)
}

// applyIntOverride applies an int override from env var and flag.
// flagIsSet indicates whether the flag was explicitly provided (since zero may be a valid value).
func applyIntOverride(target *int, envKey, flagName string, flagVal int, flagIsSet bool, valid func(int) bool) {
	if v := os.Getenv(envKey); v != "" {
		if i, err := strconv.Atoi(v); err != nil || !valid(i) {
			log.Printf("Ignoring invalid %s=%q", envKey, v)
		} else {
			*target = i
		}
	}
	if !flagIsSet {
		return
	}
	if !valid(flagVal) {
		log.Printf("Ignoring invalid -%s=%d", flagName, flagVal)
		return
	}
	*target = flagVal
}

// applyStringOverride applies a non-empty string override from env var and flag.
func applyStringOverride(target *string, envKey, flagVal string) {
	if v := os.Getenv(envKey); v != "" {
		*target = v
	}
	if flagVal != "" {
		*target = flagVal
	}
}
