// Package config reads devexy's environment-driven settings.
//
// devexy has no config file by design — its Python predecessor read
// settings directly from the environment (via castaway.config) rather than
// from a YAML/TOML profile, and this port keeps that contract: DEVEXY_NOISY,
// DEVEXY_KUSTOMIZE_ROOT, DEVEXY_KUSTOMIZE_OVERLAY.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	EnvNoisy             = "DEVEXY_NOISY"
	EnvKustomizeRoot     = "DEVEXY_KUSTOMIZE_ROOT"
	EnvKustomizeOverlay  = "DEVEXY_KUSTOMIZE_OVERLAY"
	defaultKustomizeRoot = "./k8s/"
	defaultOverlay       = "local"
)

// Config holds the resolved settings for one invocation.
type Config struct {
	Noisy            bool
	KustomizeRoot    string
	KustomizeOverlay string
}

// Load reads Config from the environment, applying the documented defaults.
func Load() *Config {
	return &Config{
		Noisy:            parseBool(os.Getenv(EnvNoisy)),
		KustomizeRoot:    orDefault(os.Getenv(EnvKustomizeRoot), defaultKustomizeRoot),
		KustomizeOverlay: orDefault(os.Getenv(EnvKustomizeOverlay), defaultOverlay),
	}
}

// OverlayDir returns the resolved overlay directory: <root>/overlays/<overlay>.
func (c *Config) OverlayDir() string {
	return filepath.Join(c.KustomizeRoot, "overlays", c.KustomizeOverlay)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false
	}
	return b
}
