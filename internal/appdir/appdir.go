// Package appdir resolves the per-user directory devexy uses for its log
// file and resource state cache.
package appdir

import (
	"os"
	"path/filepath"
)

const dirName = ".devexy"

// Dir returns the devexy application directory, creating it if necessary.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
