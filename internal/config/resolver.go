package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the config file looked up in the default locations.
const FileName = "chatdigest.yaml"

// ErrNotFound is returned by Resolve when no config file exists.
var ErrNotFound = errors.New("config: no configuration file found")

// Candidates returns the lookup order used by Resolve when no explicit
// path is given: $XDG_CONFIG_HOME/chatdigest/chatdigest.yaml (or the OS
// user config dir), then ./chatdigest.yaml.
func Candidates() []string {
	var paths []string
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		dir, _ = os.UserConfigDir()
	}
	if dir != "" {
		paths = append(paths, filepath.Join(dir, "chatdigest", FileName))
	}
	return append(paths, FileName)
}

// Resolve returns the config path to load. An explicit path wins and is
// returned as is, so a missing file fails later with a clear read error.
func Resolve(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	candidates := Candidates()
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w (looked in %v)", ErrNotFound, candidates)
}
