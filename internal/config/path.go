package config

import (
	"os"
	"path/filepath"
)

const appDirName = "reconciler"

// DefaultDataDir picks where the embedded pebble store lives when no
// --data-dir is given. Order: $XDG_DATA_HOME, /var/lib, macOS Application
// Support, Windows AppData, then ~/.reconciler. Without a home dir it is ./data.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./data"
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	candidates := []struct{ probe, dir string }{
		{"/var/lib", filepath.Join("/var/lib", appDirName)},
		{filepath.Join(home, "Library"), filepath.Join(home, "Library", "Application Support", appDirName)},
		{filepath.Join(home, "AppData"), filepath.Join(home, "AppData", "Local", appDirName)},
	}
	for _, c := range candidates {
		if isDir(c.probe) {
			return c.dir
		}
	}
	return filepath.Join(home, "."+appDirName)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
