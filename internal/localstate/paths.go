// Package localstate resolves where the local-target scheduler keeps its
// SQLite database. The default is a per-user directory under $HOME;
// ROUTINELY_HOME overrides it, which tests use to stay hermetic.
package localstate

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	envHome    = "ROUTINELY_HOME"
	dirName    = ".routinely"
	dbFilename = "scheduler.db"
)

// DataDir resolves and creates the state directory with 0700 permissions.
// Resolution order: ROUTINELY_HOME, then ~/.routinely.
func DataDir() (string, error) {
	dir := os.Getenv(envHome)
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user home: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// DBPath returns the SQLite database path used when ROUTINELY_SQLITE_PATH is
// not set.
func DBPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dbFilename), nil
}
