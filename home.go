package worksona

import (
	"os"
	"path/filepath"
)

// Home returns the Worksona home directory.
// It defaults to ~/.worksona but can be overridden with the WORKSONA_HOME
// environment variable.
func Home() string {
	if v := os.Getenv("WORKSONA_HOME"); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".worksona")
}

// DefaultDBPath returns the default SQLite database path (~/.worksona/worksona.db).
func DefaultDBPath() string {
	return filepath.Join(Home(), "worksona.db")
}

// DefaultSnapshotPath returns the default agent snapshot file path.
func DefaultSnapshotPath() string {
	return filepath.Join(Home(), "agents.json")
}

// EnsureHome creates the Worksona home directory if it doesn't exist.
func EnsureHome() error {
	return os.MkdirAll(Home(), 0o755)
}
