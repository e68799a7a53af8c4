// Package dotdir resolves the .storysprout/ directory that holds the
// config file and the default SQLite database.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the storysprout directory.
	dirName = ".storysprout"

	// DatabaseFile is the default SQLite database name inside the directory.
	DatabaseFile = "storysprout.db"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .storysprout/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.storysprout/ dir
//  3. Home ~/.storysprout/ dir, created if missing
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating storysprout directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// DatabasePath returns the default SQLite database path inside the
// resolved directory.
func (m *Manager) DatabasePath(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DatabaseFile), nil
}

// localDirExists checks whether a .storysprout/ directory exists in the
// current working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
