package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the toccata home directory.
	DefaultDirName = ".toccata"

	// DataDirName is the subdirectory for the run database.
	DataDirName = "data"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// DatabaseFileName is the run database file name.
	DatabaseFileName = "toccata.db"
)

// Dir represents the toccata home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.toccata).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the path to the data directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// DatabasePath returns the path to the run database.
func (d *Dir) DatabasePath() string {
	return filepath.Join(d.DataPath(), DatabaseFileName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.DataPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(d.RunsDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create runs directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// RunsDir returns the directory holding per-run working areas.
func (d *Dir) RunsDir() string {
	return filepath.Join(d.path, "runs")
}

// RunDir returns the working area for one run.
func (d *Dir) RunDir(runID string) string {
	return filepath.Join(d.RunsDir(), runID)
}

// RunPDFPath returns where a run's uploaded PDF is staged.
func (d *Dir) RunPDFPath(runID string) string {
	return filepath.Join(d.RunDir(runID), "upload.pdf")
}

// EnsureRunDir creates the working area for a run.
func (d *Dir) EnsureRunDir(runID string) error {
	return os.MkdirAll(d.RunDir(runID), 0o755)
}

// CleanupRunDir removes a run's working area and everything in it.
func (d *Dir) CleanupRunDir(runID string) error {
	return os.RemoveAll(d.RunDir(runID))
}
