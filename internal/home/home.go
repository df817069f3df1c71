package home

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	// DefaultDirName is the default name for the tabscan home directory.
	DefaultDirName = ".tabscan"

	// ProfilesDirName holds saved prompt profiles.
	ProfilesDirName = "profiles"

	// OutputsDirName holds batch workbooks.
	OutputsDirName = "outputs"

	// PromptsDirName holds prompt template overrides (<key>.tmpl).
	PromptsDirName = "prompts"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	profileExt = ".yaml"
)

// ErrInvalidName is returned for profile names that are not plain file names.
var ErrInvalidName = errors.New("invalid profile name")

// Dir represents the tabscan home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.tabscan).
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

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// ProfilesDir returns the directory for saved profiles.
func (d *Dir) ProfilesDir() string {
	return filepath.Join(d.path, ProfilesDirName)
}

// OutputsDir returns the directory for batch workbooks.
func (d *Dir) OutputsDir() string {
	return filepath.Join(d.path, OutputsDirName)
}

// PromptsDir returns the directory checked for prompt overrides.
func (d *Dir) PromptsDir() string {
	return filepath.Join(d.path, PromptsDirName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.ProfilesDir(), d.OutputsDir(), d.PromptsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
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

// ProfilePath returns the file for a named profile.
func (d *Dir) ProfilePath(name string) (string, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), profileExt)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(d.ProfilesDir(), name+profileExt), nil
}

// ListProfiles returns the names of saved profiles, sorted.
func (d *Dir) ListProfiles() ([]string, error) {
	entries, err := os.ReadDir(d.ProfilesDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read profiles: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != profileExt {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), profileExt))
	}
	sort.Strings(names)
	return names, nil
}

// OutputPath returns a timestamped workbook path under OutputsDir.
func (d *Dir) OutputPath(now time.Time) string {
	return filepath.Join(d.OutputsDir(), fmt.Sprintf("tables_%s.xlsx", now.Format("20060102_150405")))
}
