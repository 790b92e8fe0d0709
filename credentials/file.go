package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	fileMode = 0o600
	dirMode  = 0o700
)

// FileStore keeps credentials in a YAML file.
//
// Saves go through a temporary file in the same directory followed by a
// rename, so a crash never leaves a half-written file behind.
type FileStore struct {
	path string
}

// NewFileStore returns a [FileStore] backed by the file at path.
// The file and its parent directory are created on the first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns the per-user credentials location,
// e.g. ~/.config/distroboard/credentials.yaml on Linux.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "distroboard", "credentials.yaml"), nil
}

// Path returns the file backing the store.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the credentials file. A missing file yields empty credentials.
func (f *FileStore) Load() (Credentials, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var c Credentials
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Credentials{}, fmt.Errorf("failed to parse credentials file %s: %w", f.path, err)
	}
	return c, nil
}

// Save overwrites the credentials file.
func (f *FileStore) Save(c Credentials) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("failed to create credentials dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	// removing after a successful rename is a harmless no-op
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set credentials file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}
