package auth

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// FlagStore persists the logged-in flag.
type FlagStore interface {
	LoggedIn() (bool, error)
	SetLoggedIn(bool) error
}

// MemoryFlags keeps the flag in memory.
type MemoryFlags struct {
	mu sync.Mutex
	on bool
}

func (m *MemoryFlags) LoggedIn() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.on, nil
}

func (m *MemoryFlags) SetLoggedIn(on bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.on = on
	return nil
}

// FileFlags stores the flag as "true" in a file; a missing file means
// logged out.
type FileFlags struct {
	Path string
}

// DefaultFlagPath returns the flag file under the user config dir.
func DefaultFlagPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "auth: user config dir")
	}
	return filepath.Join(dir, "educode", "isLoggedIn"), nil
}

func (f FileFlags) LoggedIn() (bool, error) {
	data, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "auth: read %s", f.Path)
	}
	return strings.TrimSpace(string(data)) == "true", nil
}

func (f FileFlags) SetLoggedIn(on bool) error {
	if !on {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "auth: remove %s", f.Path)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return errors.Wrapf(err, "auth: create %s", filepath.Dir(f.Path))
	}
	if err := os.WriteFile(f.Path, []byte("true\n"), 0o600); err != nil {
		return errors.Wrapf(err, "auth: write %s", f.Path)
	}
	return nil
}
