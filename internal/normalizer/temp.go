package normalizer

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tphakala/audioqa/internal/errors"
)

const (
	tempSubdir     = "aqa-normalize"
	sweepInterval  = 10 * time.Minute
	sweepAge       = 1 * time.Hour
)

// TempManager owns the scratch directory normalized copies are written to,
// and runs a background sweeper that reclaims abandoned files.
type TempManager struct {
	dir       string
	startOnce sync.Once
}

// NewTempManager builds a TempManager rooted at dir, or os.TempDir()'s
// aqa-normalize subdirectory when dir is empty.
func NewTempManager(dir string) *TempManager {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), tempSubdir)
	}
	return &TempManager{dir: dir}
}

// NewPath allocates a fresh temporary path for name, ensuring the scratch
// directory exists.
func (m *TempManager) NewPath(name string) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil { //nolint:gosec // scratch dir, not world-writable data
		return "", errors.New(err).
			Component("normalizer").
			Category(errors.CategoryFileIO).
			Context("operation", "mkdir_temp").
			Context("path", m.dir).
			Build()
	}
	return filepath.Join(m.dir, uuid.NewString()+"-"+name), nil
}

// Remove deletes path, treating a missing file as success.
func (m *TempManager) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.New(err).
			Component("normalizer").
			Category(errors.CategoryFileIO).
			Context("operation", "remove_temp").
			Context("path", path).
			Build()
	}
	return nil
}

// StartSweeper starts the background goroutine that removes scratch files
// older than sweepAge every sweepInterval, once per process.
func (m *TempManager) StartSweeper() {
	m.startOnce.Do(func() {
		go m.sweepLoop()
	})
}

func (m *TempManager) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for range ticker.C {
		m.sweepOnce()
	}
}

func (m *TempManager) sweepOnce() {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-sweepAge)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(m.dir, entry.Name()))
		}
	}
}

// withNormalization runs f with path, guaranteeing path's deletion on every
// exit path including a panic in f, which is recovered and re-panicked only
// after cleanup has run.
func withNormalization(path string, f func(string) error) (err error) {
	defer func() {
		removeErr := os.Remove(path)
		if removeErr != nil && !os.IsNotExist(removeErr) {
			if err == nil {
				err = removeErr
			}
		}
		if r := recover(); r != nil {
			panic(r)
		}
	}()
	return f(path)
}
