package normalizer

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTempManagerNewPathAndRemove(t *testing.T) {
	dir := t.TempDir()
	m := NewTempManager(dir)

	path, err := m.NewPath("clip.wav")
	if err != nil {
		t.Fatalf("NewPath: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("expected path under %q, got %q", dir, path)
	}

	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil { //nolint:gosec // test fixture
		t.Fatalf("write fixture: %v", err)
	}
	if err := m.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected file to be removed")
	}
}

func TestTempManagerRemoveMissingIsNotAnError(t *testing.T) {
	m := NewTempManager(t.TempDir())
	if err := m.Remove(filepath.Join(t.TempDir(), "nonexistent")); err != nil {
		t.Errorf("expected removing a missing file to succeed, got %v", err)
	}
}

func TestTempManagerSweepOnceRemovesOldFiles(t *testing.T) {
	dir := t.TempDir()
	m := NewTempManager(dir)

	oldPath := filepath.Join(dir, "old.wav")
	newPath := filepath.Join(dir, "new.wav")
	if err := os.WriteFile(oldPath, []byte("x"), 0o644); err != nil { //nolint:gosec // test fixture
		t.Fatal(err)
	}
	if err := os.WriteFile(newPath, []byte("x"), 0o644); err != nil { //nolint:gosec // test fixture
		t.Fatal(err)
	}

	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldPath, old, old); err != nil {
		t.Fatal(err)
	}

	m.sweepOnce()

	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("expected old file to be swept")
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Error("expected new file to survive the sweep")
	}
}

func TestWithNormalizationDeletesOnSuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "normalized.wav")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil { //nolint:gosec // test fixture
		t.Fatal(err)
	}

	err := withNormalization(path, func(string) error { return nil })
	if err != nil {
		t.Fatalf("withNormalization: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected withNormalization to delete the path after f returns")
	}
}

func TestWithNormalizationDeletesOnPanic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "normalized.wav")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil { //nolint:gosec // test fixture
		t.Fatal(err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic to propagate after cleanup")
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("expected withNormalization to delete the path even on panic")
		}
	}()

	_ = withNormalization(path, func(string) error { panic("boom") })
}
