package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestScanFindsSupportedExtensionsRecursively(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "album")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	want := []string{
		filepath.Join(root, "track1.wav"),
		filepath.Join(root, "track2.FLAC"),
		filepath.Join(sub, "track3.mp3"),
	}
	for _, path := range want {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "cover.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("Scan found %d files, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Scan()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSampleReturnsEverythingWhenNIsNotSmaller(t *testing.T) {
	files := []string{"a", "b", "c"}
	if got := Sample(files, 0); len(got) != 3 {
		t.Errorf("Sample(files, 0) = %v, want all 3 files", got)
	}
	if got := Sample(files, 10); len(got) != 3 {
		t.Errorf("Sample(files, 10) = %v, want all 3 files", got)
	}
}

func TestSamplePicksSubsetOfRequestedSize(t *testing.T) {
	files := make([]string, 100)
	for i := range files {
		files[i] = string(rune('a' + i%26))
	}

	got := Sample(files, 10)
	if len(got) != 10 {
		t.Fatalf("Sample returned %d files, want 10", len(got))
	}
}
