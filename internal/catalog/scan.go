// Package catalog implements the catalog validator: a recursive directory
// scan over a music catalog, batched analyzer-suite + subgenre-classifier
// runs per file, and an aggregate accuracy/confidence report checked
// against an optional ground-truth map.
package catalog

import (
	"io/fs"
	"math/rand/v2"
	"path/filepath"
	"sort"
	"strings"
)

// supportedExtensions mirrors the container families the normalizer and
// analyzer suite already know how to handle natively or via the invoker.
var supportedExtensions = map[string]bool{
	".wav":  true,
	".flac": true,
	".mp3":  true,
	".aac":  true,
	".m4a":  true,
	".ogg":  true,
	".opus": true,
}

// Scan walks root recursively and returns every file whose extension is a
// supported audio container, in lexical path order.
func Scan(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Sample draws n files from files uniformly at random, using a partial
// Fisher-Yates shuffle that only needs to visit the first n positions. It
// never mutates files; a copy is shuffled in place instead. n <= 0 or
// n >= len(files) returns every file, unsampled.
func Sample(files []string, n int) []string {
	if n <= 0 || n >= len(files) {
		return files
	}
	picked := make([]string, len(files))
	copy(picked, files)
	for i := 0; i < n; i++ {
		j := i + rand.IntN(len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked[:n]
}
