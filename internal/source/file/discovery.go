package file

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// discoverFiles returns deduplicated absolute paths of regular files
// matching any of the glob patterns, sorted lexically. Sorting matters:
// catalogs are concatenated in discovery order, and a refresh must see
// the same order as the fetch before it.
func discoverFiles(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	for _, pattern := range patterns {
		pattern, err := absPattern(pattern)
		if err != nil {
			return nil, err
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}

		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil {
				continue
			}
			info, err := os.Stat(abs)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			if !seen[abs] {
				seen[abs] = true
				result = append(result, abs)
			}
		}
	}

	slices.Sort(result)
	return result, nil
}

func absPattern(pattern string) (string, error) {
	if filepath.IsAbs(pattern) {
		return pattern, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, pattern), nil
}

// watchDirs extracts the static directory prefixes of the patterns,
// the deepest directories fsnotify can sit on without knowing which
// files will appear.
func watchDirs(patterns []string) []string {
	seen := make(map[string]bool)
	var dirs []string

	for _, pattern := range patterns {
		if p, err := absPattern(pattern); err == nil {
			pattern = p
		}
		dir := staticPrefix(pattern)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// staticPrefix returns the longest directory path before the first glob
// metacharacter. A pattern without metacharacters is a literal file
// path; its directory is the prefix.
func staticPrefix(pattern string) string {
	for i, c := range pattern {
		if c == '*' || c == '?' || c == '[' || c == '{' {
			return filepath.Dir(pattern[:i])
		}
	}
	return filepath.Dir(pattern)
}

// matchesAnyPattern reports whether path matches any of the patterns.
func matchesAnyPattern(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if p, err := absPattern(pattern); err == nil {
			pattern = p
		}
		if ok, _ := doublestar.PathMatch(pattern, path); ok {
			return true
		}
		// PathMatch and Match disagree on ** across separators; accept
		// either reading.
		if strings.Contains(pattern, "**") {
			if ok, _ := doublestar.Match(pattern, path); ok {
				return true
			}
		}
	}
	return false
}

// fingerprint summarizes the matched files and their metadata, so the
// poll fallback can tell "something changed" from "another quiet tick".
func fingerprint(patterns []string) uint64 {
	files, err := discoverFiles(patterns)
	if err != nil {
		return 0
	}
	h := fnv.New64a()
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		fmt.Fprintf(h, "%s|%d|%d;", f, info.Size(), info.ModTime().UnixNano())
	}
	return h.Sum64()
}
