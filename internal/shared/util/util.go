// Package util holds path and map helpers shared by the classpath loader,
// the usage scanner and the watcher.
package util

import (
	"path"
	"sort"
	"strings"
)

// NormalizePatternPath turns a class-file or archive-entry path into the
// slash-separated relative form that exclude globs are matched against.
func NormalizePatternPath(s string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(s, "\\", "/"))
	clean := path.Clean(trimmed)
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}

// SortedStringKeys returns the map's keys in sorted order, giving the watcher
// a stable order for each batch of changed paths.
func SortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
