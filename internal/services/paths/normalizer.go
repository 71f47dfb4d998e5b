// Package paths converts toolchain file references into project-relative
// paths for the consuming build system.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/mbedbridge/internal/interfaces"
)

// DiscardedComponents is the number of leading components that name the
// framework's own internal root
const DiscardedComponents = 2

// Normalize drops the leading framework-internal components of p and
// rejoins the rest with the platform separator. Returns "" when nothing
// remains.
func Normalize(p string) string {
	parts := components(p)
	if len(parts) <= DiscardedComponents {
		return ""
	}
	return strings.Join(parts[DiscardedComponents:], string(filepath.Separator))
}

// NormalizeRef normalizes the path of a file reference; nil yields ""
func NormalizeRef(ref interfaces.FileRef) string {
	if ref == nil {
		return ""
	}
	return Normalize(ref.Path())
}

// NormalizeAll normalizes every path and drops empty results. The result
// is never nil.
func NormalizeAll(paths []string) []string {
	result := make([]string, 0, len(paths))
	for _, p := range paths {
		if fixed := Normalize(p); fixed != "" {
			result = append(result, fixed)
		}
	}
	return result
}

// NormalizeRefs is NormalizeAll over file references
func NormalizeRefs[T interfaces.FileRef](refs []T) []string {
	result := make([]string, 0, len(refs))
	for _, ref := range refs {
		if fixed := NormalizeRef(ref); fixed != "" {
			result = append(result, fixed)
		}
	}
	return result
}

// components splits on '/' and the platform separator, skipping empty
// segments so "a//b" and "/a/b" both yield [a b].
func components(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool {
		return r == '/' || r == os.PathSeparator
	})
}
