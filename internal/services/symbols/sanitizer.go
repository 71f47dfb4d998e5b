// Package symbols turns the toolchain's raw preprocessor definitions into a
// deterministic list suitable for a build-cache key.
package symbols

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
)

// TimestampMarker names the macro that changes on every toolchain run
const TimestampMarker = "MBED_BUILD_TIMESTAMP"

// Sanitize drops timestamp macros, escapes every quote of an entry that
// mentions a header and returns the entries sorted. Identical entries
// collapse into one.
func Sanitize(raw []string) []string {
	result := make([]string, 0, len(raw))
	for _, s := range raw {
		name, _, _ := strings.Cut(s, "=")
		if strings.Contains(name, TimestampMarker) {
			// would force a full rebuild on every invocation
			continue
		}
		// e.g. CMSIS_VECTAB_VIRTUAL_HEADER_FILE="cmsis_nvic.h"
		if strings.Contains(s, `"`) && strings.Contains(s, ".h") {
			s = strings.ReplaceAll(s, `"`, `\"`)
		}
		result = append(result, s)
	}

	// raw order follows the toolchain's dependency graph iteration
	slices.Sort(result)
	return slices.Compact(result)
}

// Key returns a hex sha256 over an already sanitized symbol list
func Key(symbols []string) string {
	h := sha256.New()
	for _, s := range symbols {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Define is a symbol split into name and value
type Define struct {
	Name     string
	Value    string
	HasValue bool
}

// ParseDefine splits NAME=VALUE at the first '='
func ParseDefine(entry string) Define {
	name, value, hasValue := strings.Cut(entry, "=")
	return Define{Name: name, Value: value, HasValue: hasValue}
}
