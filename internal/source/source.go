// Package source defines monitored log sources and how they are discovered.
package source

import (
	"path/filepath"
	"strings"
)

// Kind distinguishes the two recognized log formats.
type Kind int

const (
	// Access is an nginx combined-format access log.
	Access Kind = iota
	// Error is an nginx error log with bracketed severity levels.
	Error
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	if k == Error {
		return "error"
	}
	return "access"
}

// LogSource identifies one monitored log file. Immutable after discovery.
type LogSource struct {
	Path   string
	Server string
	Kind   Kind
}

// FromPaths builds sources from an explicit list of file paths, bypassing
// config discovery. Kind is inferred from the path ("error" substring) and
// the server label is derived from the filename. Duplicate paths are dropped.
func FromPaths(paths []string) []LogSource {
	var sources []LogSource
	seen := make(map[string]bool)

	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true

		kind := Access
		if strings.Contains(strings.ToLower(p), "error") {
			kind = Error
		}
		sources = append(sources, LogSource{
			Path:   p,
			Server: labelFromFilename(p),
			Kind:   kind,
		})
	}
	return sources
}

// labelFromFilename derives a short server label from a log file path.
func labelFromFilename(path string) string {
	name := filepath.Base(path)
	for _, suffix := range []string{"_access.log", "_error.log", ".log"} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}
