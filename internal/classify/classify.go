// Package classify extracts structured events from raw nginx log lines.
//
// Exactly two formats are recognized: combined-style access lines and error
// lines carrying a bracketed severity. Anything else is reported as a
// non-match and expected to be dropped by the caller; log streams routinely
// contain lines in neither shape.
package classify

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const errorMessageMax = 200

var (
	accessPattern = regexp.MustCompile(`(\d+\.\d+\.\d+\.\d+).*?"(\w+)\s+(\S+).*?"\s+(\d+)\s+(\d+)`)
	errorPattern  = regexp.MustCompile(`\[(emerg|alert|crit|error|warn|notice|info|debug)\]`)
)

// AccessEvent is one parsed access log request line.
type AccessEvent struct {
	Client string
	Method string
	Path   string
	Status int
	Bytes  int64
}

// ErrorEvent is one parsed error log line.
type ErrorEvent struct {
	Severity string
	Message  string
}

// Access attempts to parse line as a combined-format access entry.
// Returns false for lines in any other shape.
func Access(line string) (AccessEvent, bool) {
	m := accessPattern.FindStringSubmatch(line)
	if m == nil {
		return AccessEvent{}, false
	}

	status, err := strconv.Atoi(m[4])
	if err != nil {
		return AccessEvent{}, false
	}
	bytes, err := strconv.ParseInt(m[5], 10, 64)
	if err != nil {
		return AccessEvent{}, false
	}

	return AccessEvent{
		Client: m[1],
		Method: m[2],
		Path:   m[3],
		Status: status,
		Bytes:  bytes,
	}, true
}

// Error attempts to parse line as an error log entry. The message is the
// portion after the last "] " separator when present, else the whole line,
// capped at 200 characters.
func Error(line string) (ErrorEvent, bool) {
	m := errorPattern.FindStringSubmatch(line)
	if m == nil {
		return ErrorEvent{}, false
	}

	msg := line
	if idx := strings.LastIndex(line, "] "); idx >= 0 {
		msg = line[idx+2:]
	}

	return ErrorEvent{Severity: m[1], Message: truncate(msg, errorMessageMax)}, true
}

// truncate caps s at max bytes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
