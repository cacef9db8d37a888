package parser

import "strings"

// isSuppressed reports whether the physical line carries the ignore marker.
func isSuppressed(src *SourceUnit, line int) bool {
	return strings.Contains(src.Line(line), IgnoreMarker)
}
