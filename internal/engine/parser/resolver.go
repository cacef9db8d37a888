package parser

import "strings"

// ResolveModule turns the module part of a from-import into an absolute
// dotted path. level is the number of leading dots; module may be empty for
// "from . import x". A level deeper than the package clamps to an empty
// prefix. Empty package segments are kept, so a file at the root or under an
// absolute path resolves to a name with a leading dot.
func ResolveModule(pkg []string, level int, module string) string {
	if level <= 0 {
		return module
	}
	end := len(pkg) - level + 1
	if end < 0 {
		end = 0
	}
	if end > len(pkg) {
		end = len(pkg)
	}
	parts := make([]string, 0, end+1)
	parts = append(parts, pkg[:end]...)
	if module != "" {
		parts = append(parts, module)
	}
	return strings.Join(parts, ".")
}
