package parser

// IgnoreMarker suppresses every import occurrence on the physical line that contains it.
const IgnoreMarker = "# pants: ignore"

// MaxMinDots is the largest dot threshold the string heuristic accepts.
const MaxMinDots = 1000

// Options controls the optional string-literal heuristic.
type Options struct {
	StringImports bool // Treat dotted string constants as imports
	MinDots       int  // Minimum number of "segment." repetitions before the final segment
}

// ImportMap maps an inferred module name to the first line it was seen on.
type ImportMap map[string]int

// Occurrence is a candidate import before suppression and deduplication.
type Occurrence struct {
	Name string
	Line int
}

// Result is the outcome of analyzing one file.
type Result struct {
	Path        string
	Imports     ImportMap
	ParseFailed bool
	Suppressed  int // Occurrences dropped by the ignore marker
	Duplicates  int // Occurrences shadowed by an earlier line
}

// Names returns the number of distinct modules in the result.
func (r *Result) Names() int {
	if r == nil {
		return 0
	}
	return len(r.Imports)
}
