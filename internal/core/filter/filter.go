package filter

import (
	"path/filepath"

	"github.com/gobwas/glob"

	"pyimports/internal/engine/parser"
	"pyimports/internal/shared/util"
)

// Filter decides which directories and files a scan or watch visits.
// Patterns without a separator match the base name; patterns with one match
// the slash-normalized path.
type Filter struct {
	dirs         []pattern
	files        []pattern
	includeTests bool
}

type pattern struct {
	g        glob.Glob
	fullPath bool
}

func New(excludeDirs, excludeFiles []string, includeTests bool) (*Filter, error) {
	dirs, err := compile(excludeDirs)
	if err != nil {
		return nil, err
	}
	files, err := compile(excludeFiles)
	if err != nil {
		return nil, err
	}
	return &Filter{dirs: dirs, files: files, includeTests: includeTests}, nil
}

func compile(patterns []string) ([]pattern, error) {
	out := make([]pattern, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(util.NormalizePatternPath(p), '/')
		if err != nil {
			return nil, err
		}
		out = append(out, pattern{g: g, fullPath: util.ContainsPathSeparator(p)})
	}
	return out, nil
}

// SkipDir reports whether a directory and everything below it is excluded.
func (f *Filter) SkipDir(path string) bool {
	return f != nil && matchAny(f.dirs, path)
}

// SkipFile reports whether a file is outside the analyzed set: not Python,
// a test module when tests are excluded, or matched by a file pattern.
func (f *Filter) SkipFile(path string) bool {
	if !parser.IsPythonPath(path) {
		return true
	}
	if f == nil {
		return false
	}
	if !f.includeTests && parser.IsTestFile(path) {
		return true
	}
	return matchAny(f.files, path)
}

func matchAny(patterns []pattern, path string) bool {
	base := filepath.Base(path)
	normalized := util.NormalizePatternPath(path)
	for _, p := range patterns {
		if p.fullPath {
			if p.g.Match(normalized) {
				return true
			}
			continue
		}
		if p.g.Match(base) {
			return true
		}
	}
	return false
}
