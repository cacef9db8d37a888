package parser

import (
	"os"
	"strings"
)

// SourceUnit holds a file's raw bytes and a decoded line view used only for
// textual inspection. Parsing always runs on Raw.
type SourceUnit struct {
	Path  string
	Raw   []byte
	Lines []string
}

func NewSourceUnit(path string, raw []byte) *SourceUnit {
	return &SourceUnit{
		Path:  path,
		Raw:   raw,
		Lines: decodeLines(raw),
	}
}

// Line returns the text of a 1-based physical line, or "" when out of range.
func (s *SourceUnit) Line(n int) string {
	if n < 1 || n > len(s.Lines) {
		return ""
	}
	return s.Lines[n-1]
}

// decodeLines splits on '\n' only so line numbers agree with tree-sitter rows.
func decodeLines(raw []byte) []string {
	text := strings.ToValidUTF8(string(raw), "\uFFFD")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// PackageContext returns the directory segments of filename. It follows
// dirname semantics: a bare file name yields a single empty segment.
func PackageContext(filename string) []string {
	return packageContext(filename, string(os.PathSeparator))
}

func packageContext(filename, sep string) []string {
	dir := ""
	if i := strings.LastIndex(filename, sep); i >= 0 {
		dir = filename[:i+1]
		if strings.Trim(dir, sep) != "" {
			dir = strings.TrimRight(dir, sep)
		}
	}
	return strings.Split(dir, sep)
}
