package parser

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

const LanguagePython = "python"

var (
	pythonExtensions   = []string{".py", ".pyi"}
	pythonTestPrefixes = []string{"test_"}
	pythonTestSuffixes = []string{"_test.py", "_test.pyi"}
)

var pythonLanguage = sync.OnceValue(func() *sitter.Language {
	return sitter.NewLanguage(tree_sitter_python.Language())
})

// IsPythonPath reports whether the file extension belongs to Python sources.
func IsPythonPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range pythonExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// IsTestFile reports whether a Python file follows a test naming convention.
func IsTestFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	if !IsPythonPath(base) {
		return false
	}
	for _, prefix := range pythonTestPrefixes {
		if strings.HasPrefix(base, prefix) {
			return true
		}
	}
	for _, suffix := range pythonTestSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}
