package parser

import (
	"fmt"
	"os"

	"pyimports/internal/core/errors"
)

// Extractor is the per-file import analyzer. It holds no per-file state and
// may be shared between goroutines.
type Extractor struct {
	opts   Options
	pool   *ParserPool
	python *PythonExtractor
}

func NewExtractor(opts Options) (*Extractor, error) {
	if err := ValidateOptions(opts); err != nil {
		return nil, err
	}
	python, err := NewPythonExtractor(opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "compile string import pattern")
	}
	return &Extractor{
		opts:   opts,
		pool:   NewParserPool(pythonLanguage()),
		python: python,
	}, nil
}

func ValidateOptions(opts Options) error {
	if opts.MinDots < 0 || opts.MinDots > MaxMinDots {
		return errors.New(errors.CodeValidationError, fmt.Sprintf("min dots must be between 0 and %d, got %d", MaxMinDots, opts.MinDots))
	}
	return nil
}

func (x *Extractor) Options() Options {
	return x.opts
}

// ExtractFile reads path and analyzes it. Only I/O failures are errors;
// unparseable content yields an empty result.
func (x *Extractor) ExtractFile(path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		code := errors.CodeInternal
		if os.IsNotExist(err) {
			code = errors.CodeNotFound
		}
		return nil, errors.AddContext(errors.Wrap(err, code, "read source file"), errors.CtxPath, path)
	}
	return x.Extract(path, content), nil
}

// Extract analyzes content as the file at path. path only feeds the package
// context used for relative imports.
func (x *Extractor) Extract(path string, content []byte) *Result {
	src := NewSourceUnit(path, content)

	sp := x.pool.Get()
	defer x.pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return failedResult(path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || root.HasError() {
		return failedResult(path)
	}
	return x.python.Extract(root, src)
}

func failedResult(path string) *Result {
	return &Result{Path: path, Imports: make(ImportMap), ParseFailed: true}
}
