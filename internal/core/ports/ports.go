package ports

import (
	"pyimports/internal/data/cache"
	"pyimports/internal/engine/parser"
)

// ImportExtractor analyzes the bytes of one source file. Implementations
// must be safe for concurrent use.
type ImportExtractor interface {
	Extract(path string, content []byte) *parser.Result
	Options() parser.Options
}

// ResultCache stores analysis outcomes keyed by cache.Key.
type ResultCache interface {
	Get(key string) (cache.Entry, cache.Tier, bool)
	Put(key string, entry cache.Entry) error
	Len() int
	Close() error
}

var (
	_ ImportExtractor = (*parser.Extractor)(nil)
	_ ResultCache     = (*cache.ResultCache)(nil)
)
