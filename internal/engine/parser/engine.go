package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes a node for the import extractor.
// Returns true if the handler has consumed the node and the walker should not descend.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// ExtractionContext carries the per-file state shared by all handlers.
type ExtractionContext struct {
	Source  *SourceUnit
	Package []string
	Result  *Result
}

func NewExtractionContext(src *SourceUnit) *ExtractionContext {
	return &ExtractionContext{
		Source:  src,
		Package: PackageContext(src.Path),
		Result: &Result{
			Path:    src.Path,
			Imports: make(ImportMap),
		},
	}
}

// ExtractorEngine walks the syntax tree in document order and dispatches
// node handlers by kind.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}

	if handler, ok := e.handlers[node.Kind()]; ok && handler(ctx, node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		e.Walk(ctx, node.Child(i))
	}
}

// Add records an occurrence. Suppressed occurrences are dropped without
// reserving the name; for everything else the first line wins.
func (c *ExtractionContext) Add(occ Occurrence) bool {
	if isSuppressed(c.Source, occ.Line) {
		c.Result.Suppressed++
		return false
	}
	if _, exists := c.Result.Imports[occ.Name]; exists {
		c.Result.Duplicates++
		return false
	}
	c.Result.Imports[occ.Name] = occ.Line
	return true
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source.Raw[node.StartByte():node.EndByte()])
}

// Line returns the 1-based line a node starts on.
func (c *ExtractionContext) Line(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

// DottedName normalizes an identifier or dotted_name node to "a.b.c",
// dropping any whitespace or comments between the components.
func (c *ExtractionContext) DottedName(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	if node.Kind() == "identifier" {
		return c.Text(node)
	}
	var parts []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() == "identifier" {
			parts = append(parts, c.Text(child))
		}
	}
	return strings.Join(parts, ".")
}
