package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// callShape classifies call expressions. Only callImportLiteral contributes
// an occurrence; the other arms are listed so that skipping is explicit.
type callShape int

const (
	callOther              callShape = iota // not a dynamic import
	callImportLiteral                       // __import__("pkg.mod")
	callImportUnrecognized                  // __import__ with any other argument shape
)

type PythonExtractor struct {
	strings *stringMatcher // nil when string imports are disabled
}

func NewPythonExtractor(opts Options) (*PythonExtractor, error) {
	e := &PythonExtractor{}
	if opts.StringImports {
		m, err := newStringMatcher(opts.MinDots)
		if err != nil {
			return nil, err
		}
		e.strings = m
	}
	return e, nil
}

func (e *PythonExtractor) Extract(root *sitter.Node, src *SourceUnit) *Result {
	ctx := NewExtractionContext(src)
	handlers := map[string]NodeHandler{
		"import_statement":        e.extractImport,
		"import_from_statement":   e.extractFromImport,
		"future_import_statement": e.extractFutureImport,
		"call":                    e.extractCall,
	}
	if e.strings != nil {
		handlers["string"] = e.extractString
		handlers["concatenated_string"] = e.extractString
		handlers["format_specifier"] = e.extractFormatSpec
	}
	NewExtractorEngine(handlers).Walk(ctx, root)
	return ctx.Result
}

func (e *PythonExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	var names []importedName
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if name, ok := e.importedName(ctx, node.NamedChild(i)); ok {
			names = append(names, name)
		}
	}
	e.addStatement(ctx, node, "", names)
	return true
}

func (e *PythonExtractor) extractFromImport(ctx *ExtractionContext, node *sitter.Node) bool {
	var (
		module    string
		level     int
		names     []importedName
		sawImport bool
	)

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "import" {
			sawImport = true
			continue
		}
		if !sawImport {
			switch child.Kind() {
			case "relative_import":
				level, module = e.relativeModule(ctx, child)
			case "dotted_name":
				module = ctx.DottedName(child)
			}
			continue
		}
		if name, ok := e.importedName(ctx, child); ok {
			names = append(names, name)
		}
	}

	e.addStatement(ctx, node, ResolveModule(ctx.Package, level, module)+".", names)
	return true
}

func (e *PythonExtractor) extractFutureImport(ctx *ExtractionContext, node *sitter.Node) bool {
	var names []importedName
	sawImport := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() == "import" {
			sawImport = true
			continue
		}
		if !sawImport {
			continue
		}
		if name, ok := e.importedName(ctx, child); ok {
			names = append(names, name)
		}
	}
	e.addStatement(ctx, node, "__future__.", names)
	return true
}

func (e *PythonExtractor) relativeModule(ctx *ExtractionContext, node *sitter.Node) (int, string) {
	level := 0
	module := ""
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "import_prefix":
			level = strings.Count(ctx.Text(child), ".")
		case "dotted_name":
			module = ctx.DottedName(child)
		}
	}
	return level, module
}

func (e *PythonExtractor) importedName(ctx *ExtractionContext, node *sitter.Node) (importedName, bool) {
	switch node.Kind() {
	case "dotted_name", "identifier":
		return importedName{Name: ctx.DottedName(node)}, true
	case "aliased_import":
		return importedName{
			Name:  ctx.DottedName(node.ChildByFieldName("name")),
			Alias: ctx.Text(node.ChildByFieldName("alias")),
		}, true
	case "wildcard_import":
		return importedName{Name: "*"}, true
	}
	return importedName{}, false
}

// addStatement correlates each name with its physical line and records it
// as prefix+name. prefix is empty for plain imports and ends in a dot for
// from-imports, even when the resolved module itself is empty.
func (e *PythonExtractor) addStatement(ctx *ExtractionContext, node *sitter.Node, prefix string, names []importedName) {
	if len(names) == 0 {
		return
	}
	lines := lineCorrelator{src: ctx.Source}.Lines(ctx.Line(node), names)
	for i, name := range names {
		if lines[i] == 0 {
			return
		}
		ctx.Add(Occurrence{Name: prefix + name.Name, Line: lines[i]})
	}
}

func (e *PythonExtractor) extractCall(ctx *ExtractionContext, node *sitter.Node) bool {
	shape, arg := e.classifyCall(ctx, node)
	switch shape {
	case callImportLiteral:
		if value, ok := ctx.Literal(arg).Value(); ok {
			ctx.Add(Occurrence{Name: value, Line: ctx.Line(arg)})
		}
		return true
	case callImportUnrecognized:
		return false
	case callOther:
		return false
	}
	return false
}

func (e *PythonExtractor) classifyCall(ctx *ExtractionContext, node *sitter.Node) (callShape, *sitter.Node) {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return callOther, nil
	}
	// (__import__)("x") is the same call.
	fn = unwrapParens(fn)
	if fn.Kind() != "identifier" || ctx.Text(fn) != "__import__" {
		return callOther, nil
	}
	args := node.ChildByFieldName("arguments")
	if args == nil || args.Kind() != "argument_list" {
		return callImportUnrecognized, nil
	}

	var positional []*sitter.Node
	for i := uint(0); i < args.NamedChildCount(); i++ {
		child := args.NamedChild(i)
		if child.Kind() == "comment" {
			continue
		}
		positional = append(positional, child)
	}
	if len(positional) != 1 {
		return callImportUnrecognized, nil
	}

	arg := unwrapParens(positional[0])
	if arg.Kind() != "string" && arg.Kind() != "concatenated_string" {
		return callImportUnrecognized, nil
	}
	if _, ok := ctx.Literal(arg).Value(); !ok {
		return callImportUnrecognized, nil
	}
	return callImportLiteral, arg
}

func unwrapParens(node *sitter.Node) *sitter.Node {
	for node.Kind() == "parenthesized_expression" {
		var inner *sitter.Node
		for i := uint(0); i < node.NamedChildCount(); i++ {
			if child := node.NamedChild(i); child.Kind() != "comment" {
				inner = child
				break
			}
		}
		if inner == nil {
			return node
		}
		node = inner
	}
	return node
}

// extractString applies the dotted-path heuristic to string constants. The
// walker still descends so that literals inside f-string interpolations are seen.
func (e *PythonExtractor) extractString(ctx *ExtractionContext, node *sitter.Node) bool {
	if parent := node.Parent(); parent != nil && parent.Kind() == "concatenated_string" {
		return false
	}
	lit := ctx.Literal(node)
	if lit.Bytes {
		return false
	}
	line := ctx.Line(node)
	for _, chunk := range lit.Chunks {
		if e.strings.Match(chunk) {
			ctx.Add(Occurrence{Name: chunk, Line: line})
		}
	}
	return false
}

// extractFormatSpec applies the heuristic to the literal text of an f-string
// format spec such as the "c.d" in f"{v:c.d}". Nested replacement fields are
// left to the walker.
func (e *PythonExtractor) extractFormatSpec(ctx *ExtractionContext, node *sitter.Node) bool {
	line := ctx.Line(node)
	for _, chunk := range ctx.FormatSpecChunks(node) {
		if e.strings.Match(chunk) {
			ctx.Add(Occurrence{Name: chunk, Line: line})
		}
	}
	return false
}
