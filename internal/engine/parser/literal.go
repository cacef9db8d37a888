package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// stringLiteral is the decoded value of a string or concatenated_string node.
// Chunks holds the literal text between f-string interpolations; a plain
// literal has exactly one chunk.
type stringLiteral struct {
	Chunks       []string
	Bytes        bool
	Formatted    bool
	Interpolated bool
}

// Value returns the literal's value when it is a plain str constant.
func (l stringLiteral) Value() (string, bool) {
	if l.Bytes || l.Formatted || len(l.Chunks) != 1 {
		return "", false
	}
	return l.Chunks[0], true
}

func (c *ExtractionContext) Literal(node *sitter.Node) stringLiteral {
	var lit stringLiteral
	switch node.Kind() {
	case "string":
		c.appendStringPart(&lit, node, true)
	case "concatenated_string":
		first := true
		for i := uint(0); i < node.NamedChildCount(); i++ {
			part := node.NamedChild(i)
			if part.Kind() != "string" {
				continue
			}
			c.appendStringPart(&lit, part, first)
			first = false
		}
	}
	if len(lit.Chunks) == 0 {
		lit.Chunks = []string{""}
	}
	return lit
}

// appendStringPart decodes one string node. Adjacent literal text merges
// across implicit concatenation, matching how the parts join at runtime.
func (c *ExtractionContext) appendStringPart(lit *stringLiteral, node *sitter.Node, first bool) {
	count := node.ChildCount()
	if count < 2 {
		return
	}
	start := node.Child(0)
	end := node.Child(count - 1)
	prefix := strings.ToLower(strings.TrimRight(c.Text(start), `"'`))
	raw := strings.ContainsRune(prefix, 'r')
	formatted := strings.ContainsAny(prefix, "ft")
	if strings.ContainsRune(prefix, 'b') {
		lit.Bytes = true
	}
	if formatted {
		lit.Formatted = true
	}

	if first || len(lit.Chunks) == 0 {
		lit.Chunks = append(lit.Chunks, "")
	}
	cursor := start.EndByte()
	for i := uint(1); i < count-1; i++ {
		child := node.Child(i)
		if child.Kind() != "interpolation" {
			continue
		}
		c.appendChunkText(lit, cursor, child.StartByte(), raw, formatted)
		lit.Chunks = append(lit.Chunks, "")
		lit.Interpolated = true
		cursor = child.EndByte()
	}
	c.appendChunkText(lit, cursor, end.StartByte(), raw, formatted)
}

func (c *ExtractionContext) appendChunkText(lit *stringLiteral, from, to uint, raw, formatted bool) {
	if to <= from {
		return
	}
	last := len(lit.Chunks) - 1
	lit.Chunks[last] += unescapePython(string(c.Source.Raw[from:to]), raw, formatted)
}

// FormatSpecChunks returns the decoded literal pieces of a format_specifier
// node, split around nested replacement fields. The leading ':' is dropped
// and empty pieces are omitted.
func (c *ExtractionContext) FormatSpecChunks(node *sitter.Node) []string {
	raw := false
	for p := node.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == "string" {
			if start := p.Child(0); start != nil {
				raw = strings.ContainsRune(strings.ToLower(c.Text(start)), 'r')
			}
			break
		}
	}

	var chunks []string
	add := func(from, to uint) {
		if to > from {
			if text := unescapePython(string(c.Source.Raw[from:to]), raw, true); text != "" {
				chunks = append(chunks, text)
			}
		}
	}

	cursor := node.StartByte()
	if cursor < uint(len(c.Source.Raw)) && c.Source.Raw[cursor] == ':' {
		cursor++
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		add(cursor, child.StartByte())
		cursor = child.EndByte()
	}
	add(cursor, node.EndByte())
	return chunks
}

// unescapePython interprets backslash escapes the way the interpreter does for
// str literals. Named escapes (\N{...}) are kept verbatim.
func unescapePython(s string, raw, formatted bool) string {
	if !strings.ContainsAny(s, `\{}`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		ch := s[i]
		if formatted && (ch == '{' || ch == '}') && i+1 < len(s) && s[i+1] == ch {
			b.WriteByte(ch)
			i += 2
			continue
		}
		if raw || ch != '\\' || i+1 >= len(s) {
			b.WriteByte(ch)
			i++
			continue
		}

		next := s[i+1]
		switch next {
		case '\n':
			i += 2
		case '\r':
			i += 2
			if i < len(s) && s[i] == '\n' {
				i++
			}
		case '\\', '\'', '"':
			b.WriteByte(next)
			i += 2
		case 'a':
			b.WriteByte('\a')
			i += 2
		case 'b':
			b.WriteByte('\b')
			i += 2
		case 'f':
			b.WriteByte('\f')
			i += 2
		case 'n':
			b.WriteByte('\n')
			i += 2
		case 'r':
			b.WriteByte('\r')
			i += 2
		case 't':
			b.WriteByte('\t')
			i += 2
		case 'v':
			b.WriteByte('\v')
			i += 2
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[next]
			if r, ok := parseCodePoint(s, i+2, width, 16); ok {
				b.WriteRune(r)
				i += 2 + width
			} else {
				b.WriteString(s[i : i+2])
				i += 2
			}
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i + 1
			for j < len(s) && j < i+4 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i+1:j], 8, 32)
			b.WriteRune(rune(v))
			i = j
		default:
			b.WriteByte('\\')
			b.WriteByte(next)
			i += 2
		}
	}
	return b.String()
}

func parseCodePoint(s string, at, width, base int) (rune, bool) {
	if at+width > len(s) {
		return 0, false
	}
	v, err := strconv.ParseUint(s[at:at+width], base, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, false
	}
	return rune(v), true
}

// stringMatcher flags string constants shaped like dotted module paths.
type stringMatcher struct {
	re *regexp.Regexp
}

func newStringMatcher(minDots int) (*stringMatcher, error) {
	// A trailing newline is allowed before the end, as Python's "$" allows it.
	pattern := `^([a-z_][a-z_\p{Nd}]*\.){` + strconv.Itoa(minDots) + `,}[a-zA-Z_][\p{L}\p{N}_]*\n?$`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &stringMatcher{re: re}, nil
}

func (m *stringMatcher) Match(s string) bool {
	return m != nil && m.re.MatchString(s)
}
