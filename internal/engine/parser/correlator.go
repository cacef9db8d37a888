package parser

import "strings"

// importedName is one entry of an import statement's name list.
type importedName struct {
	Name  string // dotted name as written, e.g. "os.path" or "*"
	Alias string
}

func (n importedName) lastComponent() string {
	if i := strings.LastIndex(n.Name, "."); i >= 0 {
		return n.Name[i+1:]
	}
	return n.Name
}

// lineCorrelator recovers the physical line of every name in a multi-name
// import statement by re-tokenizing the source from the statement's first line.
type lineCorrelator struct {
	src *SourceUnit
}

// Lines returns one line number per name, in order. A zero entry means the
// token stream ran out before the name was found; every later entry is zero too.
func (c lineCorrelator) Lines(stmtLine int, names []importedName) []int {
	lines := make([]int, len(names))
	stream := newTokenStream(c.src.Lines, stmtLine)
	if _, ok := stream.consumeUntil("import"); !ok {
		return lines
	}

	for i, name := range names {
		tok, ok := stream.consumeUntil(name.lastComponent())
		if !ok {
			return lines
		}
		// A trailing backslash continues the logical line; the name belongs
		// to wherever the continuation ends.
		line := tok.line
		for line < len(c.src.Lines) && strings.HasSuffix(c.src.Line(line), "\\") {
			line++
		}
		lines[i] = line

		if name.Alias != "" && tok.text != name.Alias {
			if _, ok := stream.consumeUntil(name.Alias); !ok {
				return lines
			}
		}
	}
	return lines
}
