package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type token struct {
	text string
	line int // 1-based physical line the token ends on
}

var (
	threeCharOps = []string{"...", "**=", "//=", ">>=", "<<="}
	twoCharOps   = []string{
		"**", "//", "<<", ">>", "<=", ">=", "==", "!=", "->", ":=",
		"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=",
	}
	stringPrefixes = map[string]bool{
		"r": true, "u": true, "b": true, "f": true, "t": true,
		"br": true, "rb": true, "fr": true, "rf": true, "tr": true, "rt": true,
	}
)

// tokenStream lazily tokenizes the decoded line view from a given physical
// line onwards. Indentation and logical newlines are not reported.
type tokenStream struct {
	lines []string
	row   int
	col   int
}

func newTokenStream(lines []string, startLine int) *tokenStream {
	if startLine < 1 {
		startLine = 1
	}
	return &tokenStream{lines: lines, row: startLine - 1}
}

func (s *tokenStream) next() (token, bool) {
	for s.row < len(s.lines) {
		line := s.lines[s.row]
		if s.col >= len(line) {
			s.row++
			s.col = 0
			continue
		}

		c := line[s.col]
		switch {
		case c == ' ' || c == '\t' || c == '\f' || c == '\v':
			s.col++
		case c == '\\' && strings.TrimSpace(line[s.col+1:]) == "":
			s.row++
			s.col = 0
		case c == '#':
			tok := token{text: line[s.col:], line: s.row + 1}
			s.col = len(line)
			return tok, true
		case c == '"' || c == '\'':
			return s.lexString(s.col), true
		case isDigit(c) || (c == '.' && s.col+1 < len(line) && isDigit(line[s.col+1])):
			return s.lexNumber(), true
		default:
			r, size := utf8.DecodeRuneInString(line[s.col:])
			if isIdentStart(r) {
				return s.lexName(), true
			}
			return s.lexOp(size), true
		}
	}
	return token{}, false
}

// consumeUntil advances to the first token whose text equals text.
func (s *tokenStream) consumeUntil(text string) (token, bool) {
	for {
		tok, ok := s.next()
		if !ok {
			return token{}, false
		}
		if tok.text == text {
			return tok, true
		}
	}
}

func (s *tokenStream) lexName() token {
	line := s.lines[s.row]
	start := s.col
	for s.col < len(line) {
		r, size := utf8.DecodeRuneInString(line[s.col:])
		if !isIdentPart(r) {
			break
		}
		s.col += size
	}
	word := line[start:s.col]
	if s.col < len(line) && (line[s.col] == '"' || line[s.col] == '\'') && stringPrefixes[strings.ToLower(word)] {
		return s.lexString(start)
	}
	return token{text: word, line: s.row + 1}
}

func (s *tokenStream) lexNumber() token {
	line := s.lines[s.row]
	start := s.col
	for s.col < len(line) {
		c := line[s.col]
		if !isDigit(c) && !isASCIILetter(c) && c != '_' && c != '.' {
			break
		}
		s.col++
	}
	return token{text: line[start:s.col], line: s.row + 1}
}

func (s *tokenStream) lexOp(size int) token {
	line := s.lines[s.row]
	rest := line[s.col:]
	for _, group := range [][]string{threeCharOps, twoCharOps} {
		for _, op := range group {
			if strings.HasPrefix(rest, op) {
				s.col += len(op)
				return token{text: op, line: s.row + 1}
			}
		}
	}
	s.col += size
	return token{text: rest[:size], line: s.row + 1}
}

// lexString scans a string literal whose prefix starts at start. Triple
// quoted and backslash-continued literals may span several lines; an
// unterminated single-quoted literal ends at the end of its line.
func (s *tokenStream) lexString(start int) token {
	var b strings.Builder
	line := s.lines[s.row]
	pos := start
	for line[pos] != '"' && line[pos] != '\'' {
		pos++
	}
	quote := line[pos]
	delim := string(quote)
	if strings.HasPrefix(line[pos:], strings.Repeat(delim, 3)) {
		delim = strings.Repeat(delim, 3)
	}
	triple := len(delim) == 3
	pos += len(delim)
	seg := start
	escapedEOL := false

	for {
		if pos >= len(line) {
			b.WriteString(line[seg:])
			if !triple && !escapedEOL {
				s.col = len(line)
				return token{text: b.String(), line: s.row + 1}
			}
			if s.row+1 >= len(s.lines) {
				s.col = len(line)
				return token{text: b.String(), line: s.row + 1}
			}
			b.WriteByte('\n')
			s.row++
			line = s.lines[s.row]
			pos, seg = 0, 0
			escapedEOL = false
			continue
		}
		switch {
		case line[pos] == '\\':
			if pos+1 >= len(line) {
				escapedEOL = true
				pos = len(line)
			} else {
				pos += 2
			}
		case strings.HasPrefix(line[pos:], delim):
			pos += len(delim)
			b.WriteString(line[seg:pos])
			s.col = pos
			return token{text: b.String(), line: s.row + 1}
		default:
			pos++
		}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isASCIILetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r) || unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc)
}
