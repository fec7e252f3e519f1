package parser

import "strings"

const tabSize = 8

// indentLevel is a block's indentation measured with tab stops of 8 (col) and
// of 1 (alt). Two lines agree only when both measures agree, which is how
// CPython rejects ambiguous mixes of tabs and spaces.
type indentLevel struct {
	col int
	alt int
}

// CheckIndentation runs a tokenizer-level indentation check over Python
// source. It understands strings, brackets, comments and backslash
// continuations well enough to find logical line starts; everything else is
// left to the grammar.
func CheckIndentation(source []byte) *Diagnostic {
	var s lineScanner
	stack := []indentLevel{{}}
	expectIndent := false

	lines := strings.Split(string(source), "\n")
	for i, raw := range lines {
		line := strings.TrimSuffix(raw, "\r")
		lineNo := i + 1

		if s.inLogicalLine() {
			s.scan(line)
			if !s.inLogicalLine() {
				expectIndent = s.last == ':'
			}
			continue
		}

		level, rest := measureIndent(line)
		if trimmed := strings.TrimSpace(rest); trimmed == "" || trimmed[0] == '#' {
			continue
		}

		top := stack[len(stack)-1]
		switch {
		case expectIndent:
			if level.col <= top.col {
				return indentDiag(lineNo, level, "expected an indented block")
			}
			if level.alt <= top.alt {
				return indentDiag(lineNo, level, "inconsistent use of tabs and spaces in indentation")
			}
			stack = append(stack, level)
		case level.col == top.col:
			if level.alt != top.alt {
				return indentDiag(lineNo, level, "inconsistent use of tabs and spaces in indentation")
			}
		case level.col > top.col:
			return indentDiag(lineNo, level, "unexpected indent")
		default:
			for len(stack) > 1 && level.col < stack[len(stack)-1].col {
				stack = stack[:len(stack)-1]
			}
			top = stack[len(stack)-1]
			if level.col != top.col {
				return indentDiag(lineNo, level, "unindent does not match any outer indentation level")
			}
			if level.alt != top.alt {
				return indentDiag(lineNo, level, "inconsistent use of tabs and spaces in indentation")
			}
		}

		s.last = 0
		s.scan(rest)
		expectIndent = false
		if !s.inLogicalLine() {
			expectIndent = s.last == ':'
		}
	}

	if expectIndent {
		return &Diagnostic{
			Kind:    DiagIndentation,
			Line:    len(lines),
			Column:  1,
			Message: "expected an indented block",
		}
	}
	return nil
}

func indentDiag(line int, level indentLevel, msg string) *Diagnostic {
	return &Diagnostic{
		Kind:    DiagIndentation,
		Line:    line,
		Column:  level.col + 1,
		Message: msg,
	}
}

// measureIndent returns the indentation of a physical line and the remainder.
func measureIndent(line string) (indentLevel, string) {
	var level indentLevel
	i := 0
	for ; i < len(line); i++ {
		switch line[i] {
		case ' ':
			level.col++
			level.alt++
		case '\t':
			level.col = (level.col/tabSize + 1) * tabSize
			level.alt++
		case '\f':
			level = indentLevel{}
		default:
			return level, line[i:]
		}
	}
	return level, ""
}

// lineScanner carries lexical state across the physical lines of one logical line.
type lineScanner struct {
	quote     byte // opening quote of the string being scanned, 0 outside strings
	triple    bool
	depth     int
	continued bool
	last      byte // last significant character outside comments
}

func (s *lineScanner) inLogicalLine() bool {
	return s.quote != 0 || s.depth > 0 || s.continued
}

func (s *lineScanner) scan(line string) {
	s.continued = false

scanLoop:
	for i := 0; i < len(line); i++ {
		c := line[i]

		if s.quote != 0 {
			switch {
			case c == '\\':
				if i == len(line)-1 {
					s.continued = true
				}
				i++
			case c == s.quote && !s.triple:
				s.quote = 0
				s.last = c
			case c == s.quote && i+2 < len(line) && line[i+1] == c && line[i+2] == c:
				s.quote = 0
				s.triple = false
				s.last = c
				i += 2
			}
			continue
		}

		switch c {
		case '#':
			break scanLoop
		case '\'', '"':
			s.quote = c
			s.triple = i+2 < len(line) && line[i+1] == c && line[i+2] == c
			if s.triple {
				i += 2
			}
			s.last = c
		case '(', '[', '{':
			s.depth++
			s.last = c
		case ')', ']', '}':
			if s.depth > 0 {
				s.depth--
			}
			s.last = c
		case '\\':
			if i == len(line)-1 {
				s.continued = true
			}
		case ' ', '\t', '\f':
		default:
			s.last = c
		}
	}

	// A single-quoted string cannot span lines without an escaped newline.
	if s.quote != 0 && !s.triple && !s.continued {
		s.quote = 0
	}
}
