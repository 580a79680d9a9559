package template

import "strings"

type stmtKind int

const (
	stmtIf stmtKind = iota
	stmtElseIf
	stmtElse
	stmtClose
	stmtOpen
)

type statement struct {
	kind stmtKind
	cond string
}

// scanStatements extracts the block structure of a scriptlet.
// Recognised directives are `if (c) {`, `} else if (c) {`, `} else {` and `}`.
// Other braces become opaque blocks; all other code is ignored.
func scanStatements(code string) []statement {
	var out []statement
	s := code
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '\'' || c == '"' || c == '`':
			i = skipString(s, i)
		case c == '}':
			i++
			j := skipSpace(s, i)
			if keywordAt(s, j, "else") {
				j = skipSpace(s, j+len("else"))
				if keywordAt(s, j, "if") {
					cond, next, ok := parenthesized(s, skipSpace(s, j+len("if")))
					if ok {
						next = skipSpace(s, next)
						if next < len(s) && s[next] == '{' {
							out = append(out, statement{kind: stmtElseIf, cond: cond})
							i = next + 1
							continue
						}
					}
					// Brace-less else-if: treat as a close followed by opaque code.
					out = append(out, statement{kind: stmtClose})
					i = next
					continue
				}
				if j < len(s) && s[j] == '{' {
					out = append(out, statement{kind: stmtElse})
					i = j + 1
					continue
				}
			}
			out = append(out, statement{kind: stmtClose})
		case c == '{':
			out = append(out, statement{kind: stmtOpen})
			i++
		case keywordAt(s, i, "if"):
			cond, next, ok := parenthesized(s, skipSpace(s, i+len("if")))
			if !ok {
				i = next
				continue
			}
			next = skipSpace(s, next)
			if next < len(s) && s[next] == '{' {
				out = append(out, statement{kind: stmtIf, cond: cond})
				i = next + 1
				continue
			}
			i = next
		default:
			i++
		}
	}
	return out
}

func skipSpace(s string, i int) int {
	for i < len(s) && strings.ContainsRune(" \t\r\n", rune(s[i])) {
		i++
	}
	return i
}

func skipString(s string, i int) int {
	quote := s[i]
	for j := i + 1; j < len(s); j++ {
		if s[j] == '\\' {
			j++
			continue
		}
		if s[j] == quote {
			return j + 1
		}
	}
	return len(s)
}

// keywordAt reports whether kw starts at i as a whole word.
func keywordAt(s string, i int, kw string) bool {
	if i < 0 || !strings.HasPrefix(s[i:], kw) {
		return false
	}
	if i > 0 && (isIdentPart(rune(s[i-1])) || s[i-1] == '.') {
		return false
	}
	end := i + len(kw)
	return end >= len(s) || !isIdentPart(rune(s[end]))
}

// parenthesized returns the contents of the balanced parentheses starting at i.
func parenthesized(s string, i int) (string, int, bool) {
	if i >= len(s) || s[i] != '(' {
		return "", i, false
	}
	depth := 0
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '\'', '"', '`':
			j = skipString(s, j) - 1
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[i+1 : j], j + 1, true
			}
		}
	}
	return "", len(s), false
}
