package template

import (
	"strings"

	"github.com/aretw0/gantry/pkg/domain"
)

const (
	openDelim  = "<%"
	closeDelim = "%>"
)

type tokenKind int

const (
	tokLiteral tokenKind = iota
	tokOutput
	tokCode
	tokComment
)

type token struct {
	kind tokenKind
	text string
	// offset of the token in the raw document, used for error positions.
	offset int
}

// lex splits raw into literal and marker tokens.
// It fails on an open delimiter without a close, a close without an open,
// or an open delimiter nested inside a marker.
func lex(raw string) ([]token, error) {
	var tokens []token
	pos := 0
	for pos < len(raw) {
		open := strings.Index(raw[pos:], openDelim)
		stray := strings.Index(raw[pos:], closeDelim)
		if stray >= 0 && (open < 0 || stray < open) {
			return nil, malformed(raw, pos+stray, "close delimiter without matching open")
		}
		if open < 0 {
			tokens = append(tokens, token{kind: tokLiteral, text: raw[pos:], offset: pos})
			break
		}
		open += pos
		if open > pos {
			tokens = append(tokens, token{kind: tokLiteral, text: raw[pos:open], offset: pos})
		}

		bodyStart := open + len(openDelim)
		end := strings.Index(raw[bodyStart:], closeDelim)
		if end < 0 {
			return nil, malformed(raw, open, "unterminated marker")
		}
		end += bodyStart
		body := raw[bodyStart:end]
		if nested := strings.Index(body, openDelim); nested >= 0 {
			return nil, malformed(raw, bodyStart+nested, "open delimiter inside marker")
		}

		pos = end + len(closeDelim)

		// "-%>" slurps the newline that follows the marker, "_%>" is accepted as-is.
		if strings.HasSuffix(body, "-") {
			body = body[:len(body)-1]
			pos = skipNewline(raw, pos)
		} else if strings.HasSuffix(body, "_") {
			body = body[:len(body)-1]
		}

		tokens = append(tokens, classify(body, open))
	}
	return tokens, nil
}

func classify(body string, offset int) token {
	if body == "" {
		return token{kind: tokCode, offset: offset}
	}
	switch body[0] {
	case '=', '-':
		return token{kind: tokOutput, text: strings.TrimSpace(body[1:]), offset: offset}
	case '#':
		return token{kind: tokComment, text: body[1:], offset: offset}
	case '_':
		return token{kind: tokCode, text: body[1:], offset: offset}
	default:
		return token{kind: tokCode, text: body, offset: offset}
	}
}

func skipNewline(raw string, pos int) int {
	if strings.HasPrefix(raw[pos:], "\r\n") {
		return pos + 2
	}
	if strings.HasPrefix(raw[pos:], "\n") {
		return pos + 1
	}
	return pos
}

func malformed(raw string, offset int, reason string) error {
	line, col := position(raw, offset)
	return &domain.MalformedTemplateError{Line: line, Column: col, Reason: reason}
}

// position converts a byte offset to a 1-based line and column.
func position(raw string, offset int) (int, int) {
	if offset > len(raw) {
		offset = len(raw)
	}
	prefix := raw[:offset]
	line := strings.Count(prefix, "\n") + 1
	col := offset - strings.LastIndex(prefix, "\n")
	return line, col
}
