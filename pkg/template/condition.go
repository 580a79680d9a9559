package template

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var errUnsupported = errors.New("unsupported expression")

// evalCondition evaluates a conditional directive against b.
// Expressions outside the supported subset evaluate to false.
func evalCondition(expr string, b Bindings) bool {
	toks, err := scanExpr(expr)
	if err != nil {
		return false
	}
	p := &exprParser{toks: toks, bindings: b}
	v, err := p.parseOr()
	if err != nil || p.pos != len(p.toks) {
		return false
	}
	return truthy(v)
}

type exprKind int

const (
	exIdent exprKind = iota
	exString
	exNumber
	exOp
)

type exprToken struct {
	kind exprKind
	text string
}

var operators = []string{"===", "!==", "==", "!=", "&&", "||", "!", "(", ")"}

func scanExpr(s string) ([]exprToken, error) {
	var out []exprToken
	i := 0
	for i < len(s) {
		c := rune(s[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '\'' || c == '"':
			end := strings.IndexByte(s[i+1:], s[i])
			if end < 0 {
				return nil, errUnsupported
			}
			out = append(out, exprToken{kind: exString, text: s[i+1 : i+1+end]})
			i += end + 2
		case unicode.IsDigit(c):
			j := i
			for j < len(s) && (unicode.IsDigit(rune(s[j])) || s[j] == '.') {
				j++
			}
			out = append(out, exprToken{kind: exNumber, text: s[i:j]})
			i = j
		case isIdentStart(c):
			j := i
			for j < len(s) && (isIdentPart(rune(s[j])) || s[j] == '.') {
				j++
			}
			out = append(out, exprToken{kind: exIdent, text: s[i:j]})
			i = j
		default:
			matched := false
			for _, op := range operators {
				if strings.HasPrefix(s[i:], op) {
					out = append(out, exprToken{kind: exOp, text: op})
					i += len(op)
					matched = true
					break
				}
			}
			if !matched {
				return nil, fmt.Errorf("%w: %q", errUnsupported, s[i:])
			}
		}
	}
	return out, nil
}

func isIdentStart(c rune) bool {
	return c == '_' || c == '$' || unicode.IsLetter(c)
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || unicode.IsDigit(c)
}

type exprParser struct {
	toks     []exprToken
	pos      int
	bindings Bindings
}

func (p *exprParser) peekOp(op string) bool {
	return p.pos < len(p.toks) && p.toks[p.pos].kind == exOp && p.toks[p.pos].text == op
}

func (p *exprParser) parseOr() (any, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peekOp("||") {
		p.pos++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		if !truthy(left) {
			left = right
		}
	}
	return left, nil
}

func (p *exprParser) parseAnd() (any, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.peekOp("&&") {
		p.pos++
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		if truthy(left) {
			left = right
		}
	}
	return left, nil
}

func (p *exprParser) parseEquality() (any, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peekOp("==") || p.peekOp("===") || p.peekOp("!=") || p.peekOp("!==") {
		op := p.toks[p.pos].text
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		eq := looseEqual(left, right)
		if strings.HasPrefix(op, "!") {
			eq = !eq
		}
		left = eq
	}
	return left, nil
}

func (p *exprParser) parseUnary() (any, error) {
	if p.peekOp("!") {
		p.pos++
		v, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return !truthy(v), nil
	}
	return p.parsePrimary()
}

func (p *exprParser) parsePrimary() (any, error) {
	if p.pos >= len(p.toks) {
		return nil, errUnsupported
	}
	tok := p.toks[p.pos]
	p.pos++
	switch tok.kind {
	case exString:
		return tok.text, nil
	case exNumber:
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, errUnsupported
		}
		return f, nil
	case exIdent:
		// Calls such as fn(x) are outside the supported subset.
		if p.peekOp("(") {
			return nil, errUnsupported
		}
		switch tok.text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null", "undefined":
			return nil, nil
		}
		v, _ := p.bindings.Lookup(tok.text)
		return v, nil
	case exOp:
		if tok.text == "(" {
			v, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			if !p.peekOp(")") {
				return nil, errUnsupported
			}
			p.pos++
			return v, nil
		}
	}
	return nil, errUnsupported
}

func looseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return render(a) == render(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
