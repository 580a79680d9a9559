package template

import (
	"regexp"
	"strings"
)

// Reducer turns a template document into concrete text for one binding environment.
// It is safe for concurrent use; Reduce has no side effects.
type Reducer struct {
	fields map[string]string
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithField replaces a marker that is the entire quoted value of the JSON field
// key with value, regardless of what the marker expression is.
// `"name": "<%= slugify(appname) %>"` becomes `"name": "tempApp"`.
func WithField(key, value string) Option {
	return func(r *Reducer) {
		r.fields[key] = value
	}
}

// New creates a Reducer.
func New(opts ...Option) *Reducer {
	r := &Reducer{fields: make(map[string]string)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reduce reduces raw with the default Reducer.
func Reduce(raw string, b Bindings) (string, error) {
	return New().Reduce(raw, b)
}

var fieldPrefix = regexp.MustCompile(`"([^"\\]+)"\s*:\s*"$`)

// Reduce resolves every substitution marker, evaluates conditional blocks
// and strips all remaining markers. It fails with *domain.MalformedTemplateError
// when marker delimiters or conditional blocks are unbalanced.
func (r *Reducer) Reduce(raw string, b Bindings) (string, error) {
	tokens, err := lex(raw)
	if err != nil {
		return "", err
	}
	tokens = r.substitute(tokens, b)
	out, err := structure(raw, tokens, b)
	if err != nil {
		return "", err
	}
	return defang(out), nil
}

// substitute is the first pass: field overrides, then bound names.
// Unbound names resolve to the empty string.
func (r *Reducer) substitute(tokens []token, b Bindings) []token {
	out := make([]token, len(tokens))
	copy(out, tokens)
	for i, tok := range out {
		if tok.kind != tokOutput {
			continue
		}
		if v, ok := r.fieldOverride(out, i); ok {
			out[i] = token{kind: tokLiteral, text: v, offset: tok.offset}
			continue
		}
		v, _ := b.Lookup(tok.text)
		out[i] = token{kind: tokLiteral, text: render(v), offset: tok.offset}
	}
	return out
}

func (r *Reducer) fieldOverride(tokens []token, i int) (string, bool) {
	if len(r.fields) == 0 || i == 0 || i+1 >= len(tokens) {
		return "", false
	}
	prev, next := tokens[i-1], tokens[i+1]
	if prev.kind != tokLiteral || next.kind != tokLiteral || !strings.HasPrefix(next.text, `"`) {
		return "", false
	}
	m := fieldPrefix.FindStringSubmatch(prev.text)
	if m == nil {
		return "", false
	}
	v, ok := r.fields[m[1]]
	return v, ok
}

// frame tracks one open block. Opaque frames come from braces in code that is
// not a recognised directive and inherit the enclosing state.
type frame struct {
	parent bool
	taken  bool
	active bool
	opaque bool
}

// structure is the second pass: it evaluates conditional blocks and drops
// every remaining marker, leaving only literal segments.
func structure(raw string, tokens []token, b Bindings) (string, error) {
	var sb strings.Builder
	var stack []frame
	active := func() bool {
		if len(stack) == 0 {
			return true
		}
		return stack[len(stack)-1].active
	}

	for _, tok := range tokens {
		switch tok.kind {
		case tokLiteral:
			if active() {
				sb.WriteString(tok.text)
			}
		case tokCode:
			for _, st := range scanStatements(tok.text) {
				switch st.kind {
				case stmtIf:
					cond := active() && evalCondition(st.cond, b)
					stack = append(stack, frame{parent: active(), taken: cond, active: cond})
				case stmtOpen:
					stack = append(stack, frame{parent: active(), active: active(), opaque: true})
				case stmtClose:
					if len(stack) == 0 {
						return "", malformed(raw, tok.offset, "unbalanced '}' without open block")
					}
					stack = stack[:len(stack)-1]
				case stmtElseIf, stmtElse:
					if len(stack) == 0 {
						return "", malformed(raw, tok.offset, "else without open block")
					}
					top := &stack[len(stack)-1]
					if top.opaque {
						top.active = top.parent
						continue
					}
					if st.kind == stmtElse {
						top.active = top.parent && !top.taken
						top.taken = true
						continue
					}
					if !top.taken && top.parent && evalCondition(st.cond, b) {
						top.active = true
						top.taken = true
					} else {
						top.active = false
					}
				}
			}
		case tokComment, tokOutput:
			// Comments are dropped; outputs were resolved by the first pass.
		}
	}
	if len(stack) > 0 {
		return "", malformed(raw, len(raw), "unclosed conditional block")
	}
	return sb.String(), nil
}

// defang removes delimiter sequences formed by joining adjacent literals or
// by substituted values, so no marker syntax survives reduction.
func defang(s string) string {
	for strings.Contains(s, openDelim) || strings.Contains(s, closeDelim) {
		s = strings.ReplaceAll(s, openDelim, "")
		s = strings.ReplaceAll(s, closeDelim, "")
	}
	return s
}
