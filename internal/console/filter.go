package console

import (
	"strings"
)

// TextFilter matches lines against an expression of space or comma separated
// tokens. A token prefixed with '-' excludes lines containing it; any other
// token includes lines containing it. Matching is case-insensitive.
type TextFilter struct {
	expr    string
	include []string
	exclude []string
}

// NewTextFilter returns a filter initialised with expr.
func NewTextFilter(expr string) *TextFilter {
	f := &TextFilter{}
	f.Set(expr)
	return f
}

// Set replaces the filter expression.
func (f *TextFilter) Set(expr string) {
	f.expr = expr
	f.include = f.include[:0]
	f.exclude = f.exclude[:0]
	tokens := strings.FieldsFunc(expr, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	for _, tok := range tokens {
		tok = strings.ToLower(tok)
		if strings.HasPrefix(tok, "-") {
			// a lone "-" carries no token
			if tok = tok[1:]; tok != "" {
				f.exclude = append(f.exclude, tok)
			}
			continue
		}
		f.include = append(f.include, tok)
	}
}

// Expr returns the expression last passed to Set.
func (f *TextFilter) Expr() string { return f.expr }

// Active reports whether the filter holds at least one token.
func (f *TextFilter) Active() bool {
	return len(f.include) > 0 || len(f.exclude) > 0
}

// Passes reports whether line contains none of the exclusion tokens and, when
// inclusion tokens exist, at least one of them. An inactive filter passes
// everything.
func (f *TextFilter) Passes(line string) bool {
	if !f.Active() {
		return true
	}
	lower := strings.ToLower(line)
	for _, tok := range f.exclude {
		if strings.Contains(lower, tok) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, tok := range f.include {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}

// FilterPair combines a whitelist and a blacklist. The whitelist wins when
// active: a line must pass it and must not pass an active blacklist. With
// only the blacklist active, a line is accepted when it does not pass the
// blacklist. With neither active everything is accepted.
type FilterPair struct {
	Whitelist *TextFilter
	Blacklist *TextFilter
}

// NewFilterPair returns a pair of inactive filters.
func NewFilterPair() *FilterPair {
	return &FilterPair{Whitelist: NewTextFilter(""), Blacklist: NewTextFilter("")}
}

// Accepts applies the combined whitelist/blacklist decision to line.
func (p *FilterPair) Accepts(line string) bool {
	if p.Whitelist.Active() {
		if !p.Whitelist.Passes(line) {
			return false
		}
		if p.Blacklist.Active() {
			return !p.Blacklist.Passes(line)
		}
		return true
	}
	if p.Blacklist.Active() {
		return !p.Blacklist.Passes(line)
	}
	return true
}
