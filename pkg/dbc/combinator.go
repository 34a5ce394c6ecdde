// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dbc

// optional tries rule; on failure it rewinds the cursor and reports no
// match rather than propagating the error.
func optional[T any](p *Parser, rule func() (T, error)) (T, bool) {
	save := p.getPos()
	v, err := rule()
	if err != nil {
		p.setPos(save)
		var zero T
		return zero, false
	}
	return v, true
}

// anyNumberOf repeats rule via optional until it stops matching, returning
// a possibly-empty ordered slice of results.
func anyNumberOf[T any](p *Parser, rule func() (T, error)) []T {
	var out []T
	for !p.atEnd() {
		v, ok := optional(p, rule)
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out
}

// oneOf tries each alternative in order. If all fail, it raises the error
// from whichever alternative advanced furthest by (line, column) — later
// wins ties — which gives the best diagnostic for a backtracking grammar.
func oneOf[T any](p *Parser, rules ...func() (T, error)) (T, error) {
	var farthest *ParseError
	for _, rule := range rules {
		save := p.getPos()
		v, err := rule()
		if err == nil {
			return v, nil
		}
		p.setPos(save)
		pe, ok := err.(*ParseError)
		if !ok {
			var zero T
			return zero, err
		}
		if farthest == nil || pe.Line > farthest.Line || (pe.Line == farthest.Line && pe.Col >= farthest.Col) {
			farthest = pe
		}
	}
	var zero T
	return zero, farthest
}
