// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package diffpolicy lets an operator exclude bookkeeping attributes
// (revision stamps, generation timestamps) from a Bus.Diff comparison
// via a user-supplied boolean expression, evaluated once per attribute
// name encountered.
package diffpolicy

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// env is the variable set visible to a policy expression.
type env struct {
	// Name is the attribute name under consideration for exclusion.
	Name string
}

// Policy decides, for a given attribute name, whether it should be
// excluded from diffing.
type Policy struct {
	program *vm.Program
}

// Compile parses expression as an expr-lang boolean expression over a
// single variable, Name — e.g. `Name in ["GenMsgCycleTime", "GenMsgSendType"]`
// or `Name startsWith "Gen"`. An empty expression excludes nothing.
func Compile(expression string) (*Policy, error) {
	if expression == "" {
		return &Policy{}, nil
	}
	program, err := expr.Compile(expression, expr.Env(env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("diffpolicy: compile %q: %w", expression, err)
	}
	return &Policy{program: program}, nil
}

// Excludes reports whether an attribute named name should be dropped
// before a diff comparison. A Policy with no compiled program never
// excludes anything.
func (p *Policy) Excludes(name string) (bool, error) {
	if p.program == nil {
		return false, nil
	}
	out, err := expr.Run(p.program, env{Name: name})
	if err != nil {
		return false, fmt.Errorf("diffpolicy: evaluate for %q: %w", name, err)
	}
	excluded, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("diffpolicy: expression did not evaluate to a bool for %q", name)
	}
	return excluded, nil
}

// FilterAttributes returns a copy of attrs with every excluded name
// removed. A Policy with no compiled program returns attrs itself.
func FilterAttributes[V any](p *Policy, attrs map[string]V) (map[string]V, error) {
	if p.program == nil {
		return attrs, nil
	}
	out := make(map[string]V, len(attrs))
	for name, v := range attrs {
		excluded, err := p.Excludes(name)
		if err != nil {
			return nil, err
		}
		if !excluded {
			out[name] = v
		}
	}
	return out, nil
}
