// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dbc

import "testing"

func TestRangeWithin(t *testing.T) {
	r := Range{Min: 2, Max: 5}
	cases := []struct {
		x    float64
		want bool
	}{
		{1, false}, {2, true}, {3.5, true}, {5, true}, {5.1, false},
	}
	for _, c := range cases {
		if got := r.within(c.x); got != c.want {
			t.Errorf("Range{2,5}.within(%v) = %v, want %v", c.x, got, c.want)
		}
	}
}

func TestRangeIntersection(t *testing.T) {
	a := Range{Min: 0, Max: 10}
	b := Range{Min: 5, Max: 15}
	got, ok := a.intersection(b)
	if !ok || got != (Range{Min: 5, Max: 10}) {
		t.Errorf("a.intersection(b) = %v, %v, want {5 10}, true", got, ok)
	}
	got2, ok2 := b.intersection(a)
	if !ok2 || got2 != got {
		t.Errorf("intersection is not commutative: %v vs %v", got2, got)
	}

	c := Range{Min: 20, Max: 30}
	if _, ok := a.intersection(c); ok {
		t.Errorf("disjoint ranges reported an intersection")
	}
}

func TestSwitchSignalsFor(t *testing.T) {
	var sw Switch
	sw.append(Range{Min: 0, Max: 0}, "A")
	sw.append(Range{Min: 2, Max: 2}, "A")
	sw.append(Range{Min: 1, Max: 1}, "B")

	if got := sw.signalsFor(0); len(got) != 1 || got[0] != "A" {
		t.Errorf("signalsFor(0) = %v, want [A]", got)
	}
	if got := sw.signalsFor(1); len(got) != 1 || got[0] != "B" {
		t.Errorf("signalsFor(1) = %v, want [B]", got)
	}
	if !sw.anyMultiples() {
		t.Errorf("A is reachable through two ranges, anyMultiples() should be true")
	}
}
