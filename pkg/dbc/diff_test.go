// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dbc

import "testing"

const minimalDBC = "VERSION \"a\"\nNS_ :\nBS_:\nBU_: N1\n\n" +
	"BO_ 10 Msg: 4 N1\n SG_ Speed : 0|16@1+ (1,0) [0|0] \"kmh\"  N1\n\n"

func TestDiffReflexive(t *testing.T) {
	bus, err := Parse(minimalDBC)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if d := bus.Diff(bus); d != "" {
		t.Errorf("bus.Diff(bus) = %q, want empty", d)
	}
}

func TestDiffSymmetric(t *testing.T) {
	b1, err := Parse(minimalDBC)
	if err != nil {
		t.Fatalf("Parse b1 failed: %v", err)
	}
	other := "VERSION \"b\"\nNS_ :\nBS_:\nBU_: N1\n\n" +
		"BO_ 10 Msg: 4 N1\n SG_ Speed : 0|16@1+ (1,0) [0|0] \"kmh\"  N1\n\n"
	b2, err := Parse(other)
	if err != nil {
		t.Fatalf("Parse b2 failed: %v", err)
	}
	d12 := b1.Diff(b2)
	d21 := b2.Diff(b1)
	if (d12 == "") != (d21 == "") {
		t.Errorf("diff is not symmetric in emptiness: b1.Diff(b2)=%q b2.Diff(b1)=%q", d12, d21)
	}
	if d12 == "" {
		t.Errorf("expected a version difference, got none")
	}
}

func TestDiffSmallestVersionDifference(t *testing.T) {
	b1, err := Parse("VERSION \"a\"\nNS_ :\nBS_:\nBU_:\n")
	if err != nil {
		t.Fatalf("Parse b1 failed: %v", err)
	}
	b2, err := Parse("VERSION \"b\"\nNS_ :\nBS_:\nBU_:\n")
	if err != nil {
		t.Fatalf("Parse b2 failed: %v", err)
	}
	want := "version:\n < a\n > b\n"
	if got := b1.Diff(b2); got != want {
		t.Errorf("b1.Diff(b2) = %q, want %q", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	bus, err := Parse(minimalDBC)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	text := bus.DBC()
	bus2, err := Parse(text)
	if err != nil {
		t.Fatalf("re-parsing serialized output failed: %v\n--- text ---\n%s", err, text)
	}
	if d := bus.Diff(bus2); d != "" {
		t.Errorf("parse(serialize(parse(t))) != parse(t): %s", d)
	}
}
