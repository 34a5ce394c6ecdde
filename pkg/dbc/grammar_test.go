// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dbc

import (
	"strings"
	"testing"
)

func TestParseMinimalValidFile(t *testing.T) {
	bus, err := Parse("VERSION \"\"\nNS_ :\nBS_:\nBU_: \n")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if bus.Version != "" {
		t.Errorf("Version = %q, want empty", bus.Version)
	}
	if bus.HasBusTiming {
		t.Errorf("HasBusTiming = true, want false (no BS_ baudrate given)")
	}
	if len(bus.Nodes()) != 0 {
		t.Errorf("Nodes() = %v, want empty", bus.Nodes())
	}
}

func TestParseMissingBS(t *testing.T) {
	_, err := Parse("VERSION \"\"\nNS_ :\nBU_: \n")
	de, ok := err.(*DatabaseError)
	if !ok {
		t.Fatalf("error = %v (%T), want *DatabaseError", err, err)
	}
	if !strings.Contains(de.Msg, `"BS_"`) {
		t.Errorf("DatabaseError.Msg = %q, want mention of \"BS_\"", de.Msg)
	}
}

func TestParseOneMultiplexor(t *testing.T) {
	src := "VERSION \"\"\nNS_ :\nBS_:\nBU_: N2\n\n" +
		"BO_ 100 Msg: 8 N2\n" +
		" SG_ Sel M : 0|8@1+ (1,0) [0|3] \"\"  N2\n" +
		" SG_ A m0 : 8|16@1+ (1,0) [0|0] \"\"  N2\n" +
		" SG_ A m2 : 8|16@1+ (1,0) [0|0] \"\"  N2\n"
	bus, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	msg, ok := bus.MessageByID(100)
	if !ok {
		t.Fatalf("message 100 not found")
	}
	sel, ok := msg.SignalByName("Sel")
	if !ok || !sel.IsMultiplexor {
		t.Fatalf("Sel not found or not a multiplexor")
	}
	if got := sel.switch_.signalsFor(0); len(got) != 1 || got[0] != "A" {
		t.Errorf("switch_.signalsFor(0) = %v, want [A]", got)
	}
	if got := sel.switch_.signalsFor(2); len(got) != 1 || got[0] != "A" {
		t.Errorf("switch_.signalsFor(2) = %v, want [A]", got)
	}
	names := []string{}
	for _, s := range msg.Signals() {
		names = append(names, s.Name)
	}
	if len(names) != 3 {
		t.Errorf("Signals() = %v, want all three signals present (never pruned)", names)
	}
}

func TestParseDuplicateMessageID(t *testing.T) {
	src := "VERSION \"\"\nNS_ :\nBS_:\nBU_: N1\n\n" +
		"BO_ 42 First: 8 N1\n\n" +
		"BO_ 42 Second: 8 N1\n\n"
	_, err := Parse(src)
	de, ok := err.(*DatabaseError)
	if !ok {
		t.Fatalf("error = %v (%T), want *DatabaseError", err, err)
	}
	if !strings.Contains(de.Msg, "42") {
		t.Errorf("DatabaseError.Msg = %q, want mention of id 42", de.Msg)
	}
}

func TestParseBackslashInString(t *testing.T) {
	_, err := Parse("VERSION \"a\\b\"\nNS_ :\nBS_:\nBU_:\n")
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("error = %v (%T), want *ParseError", err, err)
	}
	if pe.Line != 1 {
		t.Errorf("Line = %d, want 1", pe.Line)
	}
	// VERSION " a \ ...  the backslash is the 11th byte on the line.
	if pe.Col != strings.IndexByte("VERSION \"a\\b\"", '\\') + 1 {
		t.Errorf("Col = %d, want column of the backslash", pe.Col)
	}
}

func TestParseErrorLocationPastWhitespace(t *testing.T) {
	_, err := Parse("VERSION   ")
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("error = %v (%T), want *ParseError", err, err)
	}
	if pe.Line != 1 || pe.Col <= len("VERSION") {
		t.Errorf("Line/Col = %d/%d, want line 1 and a column past the trailing whitespace", pe.Line, pe.Col)
	}
}
