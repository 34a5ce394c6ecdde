// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dbc

import "fmt"

// Diff returns a human-readable description of the first structural
// difference found between b and other, checked in a fixed order:
// version, bus timing, nodes, new-symbol list, global value tables,
// messages (by id, then field by field), global comments, attribute
// type definitions, attribute defaults, and finally bus-scoped
// attributes. It returns the empty string when the two buses are
// equivalent.
func (b *Bus) Diff(other *Bus) string {
	if b.Version != other.Version {
		return fmt.Sprintf("version:\n < %s\n > %s\n", b.Version, other.Version)
	}
	if b.HasBusTiming != other.HasBusTiming {
		return fmt.Sprintf("baudrate:\n < %v\n > %v\n", busTimingRepr(b), busTimingRepr(other))
	}
	if b.HasBusTiming {
		if b.Baudrate != other.Baudrate {
			return fmt.Sprintf("baudrate:\n < %d\n > %d\n", b.Baudrate, other.Baudrate)
		}
		if b.BTR1 != other.BTR1 {
			return fmt.Sprintf("btr1:\n < %d\n > %d\n", b.BTR1, other.BTR1)
		}
		if b.BTR2 != other.BTR2 {
			return fmt.Sprintf("btr2:\n < %d\n > %d\n", b.BTR2, other.BTR2)
		}
	}

	ownNodes := nodeNameSet(b.nodes)
	otherNodes := nodeNameSet(other.nodes)
	if !equalSet(ownNodes, otherNodes) {
		return fmt.Sprintf("nodes:\n < %v\n > %v\n", setDiffOnly(ownNodes, otherNodes), setDiffOnly(otherNodes, ownNodes))
	}
	str := "nodes:\n"
	count := 0
	for _, n := range b.nodes {
		on := other.nodesByName[n.Name]
		if !nodesEqual(n, on) {
			count++
			str += fmt.Sprintf("   %s:\n      < %v\n      > %v\n", n.Name, n, on)
		}
	}
	if count > 0 {
		return str
	}

	ownSyms := stringSet(b.NewSymbols)
	otherSyms := stringSet(other.NewSymbols)
	if !equalSet(ownSyms, otherSyms) {
		return fmt.Sprintf("new symbols:\n < %v\n > %v\n", setDiffOnly(ownSyms, otherSyms), setDiffOnly(otherSyms, ownSyms))
	}

	if !valueTablesEqual(b.ValueTables, other.ValueTables) {
		return fmt.Sprintf("global values:\n < %v\n > %v\n", b.ValueTables, other.ValueTables)
	}

	ownIDs := messageIDSet(b.messages)
	otherIDs := messageIDSet(other.messages)
	if !equalUintSet(ownIDs, otherIDs) {
		return fmt.Sprintf("messages by id:\n < %v\n > %v\n", setDiffOnlyUint(ownIDs, otherIDs), setDiffOnlyUint(otherIDs, ownIDs))
	}
	for _, m := range b.messages {
		if d := m.diff(other.messagesByID[m.ID]); d != "" {
			return d
		}
	}

	if !stringListEqual(b.Comments, other.Comments) {
		return fmt.Sprintf("global comments:\n < %v\n > %v\n", b.Comments, other.Comments)
	}

	if !typedefsEqual(b.AttribTypedefs, other.AttribTypedefs) {
		return fmt.Sprintf("attribute definitions:\n < %v\n > %v\n", b.AttribTypedefs, other.AttribTypedefs)
	}

	if !attributesEqual(b.AttribDefaults, other.AttribDefaults) {
		return fmt.Sprintf("attribute defaults:\n < %v\n > %v\n", b.AttribDefaults, other.AttribDefaults)
	}

	if !attributesEqual(b.Attributes, other.Attributes) {
		return fmt.Sprintf("attributes:\n < %v\n > %v\n", b.Attributes, other.Attributes)
	}

	return ""
}

func busTimingRepr(b *Bus) string {
	if !b.HasBusTiming {
		return "None"
	}
	return fmt.Sprintf("%d: %d, %d", b.Baudrate, b.BTR1, b.BTR2)
}

func nodeNameSet(nodes []*Node) map[string]bool {
	out := map[string]bool{}
	for _, n := range nodes {
		out[n.Name] = true
	}
	return out
}

func stringSet(ss []string) map[string]bool {
	out := map[string]bool{}
	for _, s := range ss {
		out[s] = true
	}
	return out
}

func messageIDSet(msgs []*Message) map[uint64]bool {
	out := map[uint64]bool{}
	for _, m := range msgs {
		out[m.ID] = true
	}
	return out
}

func equalUintSet(a, b map[uint64]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func setDiffOnly(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if !b[k] {
			out = append(out, k)
		}
	}
	return out
}

func setDiffOnlyUint(a, b map[uint64]bool) []uint64 {
	var out []uint64
	for k := range a {
		if !b[k] {
			out = append(out, k)
		}
	}
	return out
}

func nodesEqual(a, b *Node) bool {
	if b == nil {
		return false
	}
	if len(a.Comments) != len(b.Comments) {
		return false
	}
	for i := range a.Comments {
		if a.Comments[i] != b.Comments[i] {
			return false
		}
	}
	return attributesEqual(a.Attributes, b.Attributes)
}

func valueTablesEqual(a, b map[string]map[int64]string) bool {
	if len(a) != len(b) {
		return false
	}
	for name, tab := range a {
		otab, ok := b[name]
		if !ok || len(tab) != len(otab) {
			return false
		}
		for k, v := range tab {
			if otab[k] != v {
				return false
			}
		}
	}
	return true
}

func typedefsEqual(a, b map[string]map[string]attrTypeSpec) bool {
	if len(a) != len(b) {
		return false
	}
	for scope, defs := range a {
		odefs, ok := b[scope]
		if !ok || len(defs) != len(odefs) {
			return false
		}
		for name, t := range defs {
			ot, ok := odefs[name]
			if !ok || !attrTypeSpecEqual(t, ot) {
				return false
			}
		}
	}
	return true
}

func stringListEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func attrTypeSpecEqual(a, b attrTypeSpec) bool {
	if a.Kind != b.Kind || a.Min != b.Min || a.Max != b.Max {
		return false
	}
	if len(a.Enum) != len(b.Enum) {
		return false
	}
	for i := range a.Enum {
		if a.Enum[i] != b.Enum[i] {
			return false
		}
	}
	return true
}
