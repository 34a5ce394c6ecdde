// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dbc

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

func uitoa(v uint64) string { return strconv.FormatUint(v, 10) }
func itoa(v int64) string   { return strconv.FormatInt(v, 10) }

// ftoa renders a float the way the reference implementation's str(float)
// does: shortest round-tripping decimal, always carrying either a
// fraction or an exponent.
func ftoa(v float64) string {
	format := byte('g')
	if a := math.Abs(v); a >= 1e-4 && a < 1e16 {
		format = 'f'
	}
	s := strconv.FormatFloat(v, format, -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Range is a closed interval [Min, Max] of real numbers.
type Range struct {
	Min float64
	Max float64
}

// within reports whether x lies in the closed interval [Min, Max].
func (r Range) within(x float64) bool {
	return x >= r.Min && x <= r.Max
}

// intersection returns the overlap of r and o, and whether one exists.
func (r Range) intersection(o Range) (Range, bool) {
	if r.Min > o.Max || r.Max < o.Min {
		return Range{}, false
	}
	lo := r.Min
	if o.Min > lo {
		lo = o.Min
	}
	hi := r.Max
	if o.Max < hi {
		hi = o.Max
	}
	return Range{Min: lo, Max: hi}, true
}

func (r Range) equal(o Range) bool {
	return r.Min == o.Min && r.Max == o.Max
}

// Switch maps multiplexor selector ranges to the names of the signals
// they route to. It belongs to the multiplexor Signal itself. A single
// selector value is stored as Range{v, v}. Appending an already-present
// (range, name) pair is a no-op.
type Switch struct {
	entries []switchEntry
}

type switchEntry struct {
	sel  Range
	name string
}

func (s *Switch) append(sel Range, name string) {
	for _, e := range s.entries {
		if e.sel.equal(sel) && e.name == name {
			return
		}
	}
	s.entries = append(s.entries, switchEntry{sel: sel, name: name})
}

func (s *Switch) len() int { return len(s.entries) }

// signalsFor returns every signal name routed to when the multiplexor
// takes value v.
func (s *Switch) signalsFor(v float64) []string {
	var out []string
	for _, e := range s.entries {
		if e.sel.within(v) {
			out = append(out, e.name)
		}
	}
	return out
}

// anyMultiples reports whether any routed signal name is reachable
// through more than one entry (an extended-multiplexing signal with
// several disjoint selector ranges).
func (s *Switch) anyMultiples() bool {
	counts := map[string]int{}
	for _, e := range s.entries {
		counts[e.name]++
	}
	for _, n := range counts {
		if n > 1 {
			return true
		}
	}
	return false
}

// dbcSgMulValStrs groups this switch's entries by routed signal name,
// preserving first-appearance order, and renders each group's ranges as
// "lo-hi lo-hi ...". It mirrors Switch.dbc_sg_mul_val_strs.
func (s *Switch) dbcSgMulValStrs() ([]string, map[string]string) {
	var names []string
	grouped := map[string][]Range{}
	for _, e := range s.entries {
		if _, ok := grouped[e.name]; !ok {
			names = append(names, e.name)
		}
		grouped[e.name] = append(grouped[e.name], e.sel)
	}
	out := map[string]string{}
	for _, n := range names {
		var parts []string
		for _, r := range grouped[n] {
			parts = append(parts, uitoa(uint64(r.Min))+"-"+uitoa(uint64(r.Max)))
		}
		out[n] = strings.Join(parts, " ")
	}
	return names, out
}

// Signal is one SG_ line together with every cross-referenced piece of
// information attached to it afterward (comments, attributes, value
// table, extended value type, and — for a multiplexor signal — the
// switch routing other signals beneath it).
type Signal struct {
	Name           string
	IsMultiplexor  bool
	MultiplexValue *uint64
	StartBit       uint64
	NumBits        uint64
	IsLittleEndian bool
	IsSigned       bool
	Factor         float64
	Offset         float64
	Limits         Range
	Unit           string
	Receivers      []string

	Comments          []string
	Attributes        map[string]literalValue
	ValueDescriptions map[int64]string
	ExtendedType      *uint64 // SIG_VALTYPE_: nil=unset/default integer, else 0..3

	switch_ Switch
}

// multiplexes reports whether this signal is a multiplexor whose value
// domain (its own bit width) includes the candidate selector value —
// the same bound the builder checks before routing a classically
// multiplexed signal under it.
func (s *Signal) multiplexes(val uint64) bool {
	return s.IsMultiplexor && float64(val) < float64(uint64(1)<<s.NumBits)
}

// dbc renders the canonical SG_ line for this signal, without leading
// indentation or trailing newline. Two signals are equivalent for
// diffing purposes exactly when their rendering is identical.
func (s *Signal) dbc() string {
	str := "SG_ " + s.Name + " "
	oneMore := false
	if s.MultiplexValue != nil {
		str += "m" + uitoa(*s.MultiplexValue)
		oneMore = true
	}
	if s.IsMultiplexor {
		str += "M"
		oneMore = true
	}
	if oneMore {
		str += " "
	}
	str += ":"
	str += " " + uitoa(s.StartBit) + "|" + uitoa(s.NumBits) + "@"
	if s.IsLittleEndian {
		str += "1"
	} else {
		str += "0"
	}
	if s.IsSigned {
		str += "-"
	} else {
		str += "+"
	}
	str += " (" + ftoa(s.Factor) + "," + ftoa(s.Offset) + ")"
	str += " [" + ftoa(s.Limits.Min) + "|" + ftoa(s.Limits.Max) + "]"
	str += " \"" + s.Unit + "\"  " + s.Receivers[0]
	for _, r := range s.Receivers[1:] {
		str += ", " + r
	}
	return str
}

// dbcSgMulVal renders every SG_MUL_VAL_ line this signal's switch
// implies, if it is a multiplexor, in depth-first order.
func (s *Signal) dbcSgMulVal(allSignals map[string]*Signal) []string {
	if !s.IsMultiplexor {
		return nil
	}
	names, ranges := s.switch_.dbcSgMulValStrs()
	var out []string
	for _, n := range names {
		out = append(out, n+" "+s.Name+" "+ranges[n])
		if sub, ok := allSignals[n]; ok {
			out = append(out, sub.dbcSgMulVal(allSignals)...)
		}
	}
	return out
}

// diff compares the canonical renderings of two signals. It does not
// compare comments, attributes, value descriptions or the extended value
// type, and no message- or bus-level comparison compares them either.
func (s *Signal) diff(o *Signal) string {
	a, b := s.dbc(), o.dbc()
	if a != b {
		return " < " + a + "\n > " + b
	}
	return ""
}

// SignalGroup is a SIG_GROUP_ declaration: a repetition count and the
// set of signal names it names within one message.
type SignalGroup struct {
	Name    string
	Count   uint64
	Signals []string // declaration order, duplicates removed
}

func (g SignalGroup) dbc() string {
	str := uitoa(g.Count) + " :"
	for _, s := range g.Signals {
		str += " " + s
	}
	str += ";"
	return str
}

func (g SignalGroup) diff(o SignalGroup) string {
	if g.Count != o.Count || !sameSet(g.Signals, o.Signals) {
		return "< " + g.dbc() + "\n> " + o.dbc()
	}
	return ""
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := map[string]bool{}
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		if !set[s] {
			return false
		}
	}
	return true
}

// Message is one BO_ declaration enriched with every later
// cross-reference (BO_TX_BU_, CM_, BA_, SIG_GROUP_, SG_MUL_VAL_).
type Message struct {
	ID           uint64
	Name         string
	Size         uint64
	Transmitters []string // first is the BO_ transmitter; rest from BO_TX_BU_

	Comments     []string
	Attributes   map[string]literalValue
	SignalGroups map[string]SignalGroup

	signals       []*Signal // declaration order, every signal, never pruned
	signalsByName map[string]*Signal

	// routedNames tracks every signal name already placed into some
	// multiplexor's switch, whether by classic single-level
	// reconciliation or by an SG_MUL_VAL_ extended statement — routing
	// the same signal twice is a structural error.
	routedNames map[string]bool
}

func newMessage(id uint64, name string, size uint64, transmitter string) *Message {
	return &Message{
		ID:            id,
		Name:          name,
		Size:          size,
		Transmitters:  []string{transmitter},
		Attributes:    map[string]literalValue{},
		SignalGroups:  map[string]SignalGroup{},
		signalsByName: map[string]*Signal{},
		routedNames:   map[string]bool{},
	}
}

// Signals returns every signal belonging to this message, in
// declaration order, independent of any multiplexing relationship.
func (m *Message) Signals() []*Signal { return m.signals }

// SignalByName looks up a signal by name.
func (m *Message) SignalByName(name string) (*Signal, bool) {
	s, ok := m.signalsByName[name]
	return s, ok
}

// appendSignal adds sig to the message's declaration-order list. Signal
// names need not be unique: a multiplexed message commonly repeats a
// name once per multiplexor value (m0, m2, ...), and SignalByName
// resolves to whichever of those was declared last, matching the
// reference tool's signals_dict[sg.name] = sg assignment.
func (m *Message) appendSignal(sig *Signal) error {
	m.signals = append(m.signals, sig)
	m.signalsByName[sig.Name] = sig
	return nil
}

// reconcileSingleMultiplexor builds the implicit switch for classic
// (SG_MUL_VAL_-less) multiplexing once every signal in the message has
// been appended: a lone multiplexor signal absorbs every sibling signal
// that carries a MultiplexValue into its switch.
func (m *Message) reconcileSingleMultiplexor() error {
	var mux *Signal
	numMuxes := 0
	for _, s := range m.signals {
		if s.IsMultiplexor {
			numMuxes++
			mux = s
		}
	}
	if numMuxes != 1 {
		return nil // zero, or more than one handled by SG_MUL_VAL_ extended form
	}
	for _, s := range m.signals {
		if s.MultiplexValue == nil {
			continue
		}
		if !mux.multiplexes(*s.MultiplexValue) {
			return newDatabaseError("multiplex value for signal %q in message %d is not in range of multiplexor %q", s.Name, m.ID, mux.Name)
		}
		sel := Range{Min: float64(*s.MultiplexValue), Max: float64(*s.MultiplexValue)}
		mux.switch_.append(sel, s.Name)
		m.routedNames[s.Name] = true
	}
	return nil
}

// extendMultiplexRange records an SG_MUL_VAL_ extended routing of
// signame under muxname over the given selector ranges.
func (m *Message) extendMultiplexRange(signame, muxname string, ranges []Range) error {
	_, ok := m.signalsByName[signame]
	if !ok {
		return newDatabaseError("unknown signal name %q in extended multiplexing statement for message id %d", signame, m.ID)
	}
	mux, ok := m.signalsByName[muxname]
	if !ok {
		return newDatabaseError("unknown multiplexor name %q in extended multiplexing statement for message id %d", muxname, m.ID)
	}
	if !mux.IsMultiplexor {
		return newDatabaseError("named multiplexor %q in extended multiplexing statement for message id %d is not a multiplexor", muxname, m.ID)
	}
	if m.routedNames[signame] {
		return newDatabaseError("signal %q in message %d multiplexed by more than one multiplexor", signame, m.ID)
	}
	for _, r := range ranges {
		mux.switch_.append(r, signame)
	}
	m.routedNames[signame] = true
	return nil
}

// dbc renders the canonical BO_ statement and its nested SG_ lines.
func (m *Message) dbc() string {
	str := "BO_ " + uitoa(m.ID) + " " + m.Name + ": " + uitoa(m.Size) + " " + m.Transmitters[0] + "\n"
	for _, s := range m.signals {
		str += " " + s.dbc() + "\n"
	}
	return str
}

// dbcSgMulVal renders this message's SG_MUL_VAL_ lines, which are only
// emitted when classic single-multiplexor syntax cannot express the
// routing: more than one multiplexor signal, or any switch with a
// signal reachable through multiple ranges.
func (m *Message) dbcSgMulVal() string {
	multipleMuxes := false
	count := 0
	multipleSwitches := false
	for _, s := range m.signals {
		if s.IsMultiplexor {
			count++
		}
		if s.switch_.anyMultiples() {
			multipleSwitches = true
		}
	}
	multipleMuxes = count > 1
	if !multipleMuxes && !multipleSwitches {
		return ""
	}
	str := ""
	for _, s := range m.signals {
		if m.routedNames[s.Name] {
			continue // emitted via its multiplexor's recursive dbcSgMulVal below
		}
		for _, line := range s.dbcSgMulVal(m.signalsByName) {
			str += "SG_MUL_VAL_ " + uitoa(m.ID) + " " + line + ";\n"
		}
	}
	return str
}

func (m *Message) diff(o *Message) string {
	if m.ID != o.ID {
		return "message id:\n < " + uitoa(m.ID) + "\n > " + uitoa(o.ID) + "\n"
	}
	if m.Name != o.Name {
		return "id " + uitoa(m.ID) + " message name:\n < " + m.Name + "\n > " + o.Name + "\n"
	}
	if m.Size != o.Size {
		return "id " + uitoa(m.ID) + " message size:\n < " + uitoa(m.Size) + "\n > " + uitoa(o.Size) + "\n"
	}
	if !sameSet(m.Transmitters, o.Transmitters) {
		return "id " + uitoa(m.ID) + " transmitters differ\n"
	}
	ownSigs := signalNameSet(m.signals)
	otherSigs := signalNameSet(o.signals)
	if !equalSet(ownSigs, otherSigs) || len(m.signals) != len(o.signals) {
		return "message id " + uitoa(m.ID) + " signals differ\n"
	}
	seen := map[string]int{}
	for _, s := range m.signals {
		// the k-th signal of a repeated name is compared with the other
		// message's k-th signal of that name
		other := o.signalsByName[s.Name]
		k := seen[s.Name]
		seen[s.Name]++
		for _, c := range o.signals {
			if c.Name == s.Name {
				if k == 0 {
					other = c
					break
				}
				k--
			}
		}
		if d := s.diff(other); d != "" {
			return "message id " + uitoa(m.ID) + " signal " + s.Name + ":\n" + d + "\n"
		}
	}
	if !sameSet(m.Comments, o.Comments) || len(m.Comments) != len(o.Comments) {
		return "id " + uitoa(m.ID) + " comments differ\n"
	}
	if !attributesEqual(m.Attributes, o.Attributes) {
		return "id " + uitoa(m.ID) + " attributes differ\n"
	}
	ownGroups := groupNameSet(m.SignalGroups)
	otherGroups := groupNameSet(o.SignalGroups)
	if !equalSet(ownGroups, otherGroups) {
		return "id " + uitoa(m.ID) + " signal groups differ\n"
	}
	for name, g := range m.SignalGroups {
		if d := g.diff(o.SignalGroups[name]); d != "" {
			return "id " + uitoa(m.ID) + " signal group " + name + " :\n  " + d + "\n"
		}
	}
	return ""
}

func signalNameSet(sigs []*Signal) map[string]bool {
	out := map[string]bool{}
	for _, s := range sigs {
		out[s.Name] = true
	}
	return out
}

func groupNameSet(groups map[string]SignalGroup) map[string]bool {
	out := map[string]bool{}
	for n := range groups {
		out[n] = true
	}
	return out
}

func equalSet(a, b map[string]bool) bool {
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

func attributesEqual(a, b map[string]literalValue) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		o, ok := b[k]
		if !ok || !v.equal(o) {
			return false
		}
	}
	return true
}

// Node is a BU_ network node.
type Node struct {
	Name       string
	Comments   []string
	Attributes map[string]literalValue
}

func newNode(name string) *Node {
	return &Node{Name: name, Attributes: map[string]literalValue{}}
}

// AttribTypedef is the parsed payload of one BA_DEF_ statement, keyed
// by attribute name within its scope.
type AttribTypedef struct {
	Scope string // "", "BU_", "BO_", "SG_", "EV_"
	Name  string
	Type  attrTypeSpec
}

// Bus is the complete, cross-referenced model of one DBC document.
type Bus struct {
	Version    string
	NewSymbols []string

	HasBusTiming bool
	Baudrate     uint64
	BTR1         uint64
	BTR2         uint64

	nodes       []*Node
	nodesByName map[string]*Node

	ValueTables map[string]map[int64]string

	messages       []*Message
	messagesByID   map[uint64]*Message
	messagesByName map[string]*Message

	Comments []string

	// AttribTypedefs is keyed first by scope ("", "BU_", "BO_", "SG_",
	// "EV_"), then by attribute name.
	AttribTypedefs map[string]map[string]attrTypeSpec
	AttribDefaults map[string]literalValue

	Attributes map[string]literalValue
}

func newBus() *Bus {
	return &Bus{
		nodesByName:  map[string]*Node{},
		ValueTables:  map[string]map[int64]string{},
		messagesByID: map[uint64]*Message{},
		messagesByName: map[string]*Message{},
		AttribTypedefs: map[string]map[string]attrTypeSpec{
			"": {}, "BU_": {}, "BO_": {}, "SG_": {}, "EV_": {},
		},
		AttribDefaults: map[string]literalValue{},
		Attributes:     map[string]literalValue{},
	}
}

// Nodes returns every network node, in declaration order (after
// duplicate-name resolution: first occurrence wins).
func (b *Bus) Nodes() []*Node { return b.nodes }

// NodeByName looks up a node by name.
func (b *Bus) NodeByName(name string) (*Node, bool) {
	n, ok := b.nodesByName[name]
	return n, ok
}

// Messages returns every message, in declaration order.
func (b *Bus) Messages() []*Message { return b.messages }

// MessageByID looks up a message by its numeric identifier.
func (b *Bus) MessageByID(id uint64) (*Message, bool) {
	m, ok := b.messagesByID[id]
	return m, ok
}

// MessageByName looks up a message by name.
func (b *Bus) MessageByName(name string) (*Message, bool) {
	m, ok := b.messagesByName[name]
	return m, ok
}

func (b *Bus) appendNode(n *Node) bool {
	if _, dup := b.nodesByName[n.Name]; dup {
		return false
	}
	b.nodes = append(b.nodes, n)
	b.nodesByName[n.Name] = n
	return true
}

func (b *Bus) appendMessage(m *Message) error {
	if _, dup := b.messagesByID[m.ID]; dup {
		return newDatabaseError("multiple definitions of message %d %s", m.ID, m.Name)
	}
	b.messages = append(b.messages, m)
	b.messagesByID[m.ID] = m
	b.messagesByName[m.Name] = m
	return nil
}

// sortedValueTableKeys returns a value table's keys sorted descending,
// the canonical order in which VAL_TABLE_ and VAL_ entries are emitted.
func sortedValueTableKeys(tab map[int64]string) []int64 {
	keys := make([]int64, 0, len(tab))
	for k := range tab {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })
	return keys
}
