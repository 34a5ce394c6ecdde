// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dbc

import "strings"

// keywordList lists every recognized DBC section keyword plus the two
// special pseudo-identifiers (VECTOR__INDEPENDENT_SIG_MSG, Vector__XXX)
// that participate in identifier-vs-keyword disambiguation.
var keywordList = []string{
	"VERSION", "NS_", "NS_DESC_", "CM_", "BA_DEF_",
	"BA_", "VAL_", "CAT_DEF_", "CAT_", "FILTER", "BA_DEF_DEF_",
	"EV_DATA_", "ENVVAR_DATA_", "SGTYPE_", "SGTYPE_VAL_",
	"BA_DEF_SGTYPE_", "BA_SGTYPE_", "SIG_TYPE_REF_", "VAL_TABLE_",
	"SIG_GROUP_", "SIG_VALTYPE_", "SIGTYPE_VALTYPE_", "BO_TX_BU_",
	"BA_DEF_REL_", "BA_REL_", "BA_DEF_DEF_REL_", "BU_SG_REL_",
	"BU_EV_REL_", "BU_BO_REL_", "SG_MUL_VAL_", "BS_", "BU_",
	"BO_", "SG_", "EV_", "VECTOR__INDEPENDENT_SIG_MSG",
	"Vector__XXX",
}

func toSet(words []string, exclude ...string) map[string]bool {
	ex := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		ex[e] = true
	}
	out := make(map[string]bool, len(words))
	for _, w := range words {
		if !ex[w] {
			out[w] = true
		}
	}
	return out
}

var (
	keywordsAll  = toSet(keywordList)
	keywordsBO   = toSet(keywordList, "VECTOR__INDEPENDENT_SIG_MSG")
	keywordsMost = toSet(keywordList, "Vector__XXX")
)

// sectionKeywords is ordered so that the longest possible keyword matches
// first at the current cursor position (e.g. BA_DEF_DEF_ before BA_DEF_
// before BA_).
var sectionKeywords = []string{
	"BA_DEF_DEF_", "BA_DEF_", "BA_",
	"BO_TX_BU_", "BO_", "BS_", "BU_",
	"CM_", "ENVVAR_DATA_", "EV_", "NS_",
	"SIG_GROUP_", "SIG_TYPE_REF_", "SIG_VALTYPE_",
	"SGTYPE_", "SG_MUL_VAL_",
	"VAL_TABLE_", "VAL_", "VERSION",
}

// nsSymbolNames is the whitelist NS_ accepts; it excludes the six
// always-top-level keywords (VERSION, BS_, BU_, BO_, SG_, EV_) which are
// recognized separately as "end of NS_ body".
var nsSymbolNames = toSet([]string{
	"BA_DEF_DEF_REL_", "BA_DEF_DEF_", "BA_DEF_SGTYPE_",
	"BA_DEF_REL_", "BA_DEF_", "BA_REL_", "BA_SGTYPE_", "BA_",
	"BO_TX_BU_", "BU_SG_REL_", "BU_EV_REL_", "BU_BO_REL_",
	"CM_", "CAT_DEF_", "CAT_",
	"ENVVAR_DATA_", "EV_DATA_", "FILTER",
	"NS_DESC_",
	"SIG_GROUP_", "SIG_TYPE_REF_", "SIG_VALTYPE_",
	"SIGTYPE_VALTYPE_", "SGTYPE_VAL_", "SGTYPE_",
	"SG_MUL_VAL_",
	"VAL_TABLE_", "VAL_",
})

// Parse lexes and parses a complete DBC source text into an ordered
// section store and then builds the cross-referenced Bus from it. The
// grammar itself validates no cross-section semantics — that is the
// model builder's job.
func Parse(text string) (*Bus, error) {
	p := newParser(text)
	store, err := p.parseAll()
	if err != nil {
		return nil, err
	}
	return build(store)
}

func (p *Parser) parseAll() (*sectionStore, error) {
	store := &sectionStore{}
	p.skipWhitespace()
	for !p.atEnd() {
		sec, err := p.section()
		if err != nil {
			return nil, err
		}
		store.items = append(store.items, sec)
		p.skipWhitespace()
	}
	return store, nil
}

func (p *Parser) sectionKeyword() (string, error) {
	for _, kw := range sectionKeywords {
		if strings.HasPrefix(p.text[p.offset:], kw) {
			p.advance(len(kw))
			return kw, nil
		}
	}
	return "", newParseError(p.line, p.col, "expected section keyword but found %q", p.peekAhead(10))
}

func (p *Parser) section() (section, error) {
	name, err := p.sectionKeyword()
	if err != nil {
		return nil, err
	}
	switch name {
	case "VERSION":
		return p.sectionBodyVERSION()
	case "NS_":
		return p.sectionBodyNS()
	case "BS_":
		return p.sectionBodyBS()
	case "BU_":
		return p.sectionBodyBU()
	case "VAL_TABLE_":
		return p.sectionBodyValTable()
	case "BO_":
		return p.sectionBodyBO()
	case "BO_TX_BU_":
		return p.sectionBodyBOTxBU()
	case "CM_":
		return p.sectionBodyCM()
	case "BA_DEF_":
		return p.sectionBodyBADef()
	case "BA_DEF_DEF_":
		return p.sectionBodyBADefDef()
	case "BA_":
		return p.sectionBodyBA()
	case "VAL_":
		return p.sectionBodyVAL()
	case "SIG_GROUP_":
		return p.sectionBodySigGroup()
	case "SIG_VALTYPE_":
		return p.sectionBodySigValType()
	case "SG_MUL_VAL_":
		return p.sectionBodySigMulVal()
	default:
		return nil, newParseError(p.line, p.col, "unimplemented section type %s encountered", name)
	}
}

func (p *Parser) sectionBodyVERSION() (section, error) {
	p.skipWhitespace()
	s, err := p.str()
	if err != nil {
		return nil, err
	}
	return secVersion{Value: s}, nil
}

func (p *Parser) sectionBodyNS() (section, error) {
	p.skipWhitespace()
	if err := p.matchChar(':'); err != nil {
		return nil, err
	}
	p.skipWhitespace()

	var list []string
	for !p.atEnd() {
		p.skipWhitespace()
		if p.atEnd() {
			break
		}
		if p.peek() == ':' {
			if len(list) > 0 {
				list = list[:len(list)-1]
				break
			}
			return nil, newParseError(p.line, p.col, "expected reserved word, found \":\"")
		}
		stored := p.getPos()
		s, err := p.identifier(nil)
		if err != nil {
			// not an identifier at all: stop the NS_ body here.
			p.setPos(stored)
			break
		}
		if nsSymbolNames[s] {
			list = append(list, s)
		} else if keywordsAll[s] {
			p.setPos(stored)
			break
		}
	}
	return secNS{Symbols: list}, nil
}

func (p *Parser) baudrate() (uint64, uint64, uint64, error) {
	rate, err := p.uint()
	if err != nil {
		return 0, 0, 0, err
	}
	p.skipWhitespace()
	if err := p.matchChar(':'); err != nil {
		return 0, 0, 0, err
	}
	p.skipWhitespace()
	btr1, err := p.uint()
	if err != nil {
		return 0, 0, 0, err
	}
	p.skipWhitespace()
	if err := p.matchChar(','); err != nil {
		return 0, 0, 0, err
	}
	p.skipWhitespace()
	btr2, err := p.uint()
	if err != nil {
		return 0, 0, 0, err
	}
	return rate, btr1, btr2, nil
}

func (p *Parser) sectionBodyBS() (section, error) {
	p.skipWhitespace()
	if err := p.matchChar(':'); err != nil {
		return nil, err
	}
	p.skipWhitespace()
	type timing struct{ rate, btr1, btr2 uint64 }
	t, ok := optional(p, func() (timing, error) {
		r, b1, b2, err := p.baudrate()
		return timing{r, b1, b2}, err
	})
	if !ok {
		return secBS{}, nil
	}
	return secBS{HasTiming: true, Baudrate: t.rate, BTR1: t.btr1, BTR2: t.btr2}, nil
}

func (p *Parser) sectionBodyBU() (section, error) {
	p.skipWhitespace()
	if err := p.matchChar(':'); err != nil {
		return nil, err
	}
	p.skipWhitespace()
	nodes := anyNumberOf(p, func() (string, error) {
		s, err := p.identifier(keywordsMost)
		if err != nil {
			return "", err
		}
		p.skipWhitespace()
		return s, nil
	})
	return secBU{Nodes: nodes}, nil
}

func (p *Parser) valueEntry() (valueEntry, error) {
	p.skipWhitespace()
	v, err := p.sint()
	if err != nil {
		return valueEntry{}, err
	}
	p.skipWhitespace()
	s, err := p.str()
	if err != nil {
		return valueEntry{}, err
	}
	return valueEntry{Value: v, Label: s}, nil
}

func (p *Parser) sectionBodyValTable() (section, error) {
	p.skipWhitespace()
	name, err := p.identifier(keywordsAll)
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	entries := anyNumberOf(p, p.valueEntry)
	p.skipWhitespace()
	if err := p.matchChar(';'); err != nil {
		return nil, err
	}
	return secValTable{Name: name, Entries: entries}, nil
}

func (p *Parser) multiplexValue() (uint64, error) {
	if err := p.matchChar('m'); err != nil {
		return 0, err
	}
	p.skipWhitespace()
	return p.uint()
}

func (p *Parser) multiplexSpec() (*uint64, bool) {
	mval, ok := optional(p, p.multiplexValue)
	p.skipWhitespace()
	var mp *uint64
	if ok {
		v := mval
		mp = &v
	}
	isMux := p.matchChar('M') == nil
	return mp, isMux
}

func (p *Parser) endian() (bool, error) {
	if p.atEnd() {
		return false, newParseError(p.line, p.col, "expected \"0\" or \"1\", found end of input")
	}
	c := p.peek()
	switch c {
	case '1':
		p.advance(1)
		return true, nil
	case '0':
		p.advance(1)
		return false, nil
	default:
		return false, newParseError(p.line, p.col, "expected \"0\" or \"1\", but found %q", string(c))
	}
}

func (p *Parser) signed() (bool, error) {
	if p.atEnd() {
		return false, newParseError(p.line, p.col, "expected \"+\" or \"-\", found end of input")
	}
	c := p.peek()
	switch c {
	case '+':
		p.advance(1)
		return false, nil
	case '-':
		p.advance(1)
		return true, nil
	default:
		return false, newParseError(p.line, p.col, "expected \"+\" or \"-\", but found %q", string(c))
	}
}

func (p *Parser) additionalReceiver() (string, error) {
	p.skipWhitespace()
	if err := p.matchChar(','); err != nil {
		return "", err
	}
	p.skipWhitespace()
	return p.identifier(keywordsMost)
}

func (p *Parser) signal() (signalDecl, error) {
	p.skipWhitespace()
	if err := p.matchString("SG_"); err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	name, err := p.identifier(keywordsAll)
	if err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	mval, isMux := p.multiplexSpec()
	p.skipWhitespace()
	if err := p.matchChar(':'); err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	start, err := p.uint()
	if err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	if err := p.matchChar('|'); err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	size, err := p.uint()
	if err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	if err := p.matchChar('@'); err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	little, err := p.endian()
	if err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	signedVal, err := p.signed()
	if err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	if err := p.matchChar('('); err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	factor, err := p.double()
	if err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	if err := p.matchChar(','); err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	offset, err := p.double()
	if err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	if err := p.matchChar(')'); err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	if err := p.matchChar('['); err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	minimum, err := p.double()
	if err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	if err := p.matchChar('|'); err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	maximum, err := p.double()
	if err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	if err := p.matchChar(']'); err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	unit, err := p.str()
	if err != nil {
		return signalDecl{}, err
	}
	p.skipWhitespace()
	firstReceiver, err := p.identifier(keywordsMost)
	if err != nil {
		return signalDecl{}, err
	}
	receivers := append([]string{firstReceiver}, anyNumberOf(p, p.additionalReceiver)...)

	return signalDecl{
		Name:           name,
		MultiplexValue: mval,
		IsMultiplexor:  isMux,
		StartBit:       start,
		NumBits:        size,
		IsLittleEndian: little,
		IsSigned:       signedVal,
		Factor:         factor,
		Offset:         offset,
		Min:            minimum,
		Max:            maximum,
		Unit:           unit,
		Receivers:      receivers,
	}, nil
}

func (p *Parser) sectionBodyBO() (section, error) {
	p.skipWhitespace()
	id, err := p.uint()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	name, err := p.identifier(keywordsBO)
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if err := p.matchChar(':'); err != nil {
		return nil, err
	}
	p.skipWhitespace()
	size, err := p.uint()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	transmitter, err := p.identifier(keywordsMost)
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	signals := anyNumberOf(p, p.signal)
	return secBO{ID: id, Name: name, Size: size, Transmitter: transmitter, Signals: signals}, nil
}

// identifierList parses a possibly-empty comma/space-separated list of
// identifiers.
func (p *Parser) identifierList(reserved map[string]bool) []string {
	var list []string
	first, ok := optional(p, func() (string, error) { return p.identifier(reserved) })
	if !ok {
		return list
	}
	list = append(list, first)
	for !p.atEnd() {
		save := p.getPos()
		for !p.atEnd() && (p.peek() == ' ' || p.peek() == ',') {
			p.advance(1)
		}
		next, ok := optional(p, func() (string, error) { return p.identifier(reserved) })
		if ok {
			list = append(list, next)
		} else {
			p.setPos(save)
			break
		}
	}
	return list
}

func (p *Parser) sectionBodyBOTxBU() (section, error) {
	p.skipWhitespace()
	id, err := p.uint()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if err := p.matchChar(':'); err != nil {
		return nil, err
	}
	p.skipWhitespace()
	transmitters := p.identifierList(keywordsMost)
	p.skipWhitespace()
	if err := p.matchChar(';'); err != nil {
		return nil, err
	}
	return secBOTxBU{ID: id, Transmitters: transmitters}, nil
}

func (p *Parser) cmSpecifierBU() (objectRef, error) {
	if err := p.matchString("BU_"); err != nil {
		return objectRef{}, err
	}
	p.skipWhitespace()
	name, err := p.identifier(keywordsAll)
	if err != nil {
		return objectRef{}, err
	}
	return objectRef{Kind: "BU_", Node: name}, nil
}

func (p *Parser) cmSpecifierBO() (objectRef, error) {
	if err := p.matchString("BO_"); err != nil {
		return objectRef{}, err
	}
	p.skipWhitespace()
	id, err := p.uint()
	if err != nil {
		return objectRef{}, err
	}
	return objectRef{Kind: "BO_", MsgID: id}, nil
}

func (p *Parser) cmSpecifierSG() (objectRef, error) {
	if err := p.matchString("SG_"); err != nil {
		return objectRef{}, err
	}
	p.skipWhitespace()
	id, err := p.uint()
	if err != nil {
		return objectRef{}, err
	}
	p.skipWhitespace()
	name, err := p.identifier(keywordsAll)
	if err != nil {
		return objectRef{}, err
	}
	return objectRef{Kind: "SG_", MsgID: id, SigName: name}, nil
}

func (p *Parser) cmSpecifierEV() (objectRef, error) {
	if err := p.matchString("EV_"); err != nil {
		return objectRef{}, err
	}
	p.skipWhitespace()
	name, err := p.identifier(keywordsAll)
	if err != nil {
		return objectRef{}, err
	}
	return objectRef{Kind: "EV_", Node: name}, nil
}

func (p *Parser) sectionBodyCM() (section, error) {
	p.skipWhitespace()
	spec, err := oneOf(p, p.cmSpecifierSG, p.cmSpecifierBU, p.cmSpecifierBO, p.cmSpecifierEV,
		func() (objectRef, error) { return objectRef{}, nil })
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	text, err := p.str()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if err := p.matchChar(';'); err != nil {
		return nil, err
	}
	return secCM{Target: spec, Text: text}, nil
}

func (p *Parser) sigValTypeSpec() (uint64, error) {
	if p.atEnd() {
		return 0, newParseError(p.line, p.col, "expected one of \"0123\", found end of input")
	}
	c := p.peek()
	if c >= '0' && c <= '3' {
		p.advance(1)
		return uint64(c - '0'), nil
	}
	return 0, newParseError(p.line, p.col, "expected one of \"0123\", found %q", string(c))
}

func (p *Parser) sectionBodySigValType() (section, error) {
	p.skipWhitespace()
	id, err := p.uint()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	name, err := p.identifier(keywordsAll)
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if err := p.matchChar(':'); err != nil {
		return nil, err
	}
	p.skipWhitespace()
	tn, err := p.sigValTypeSpec()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if err := p.matchChar(';'); err != nil {
		return nil, err
	}
	return secSigValType{MsgID: id, SigName: name, Type: tn}, nil
}

func (p *Parser) uintRange() (Range, error) {
	low, err := p.uint()
	if err != nil {
		return Range{}, err
	}
	p.skipWhitespace()
	if err := p.matchChar('-'); err != nil {
		return Range{}, err
	}
	p.skipWhitespace()
	high, err := p.uint()
	if err != nil {
		return Range{}, err
	}
	return Range{Min: float64(low), Max: float64(high)}, nil
}

func (p *Parser) sectionBodySigMulVal() (section, error) {
	p.skipWhitespace()
	id, err := p.uint()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	signame, err := p.identifier(keywordsAll)
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	muxname, err := p.identifier(keywordsAll)
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	var ranges []Range
	first, ok := optional(p, p.uintRange)
	if ok {
		ranges = append(ranges, first)
		for !p.atEnd() {
			save := p.getPos()
			for !p.atEnd() && (p.peek() == ' ' || p.peek() == ',') {
				p.advance(1)
			}
			r, ok := optional(p, p.uintRange)
			if !ok {
				p.setPos(save)
				break
			}
			ranges = append(ranges, r)
		}
	}
	p.skipWhitespace()
	if err := p.matchChar(';'); err != nil {
		return nil, err
	}
	return secSigMulVal{MsgID: id, SigName: signame, MuxName: muxname, Ranges: ranges}, nil
}

func (p *Parser) sectionBodyVAL() (section, error) {
	p.skipWhitespace()
	id, err := p.uint()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	name, err := p.identifier(keywordsAll)
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	entries := anyNumberOf(p, p.valueEntry)
	p.skipWhitespace()
	if err := p.matchChar(';'); err != nil {
		return nil, err
	}
	return secVAL{MsgID: id, SigName: name, Entries: entries}, nil
}

func (p *Parser) baInt() (attrTypeSpec, error) {
	if err := p.matchString("INT"); err != nil {
		return attrTypeSpec{}, err
	}
	p.skipWhitespace()
	v1, err := p.sint()
	if err != nil {
		return attrTypeSpec{}, err
	}
	p.skipWhitespace()
	v2, err := p.sint()
	if err != nil {
		return attrTypeSpec{}, err
	}
	return attrTypeSpec{Kind: "INT", Min: float64(v1), Max: float64(v2)}, nil
}

func (p *Parser) baHex() (attrTypeSpec, error) {
	if err := p.matchString("HEX"); err != nil {
		return attrTypeSpec{}, err
	}
	p.skipWhitespace()
	v1, err := p.sint()
	if err != nil {
		return attrTypeSpec{}, err
	}
	p.skipWhitespace()
	v2, err := p.sint()
	if err != nil {
		return attrTypeSpec{}, err
	}
	return attrTypeSpec{Kind: "HEX", Min: float64(v1), Max: float64(v2)}, nil
}

func (p *Parser) baFloat() (attrTypeSpec, error) {
	if err := p.matchString("FLOAT"); err != nil {
		return attrTypeSpec{}, err
	}
	p.skipWhitespace()
	v1, err := p.double()
	if err != nil {
		return attrTypeSpec{}, err
	}
	p.skipWhitespace()
	v2, err := p.double()
	if err != nil {
		return attrTypeSpec{}, err
	}
	return attrTypeSpec{Kind: "FLOAT", Min: v1, Max: v2}, nil
}

func (p *Parser) baString() (attrTypeSpec, error) {
	if err := p.matchString("STRING"); err != nil {
		return attrTypeSpec{}, err
	}
	return attrTypeSpec{Kind: "STRING"}, nil
}

func (p *Parser) stringList() []string {
	var list []string
	first, ok := optional(p, p.str)
	if !ok {
		return list
	}
	list = append(list, first)
	for !p.atEnd() {
		save := p.getPos()
		p.skipWhitespace()
		if !p.atEnd() && p.peek() == ',' {
			p.advance(1)
			p.skipWhitespace()
		} else {
			p.setPos(save)
			break
		}
		s, ok := optional(p, p.str)
		if ok {
			list = append(list, s)
		} else {
			p.setPos(save)
			break
		}
	}
	return list
}

func (p *Parser) baEnum() (attrTypeSpec, error) {
	if err := p.matchString("ENUM"); err != nil {
		return attrTypeSpec{}, err
	}
	p.skipWhitespace()
	return attrTypeSpec{Kind: "ENUM", Enum: p.stringList()}, nil
}

func (p *Parser) sectionBodyBADef() (section, error) {
	p.skipWhitespace()
	scope, err := oneOf(p,
		func() (string, error) { return "BU_", p.matchString("BU_") },
		func() (string, error) { return "BO_", p.matchString("BO_") },
		func() (string, error) { return "SG_", p.matchString("SG_") },
		func() (string, error) { return "EV_", p.matchString("EV_") },
		func() (string, error) { return "", nil },
	)
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if err := p.matchChar('"'); err != nil {
		return nil, err
	}
	name, err := p.identifier(keywordsAll)
	if err != nil {
		return nil, err
	}
	if err := p.matchChar('"'); err != nil {
		return nil, err
	}
	p.skipWhitespace()
	typ, err := oneOf(p, p.baFloat, p.baInt, p.baHex, p.baString, p.baEnum)
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if err := p.matchChar(';'); err != nil {
		return nil, err
	}
	return secBADef{Scope: scope, Name: name, Type: typ}, nil
}

func (p *Parser) literalUint() (literalValue, error) {
	v, err := p.uint()
	if err != nil {
		return literalValue{}, err
	}
	return literalValue{Kind: literalUint, Uint: v}, nil
}

func (p *Parser) literalSint() (literalValue, error) {
	v, err := p.sint()
	if err != nil {
		return literalValue{}, err
	}
	return literalValue{Kind: literalSint, Sint: v}, nil
}

func (p *Parser) literalDouble() (literalValue, error) {
	v, err := p.double()
	if err != nil {
		return literalValue{}, err
	}
	return literalValue{Kind: literalDouble, Double: v}, nil
}

func (p *Parser) literalString() (literalValue, error) {
	v, err := p.str()
	if err != nil {
		return literalValue{}, err
	}
	return literalValue{Kind: literalString, Str: v}, nil
}

func (p *Parser) sectionBodyBADefDef() (section, error) {
	p.skipWhitespace()
	if err := p.matchChar('"'); err != nil {
		return nil, err
	}
	name, err := p.identifier(keywordsAll)
	if err != nil {
		return nil, err
	}
	if err := p.matchChar('"'); err != nil {
		return nil, err
	}
	p.skipWhitespace()
	val, err := oneOf(p, p.literalUint, p.literalSint, p.literalDouble, p.literalString)
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if err := p.matchChar(';'); err != nil {
		return nil, err
	}
	return secBADefDef{Name: name, Value: val}, nil
}

func (p *Parser) descBABU() (objectRef, error) {
	if err := p.matchString("BU_"); err != nil {
		return objectRef{}, err
	}
	p.skipWhitespace()
	name, err := p.identifier(keywordsAll)
	if err != nil {
		return objectRef{}, err
	}
	return objectRef{Kind: "BU_", Node: name}, nil
}

func (p *Parser) descBABO() (objectRef, error) {
	if err := p.matchString("BO_"); err != nil {
		return objectRef{}, err
	}
	p.skipWhitespace()
	id, err := p.uint()
	if err != nil {
		return objectRef{}, err
	}
	return objectRef{Kind: "BO_", MsgID: id}, nil
}

func (p *Parser) descBASG() (objectRef, error) {
	if err := p.matchString("SG_"); err != nil {
		return objectRef{}, err
	}
	p.skipWhitespace()
	id, err := p.uint()
	if err != nil {
		return objectRef{}, err
	}
	p.skipWhitespace()
	name, err := p.identifier(keywordsAll)
	if err != nil {
		return objectRef{}, err
	}
	return objectRef{Kind: "SG_", MsgID: id, SigName: name}, nil
}

func (p *Parser) descBAEV() (objectRef, error) {
	if err := p.matchString("EV_"); err != nil {
		return objectRef{}, err
	}
	p.skipWhitespace()
	name, err := p.identifier(keywordsAll)
	if err != nil {
		return objectRef{}, err
	}
	return objectRef{Kind: "EV_", Node: name}, nil
}

func (p *Parser) sectionBodyBA() (section, error) {
	p.skipWhitespace()
	name, err := p.str()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	desc, err := oneOf(p, p.descBABU, p.descBABO, p.descBASG, p.descBAEV,
		func() (objectRef, error) { return objectRef{}, nil })
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	val, err := oneOf(p, p.literalDouble, p.literalUint, p.literalSint, p.literalString)
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if err := p.matchChar(';'); err != nil {
		return nil, err
	}
	return secBA{Name: name, Target: desc, Value: val}, nil
}

func (p *Parser) sectionBodySigGroup() (section, error) {
	p.skipWhitespace()
	id, err := p.uint()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	name, err := p.identifier(keywordsAll)
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	number, err := p.uint()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if err := p.matchChar(':'); err != nil {
		return nil, err
	}
	p.skipWhitespace()
	sigs := anyNumberOf(p, func() (string, error) {
		s, err := p.identifier(keywordsAll)
		if err != nil {
			return "", err
		}
		p.skipWhitespace()
		return s, nil
	})
	p.skipWhitespace()
	if err := p.matchChar(';'); err != nil {
		return nil, err
	}
	return secSigGroup{MsgID: id, Name: name, Count: number, Signals: sigs}, nil
}
