// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dbc

import (
	"sort"
	"strings"
)

// escapeQuotes mirrors the reference serializer's embedded-quote
// handling: a literal double quote inside a string becomes \" on
// output. This is the only escape DBC text ever carries — the lexer
// otherwise rejects a bare backslash inside a string outright.
func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func literalText(v literalValue) string {
	switch v.Kind {
	case literalUint:
		return uitoa(v.Uint)
	case literalSint:
		return itoa(v.Sint)
	case literalDouble:
		return ftoa(v.Double)
	case literalString:
		return v.Str
	}
	return ""
}

func attributeValueText(v literalValue) string {
	if v.Kind == literalString {
		return "\"" + escapeQuotes(v.Str) + "\""
	}
	return literalText(v)
}

// DBC renders the bus back into canonical DBC source text. Parsing the
// result and calling DBC again on the outcome reproduces the same text
// byte for byte.
func (b *Bus) DBC() string {
	var str strings.Builder

	str.WriteString("VERSION \"" + b.Version + "\"\n\n")

	str.WriteString("NS_ :\n")
	for _, s := range b.NewSymbols {
		str.WriteString("    " + s + "\n")
	}
	str.WriteString("\n")

	str.WriteString("BS_:")
	if b.HasBusTiming {
		str.WriteString(" " + uitoa(b.Baudrate) + ": " + uitoa(b.BTR1) + ", " + uitoa(b.BTR2))
	}
	str.WriteString("\n\n")

	str.WriteString("BU_:")
	for _, n := range b.nodes {
		str.WriteString(" " + n.Name)
	}
	str.WriteString("\n\n")

	tableNames := sortedKeys(b.ValueTables)
	for _, name := range tableNames {
		str.WriteString("VAL_TABLE_ " + name)
		tab := b.ValueTables[name]
		for _, k := range sortedValueTableKeys(tab) {
			str.WriteString(" " + itoa(k) + " \"" + escapeQuotes(tab[k]) + "\"")
		}
		str.WriteString(" ;\n")
	}
	if len(tableNames) > 0 {
		str.WriteString("\n")
	}

	for _, m := range b.messages {
		str.WriteString(m.dbc())
	}
	if len(b.messages) > 0 {
		str.WriteString("\n")
	}

	count := 0
	for _, m := range b.messages {
		if len(m.Transmitters) > 1 {
			count++
			str.WriteString("BO_TX_BU_ " + uitoa(m.ID) + ":")
			for _, tx := range m.Transmitters {
				str.WriteString(" " + tx)
			}
			str.WriteString(" ;\n")
		}
	}
	if count > 0 {
		str.WriteString("\n")
	}

	count = 0
	for _, c := range b.Comments {
		count++
		str.WriteString("CM_ \"" + escapeQuotes(c) + "\";\n")
	}
	for _, n := range b.nodes {
		for _, c := range n.Comments {
			count++
			str.WriteString("CM_ BU_ " + n.Name + " \"" + escapeQuotes(c) + "\";\n")
		}
	}
	for _, m := range b.messages {
		for _, c := range m.Comments {
			count++
			str.WriteString("CM_ BO_ " + uitoa(m.ID) + " \"" + escapeQuotes(c) + "\";\n")
		}
		for _, s := range m.signals {
			for _, c := range s.Comments {
				count++
				str.WriteString("CM_ SG_ " + uitoa(m.ID) + " " + s.Name + " \"" + escapeQuotes(c) + "\";\n")
			}
		}
	}
	if count > 0 {
		str.WriteString("\n")
	}

	count = 0
	for _, scope := range []string{"", "BU_", "BO_", "SG_", "EV_"} {
		typedefs := b.AttribTypedefs[scope]
		for _, name := range sortedKeys(typedefs) {
			t := typedefs[name]
			count++
			if scope != "" {
				str.WriteString("BA_DEF_ " + scope + " ")
			} else {
				str.WriteString("BA_DEF_ ")
			}
			str.WriteString("\"" + name + "\" " + t.Kind + " ")
			switch t.Kind {
			case "INT", "HEX":
				str.WriteString(itoa(int64(t.Min)) + " " + itoa(int64(t.Max)))
			case "FLOAT":
				str.WriteString(ftoa(t.Min) + " " + ftoa(t.Max))
			case "ENUM":
				parts := make([]string, len(t.Enum))
				for i, e := range t.Enum {
					parts[i] = "\"" + e + "\""
				}
				str.WriteString(strings.Join(parts, ", "))
			}
			str.WriteString(";\n")
		}
	}
	if count > 0 {
		str.WriteString("\n")
	}

	count = 0
	for _, name := range sortedKeys(b.AttribDefaults) {
		count++
		str.WriteString("BA_DEF_DEF_ \"" + name + "\" " + attributeValueText(b.AttribDefaults[name]) + ";\n")
	}
	if count > 0 {
		str.WriteString("\n")
	}

	count = 0
	for _, name := range sortedKeys(b.Attributes) {
		count++
		str.WriteString("BA_ \"" + name + "\" " + attributeValueText(b.Attributes[name]) + ";\n")
	}
	for _, n := range b.nodes {
		for _, name := range sortedKeys(n.Attributes) {
			count++
			str.WriteString("BA_ \"" + name + "\" BU_ " + n.Name + " " + attributeValueText(n.Attributes[name]) + ";\n")
		}
	}
	for _, m := range b.messages {
		for _, name := range sortedKeys(m.Attributes) {
			count++
			str.WriteString("BA_ \"" + name + "\" BO_ " + uitoa(m.ID) + " " + attributeValueText(m.Attributes[name]) + ";\n")
		}
		for _, s := range m.signals {
			for _, name := range sortedKeys(s.Attributes) {
				count++
				str.WriteString("BA_ \"" + name + "\" SG_ " + uitoa(m.ID) + " " + s.Name + " " + attributeValueText(s.Attributes[name]) + ";\n")
			}
		}
	}
	if count > 0 {
		str.WriteString("\n")
	}

	count = 0
	for _, m := range b.messages {
		for _, s := range m.signals {
			if len(s.ValueDescriptions) == 0 {
				continue
			}
			count++
			str.WriteString("VAL_ " + uitoa(m.ID) + " " + s.Name)
			for _, k := range sortedValueTableKeys(s.ValueDescriptions) {
				str.WriteString(" " + itoa(k) + " \"" + escapeQuotes(s.ValueDescriptions[k]) + "\"")
			}
			str.WriteString(" ;\n")
		}
	}
	if count > 0 {
		str.WriteString("\n")
	}

	count = 0
	for _, m := range b.messages {
		for _, name := range sortedKeys(m.SignalGroups) {
			count++
			g := m.SignalGroups[name]
			str.WriteString("SIG_GROUP_ " + uitoa(m.ID) + " " + name + " " + g.dbc() + "\n")
		}
	}
	if count > 0 {
		str.WriteString("\n")
	}

	for _, m := range b.messages {
		str.WriteString(m.dbcSgMulVal())
	}

	return str.String()
}
