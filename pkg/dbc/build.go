// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dbc

import "github.com/ClusterCockpit/cc-dbc/pkg/log"

// build consumes every section in store, in the fixed dependency order
// a DBC document requires (identity sections first, then every kind of
// cross reference), and produces a fully resolved Bus. store is left
// empty on success; a non-empty store after the last extraction is a
// structural bug in the grammar, not a malformed document, and is
// reported as such.
func build(store *sectionStore) (*Bus, error) {
	bus := newBus()

	if err := buildVersion(bus, store); err != nil {
		return nil, err
	}
	if err := buildBusTiming(bus, store); err != nil {
		return nil, err
	}
	if err := buildNodes(bus, store); err != nil {
		return nil, err
	}
	if err := buildNewSymbols(bus, store); err != nil {
		return nil, err
	}
	if err := buildValueTables(bus, store); err != nil {
		return nil, err
	}
	if err := buildMessages(bus, store); err != nil {
		return nil, err
	}
	if err := buildTransmitters(bus, store); err != nil {
		return nil, err
	}
	if err := buildComments(bus, store); err != nil {
		return nil, err
	}
	if err := buildAttribTypedefs(bus, store); err != nil {
		return nil, err
	}
	if err := buildAttribDefaults(bus, store); err != nil {
		return nil, err
	}
	if err := buildAttributes(bus, store); err != nil {
		return nil, err
	}
	if err := buildValueDescriptions(bus, store); err != nil {
		return nil, err
	}
	if err := buildSignalGroups(bus, store); err != nil {
		return nil, err
	}
	if err := buildSigValTypes(bus, store); err != nil {
		return nil, err
	}
	for _, m := range bus.messages {
		if err := m.reconcileSingleMultiplexor(); err != nil {
			return nil, err
		}
	}
	if err := buildExtendedMultiplexing(bus, store); err != nil {
		return nil, err
	}
	if err := checkOrphanMultiplexed(bus); err != nil {
		return nil, err
	}
	if !store.empty() {
		return nil, newDatabaseError("internal error: sections left unconsumed after build")
	}
	return bus, nil
}

func buildVersion(bus *Bus, store *sectionStore) error {
	sl := store.extract("VERSION")
	if len(sl) == 0 {
		return newDatabaseError("missing section: \"VERSION\"")
	}
	if len(sl) > 1 {
		return newDatabaseError("more than one section of type \"VERSION\"")
	}
	bus.Version = sl[0].(secVersion).Value
	return nil
}

func buildBusTiming(bus *Bus, store *sectionStore) error {
	sl := store.extract("BS_")
	if len(sl) == 0 {
		return newDatabaseError("missing section: \"BS_\"")
	}
	if len(sl) > 1 {
		return newDatabaseError("more than one section of type \"BS_\"")
	}
	bs := sl[0].(secBS)
	bus.HasBusTiming = bs.HasTiming
	bus.Baudrate = bs.Baudrate
	bus.BTR1 = bs.BTR1
	bus.BTR2 = bs.BTR2
	return nil
}

func buildNodes(bus *Bus, store *sectionStore) error {
	sl := store.extract("BU_")
	if len(sl) == 0 {
		return newDatabaseError("missing section: \"BU_\"")
	}
	if len(sl) > 1 {
		return newDatabaseError("more than one section of type \"BU_\"")
	}
	names := sl[0].(secBU).Nodes
	seen := map[string]bool{}
	dup := false
	for _, n := range names {
		if seen[n] {
			dup = true
			continue
		}
		seen[n] = true
		bus.appendNode(newNode(n))
	}
	if dup {
		log.Warn("BU_: repeated nodes, removing duplicates")
	}
	return nil
}

func buildNewSymbols(bus *Bus, store *sectionStore) error {
	sl := store.extract("NS_")
	if len(sl) == 0 {
		bus.NewSymbols = nil
		return nil
	}
	if len(sl) > 1 {
		return newDatabaseError("more than one section of type \"NS_\"")
	}
	bus.NewSymbols = sl[0].(secNS).Symbols
	return nil
}

func buildValueTables(bus *Bus, store *sectionStore) error {
	sl := store.extract("VAL_TABLE_")
	for _, s := range sl {
		tab := s.(secValTable)
		if _, dup := bus.ValueTables[tab.Name]; dup {
			return newDatabaseError("multiply defined table %q", tab.Name)
		}
		vals := map[int64]string{}
		entries := append([]valueEntry(nil), tab.Entries...)
		sortValueEntriesDescending(entries)
		for _, e := range entries {
			if _, dup := vals[e.Value]; dup {
				log.Warnf("table %q has value %d defined more than once, last definition is used", tab.Name, e.Value)
			}
			vals[e.Value] = e.Label
		}
		bus.ValueTables[tab.Name] = vals
	}
	return nil
}

func sortValueEntriesDescending(entries []valueEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j-1].Value < entries[j].Value; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
}

func buildMessages(bus *Bus, store *sectionStore) error {
	sl := store.extract("BO_")
	for _, s := range sl {
		d := s.(secBO)
		msg := newMessage(d.ID, d.Name, d.Size, d.Transmitter)
		if err := bus.appendMessage(msg); err != nil {
			return err
		}
		for _, sd := range d.Signals {
			sig := &Signal{
				Name:              sd.Name,
				IsMultiplexor:     sd.IsMultiplexor,
				MultiplexValue:    sd.MultiplexValue,
				StartBit:          sd.StartBit,
				NumBits:           sd.NumBits,
				IsLittleEndian:    sd.IsLittleEndian,
				IsSigned:          sd.IsSigned,
				Factor:            sd.Factor,
				Offset:            sd.Offset,
				Limits:            Range{Min: sd.Min, Max: sd.Max},
				Unit:              sd.Unit,
				Receivers:         sd.Receivers,
				Attributes:        map[string]literalValue{},
				ValueDescriptions: map[int64]string{},
			}
			if err := msg.appendSignal(sig); err != nil {
				return err
			}
		}
	}
	return nil
}

func buildTransmitters(bus *Bus, store *sectionStore) error {
	sl := store.extract("BO_TX_BU_")
	for _, s := range sl {
		d := s.(secBOTxBU)
		msg, ok := bus.MessageByID(d.ID)
		if !ok {
			return newDatabaseError("undefined message id %d in BO_TX_BU-statement", d.ID)
		}
		for _, tx := range d.Transmitters {
			if _, ok := bus.NodeByName(tx); !ok {
				return newDatabaseError("transmitter %q not among defined nodes", tx)
			}
			found := false
			for _, t := range msg.Transmitters {
				if t == tx {
					found = true
					break
				}
			}
			if !found {
				msg.Transmitters = append(msg.Transmitters, tx)
			}
		}
	}
	return nil
}

func buildComments(bus *Bus, store *sectionStore) error {
	sl := store.extract("CM_")
	for _, s := range sl {
		c := s.(secCM)
		switch c.Target.Kind {
		case "":
			bus.Comments = append(bus.Comments, c.Text)
		case "BU_":
			node, ok := bus.NodeByName(c.Target.Node)
			if !ok {
				return newDatabaseError("comment for undefined node %q", c.Target.Node)
			}
			node.Comments = append(node.Comments, c.Text)
		case "BO_":
			msg, ok := bus.MessageByID(c.Target.MsgID)
			if !ok {
				return newDatabaseError("comment for undefined message %d", c.Target.MsgID)
			}
			msg.Comments = append(msg.Comments, c.Text)
		case "SG_":
			msg, ok := bus.MessageByID(c.Target.MsgID)
			if !ok {
				return newDatabaseError("comment for signal %q in undefined message %d", c.Target.SigName, c.Target.MsgID)
			}
			sig, ok := msg.SignalByName(c.Target.SigName)
			if !ok {
				return newDatabaseError("comment for undefined signal %q in message %d", c.Target.SigName, c.Target.MsgID)
			}
			sig.Comments = append(sig.Comments, c.Text)
		case "EV_":
			return newDatabaseError("CM_ EV_ not implemented")
		}
	}
	return nil
}

func buildAttribTypedefs(bus *Bus, store *sectionStore) error {
	sl := store.extract("BA_DEF_")
	for _, s := range sl {
		d := s.(secBADef)
		scope := bus.AttribTypedefs[d.Scope]
		if _, dup := scope[d.Name]; dup {
			return newDatabaseError("attribute %q already defined for %q", d.Name, d.Scope)
		}
		scope[d.Name] = d.Type
	}
	return nil
}

func buildAttribDefaults(bus *Bus, store *sectionStore) error {
	sl := store.extract("BA_DEF_DEF_")
	for _, s := range sl {
		d := s.(secBADefDef)
		if _, dup := bus.AttribDefaults[d.Name]; dup {
			return newDatabaseError("attribute default value for %q multiply defined", d.Name)
		}
		bus.AttribDefaults[d.Name] = d.Value
	}
	return nil
}

func buildAttributes(bus *Bus, store *sectionStore) error {
	sl := store.extract("BA_")
	for _, s := range sl {
		d := s.(secBA)
		switch d.Target.Kind {
		case "":
			if _, dup := bus.Attributes[d.Name]; dup {
				return newDatabaseError("general attribute %q multiply defined", d.Name)
			}
			bus.Attributes[d.Name] = d.Value
		case "BU_":
			node, ok := bus.NodeByName(d.Target.Node)
			if !ok {
				return newDatabaseError("unknown node %q in attribute value statement", d.Target.Node)
			}
			if _, dup := node.Attributes[d.Name]; dup {
				return newDatabaseError("attribute %q multiply defined for node %q", d.Name, d.Target.Node)
			}
			node.Attributes[d.Name] = d.Value
		case "BO_":
			msg, ok := bus.MessageByID(d.Target.MsgID)
			if !ok {
				return newDatabaseError("unknown message id %d in attribute value statement", d.Target.MsgID)
			}
			if _, dup := msg.Attributes[d.Name]; dup {
				return newDatabaseError("attribute %q multiply defined for message %d", d.Name, d.Target.MsgID)
			}
			msg.Attributes[d.Name] = d.Value
		case "SG_":
			msg, ok := bus.MessageByID(d.Target.MsgID)
			if !ok {
				return newDatabaseError("unknown message id %d in attribute value statement for signal %q", d.Target.MsgID, d.Target.SigName)
			}
			sig, ok := msg.SignalByName(d.Target.SigName)
			if !ok {
				return newDatabaseError("unknown message-signal designation %d - %q in attribute value statement", d.Target.MsgID, d.Target.SigName)
			}
			if _, dup := sig.Attributes[d.Name]; dup {
				return newDatabaseError("attribute %q multiply defined for signal %q in message %d", d.Name, d.Target.SigName, d.Target.MsgID)
			}
			sig.Attributes[d.Name] = d.Value
		case "EV_":
			return newDatabaseError("attributes for EV_ not implemented")
		}
	}
	return nil
}

func buildValueDescriptions(bus *Bus, store *sectionStore) error {
	sl := store.extract("VAL_")
	for _, s := range sl {
		d := s.(secVAL)
		msg, ok := bus.MessageByID(d.MsgID)
		if !ok {
			return newDatabaseError("unknown message id %d in signal value description for signal %q", d.MsgID, d.SigName)
		}
		sig, ok := msg.SignalByName(d.SigName)
		if !ok {
			return newDatabaseError("unknown message-signal designation %d - %q in signal value description", d.MsgID, d.SigName)
		}
		for _, e := range d.Entries {
			sig.ValueDescriptions[e.Value] = e.Label
		}
	}
	return nil
}

func buildSignalGroups(bus *Bus, store *sectionStore) error {
	sl := store.extract("SIG_GROUP_")
	for _, s := range sl {
		d := s.(secSigGroup)
		msg, ok := bus.MessageByID(d.MsgID)
		if !ok {
			return newDatabaseError("unknown message id %d in definition of signal group %q", d.MsgID, d.Name)
		}
		if _, dup := msg.SignalGroups[d.Name]; dup {
			return newDatabaseError("signal group %q already defined for message %d", d.Name, d.MsgID)
		}
		var signals []string
		seen := map[string]bool{}
		for _, n := range d.Signals {
			if !seen[n] {
				seen[n] = true
				signals = append(signals, n)
			}
		}
		for _, n := range signals {
			if _, ok := msg.SignalByName(n); !ok {
				return newDatabaseError("undefined signal %q in definition of group %q for message %d", n, d.Name, d.MsgID)
			}
		}
		msg.SignalGroups[d.Name] = SignalGroup{Name: d.Name, Count: d.Count, Signals: signals}
	}
	return nil
}

func buildSigValTypes(bus *Bus, store *sectionStore) error {
	sl := store.extract("SIG_VALTYPE_")
	for _, s := range sl {
		d := s.(secSigValType)
		msg, ok := bus.MessageByID(d.MsgID)
		if !ok {
			return newDatabaseError("unknown message id %d in signal value-type statement for signal %q", d.MsgID, d.SigName)
		}
		sig, ok := msg.SignalByName(d.SigName)
		if !ok {
			return newDatabaseError("unknown message-signal designation %d - %q in signal value-type statement", d.MsgID, d.SigName)
		}
		tn := d.Type
		sig.ExtendedType = &tn
	}
	return nil
}

func buildExtendedMultiplexing(bus *Bus, store *sectionStore) error {
	sl := store.extract("SG_MUL_VAL_")
	for _, s := range sl {
		d := s.(secSigMulVal)
		msg, ok := bus.MessageByID(d.MsgID)
		if !ok {
			return newDatabaseError("unknown message id %d in extended multiplexing statement for signal %q and mux %q", d.MsgID, d.SigName, d.MuxName)
		}
		if err := msg.extendMultiplexRange(d.SigName, d.MuxName, d.Ranges); err != nil {
			return err
		}
	}
	return nil
}

func checkOrphanMultiplexed(bus *Bus) error {
	var offenders []string
	for _, msg := range bus.messages {
		for _, s := range msg.signals {
			if s.MultiplexValue != nil && !msg.routedNames[s.Name] {
				offenders = append(offenders, uitoa(msg.ID)+": "+s.Name)
			}
		}
	}
	if len(offenders) == 0 {
		return nil
	}
	msg := "there were signals with unspecified multiplexor:"
	for _, o := range offenders {
		msg += "\n    \"" + o + "\""
	}
	return newDatabaseError("%s", msg)
}
