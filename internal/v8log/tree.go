package v8log

// recordAddressInProfile extends the bottom-up path below parent with the
// symbol at addr. The innermost resolved frame of a tick gets self time,
// every outer frame gets total time only. An unresolved address leaves the
// path where it was and parent is returned.
func (e *Engine) recordAddressInProfile(parent *ProfileNode, addr uint64, selfTimeRecorded bool) *ProfileNode {
	sym, ok := e.symbols.Lookup(addr)
	if !ok || parent == nil {
		e.stats.LookupMisses.Inc()
		return parent
	}

	child := parent.GetOrInsertChild(sym.Name)
	if selfTimeRecorded {
		child.AddTime(1)
		return child
	}

	child.AddSelfTime(1)
	if name, ok := e.registry.SymbolTypeName(sym.SymbolType); ok {
		child.SymbolType = name
	}
	return child
}
