package v8log

// Symbol is a region of VM-generated code.
type Symbol struct {
	Name       string
	SymbolType int
	Address    uint64
	Size       uint32
}

// SymbolTable maps code addresses to the symbol that currently lives there.
type SymbolTable struct {
	symbols map[uint64]*Symbol
	stats   *DebugStats
}

func NewSymbolTable(stats *DebugStats) *SymbolTable {
	if stats == nil {
		stats = &DebugStats{}
	}
	return &SymbolTable{
		symbols: make(map[uint64]*Symbol),
		stats:   stats,
	}
}

// Add stores sym at its address. An existing symbol at the same address is
// replaced and counted as a collision; the VM does reuse addresses.
func (t *SymbolTable) Add(sym *Symbol) {
	if _, ok := t.symbols[sym.Address]; ok {
		t.stats.AddCollisions.Inc()
	}
	t.symbols[sym.Address] = sym
}

// Remove drops the symbol at sym's address, counting a miss if there is none.
func (t *SymbolTable) Remove(sym *Symbol) bool {
	if _, ok := t.symbols[sym.Address]; !ok {
		t.stats.RemoveMisses.Inc()
		return false
	}
	delete(t.symbols, sym.Address)
	return true
}

func (t *SymbolTable) Lookup(addr uint64) (*Symbol, bool) {
	sym, ok := t.symbols[addr]
	return sym, ok
}

func (t *SymbolTable) Len() int {
	return len(t.symbols)
}
