package v8log

import "strconv"

// Command codes for the actions a log line can request.
const (
	ActionAlias        = 1
	ActionProfiler     = 2
	ActionCodeCreation = 3
	ActionCodeMove     = 4
	ActionCodeDelete   = 5
	ActionTick         = 6
	ActionRepeat       = 7
)

// Symbol type codes assigned to code-creation records.
const (
	SymbolBuiltin                = 8
	SymbolCallDebugBreak         = 9
	SymbolCallDebugPrepareStepIn = 10
	SymbolCallIC                 = 11
	SymbolCallInitialize         = 12
	SymbolCallMegamorphic        = 13
	SymbolCallMiss               = 14
	SymbolCallNormal             = 15
	SymbolCallPreMonomorphic     = 16
	SymbolCallback               = 17
	SymbolEval                   = 18
	SymbolFunction               = 19
	SymbolLoadIC                 = 20
	SymbolKeyedCallIC            = 21
	SymbolKeyedLoadIC            = 22
	SymbolKeyedStoreIC           = 23
	SymbolLazyCompile            = 24
	SymbolRegExp                 = 25
	SymbolScript                 = 26
	SymbolStoreIC                = 27
	SymbolStub                   = 28
)

// NotFound is returned by lookups for names that were never defined or aliased.
const NotFound = -1

// Entry associates a canonical name with a numeric code.
type Entry struct {
	Name string
	Code int
}

func (e Entry) String() string {
	return e.Name + ":" + strconv.Itoa(e.Code)
}

// Registry stores entries by code and indexes them by any number of names.
// Aliases point at the code of an existing entry, so there is never more
// than one entry per code.
type Registry struct {
	entries map[int]*Entry
	names   map[string]int
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[int]*Entry),
		names:   make(map[string]int),
	}
}

// Define registers a canonical entry. Redefining a code replaces its entry.
func (r *Registry) Define(name string, code int) *Entry {
	e := &Entry{Name: name, Code: code}
	r.entries[code] = e
	r.names[name] = code
	return e
}

// Lookup returns the code for name, or NotFound.
func (r *Registry) Lookup(name string) int {
	code, ok := r.names[name]
	if !ok {
		return NotFound
	}
	return code
}

// Entry returns the canonical entry for code.
func (r *Registry) Entry(code int) (*Entry, bool) {
	e, ok := r.entries[code]
	return e, ok
}

// Resolve returns the entry that name maps to.
func (r *Registry) Resolve(name string) (*Entry, bool) {
	code, ok := r.names[name]
	if !ok {
		return nil, false
	}
	return r.Entry(code)
}

func (r *Registry) alias(newName, original string) bool {
	code, ok := r.names[original]
	if !ok {
		return false
	}
	r.names[newName] = code
	return true
}

// AliasRegistry holds the action and symbol type vocabularies of a log.
type AliasRegistry struct {
	Actions     *Registry
	SymbolTypes *Registry
}

// NewAliasRegistry returns a registry populated with the canonical vocabulary.
func NewAliasRegistry() *AliasRegistry {
	r := &AliasRegistry{
		Actions:     NewRegistry(),
		SymbolTypes: NewRegistry(),
	}

	r.Actions.Define("alias", ActionAlias)
	r.Actions.Define("profiler", ActionProfiler)
	r.Actions.Define("code-creation", ActionCodeCreation)
	r.Actions.Define("code-move", ActionCodeMove)
	r.Actions.Define("code-delete", ActionCodeDelete)
	r.Actions.Define("tick", ActionTick)
	r.Actions.Define("repeat", ActionRepeat)

	r.SymbolTypes.Define("Builtin", SymbolBuiltin)
	r.SymbolTypes.Define("CallDebugBreak", SymbolCallDebugBreak)
	r.SymbolTypes.Define("CallDebugPrepareStepIn", SymbolCallDebugPrepareStepIn)
	r.SymbolTypes.Define("CallIC", SymbolCallIC)
	r.SymbolTypes.Define("CallInitialize", SymbolCallInitialize)
	r.SymbolTypes.Define("CallMegamorphic", SymbolCallMegamorphic)
	r.SymbolTypes.Define("CallMiss", SymbolCallMiss)
	r.SymbolTypes.Define("CallNormal", SymbolCallNormal)
	r.SymbolTypes.Define("CallPreMonomorphic", SymbolCallPreMonomorphic)
	r.SymbolTypes.Define("Callback", SymbolCallback)
	r.SymbolTypes.Define("Eval", SymbolEval)
	r.SymbolTypes.Define("Function", SymbolFunction)
	r.SymbolTypes.Define("KeyedCallIC", SymbolKeyedCallIC)
	r.SymbolTypes.Define("KeyedLoadIC", SymbolKeyedLoadIC)
	r.SymbolTypes.Define("KeyedStoreIC", SymbolKeyedStoreIC)
	r.SymbolTypes.Define("LazyCompile", SymbolLazyCompile)
	r.SymbolTypes.Define("LoadIC", SymbolLoadIC)
	r.SymbolTypes.Define("RegExp", SymbolRegExp)
	r.SymbolTypes.Define("Script", SymbolScript)
	r.SymbolTypes.Define("StoreIC", SymbolStoreIC)
	r.SymbolTypes.Define("Stub", SymbolStub)

	return r
}

// Alias makes newName resolve to the entry named original. Symbol types are
// searched before actions. It reports whether original was found.
func (r *AliasRegistry) Alias(newName, original string) bool {
	if r.SymbolTypes.alias(newName, original) {
		return true
	}
	return r.Actions.alias(newName, original)
}

// SymbolType returns the symbol type code for name, or NotFound.
func (r *AliasRegistry) SymbolType(name string) int {
	return r.SymbolTypes.Lookup(name)
}

// Action returns the action code for name, or NotFound.
func (r *AliasRegistry) Action(name string) int {
	return r.Actions.Lookup(name)
}

// SymbolTypeName returns the canonical name for a symbol type code.
func (r *AliasRegistry) SymbolTypeName(code int) (string, bool) {
	e, ok := r.SymbolTypes.Entry(code)
	if !ok {
		return "", false
	}
	return e.Name, true
}
