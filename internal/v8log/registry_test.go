package v8log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliasSymbolType(t *testing.T) {
	r := NewAliasRegistry()

	require.True(t, r.Alias("Func", "Function"))
	assert.Equal(t, SymbolFunction, r.SymbolType("Func"))
	assert.Equal(t, r.SymbolType("Function"), r.SymbolType("Func"))

	orig, ok := r.SymbolTypes.Resolve("Function")
	require.True(t, ok)
	alias, ok := r.SymbolTypes.Resolve("Func")
	require.True(t, ok)
	assert.Same(t, orig, alias)

	name, ok := r.SymbolTypeName(r.SymbolType("Func"))
	require.True(t, ok)
	assert.Equal(t, "Function", name)
}

func TestAliasAction(t *testing.T) {
	r := NewAliasRegistry()

	require.True(t, r.Alias("t", "tick"))
	assert.Equal(t, ActionTick, r.Action("t"))
	assert.Equal(t, NotFound, r.SymbolType("t"))
}

func TestAliasOfAlias(t *testing.T) {
	r := NewAliasRegistry()

	require.True(t, r.Alias("cc", "code-creation"))
	require.True(t, r.Alias("c", "cc"))
	assert.Equal(t, ActionCodeCreation, r.Action("c"))
}

func TestAliasMiss(t *testing.T) {
	r := NewAliasRegistry()

	assert.False(t, r.Alias("x", "no-such-command"))
	assert.Equal(t, NotFound, r.Action("x"))
	assert.Equal(t, NotFound, r.SymbolType("x"))
}

func TestRegistryDefine(t *testing.T) {
	r := NewRegistry()
	e := r.Define("Function", 19)

	assert.Equal(t, "Function:19", e.String())
	assert.Equal(t, 19, r.Lookup("Function"))
	assert.Equal(t, NotFound, r.Lookup("Script"))

	got, ok := r.Entry(19)
	require.True(t, ok)
	assert.Same(t, e, got)
}
