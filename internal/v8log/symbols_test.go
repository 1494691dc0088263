package v8log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolTable(t *testing.T) {
	stats := &DebugStats{}
	table := NewSymbolTable(stats)

	foo := &Symbol{Name: "foo", SymbolType: SymbolFunction, Address: 0x100, Size: 0x10}
	table.Add(foo)
	got, ok := table.Lookup(0x100)
	require.True(t, ok)
	assert.Same(t, foo, got)

	// Collisions overwrite.
	bar := &Symbol{Name: "bar", SymbolType: SymbolStub, Address: 0x100, Size: 0x20}
	table.Add(bar)
	got, ok = table.Lookup(0x100)
	require.True(t, ok)
	assert.Equal(t, "bar", got.Name)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, int64(1), stats.AddCollisions.Load())

	assert.True(t, table.Remove(bar))
	_, ok = table.Lookup(0x100)
	assert.False(t, ok)

	assert.False(t, table.Remove(bar))
	assert.Equal(t, int64(1), stats.RemoveMisses.Load())
	assert.Equal(t, 0, table.Len())
}

func TestDebugStatsSnapshot(t *testing.T) {
	stats := &DebugStats{}
	stats.LookupMisses.Add(3)
	stats.MoveMisses.Inc()

	assert.Equal(t, StatsSnapshot{LookupMisses: 3, MoveMisses: 1}, stats.Snapshot())

	stats.Reset()
	assert.Equal(t, StatsSnapshot{}, stats.Snapshot())
}
