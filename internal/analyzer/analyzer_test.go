package analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"v8prof-mcp/internal/v8log"
)

func mustProfile(t *testing.T, lines ...string) *v8log.Profile {
	t.Helper()

	e := v8log.NewEngine(v8log.Options{})
	profile := v8log.NewProfile()
	err := e.ParseRawEvent(context.Background(), strings.Join(lines, "\n"), &v8log.Record{}, profile)
	require.NoError(t, err)
	return profile
}

func sampleProfile(t *testing.T) *v8log.Profile {
	return mustProfile(t,
		`code-creation,Function,1000,10,"foo"`,
		`code-creation,LazyCompile,2000,10,"bar"`,
		`repeat,2,tick,1000,0,0,+1000`,
		`tick,2000,0,1`,
		`tick,9999,0,0`,
	)
}

func TestFindHotspots(t *testing.T) {
	hotspots := FindHotspots(sampleProfile(t), 0)

	require.Len(t, hotspots, 3)
	assert.Equal(t, Hotspot{Function: "foo", SymbolType: "Function", SelfTime: 2, TotalTime: 2, Percentage: 50}, hotspots[0])
	assert.Equal(t, "bar", hotspots[1].Function)
	assert.Equal(t, "unknown - JavaScript", hotspots[2].Function)

	assert.Len(t, FindHotspots(sampleProfile(t), 1), 1)
	assert.Nil(t, FindHotspots(v8log.NewProfile(), 10))
}

func TestFindCumulativeHotspots(t *testing.T) {
	hotspots := FindCumulativeHotspots(sampleProfile(t), 2)

	require.Len(t, hotspots, 2)
	assert.Equal(t, Hotspot{Function: "bar", SymbolType: "LazyCompile", SelfTime: 1, TotalTime: 3, Percentage: 75}, hotspots[0])
	assert.Equal(t, Hotspot{Function: "foo", SymbolType: "Function", SelfTime: 2, TotalTime: 2, Percentage: 50}, hotspots[1])
}

func TestCumulativeCountsRecursionOnce(t *testing.T) {
	profile := mustProfile(t,
		`code-creation,Function,1000,10,"fib"`,
		`tick,1000,0,0,1000,1000`,
	)

	hotspots := FindCumulativeHotspots(profile, 0)
	require.Len(t, hotspots, 1)
	assert.Equal(t, 1.0, hotspots[0].TotalTime)
	assert.Equal(t, 100.0, hotspots[0].Percentage)
}

func TestComputeStatistics(t *testing.T) {
	stats := ComputeStatistics(sampleProfile(t))

	assert.Equal(t, ProfileStatistics{
		TotalTicks:        4,
		TotalNodes:        4,
		UniqueFunctions:   3,
		UniquePaths:       3,
		AverageStackDepth: 1.5,
		MaxStackDepth:     2,
		UnknownTicks:      1,
	}, stats)

	assert.Equal(t, ProfileStatistics{}, ComputeStatistics(v8log.NewProfile()))
}

func TestStateBreakdown(t *testing.T) {
	assert.Equal(t, []StateTime{
		{State: v8log.StateJS, Ticks: 3, Percentage: 75},
		{State: v8log.StateGC, Ticks: 1, Percentage: 25},
	}, StateBreakdown(sampleProfile(t)))
}

func TestDetectPerformanceIssues(t *testing.T) {
	issues := DetectPerformanceIssues(sampleProfile(t))

	require.Len(t, issues, 3)
	assert.Equal(t, "CPU Hotspot", issues[0].Category)
	assert.Equal(t, "foo", issues[0].Function)
	assert.Equal(t, "Critical", issues[0].Severity)
	assert.Equal(t, "GC Pressure", issues[1].Category)
	assert.Equal(t, "bar", issues[2].Function)

	assert.Empty(t, DetectPerformanceIssues(v8log.NewProfile()))
}

func TestDetectUnresolvedSamples(t *testing.T) {
	issues := DetectPerformanceIssues(mustProfile(t, `tick,1,0,0`, `tick,2,0,0`))

	require.Len(t, issues, 1)
	assert.Equal(t, "Unresolved Samples", issues[0].Category)
	assert.Equal(t, 100.0, issues[0].Impact)
}

func TestFormatTree(t *testing.T) {
	out := FormatTree(sampleProfile(t).BottomUpProfile(), 0)

	assert.Contains(t, out, "(root): self 0 total 4")
	assert.Contains(t, out, "foo: self 2 total 2")
	assert.Contains(t, out, "bar: self 0 total 2")
	assert.Contains(t, out, "bar: self 1 total 1")

	shallow := FormatTree(sampleProfile(t).BottomUpProfile(), 1)
	assert.NotContains(t, shallow, "bar: self 0 total 2")
	assert.Empty(t, FormatTree(nil, 0))
}

func TestFormatHotspot(t *testing.T) {
	out := FormatHotspot(Hotspot{Function: "foo", SymbolType: "Function", SelfTime: 2, TotalTime: 3, Percentage: 50}, 1)
	assert.Equal(t, "#1: foo\n    Self: 2 ticks (50.00%)\n    Total: 3 ticks\n    Type: Function\n", out)
}
