package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"v8prof-mcp/internal/v8log"
)

// ProfileStatistics contains comprehensive statistics about the profile
type ProfileStatistics struct {
	TotalTicks        float64
	TotalNodes        int
	UniqueFunctions   int
	UniquePaths       int
	AverageStackDepth float64 // weighted by ticks
	MaxStackDepth     int
	UnknownTicks      float64 // ticks with no resolvable frame
}

// ComputeStatistics calculates comprehensive statistics for the profile
func ComputeStatistics(profile *v8log.Profile) ProfileStatistics {
	stats := ProfileStatistics{}

	root := profile.BottomUpProfile()
	if root == nil {
		return stats
	}
	stats.TotalTicks = root.TotalTime

	functionSet := make(map[string]bool)
	root.Walk(func(node *v8log.ProfileNode, path []*v8log.ProfileNode) {
		if node == root {
			return
		}
		stats.TotalNodes++
		functionSet[node.Name] = true
		if len(path) == 1 && strings.HasPrefix(node.Name, "unknown - ") {
			stats.UnknownTicks += node.SelfTime
		}
	})
	stats.UniqueFunctions = len(functionSet)

	samples := root.Samples()
	stats.UniquePaths = len(samples)
	weightedDepth, ticks := 0.0, 0.0
	for _, s := range samples {
		depth := len(s.Frames)
		if depth > stats.MaxStackDepth {
			stats.MaxStackDepth = depth
		}
		weightedDepth += float64(depth) * s.Count
		ticks += s.Count
	}
	if ticks > 0 {
		stats.AverageStackDepth = weightedDepth / ticks
	}

	return stats
}

// StateTime is the share of ticks sampled in one VM state.
type StateTime struct {
	State      v8log.VMState
	Ticks      float64
	Percentage float64
}

// StateBreakdown returns the per VM state totals, largest first.
func StateBreakdown(profile *v8log.Profile) []StateTime {
	times := profile.StateTimes()
	total := lo.Sum(lo.Values(times))

	out := make([]StateTime, 0, len(times))
	for state, t := range times {
		st := StateTime{State: state, Ticks: t}
		if total > 0 {
			st.Percentage = (t / total) * 100.0
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ticks != out[j].Ticks {
			return out[i].Ticks > out[j].Ticks
		}
		return out[i].State < out[j].State
	})
	return out
}

// PerformanceIssue is a finding of DetectPerformanceIssues
type PerformanceIssue struct {
	Severity    string // "Critical", "High", "Medium", "Low"
	Category    string // e.g., "GC Pressure", "CPU Hotspot"
	Description string
	Function    string
	Impact      float64 // % of total ticks
}

// DetectPerformanceIssues identifies potential performance problems
func DetectPerformanceIssues(profile *v8log.Profile) []PerformanceIssue {
	issues := []PerformanceIssue{}
	stats := ComputeStatistics(profile)
	if stats.TotalTicks == 0 {
		return issues
	}

	for _, st := range StateBreakdown(profile) {
		switch {
		case st.State == v8log.StateGC && st.Percentage > 20.0:
			issues = append(issues, PerformanceIssue{
				Severity:    "High",
				Category:    "GC Pressure",
				Description: fmt.Sprintf("%.2f%% of ticks were sampled during garbage collection", st.Percentage),
				Impact:      st.Percentage,
			})
		case st.State == v8log.StateCompiler && st.Percentage > 20.0:
			issues = append(issues, PerformanceIssue{
				Severity:    "Medium",
				Category:    "Compilation Overhead",
				Description: fmt.Sprintf("%.2f%% of ticks were sampled in the compiler", st.Percentage),
				Impact:      st.Percentage,
			})
		}
	}

	unknownPct := (stats.UnknownTicks / stats.TotalTicks) * 100.0
	if unknownPct > 30.0 {
		issues = append(issues, PerformanceIssue{
			Severity:    "Medium",
			Category:    "Unresolved Samples",
			Description: fmt.Sprintf("%.2f%% of ticks could not be mapped to any code object. The log may be missing code-creation records.", unknownPct),
			Impact:      unknownPct,
		})
	}

	// Detect extremely deep stacks (potential deep recursion)
	if stats.MaxStackDepth > 50 {
		issues = append(issues, PerformanceIssue{
			Severity:    "High",
			Category:    "Deep Call Stack",
			Description: fmt.Sprintf("Maximum stack depth of %d frames detected. This may indicate deep recursion or complex call chains.", stats.MaxStackDepth),
		})
	}

	resolved := lo.Filter(FindHotspots(profile, 10), func(hs Hotspot, _ int) bool {
		return !strings.HasPrefix(hs.Function, "unknown - ")
	})
	for _, hs := range resolved {
		if hs.Percentage > 20.0 {
			issues = append(issues, PerformanceIssue{
				Severity:    "Critical",
				Category:    "CPU Hotspot",
				Description: fmt.Sprintf("Function consumes %.2f%% of total execution time", hs.Percentage),
				Function:    hs.Function,
				Impact:      hs.Percentage,
			})
		} else if hs.Percentage > 10.0 {
			issues = append(issues, PerformanceIssue{
				Severity:    "High",
				Category:    "CPU Hotspot",
				Description: fmt.Sprintf("Function consumes %.2f%% of total execution time", hs.Percentage),
				Function:    hs.Function,
				Impact:      hs.Percentage,
			})
		}
	}

	// Functions on nearly every stack are likely driving a hot loop
	for _, hs := range FindCumulativeHotspots(profile, 0) {
		if hs.Percentage > 80.0 && !strings.HasPrefix(hs.Function, "unknown - ") {
			issues = append(issues, PerformanceIssue{
				Severity:    "Critical",
				Category:    "Hot Loop",
				Description: fmt.Sprintf("Function appears in %.2f%% of all ticks - likely in a hot loop", hs.Percentage),
				Function:    hs.Function,
				Impact:      hs.Percentage,
			})
		}
	}

	// Sort by impact (descending)
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Impact > issues[j].Impact
	})

	return issues
}
