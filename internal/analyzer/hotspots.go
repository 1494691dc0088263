package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xlab/treeprint"

	"v8prof-mcp/internal/v8log"
)

// Hotspot represents a function that consumes significant time
type Hotspot struct {
	Function   string
	SymbolType string
	SelfTime   float64 // Ticks spent executing this function
	TotalTime  float64 // Ticks with this function anywhere on the stack
	Percentage float64 // Percentage of all ticks
}

// FindHotspots returns the functions with the most self time, i.e. the
// first level of the bottom-up tree, sorted descending.
func FindHotspots(profile *v8log.Profile, topN int) []Hotspot {
	root := profile.BottomUpProfile()
	if root == nil {
		return nil
	}

	hotspots := make([]Hotspot, 0, len(root.Children))
	for _, node := range root.Children {
		hs := Hotspot{
			Function:   node.Name,
			SymbolType: node.SymbolType,
			SelfTime:   node.SelfTime,
			TotalTime:  node.TotalTime,
		}
		if root.TotalTime > 0 {
			hs.Percentage = (node.SelfTime / root.TotalTime) * 100.0
		}
		hotspots = append(hotspots, hs)
	}

	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].SelfTime != hotspots[j].SelfTime {
			return hotspots[i].SelfTime > hotspots[j].SelfTime
		}
		return hotspots[i].Function < hotspots[j].Function
	})

	if topN > 0 && topN < len(hotspots) {
		return hotspots[:topN]
	}
	return hotspots
}

// FindCumulativeHotspots ranks functions by the number of ticks in which they
// appear anywhere on the stack. Recursive frames are counted once per tick.
func FindCumulativeHotspots(profile *v8log.Profile, topN int) []Hotspot {
	root := profile.BottomUpProfile()
	if root == nil {
		return nil
	}

	hotspotMap := make(map[string]*Hotspot)
	for _, sample := range root.Samples() {
		// Avoid double-counting in the same stack
		seenInThisStack := make(map[string]bool)
		for i, frame := range sample.Frames {
			if _, exists := hotspotMap[frame.Name]; !exists {
				hotspotMap[frame.Name] = &Hotspot{Function: frame.Name}
			}
			hs := hotspotMap[frame.Name]
			if frame.SymbolType != "" {
				hs.SymbolType = frame.SymbolType
			}
			if i == 0 {
				hs.SelfTime += sample.Count
			}
			if seenInThisStack[frame.Name] {
				continue
			}
			seenInThisStack[frame.Name] = true
			hs.TotalTime += sample.Count
		}
	}

	hotspots := make([]Hotspot, 0, len(hotspotMap))
	for _, hs := range hotspotMap {
		if root.TotalTime > 0 {
			hs.Percentage = (hs.TotalTime / root.TotalTime) * 100.0
		}
		hotspots = append(hotspots, *hs)
	}

	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].TotalTime != hotspots[j].TotalTime {
			return hotspots[i].TotalTime > hotspots[j].TotalTime
		}
		return hotspots[i].Function < hotspots[j].Function
	})

	if topN > 0 && topN < len(hotspots) {
		return hotspots[:topN]
	}
	return hotspots
}

// FormatHotspot returns a human-readable string representation of a hotspot
func FormatHotspot(hs Hotspot, rank int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("#%d: %s\n", rank, hs.Function))
	sb.WriteString(fmt.Sprintf("    Self: %.0f ticks (%.2f%%)\n", hs.SelfTime, hs.Percentage))
	sb.WriteString(fmt.Sprintf("    Total: %.0f ticks\n", hs.TotalTime))

	if hs.SymbolType != "" {
		sb.WriteString(fmt.Sprintf("    Type: %s\n", hs.SymbolType))
	}

	return sb.String()
}

// FormatTree renders the bottom-up tree. maxDepth limits the levels below
// the root (0 = unlimited).
func FormatTree(root *v8log.ProfileNode, maxDepth int) string {
	if root == nil {
		return ""
	}

	tree := treeprint.NewWithRoot(nodeLabel(root))
	var add func(branch treeprint.Tree, node *v8log.ProfileNode, depth int)
	add = func(branch treeprint.Tree, node *v8log.ProfileNode, depth int) {
		for _, child := range node.SortedChildren() {
			if len(child.Children) == 0 || (maxDepth > 0 && depth >= maxDepth) {
				branch.AddNode(nodeLabel(child))
				continue
			}
			add(branch.AddBranch(nodeLabel(child)), child, depth+1)
		}
	}
	add(tree, root, 1)
	return tree.String()
}

func nodeLabel(n *v8log.ProfileNode) string {
	return fmt.Sprintf("%s: self %.0f total %.0f", n.Name, n.SelfTime, n.TotalTime)
}
