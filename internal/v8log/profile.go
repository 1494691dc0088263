package v8log

import (
	"sort"
	"strconv"
)

// VMState is the execution phase a tick was sampled in.
type VMState int

const (
	StateJS VMState = iota
	StateGC
	StateCompiler
	StateOther
	StateExternal
)

var stateNames = [...]string{
	StateJS:       "JavaScript",
	StateGC:       "Garbage Collection",
	StateCompiler: "Compiler",
	StateOther:    "Other",
	StateExternal: "External",
}

func (s VMState) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "state " + strconv.Itoa(int(s))
}

// ProfileNode is a node of a bottom-up call tree. Children are keyed by
// symbol name.
type ProfileNode struct {
	Name       string
	SymbolType string
	SelfTime   float64
	TotalTime  float64
	Children   map[string]*ProfileNode
}

func NewProfileNode(name string) *ProfileNode {
	return &ProfileNode{
		Name:     name,
		Children: make(map[string]*ProfileNode),
	}
}

// GetOrInsertChild returns the child called name, creating it if needed.
func (n *ProfileNode) GetOrInsertChild(name string) *ProfileNode {
	child, ok := n.Children[name]
	if !ok {
		child = NewProfileNode(name)
		n.Children[name] = child
	}
	return child
}

// AddSelfTime attributes t to this node as the executing frame. Self time
// also counts towards the node's total.
func (n *ProfileNode) AddSelfTime(t float64) {
	n.SelfTime += t
	n.TotalTime += t
}

// AddTime attributes t to this node as a caller frame.
func (n *ProfileNode) AddTime(t float64) {
	n.TotalTime += t
}

// SortedChildren returns the children ordered by total time, descending,
// with ties broken by name.
func (n *ProfileNode) SortedChildren() []*ProfileNode {
	children := make([]*ProfileNode, 0, len(n.Children))
	for _, c := range n.Children {
		children = append(children, c)
	}
	sort.Slice(children, func(i, j int) bool {
		if children[i].TotalTime != children[j].TotalTime {
			return children[i].TotalTime > children[j].TotalTime
		}
		return children[i].Name < children[j].Name
	})
	return children
}

// Walk visits n and its descendants depth first. path holds the ancestors of
// the visited node, excluding n itself at depth 0.
func (n *ProfileNode) Walk(fn func(node *ProfileNode, path []*ProfileNode)) {
	var walk func(node *ProfileNode, path []*ProfileNode)
	walk = func(node *ProfileNode, path []*ProfileNode) {
		fn(node, path)
		path = append(path, node)
		for _, c := range node.SortedChildren() {
			walk(c, path)
		}
	}
	walk(n, nil)
}

// ProfileSink receives the results of folding a log.
type ProfileSink interface {
	AddStateTime(state VMState, amount float64)
	GetOrCreateBottomUpProfile() *ProfileNode
	BottomUpProfile() *ProfileNode
}

// BottomUpRootName names the root of every bottom-up tree.
const BottomUpRootName = "(root)"

// Profile is the default ProfileSink.
type Profile struct {
	stateTimes map[VMState]float64
	bottomUp   *ProfileNode
}

func NewProfile() *Profile {
	return &Profile{stateTimes: make(map[VMState]float64)}
}

func (p *Profile) AddStateTime(state VMState, amount float64) {
	p.stateTimes[state] += amount
}

// StateTime returns the samples accumulated for state.
func (p *Profile) StateTime(state VMState) float64 {
	return p.stateTimes[state]
}

// StateTimes returns a copy of the per-state totals.
func (p *Profile) StateTimes() map[VMState]float64 {
	out := make(map[VMState]float64, len(p.stateTimes))
	for k, v := range p.stateTimes {
		out[k] = v
	}
	return out
}

func (p *Profile) GetOrCreateBottomUpProfile() *ProfileNode {
	if p.bottomUp == nil {
		p.bottomUp = NewProfileNode(BottomUpRootName)
	}
	return p.bottomUp
}

// BottomUpProfile returns the bottom-up root, or nil if no tick was recorded.
func (p *Profile) BottomUpProfile() *ProfileNode {
	return p.bottomUp
}

// Sample is a distinct bottom-up path and the number of ticks that ended on
// it. Frames are ordered innermost first and exclude the root.
type Sample struct {
	Frames []*ProfileNode
	Count  float64
}

// Samples recovers the ticks folded into the tree rooted at n. Every tick
// adds one unit of total time to each node on its path, so the ticks ending
// at a node are its total minus the totals of its children.
func (n *ProfileNode) Samples() []Sample {
	var samples []Sample
	n.Walk(func(node *ProfileNode, path []*ProfileNode) {
		if node == n {
			return
		}
		ended := node.TotalTime
		for _, c := range node.Children {
			ended -= c.TotalTime
		}
		if ended <= 0 {
			return
		}
		frames := make([]*ProfileNode, 0, len(path))
		frames = append(frames, path[1:]...)
		frames = append(frames, node)
		samples = append(samples, Sample{Frames: frames, Count: ended})
	})
	return samples
}
