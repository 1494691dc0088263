package v8log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileNodeTimes(t *testing.T) {
	n := NewProfileNode("foo")
	n.AddSelfTime(1)
	n.AddTime(2)

	assert.Equal(t, 1.0, n.SelfTime)
	assert.Equal(t, 3.0, n.TotalTime)
	assert.Same(t, n.GetOrInsertChild("bar"), n.GetOrInsertChild("bar"))
}

func TestSortedChildren(t *testing.T) {
	root := NewProfileNode(BottomUpRootName)
	root.GetOrInsertChild("b").AddTime(1)
	root.GetOrInsertChild("a").AddTime(1)
	root.GetOrInsertChild("c").AddTime(5)

	var names []string
	for _, c := range root.SortedChildren() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestSamples(t *testing.T) {
	// Two ticks in foo called from bar, one tick in foo alone, one in baz.
	root := NewProfileNode(BottomUpRootName)
	root.AddTime(4)
	foo := root.GetOrInsertChild("foo")
	foo.AddSelfTime(3)
	foo.GetOrInsertChild("bar").AddTime(2)
	root.GetOrInsertChild("baz").AddSelfTime(1)

	samples := root.Samples()
	require.Len(t, samples, 3)

	got := map[string]float64{}
	for _, s := range samples {
		key := ""
		for _, f := range s.Frames {
			key += "/" + f.Name
		}
		got[key] = s.Count
	}
	assert.Equal(t, map[string]float64{
		"/foo/bar": 2,
		"/foo":     1,
		"/baz":     1,
	}, got)
}

func TestVMStateString(t *testing.T) {
	assert.Equal(t, "JavaScript", StateJS.String())
	assert.Equal(t, "External", StateExternal.String())
	assert.Equal(t, "state 9", VMState(9).String())
}

func TestProfileStateTimes(t *testing.T) {
	p := NewProfile()
	assert.Nil(t, p.BottomUpProfile())

	p.AddStateTime(StateGC, 1)
	p.AddStateTime(StateGC, 2)
	assert.Equal(t, 3.0, p.StateTime(StateGC))
	assert.Equal(t, map[VMState]float64{StateGC: 3}, p.StateTimes())

	root := p.GetOrCreateBottomUpProfile()
	assert.Same(t, root, p.GetOrCreateBottomUpProfile())
	assert.Same(t, root, p.BottomUpProfile())
}
