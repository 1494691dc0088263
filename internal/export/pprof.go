// Package export converts bottom-up v8 profiles to other formats.
package export

import (
	"io"

	"github.com/google/pprof/profile"
	"github.com/pkg/errors"

	"v8prof-mcp/internal/v8log"
)

// ToPprof converts the bottom-up tree of p into a pprof profile with one
// sample per distinct stack. Sample values count ticks.
func ToPprof(p *v8log.Profile) *profile.Profile {
	prof := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "samples", Unit: "count"}},
		PeriodType: &profile.ValueType{Type: "samples", Unit: "count"},
		Period:     1,
	}

	root := p.BottomUpProfile()
	if root == nil {
		return prof
	}

	locations := make(map[string]*profile.Location)
	location := func(node *v8log.ProfileNode) *profile.Location {
		if loc, ok := locations[node.Name]; ok {
			return loc
		}
		fn := &profile.Function{
			ID:         uint64(len(prof.Function) + 1),
			Name:       node.Name,
			SystemName: node.Name,
		}
		loc := &profile.Location{
			ID:   uint64(len(prof.Location) + 1),
			Line: []profile.Line{{Function: fn}},
		}
		prof.Function = append(prof.Function, fn)
		prof.Location = append(prof.Location, loc)
		locations[node.Name] = loc
		return loc
	}

	for _, s := range root.Samples() {
		sample := &profile.Sample{Value: []int64{int64(s.Count)}}
		// Bottom-up paths are already leaf first.
		for _, frame := range s.Frames {
			sample.Location = append(sample.Location, location(frame))
		}
		if frame := s.Frames[0]; frame.SymbolType != "" {
			sample.Label = map[string][]string{"symbol_type": {frame.SymbolType}}
		}
		prof.Sample = append(prof.Sample, sample)
	}
	return prof
}

// WritePprof writes the gzipped pprof encoding of p to w.
func WritePprof(w io.Writer, p *v8log.Profile) error {
	prof := ToPprof(p)
	if err := prof.CheckValid(); err != nil {
		return errors.Wrap(err, "invalid pprof profile")
	}
	return errors.Wrap(prof.Write(w), "writing pprof profile")
}
