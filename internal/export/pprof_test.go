package export

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"v8prof-mcp/internal/v8log"
)

func mustProfile(t *testing.T, lines ...string) *v8log.Profile {
	t.Helper()

	e := v8log.NewEngine(v8log.Options{})
	p := v8log.NewProfile()
	require.NoError(t, e.ParseRawEvent(context.Background(), strings.Join(lines, "\n"), &v8log.Record{}, p))
	return p
}

func stackOf(s *profile.Sample) string {
	names := make([]string, 0, len(s.Location))
	for _, loc := range s.Location {
		names = append(names, loc.Line[0].Function.Name)
	}
	return strings.Join(names, ";")
}

func TestToPprof(t *testing.T) {
	p := mustProfile(t,
		`code-creation,Function,1000,10,"foo"`,
		`code-creation,Function,2000,10,"bar"`,
		`repeat,2,tick,1000,0,0,+1000`,
		`tick,2000,0,0`,
	)

	prof := ToPprof(p)
	require.NoError(t, prof.CheckValid())
	assert.Len(t, prof.Function, 2)
	assert.Len(t, prof.Location, 2)

	got := map[string]int64{}
	for _, s := range prof.Sample {
		got[stackOf(s)] = s.Value[0]
	}
	assert.Equal(t, map[string]int64{"foo;bar": 2, "bar": 1}, got)
}

func TestWritePprofRoundTrip(t *testing.T) {
	p := mustProfile(t, `code-creation,Stub,1000,10,"stub"`, `tick,1000,0,0`)

	var buf bytes.Buffer
	require.NoError(t, WritePprof(&buf, p))

	parsed, err := profile.Parse(&buf)
	require.NoError(t, err)
	require.Len(t, parsed.Sample, 1)
	assert.Equal(t, "stub", stackOf(parsed.Sample[0]))
	assert.Equal(t, []string{"Stub"}, parsed.Sample[0].Label["symbol_type"])
}

func TestToPprofEmpty(t *testing.T) {
	prof := ToPprof(v8log.NewProfile())
	require.NoError(t, prof.CheckValid())
	assert.Empty(t, prof.Sample)
}
