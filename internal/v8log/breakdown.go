package v8log

import (
	"sort"
	"strings"
)

// CommandCount is the number of raw lines starting with Command.
type CommandCount struct {
	Command string
	Count   int
}

// Breakdown counts the raw (undecoded) command token of every non-empty line
// of payload, most frequent first. Aliased and compressed lines are counted
// under the token as written.
func Breakdown(payload string) []CommandCount {
	counts := make(map[string]int)
	for _, line := range strings.Split(payload, "\n") {
		if line == "" {
			continue
		}
		command, _, _ := strings.Cut(line, ",")
		counts[command]++
	}

	out := make([]CommandCount, 0, len(counts))
	for command, n := range counts {
		out = append(out, CommandCount{Command: command, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Command < out[j].Command
	})
	return out
}
