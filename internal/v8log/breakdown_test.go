package v8log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreakdown(t *testing.T) {
	payload := "tick,1,2,0\ncode-creation,Function,1,2,\"f\"\ntick,1,2,0\n\nt,1,2,0\n"

	assert.Equal(t, []CommandCount{
		{Command: "tick", Count: 2},
		{Command: "code-creation", Count: 1},
		{Command: "t", Count: 1},
	}, Breakdown(payload))
}
