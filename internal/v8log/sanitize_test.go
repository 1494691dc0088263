package v8log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLSanitizer(t *testing.T) {
	s := HTMLSanitizer{}

	for _, tc := range []struct {
		in, want string
	}{
		{"plain name", "plain name"},
		{"Array.prototype.push", "Array.prototype.push"},
		{"<b>bold</b>", "bold"},
		{"foo<script>alert(1)</script>bar", "foobar"},
		{`x<img src=x onerror="alert(1)">y`, "xy"},
		{"a &amp; b", "a &amp; b"},
		{"a & b", "a &amp; b"},
		{"&lt;script&gt;alert(1)&lt;/script&gt;", "&lt;script&gt;alert(1)&lt;/script&gt;"},
		{"&lt;img src=x onerror=alert(1)&gt;", "&lt;img src=x onerror=alert(1)&gt;"},
		{"<i>&lt;b&gt;</i>", "&lt;b&gt;"},
	} {
		assert.Equal(t, tc.want, s.Sanitize(tc.in), "input %q", tc.in)
	}
}

func TestSanitizerFunc(t *testing.T) {
	var s Sanitizer = SanitizerFunc(func(string) string { return "x" })
	assert.Equal(t, "x", s.Sanitize("anything"))
}
