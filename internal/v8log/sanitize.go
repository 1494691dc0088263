package v8log

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sanitizer removes executable markup from symbol names.
type Sanitizer interface {
	Sanitize(string) string
}

// SanitizerFunc adapts a function to Sanitizer.
type SanitizerFunc func(string) string

func (f SanitizerFunc) Sanitize(s string) string { return f(s) }

// HTMLSanitizer keeps only the text content of a name, dropping tags and the
// bodies of script and style elements. Text that went through the tokenizer
// is returned HTML-escaped.
type HTMLSanitizer struct{}

func (HTMLSanitizer) Sanitize(input string) string {
	if !strings.ContainsAny(input, "<&") {
		return input
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(input))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			if skip == 0 {
				// Text() unescapes entities; escape again so encoded markup stays inert.
				sb.WriteString(html.EscapeString(string(z.Text())))
			}
		case html.StartTagToken:
			if isRawTextElement(z) {
				skip++
			}
		case html.EndTagToken:
			if skip > 0 && isRawTextElement(z) {
				skip--
			}
		}
	}
}

func isRawTextElement(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch atom.Lookup(name) {
	case atom.Script, atom.Style:
		return true
	}
	return false
}
