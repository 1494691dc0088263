package v8log

import (
	"strconv"
	"strings"
)

// LineDecompressor expands back-references in a compressed v8 log.
//
// With compression enabled the VM may end a line with "#N" or "#N:M", which
// stands for the N-th previous (already expanded) line starting at byte
// offset M. Lines ending in a quote are never back-references since '#' is
// legal inside quoted names. Every expanded line enters the window, so lines
// must be fed strictly in log order.
type LineDecompressor struct {
	window []string
	next   int
	filled int
}

// NewLineDecompressor returns a decompressor remembering windowSize lines.
func NewLineDecompressor(windowSize int) *LineDecompressor {
	if windowSize < 1 {
		windowSize = 1
	}
	return &LineDecompressor{window: make([]string, windowSize)}
}

// WindowSize returns the number of lines kept for back-references.
func (d *LineDecompressor) WindowSize() int {
	return len(d.window)
}

// Decompress expands a single physical log line.
func (d *LineDecompressor) Decompress(line string) (string, error) {
	if !strings.HasSuffix(line, `"`) {
		if pos := strings.LastIndexByte(line, '#'); pos != -1 {
			expanded, err := d.expand(line[:pos], line[pos+1:])
			if err != nil {
				return "", err
			}
			line = expanded
		}
	}
	d.push(line)
	return line, nil
}

func (d *LineDecompressor) expand(prefix, ref string) (string, error) {
	idx, start := ref, ""
	if colon := strings.IndexByte(ref, ':'); colon != -1 {
		idx, start = ref[:colon], ref[colon+1:]
	}

	back, err := strconv.Atoi(idx)
	if err != nil {
		return "", &FormatError{Token: "#" + ref, Err: err}
	}
	if back < 1 || back > d.filled {
		return "", formatErrorf("#"+ref, "back-reference %d outside window of %d lines", back, d.filled)
	}
	prev := d.at(back)

	offset := 0
	if start != "" {
		offset, err = strconv.Atoi(start)
		if err != nil {
			return "", &FormatError{Token: "#" + ref, Err: err}
		}
	}
	if offset < 0 || offset > len(prev) {
		return "", formatErrorf("#"+ref, "offset %d outside referenced line of length %d", offset, len(prev))
	}
	return prefix + prev[offset:], nil
}

// at returns the n-th most recent line, 1-based.
func (d *LineDecompressor) at(n int) string {
	size := len(d.window)
	return d.window[(d.next-n+size)%size]
}

func (d *LineDecompressor) push(line string) {
	d.window[d.next] = line
	d.next = (d.next + 1) % len(d.window)
	if d.filled < len(d.window) {
		d.filled++
	}
}

// SplitLogLine splits a log line on commas that are not inside a quoted
// field. Quote characters are kept in the returned fields.
func SplitLogLine(line string) []string {
	if line == "" {
		return nil
	}

	fields := make([]string, 0, 8)
	inQuote := false
	start := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				fields = append(fields, line[start:i])
				start = i + 1
			}
		}
	}
	fields = append(fields, line[start:])
	return fields
}

// stripQuotes removes one leading and one trailing double quote.
func stripQuotes(value string) string {
	value = strings.TrimPrefix(value, `"`)
	return strings.TrimSuffix(value, `"`)
}
