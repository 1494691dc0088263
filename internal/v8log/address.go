package v8log

import (
	"strconv"
	"strings"
)

// Address tags. Each tag keeps its own running base so that the log can
// encode addresses as signed deltas.
const (
	TagCode     = "code"
	TagCodeMove = "code-move"
	TagStack    = "stack"
	TagScratch  = "scratch"
)

// AddressCodec decodes the address tokens of a v8 log.
type AddressCodec struct {
	bases map[string]uint64
}

func NewAddressCodec() *AddressCodec {
	c := &AddressCodec{}
	c.Reset()
	return c
}

// Reset forgets every tag base. Unseen tags read as base 0.
func (c *AddressCodec) Reset() {
	c.bases = map[string]uint64{
		TagCode:     0,
		TagCodeMove: 0,
		TagStack:    0,
	}
}

// Base returns the current base for tag.
func (c *AddressCodec) Base(tag string) uint64 {
	return c.bases[tag]
}

// SetBase overrides the base for tag.
func (c *AddressCodec) SetBase(tag string, addr uint64) {
	c.bases[tag] = addr
}

// ParseAddress converts an address token into an absolute address. An empty
// tag parses relative tokens against base 0 and records nothing.
//
//	overflow  -> 0
//	0x1a      -> hex, tag base untouched
//	017       -> octal, tag base untouched
//	+1f / -1f -> base(tag) +/- hex, becomes the new base
//	1f        -> hex, becomes the new base
func (c *AddressCodec) ParseAddress(token, tag string) (uint64, error) {
	switch {
	case token == "":
		return 0, formatErrorf(token, "empty address")
	case token == "overflow":
		return 0, nil
	case strings.HasPrefix(token, "0x"):
		return parseUint(token, token[2:], 16)
	case strings.HasPrefix(token, "0"):
		return parseUint(token, token, 8)
	}

	var base uint64
	if tag != "" {
		base = c.bases[tag]
	}

	var addr uint64
	switch token[0] {
	case '+':
		delta, err := parseUint(token, token[1:], 16)
		if err != nil {
			return 0, err
		}
		addr = base + delta
	case '-':
		delta, err := parseUint(token, token[1:], 16)
		if err != nil {
			return 0, err
		}
		// Wraps when delta exceeds base. Such an address never resolves.
		addr = base - delta
	default:
		v, err := parseUint(token, token, 16)
		if err != nil {
			return 0, err
		}
		addr = v
	}

	if tag != "" {
		c.bases[tag] = addr
	}
	return addr, nil
}

func parseUint(token, digits string, base int) (uint64, error) {
	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return 0, &FormatError{Token: token, Err: err}
	}
	return v, nil
}

func parseInt(token string) (int, error) {
	v, err := strconv.Atoi(token)
	if err != nil {
		return 0, &FormatError{Token: token, Err: err}
	}
	return v, nil
}
