package serial

import (
	"strconv"
	"strings"
)

// Flags is a set of sticky line conditions.
type Flags uint32

// Condition bits. Bindings may define more above BreakDetected.
const (
	NoError       Flags = 0
	ParityError   Flags = 1 << 0
	FramingError  Flags = 1 << 1
	OverrunError  Flags = 1 << 2
	BreakDetected Flags = 1 << 3
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{ParityError, "parity"},
	{FramingError, "framing"},
	{OverrunError, "overrun"},
	{BreakDetected, "break"},
}

// Has reports whether all bits of mask are set.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

// String renders the set as names joined by "|", e.g. "framing|overrun".
func (f Flags) String() string {
	if f == NoError {
		return "none"
	}
	var names []string
	rest := f
	for _, n := range flagNames {
		if f&n.flag != 0 {
			names = append(names, n.name)
			rest &^= n.flag
		}
	}
	if rest != 0 {
		names = append(names, "0x"+strconv.FormatUint(uint64(rest), 16))
	}
	return strings.Join(names, "|")
}

// ParseFlags parses names or numbers separated by "|" or ",".
// "none" and the empty string give NoError.
func ParseFlags(s string) (Flags, error) {
	var f Flags
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" || tok == "none" {
			continue
		}
		if bit, ok := flagByName(tok); ok {
			f |= bit
			continue
		}
		val, err := strconv.ParseUint(tok, 0, 32)
		if err != nil {
			return NoError, &UnknownFlagError{Name: tok}
		}
		f |= Flags(val)
	}
	return f, nil
}

func flagByName(name string) (Flags, bool) {
	for _, n := range flagNames {
		if n.name == name {
			return n.flag, true
		}
	}
	return NoError, false
}
