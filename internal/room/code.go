// internal/room/code.go
package room

import (
	"fmt"
	"strings"
)

// CodeSpace is the number of distinct room codes: four letters A-Z.
const CodeSpace = 26 * 26 * 26 * 26

// Code is a four-letter room identifier like "GXQD". Codes are short
// enough to read over voice chat and big enough for ephemeral rooms.
type Code [4]byte

// CodeFromInt converts a numeric code index to its letter form.
func CodeFromInt(v uint32) (Code, error) {
	if v >= CodeSpace {
		return Code{}, fmt.Errorf("room code index %d out of range", v)
	}
	var c Code
	for i := len(c) - 1; i >= 0; i-- {
		c[i] = byte(v%26) + 'A'
		v /= 26
	}
	return c, nil
}

// Int converts the letter form back to its numeric index.
func (c Code) Int() uint32 {
	var v uint32
	for _, b := range c {
		v = v*26 + uint32(b-'A')
	}
	return v
}

func (c Code) String() string {
	return string(c[:])
}

// ParseCode parses a four-letter code, case-insensitively and with
// surrounding whitespace tolerated.
func ParseCode(s string) (Code, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(s))
	if len(trimmed) != 4 {
		return Code{}, fmt.Errorf("room code %q must be exactly 4 letters", s)
	}
	var c Code
	for i := 0; i < 4; i++ {
		b := trimmed[i]
		if b < 'A' || b > 'Z' {
			return Code{}, fmt.Errorf("room code %q contains a non-letter", s)
		}
		c[i] = b
	}
	return c, nil
}

// MarshalText implements encoding.TextMarshaler so codes serialize as
// their letter form in JSON and URL parameters.
func (c Code) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Code) UnmarshalText(text []byte) error {
	parsed, err := ParseCode(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
