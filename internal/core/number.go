package core

import (
	"bytes"
	"strconv"
	"strings"
)

// Number is an optional, loosely typed numeric field. It decodes from a JSON
// number, a numeric string (thousands commas allowed) or null. Anything else
// decodes as absent instead of failing the enclosing document.
type Number struct {
	Value float64
	Valid bool
}

// Num returns a present Number.
func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

// Get returns the value and whether it is present.
func (n Number) Get() (float64, bool) {
	return n.Value, n.Valid
}

// ParseNumber parses a numeric string the way the declaration dataset writes
// them. Blank or malformed input is absent.
func ParseNumber(s string) Number {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return Number{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}
	}
	return Num(v)
}

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0, bytes.Equal(b, []byte("null")):
		*n = Number{}
	case b[0] == '"':
		s, err := strconv.Unquote(string(b))
		if err != nil {
			*n = Number{}
			return nil
		}
		*n = ParseNumber(s)
	default:
		v, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			*n = Number{}
			return nil
		}
		*n = Num(v)
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, n.Value, 'f', -1, 64), nil
}
