package cdec

import (
	"bytes"
	"fmt"
	"strconv"
)

// looseFloat decodes a numeric field that CDEC reports inconsistently:
// some stations carry a JSON number, others a quoted number, others an
// empty string or null. Null-like values decode as absent rather than
// failing the record.
type looseFloat struct {
	set bool
	v   float64
}

func (f *looseFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		f.set = false
		return nil
	}

	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return fmt.Errorf("unquote numeric field %s: %w", data, err)
		}
		if s == "" {
			f.set = false
			return nil
		}
		data = []byte(s)
	}

	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("parse numeric field %q: %w", data, err)
	}

	f.set = true
	f.v = v
	return nil
}

// value returns the parsed float, or nil as the explicit no-value marker.
func (f looseFloat) value() *float64 {
	if !f.set {
		return nil
	}
	v := f.v
	return &v
}
