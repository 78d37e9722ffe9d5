package logistics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LooseInt decodes quantities that providers send as JSON numbers, numeric
// strings or XML text. Fractions are truncated.
type LooseInt int

// Int returns the value as an int
func (n LooseInt) Int() int { return int(n) }

// UnmarshalJSON implements json.Unmarshaler
func (n *LooseInt) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*n = 0
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		return n.UnmarshalText([]byte(s))
	}
	return n.UnmarshalText(trimmed)
}

// UnmarshalText implements encoding.TextUnmarshaler, used by encoding/xml
func (n *LooseInt) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		*n = 0
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		*n = LooseInt(i)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid quantity %q", s)
	}
	*n = LooseInt(math.Trunc(f))
	return nil
}
