package logistics

import (
	"bytes"
	"encoding/json"
)

// OneOrMany decodes a JSON field that holds either a single object or a list
// of objects into a slice
type OneOrMany[T any] []T

// UnmarshalJSON implements json.Unmarshaler
func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*o = nil
		return nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*o = items
		return nil
	}
	var item T
	if err := json.Unmarshal(trimmed, &item); err != nil {
		return err
	}
	*o = OneOrMany[T]{item}
	return nil
}

// MarshalJSON always encodes a list
func (o OneOrMany[T]) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]T(o))
}
