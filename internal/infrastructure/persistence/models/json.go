package models

import (
	"encoding/json"
)

// EncodeVariations renders variations as canonical JSON. encoding/json sorts
// map keys, so equal maps always produce equal text, which lets candidate
// queries compare the column directly.
func EncodeVariations(v map[string]string) string {
	if len(v) == 0 {
		return "{}"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// DecodeVariations parses a variations column, treating bad data as empty.
func DecodeVariations(s string) map[string]string {
	out := map[string]string{}
	if s == "" {
		return out
	}
	_ = json.Unmarshal([]byte(s), &out)
	return out
}
