package jsonx

import json "github.com/goccy/go-json"

// ToDynamicJSON converts any Go value into a map[string]any by encoding and
// decoding it as JSON. It is used to hand reflected schemas to model clients
// that only accept loosely typed parameters.
func ToDynamicJSON(val any) (map[string]any, error) {
	result := make(map[string]any)
	b, err := json.Marshal(val)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(b, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Compact encodes val as JSON and returns it as a string. Values that cannot
// be encoded are rendered as "{}".
func Compact(val any) string {
	b, err := json.Marshal(val)
	if err != nil {
		return "{}"
	}
	return string(b)
}
