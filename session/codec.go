package session

import (
	"encoding/json"
	"fmt"
)

// DecodeProfile parses stored profile text. Malformed JSON returns an error
// wrapping [ErrCorrupt].
func DecodeProfile(data string) (*Profile, error) {
	var v any
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	p := &Profile{
		raw:   json.RawMessage(data),
		value: v,
	}
	if obj, ok := v.(map[string]any); ok {
		p.fields = obj
	}
	return p, nil
}

// EncodeProfile serializes fields the way the login page stores them.
func EncodeProfile(fields map[string]any) (string, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
