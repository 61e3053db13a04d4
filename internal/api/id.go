package api

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID is an opaque identifier owned by the API. It may be encoded as a JSON
// string or number and is sent back exactly as it was received.
type ID struct {
	raw json.RawMessage
}

// StringID wraps s as a JSON string identifier.
func StringID(s string) ID {
	raw, _ := json.Marshal(s)
	return ID{raw: raw}
}

// IntID wraps n as a JSON number identifier.
func IntID(n int64) ID {
	return ID{raw: json.RawMessage(strconv.FormatInt(n, 10))}
}

// IsZero reports whether the identifier is absent or null.
func (id ID) IsZero() bool {
	return len(id.raw) == 0 || bytes.Equal(id.raw, []byte("null"))
}

// String returns the identifier without JSON quoting.
func (id ID) String() string {
	if id.IsZero() {
		return ""
	}
	var s string
	if err := json.Unmarshal(id.raw, &s); err == nil {
		return s
	}
	return string(id.raw)
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return id.raw, nil
}

func (id *ID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	id.raw = append(json.RawMessage(nil), trimmed...)
	return nil
}
