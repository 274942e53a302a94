package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

var errInvalidID = errors.New("id must be a string or a number")

// ID is a request correlation identifier. It keeps the exact JSON text the
// client sent so that it can be echoed back verbatim.
type ID struct {
	raw json.RawMessage
}

// StringID builds an ID from a string value.
func StringID(s string) ID {
	b, _ := marshal(s)
	return ID{raw: b}
}

// NumberID builds an ID from an integer value.
func NumberID(n int64) ID {
	return ID{raw: json.RawMessage(strconv.FormatInt(n, 10))}
}

// ParseID validates raw JSON text as a correlation identifier.
func ParseID(raw []byte) (ID, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ID{}, errInvalidID
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ID{}, errInvalidID
		}
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return ID{}, errInvalidID
		}
	}

	cp := make(json.RawMessage, len(trimmed))
	copy(cp, trimmed)
	return ID{raw: cp}, nil
}

// IsZero reports whether the ID is unset. An unset ID encodes as null.
func (id ID) IsZero() bool {
	return len(id.raw) == 0
}

// Raw returns the JSON text of the ID.
func (id ID) Raw() json.RawMessage {
	if id.IsZero() {
		return json.RawMessage("null")
	}
	return id.raw
}

// String returns the ID for logs: strings unquoted, numbers as written.
func (id ID) String() string {
	if id.IsZero() {
		return "null"
	}
	if id.raw[0] == '"' {
		var s string
		if err := json.Unmarshal(id.raw, &s); err == nil {
			return s
		}
	}
	return string(id.raw)
}

// Equal reports whether two IDs carry the same JSON text.
func (id ID) Equal(other ID) bool {
	return bytes.Equal(id.raw, other.raw)
}

func (id ID) MarshalJSON() ([]byte, error) {
	return id.Raw(), nil
}

func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*id = ID{}
		return nil
	}
	parsed, err := ParseID(data)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
