package snapshot

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/mmynk/splitledger/internal/money"
)

// object is an undecoded JSON object.
type object map[string]json.RawMessage

func decodeObject(raw json.RawMessage) (object, bool) {
	if !isKind(raw, '{') {
		return nil, false
	}
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func decodeArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	if !isKind(raw, '[') {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

// isKind reports whether raw starts with the given JSON delimiter.
func isKind(raw json.RawMessage, delim byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == delim
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// has reports whether key is present with a non-null value.
func (o object) has(key string) bool {
	raw, ok := o[key]
	return ok && !isNull(raw)
}

// str returns the trimmed string value of key.
func (o object) str(key string) (string, bool) {
	raw, ok := o[key]
	if !ok {
		return "", false
	}
	return asString(raw)
}

func asString(raw json.RawMessage) (string, bool) {
	if !isKind(raw, '"') {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// amount coerces a JSON number or numeric string to cents.
func (o object) amount(key string) (money.Cents, bool) {
	raw, ok := o[key]
	if !ok {
		return 0, false
	}
	return asAmount(raw)
}

func asAmount(raw json.RawMessage) (money.Cents, bool) {
	if s, ok := asString(raw); ok {
		c, err := money.Parse(s)
		return c, err == nil
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !(trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9')) {
		return 0, false
	}
	c, err := money.Parse(string(trimmed))
	return c, err == nil
}

// time reads an RFC 3339 string, a YYYY-MM-DD date or epoch milliseconds.
func (o object) time(key string) (time.Time, bool) {
	raw, ok := o[key]
	if !ok || isNull(raw) {
		return time.Time{}, false
	}
	if s, ok := asString(raw); ok {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	var ms json.Number
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, false
	}
	n, err := ms.Int64()
	if err != nil {
		f, ferr := ms.Float64()
		if ferr != nil {
			return time.Time{}, false
		}
		n = int64(f)
	}
	return time.UnixMilli(n).UTC(), true
}
