package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// listParse is the result of decoding a serialized list column. Either the
// value was a well-formed JSON array (valid) or it was some legacy shape that
// must go through the recovery ladder (malformed, raw kept as-is).
type listParse struct {
	items     []string
	malformed bool
	raw       string
}

// decodeList tries the strict forms first: a JSON array of strings (or
// scalars), or a JSON string that itself holds an encoded array.
func decodeList(raw string) listParse {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return listParse{items: []string{}}
	}

	var items []any
	if err := json.Unmarshal([]byte(trimmed), &items); err == nil {
		return listParse{items: stringsFrom(items)}
	}

	// double-encoded: "\"[\\\"a\\\"]\""
	var inner string
	if err := json.Unmarshal([]byte(trimmed), &inner); err == nil {
		innerTrimmed := strings.TrimSpace(inner)
		if strings.HasPrefix(innerTrimmed, "[") {
			if err := json.Unmarshal([]byte(innerTrimmed), &items); err == nil {
				return listParse{items: stringsFrom(items)}
			}
		}
		return listParse{malformed: true, raw: inner}
	}

	return listParse{malformed: true, raw: trimmed}
}

// recover runs the fallback ladder on malformed input: comma split, then
// newline split, then the raw value as a single item.
func (p listParse) recover() []string {
	if !p.malformed {
		return p.items
	}
	if strings.Contains(p.raw, ",") {
		return splitNonEmpty(p.raw, ",")
	}
	if strings.Contains(p.raw, "\n") {
		return splitNonEmpty(p.raw, "\n")
	}
	if raw := strings.TrimSpace(p.raw); raw != "" {
		return []string{raw}
	}
	return []string{}
}

// ParseList turns any stored or submitted shape of a list field into a list of
// strings. It never fails: arrays pass through, serialized arrays are decoded,
// and anything else is recovered by splitting on commas or newlines, finally
// falling back to a single-item list holding the raw text.
func ParseList(value any) []string {
	switch v := value.(type) {
	case nil:
		return []string{}
	case []string:
		return v
	case StringList:
		return []string(v)
	case []any:
		return stringsFrom(v)
	case []byte:
		return decodeList(string(v)).recover()
	case string:
		return decodeList(v).recover()
	case *string:
		if v == nil {
			return []string{}
		}
		return decodeList(*v).recover()
	case json.RawMessage:
		return decodeList(string(v)).recover()
	default:
		return ParseList(fmt.Sprint(v))
	}
}

// StringifyList is the inverse of ParseList. A string is assumed to be already
// serialized and passes through unchanged so it is never double-encoded.
func StringifyList(value any) string {
	switch v := value.(type) {
	case nil:
		return "[]"
	case string:
		return v
	case *string:
		if v == nil {
			return "[]"
		}
		return *v
	case []byte:
		return string(v)
	case StringList:
		return encodeList([]string(v))
	case []string:
		return encodeList(v)
	case []any:
		return encodeList(stringsFrom(v))
	default:
		return encodeList(ParseList(v))
	}
}

func encodeList(items []string) string {
	if items == nil {
		return "[]"
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func stringsFrom(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch it := item.(type) {
		case nil:
			continue
		case string:
			out = append(out, it)
		default:
			out = append(out, fmt.Sprint(it))
		}
	}
	return out
}

func splitNonEmpty(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// StringList is an ordered list of strings persisted as a JSON text column.
// Reads tolerate every historical shape of the column; writes always produce
// a JSON array.
type StringList []string

func (l *StringList) Scan(value any) error {
	*l = StringList(ParseList(value))
	return nil
}

func (l StringList) Value() (driver.Value, error) {
	return StringifyList(l), nil
}

func (StringList) GormDataType() string {
	return "text"
}

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// UnmarshalJSON accepts either a JSON array or a string in any of the legacy
// shapes (serialized array, comma or newline separated).
func (l *StringList) UnmarshalJSON(data []byte) error {
	var items []any
	if err := json.Unmarshal(data, &items); err == nil {
		*l = StringList(stringsFrom(items))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = StringList(ParseList(s))
		return nil
	}
	if strings.TrimSpace(string(data)) == "null" {
		*l = StringList{}
		return nil
	}
	return fmt.Errorf("list field must be an array or a string, got %s", string(data))
}
