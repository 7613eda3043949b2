package grading

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies how an answer value was encoded.
type Kind int

const (
	KindAbsent Kind = iota
	KindString
	KindNumber
	KindChars   // {"chars": ["1", "2"]}
	KindRaw     // {"raw": "12"}
	KindInvalid // anything else (bool, array, unrecognized object)
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindChars:
		return "chars"
	case KindRaw:
		return "raw"
	default:
		return "invalid"
	}
}

// Value is one answer group's value. Canonical answers arrive in several
// encodings; Value records which one once, at decode time, and Chars
// extracts the answer string regardless of encoding.
type Value struct {
	kind  Kind
	text  string
	num   float64
	chars []string
}

// String returns a plain string value.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// CharList returns a value encoded as a list of characters.
func CharList(chars ...string) Value {
	return Value{kind: KindChars, chars: append([]string(nil), chars...)}
}

// Raw returns a value encoded as an object carrying a raw string.
func Raw(s string) Value { return Value{kind: KindRaw, text: s} }

// Kind reports the encoding of v.
func (v Value) Kind() Kind { return v.kind }

// IsString reports whether v was submitted as a plain string.
func (v Value) IsString() bool { return v.kind == KindString }

// Chars extracts the answer characters as a single string. Absent and
// invalid values yield "".
func (v Value) Chars() string {
	switch v.kind {
	case KindString, KindRaw:
		return v.text
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindChars:
		return strings.Join(v.chars, "")
	default:
		return ""
	}
}

// UnmarshalJSON decodes any of the supported encodings. Unsupported shapes
// decode to KindInvalid instead of failing, so that grading can report them.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{kind: KindAbsent}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode string answer: %w", err)
		}
		*v = String(s)
		return nil
	case '{':
		var obj struct {
			Chars []any   `json:"chars"`
			Raw   *string `json:"raw"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("decode object answer: %w", err)
		}
		if obj.Chars != nil {
			chars := make([]string, 0, len(obj.Chars))
			for _, c := range obj.Chars {
				chars = append(chars, fmt.Sprint(c))
			}
			*v = Value{kind: KindChars, chars: chars}
			return nil
		}
		if obj.Raw != nil {
			*v = Raw(*obj.Raw)
			return nil
		}
		*v = Value{kind: KindInvalid}
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = Number(n)
		return nil
	}
	*v = Value{kind: KindInvalid}
	return nil
}

// MarshalJSON writes v back in its original encoding.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.text)
	case KindNumber:
		return json.Marshal(v.num)
	case KindChars:
		return json.Marshal(map[string][]string{"chars": v.chars})
	case KindRaw:
		return json.Marshal(map[string]string{"raw": v.text})
	default:
		return []byte("null"), nil
	}
}

// NormalizeGroups flattens every group value to its answer string.
func NormalizeGroups(groups map[string]Value) map[string]string {
	out := make(map[string]string, len(groups))
	for key, val := range groups {
		out[key] = val.Chars()
	}
	return out
}

// StringGroups wraps plain strings as submitted group values.
func StringGroups(groups map[string]string) map[string]Value {
	out := make(map[string]Value, len(groups))
	for key, s := range groups {
		out[key] = String(s)
	}
	return out
}
