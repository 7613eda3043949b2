package session

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/abhisek/kakomon/internal/attempt"
	"github.com/abhisek/kakomon/internal/ratio"
)

// Weights is a pattern → number map with JavaScript object key order:
// array-index keys ("0", "7", "42") first in ascending numeric order, then
// every other key in insertion order. It is used for pattern weights and
// pattern counts; its JSON form is part of the session seed, so it must
// match what JSON.stringify writes for the same object.
type Weights struct {
	keys []string
	vals map[string]float64
}

// NewWeights returns an empty map.
func NewWeights() *Weights {
	return &Weights{vals: make(map[string]float64)}
}

// Set stores v under key, appending key if it is new.
func (w *Weights) Set(key string, v float64) {
	if w.vals == nil {
		w.vals = make(map[string]float64)
	}
	if _, ok := w.vals[key]; !ok {
		w.keys = append(w.keys, key)
	}
	w.vals[key] = v
}

// Add increments key by delta.
func (w *Weights) Add(key string, delta float64) {
	w.Set(key, w.Get(key)+delta)
}

// Get returns the value for key, or 0.
func (w *Weights) Get(key string) float64 {
	if w == nil {
		return 0
	}
	return w.vals[key]
}

// Has reports whether key is present.
func (w *Weights) Has(key string) bool {
	if w == nil {
		return false
	}
	_, ok := w.vals[key]
	return ok
}

// Keys returns the keys in object order.
func (w *Weights) Keys() []string {
	if w == nil {
		return nil
	}
	var indexes, named []string
	for _, k := range w.keys {
		if _, ok := arrayIndex(k); ok {
			indexes = append(indexes, k)
		} else {
			named = append(named, k)
		}
	}
	slices.SortFunc(indexes, func(a, b string) int {
		x, _ := arrayIndex(a)
		y, _ := arrayIndex(b)
		return cmp.Compare(x, y)
	})
	return append(indexes, named...)
}

// arrayIndex reports whether k is the canonical form of an integer in
// [0, 2^32-2], the keys JavaScript orders before all others.
func arrayIndex(k string) (uint64, bool) {
	if k == "" || len(k) > 10 || (len(k) > 1 && k[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(k, 10, 64)
	if err != nil || n > math.MaxUint32-1 {
		return 0, false
	}
	return n, true
}

// Len returns the number of keys.
func (w *Weights) Len() int {
	if w == nil {
		return 0
	}
	return len(w.keys)
}

// Clone returns an independent copy.
func (w *Weights) Clone() *Weights {
	out := NewWeights()
	for _, k := range w.Keys() {
		out.Set(k, w.vals[k])
	}
	return out
}

// withDefaults returns a copy of w in which every pattern missing from w is
// appended with weight def.
func (w *Weights) withDefaults(patterns []string, def float64) *Weights {
	out := w.Clone()
	for _, p := range patterns {
		if !out.Has(p) {
			out.Set(p, def)
		}
	}
	return out
}

// MarshalJSON writes the map as a JSON object in object order.
func (w *Weights) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range w.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalKey(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(w.vals[k], 'f', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, preserving the order of named keys.
func (w *Weights) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode weights: %w", err)
	}
	if tok == nil {
		*w = Weights{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decode weights: expected object, got %v", tok)
	}
	out := NewWeights()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode weights key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("decode weights: unexpected key %v", keyTok)
		}
		var v float64
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("decode weight for %q: %w", key, err)
		}
		out.Set(key, v)
	}
	*w = *out
	return nil
}

// String returns the JSON form used in seeds.
func (w *Weights) String() string {
	b, _ := w.MarshalJSON()
	return string(b)
}

func marshalKey(k string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(k); err != nil {
		return nil, fmt.Errorf("encode weight key: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// HistoryWeights returns 1 − accuracy per pattern over history, rounded to
// four places, in order of each pattern's first appearance.
func HistoryWeights(history []attempt.Attempt) *Weights {
	total := NewWeights()
	correct := make(map[string]int)
	for _, a := range history {
		key := a.PatternKey()
		total.Add(key, 1)
		if a.IsCorrect {
			correct[key]++
		}
	}
	out := NewWeights()
	for _, k := range total.Keys() {
		acc := ratio.Of(correct[k], int(total.Get(k)))
		out.Set(k, ratio.Round4(1-acc))
	}
	return out
}

// WrongCounts returns the number of incorrect attempts per pattern, in order
// of each pattern's first incorrect attempt.
func WrongCounts(history []attempt.Attempt) *Weights {
	out := NewWeights()
	for _, a := range history {
		if !a.IsCorrect {
			out.Add(a.PatternKey(), 1)
		}
	}
	return out
}
