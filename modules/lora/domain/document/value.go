// Package document models arbitrary nested JSON documents as an explicit
// tagged union and extracts query-parameter values from them.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Value is one of Scalar, Mapping or Sequence.
type Value interface {
	isValue()
}

// Scalar is a leaf: string, json.Number, bool or nil.
type Scalar struct {
	V any
}

// Entry is one key/value pair of a Mapping.
type Entry struct {
	Key   string
	Value Value
}

// Mapping keeps its entries in insertion order.
type Mapping []Entry

type Sequence []Value

func (Scalar) isValue()   {}
func (Mapping) isValue()  {}
func (Sequence) isValue() {}

// Get returns the first value stored under key.
func (m Mapping) Get(key string) (Value, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// String renders a scalar the way it appears in a query string.
func (s Scalar) String() string {
	switch v := s.V.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "True"
		}
		return "False"
	case json.Number:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Parse decodes JSON into a Value, preserving object key order.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("document: trailing data after top-level value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := Mapping{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, fmt.Errorf("document: %w", err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("document: unexpected object key %v", keyTok)
				}
				child, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				m = append(m, Entry{Key: key, Value: child})
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("document: %w", err)
			}
			return m, nil
		case '[':
			seq := Sequence{}
			for dec.More() {
				child, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				seq = append(seq, child)
			}
			if _, err := dec.Token(); err != nil {
				return nil, fmt.Errorf("document: %w", err)
			}
			return seq, nil
		default:
			return nil, fmt.Errorf("document: unexpected delimiter %q", t)
		}
	default:
		return Scalar{V: t}, nil
	}
}

// FromAny converts decoded Go values (maps, slices, scalars) into a Value.
// Map keys are sorted since Go maps carry no order.
func FromAny(v any) Value {
	switch x := v.(type) {
	case Value:
		return x
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := make(Mapping, 0, len(keys))
		for _, k := range keys {
			m = append(m, Entry{Key: k, Value: FromAny(x[k])})
		}
		return m
	case []any:
		seq := make(Sequence, 0, len(x))
		for _, item := range x {
			seq = append(seq, FromAny(item))
		}
		return seq
	case []map[string]any:
		seq := make(Sequence, 0, len(x))
		for _, item := range x {
			seq = append(seq, FromAny(item))
		}
		return seq
	case float64:
		return Scalar{V: json.Number(strconv.FormatFloat(x, 'f', -1, 64))}
	case int:
		return Scalar{V: json.Number(strconv.Itoa(x))}
	default:
		return Scalar{V: x}
	}
}

// ValueSet is an unordered set of parameter values.
type ValueSet map[string]struct{}

func NewValueSet(values ...string) ValueSet {
	s := make(ValueSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s ValueSet) Add(v string) { s[v] = struct{}{} }

func (s ValueSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// HasFold is Has with case-insensitive comparison (uuids may differ in case).
func (s ValueSet) HasFold(v string) bool {
	if s.Has(v) {
		return true
	}
	for candidate := range s {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}

// Sorted returns the members in ascending order.
func (s ValueSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
