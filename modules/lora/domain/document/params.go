package document

import (
	"iter"
	"strconv"
	"strings"
)

// Segment is one step of a Path: a mapping key or a sequence index.
type Segment struct {
	Key     string
	Index   int
	Indexed bool
}

func KeySegment(key string) Segment { return Segment{Key: key} }
func IndexSegment(i int) Segment    { return Segment{Index: i, Indexed: true} }

func (s Segment) String() string {
	if s.Indexed {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Key
}

type Path []Segment

// KeyPath builds a path from mapping keys only.
func KeyPath(keys ...string) Path {
	p := make(Path, 0, len(keys))
	for _, k := range keys {
		p = append(p, KeySegment(k))
	}
	return p
}

func (p Path) String() string {
	parts := make([]string, 0, len(p))
	for _, s := range p {
		parts = append(parts, s.String())
	}
	return strings.Join(parts, "/")
}

// Traverse yields every scalar leaf of v with its full path, depth first.
// Mapping entries are visited in insertion order.
func Traverse(v Value) iter.Seq2[Path, Scalar] {
	return func(yield func(Path, Scalar) bool) {
		walk(v, nil, yield)
	}
}

func walk(v Value, path Path, yield func(Path, Scalar) bool) bool {
	switch x := v.(type) {
	case Scalar:
		return yield(path, x)
	case Mapping:
		for _, e := range x {
			if !walk(e.Value, extend(path, KeySegment(e.Key)), yield) {
				return false
			}
		}
	case Sequence:
		for i, item := range x {
			if !walk(item, extend(path, IndexSegment(i)), yield) {
				return false
			}
		}
	}
	return true
}

// extend copies so that yielded paths never share a backing array.
func extend(path Path, s Segment) Path {
	out := make(Path, len(path), len(path)+1)
	copy(out, path)
	return append(out, s)
}

const relationsGroup = "relationer"

// KeyForPath derives the parameter key a leaf answers to: the last key,
// except "id" answers to "uuid" and the uuid/id of a named relation answers
// to the relation name.
func KeyForPath(path Path) string {
	keys := make([]string, 0, len(path))
	for _, s := range path {
		if !s.Indexed {
			keys = append(keys, s.Key)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	last := keys[len(keys)-1]
	if n := len(keys); n >= 3 && keys[n-3] == relationsGroup && (last == "uuid" || last == "id") {
		return keys[n-2]
	}
	if last == "id" {
		return "uuid"
	}
	return last
}

// KeyValue is a (derived key, scalar) pair.
type KeyValue struct {
	Key   string
	Value Scalar
}

// KeyValueItems restricts Traverse to leaves whose derived key is in
// searchKeys. Order is preserved and duplicates are kept.
func KeyValueItems(v Value, searchKeys ValueSet) []KeyValue {
	var out []KeyValue
	for path, leaf := range Traverse(v) {
		key := KeyForPath(path)
		if searchKeys.Has(key) {
			out = append(out, KeyValue{Key: key, Value: leaf})
		}
	}
	return out
}

// ParamTuple holds one value set per parameter key, aligned by position.
type ParamTuple []ValueSet

// GroupParams unions every value supplied for each key across paramsList.
func GroupParams(paramKeys []string, paramsList []ParamTuple) map[string]ValueSet {
	out := make(map[string]ValueSet, len(paramKeys))
	for _, key := range paramKeys {
		out[key] = ValueSet{}
	}
	for _, tuple := range paramsList {
		for i, values := range tuple {
			if i >= len(paramKeys) {
				break
			}
			for v := range values {
				out[paramKeys[i]].Add(v)
			}
		}
	}
	return out
}
