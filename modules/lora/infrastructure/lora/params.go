package lora

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/document"
	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/virkning"
)

const (
	paramUUID        = "uuid"
	paramValidFrom   = "virkningfra"
	paramValidTo     = "virkningtil"
	paramConsolidate = "konsolider"
	paramFirstResult = "foersteresultat"
	paramMaxResults  = "maximalantalresultater"
)

// Filter selects objects by parameter name and accepted values. Values of
// one key are alternatives; different keys must all match.
type Filter map[string]document.ValueSet

func NewFilter() Filter { return Filter{} }

// Add normalises values to their query string form and adds them to key.
func (f Filter) Add(key string, values ...any) Filter {
	set, ok := f[key]
	if !ok {
		set = document.ValueSet{}
		f[key] = set
	}
	for _, v := range values {
		set.Add(paramString(v))
	}
	return f
}

// ByUUID is NewFilter().Add("uuid", ids...).
func ByUUID(ids ...uuid.UUID) Filter {
	f := NewFilter()
	for _, id := range ids {
		f.Add(paramUUID, id)
	}
	return f
}

// Keys returns the filter keys in ascending order.
func (f Filter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// shape identifies the key set; calls with equal shapes share a fetch.
func (f Filter) shape() string {
	return strings.Join(f.Keys(), ",")
}

func (f Filter) tuple(keys []string) document.ParamTuple {
	out := make(document.ParamTuple, len(keys))
	for i, k := range keys {
		out[i] = f[k]
	}
	return out
}

// Query renders the filter; every key lists its values in ascending order.
func (f Filter) Query() url.Values {
	q := url.Values{}
	for k, set := range f {
		q[k] = set.Sorted()
	}
	return q
}

// matches reports whether a row carrying items satisfies every key of f.
// A key the row does not carry at all cannot discriminate and passes.
func (f Filter) matches(items map[string][]string) bool {
	for k, want := range f {
		got, ok := items[k]
		if !ok {
			continue
		}
		if !slices.ContainsFunc(got, want.HasFold) {
			return false
		}
	}
	return true
}

func paramString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	case uuid.UUID:
		return x.String()
	case *uuid.UUID:
		if x == nil {
			return ""
		}
		return x.String()
	case virkning.TimePoint:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func mergeQuery(dst url.Values, src url.Values) url.Values {
	for k, vs := range src {
		dst[k] = append(dst[k], vs...)
	}
	return dst
}
