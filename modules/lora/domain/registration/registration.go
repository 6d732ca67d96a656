package registration

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/google/uuid"

	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/virkning"
)

// Group names the temporal sections of a registration.
type Group string

const (
	Attributes Group = "attributter"
	Relations  Group = "relationer"
	States     Group = "tilstande"
)

var Groups = []Group{Attributes, Relations, States}

const (
	virkningKey = "virkning"

	lifecycleKey = "livscykluskode"
	noteKey      = "note"
	actorRefKey  = "brugerref"
)

// Effect is one entry of a field: its data and the interval it is valid in.
type Effect struct {
	Data     map[string]any
	Virkning virkning.Virkning
}

func NewEffect(data map[string]any, v virkning.Virkning) Effect {
	return Effect{Data: data, Virkning: v}
}

// Clone copies the top level of Data so callers can re-bound the effect
// without aliasing the original map.
func (e Effect) Clone() Effect {
	return Effect{Data: maps.Clone(e.Data), Virkning: e.Virkning}
}

// WithInterval returns a copy valid in i, keeping the virkning metadata.
func (e Effect) WithInterval(i virkning.Interval) Effect {
	out := e.Clone()
	out.Virkning = e.Virkning.WithInterval(i)
	return out
}

func (e Effect) From() virkning.TimePoint { return e.Virkning.From }
func (e Effect) To() virkning.TimePoint   { return e.Virkning.To }

func (e Effect) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Data)+1)
	for k, v := range e.Data {
		out[k] = v
	}
	out[virkningKey] = e.Virkning
	return json.Marshal(out)
}

func (e *Effect) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("registration: decode effect: %w", err)
	}
	out := Effect{Data: make(map[string]any, len(raw))}
	for k, v := range raw {
		if k == virkningKey {
			if err := json.Unmarshal(v, &out.Virkning); err != nil {
				return err
			}
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("registration: decode effect field %q: %w", k, err)
		}
		out.Data[k] = val
	}
	if _, ok := raw[virkningKey]; !ok {
		out.Virkning = virkning.Of(virkning.Always())
	}
	*e = out
	return nil
}

// SortByFrom orders effects by start, then by end.
func SortByFrom(effects []Effect) {
	sort.SliceStable(effects, func(i, j int) bool {
		if c := effects[i].From().Compare(effects[j].From()); c != 0 {
			return c < 0
		}
		return effects[i].To().Before(effects[j].To())
	})
}

// FieldPath addresses one field: group plus field name.
type FieldPath struct {
	Group Group
	Name  string
}

func Path(group Group, name string) FieldPath {
	return FieldPath{Group: group, Name: name}
}

func (p FieldPath) String() string { return string(p.Group) + "/" + p.Name }

// Fields maps group -> field -> effects.
type Fields map[Group]map[string][]Effect

func (f Fields) Get(p FieldPath) ([]Effect, bool) {
	group, ok := f[p.Group]
	if !ok {
		return nil, false
	}
	effects, ok := group[p.Name]
	return effects, ok
}

func (f Fields) Set(p FieldPath, effects []Effect) {
	group, ok := f[p.Group]
	if !ok {
		group = map[string][]Effect{}
		f[p.Group] = group
	}
	group[p.Name] = effects
}

// Registration is one versioned snapshot of an entity.
type Registration struct {
	Fields        Fields
	LifecycleCode string
	Note          string
	ActorRef      string
	// Extra keeps unrecognised top-level keys so documents round-trip.
	Extra map[string]json.RawMessage
}

func New() *Registration {
	return &Registration{Fields: Fields{}}
}

// Field returns the effects stored at p.
func (r *Registration) Field(p FieldPath) ([]Effect, bool) {
	if r == nil || r.Fields == nil {
		return nil, false
	}
	return r.Fields.Get(p)
}

func (r *Registration) SetField(p FieldPath, effects []Effect) {
	if r.Fields == nil {
		r.Fields = Fields{}
	}
	r.Fields.Set(p, effects)
}

// Clone deep-copies the field structure; effect data maps are copied one
// level deep.
func (r *Registration) Clone() *Registration {
	if r == nil {
		return nil
	}
	out := &Registration{
		Fields:        make(Fields, len(r.Fields)),
		LifecycleCode: r.LifecycleCode,
		Note:          r.Note,
		ActorRef:      r.ActorRef,
		Extra:         maps.Clone(r.Extra),
	}
	for g, fields := range r.Fields {
		group := make(map[string][]Effect, len(fields))
		for name, effects := range fields {
			cloned := make([]Effect, 0, len(effects))
			for _, e := range effects {
				cloned = append(cloned, e.Clone())
			}
			group[name] = cloned
		}
		out.Fields[g] = group
	}
	return out
}

// FieldPaths lists every populated field in a stable order.
func (r *Registration) FieldPaths() []FieldPath {
	var out []FieldPath
	for _, g := range Groups {
		names := slices.Sorted(maps.Keys(r.Fields[g]))
		for _, n := range names {
			out = append(out, Path(g, n))
		}
	}
	return out
}

func (r Registration) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+len(r.Fields)+3)
	for k, v := range r.Extra {
		out[k] = v
	}
	for g, fields := range r.Fields {
		out[string(g)] = fields
	}
	if r.LifecycleCode != "" {
		out[lifecycleKey] = r.LifecycleCode
	}
	if r.Note != "" {
		out[noteKey] = r.Note
	}
	if r.ActorRef != "" {
		out[actorRefKey] = r.ActorRef
	}
	return json.Marshal(out)
}

func (r *Registration) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("registration: decode: %w", err)
	}
	out := Registration{Fields: Fields{}}
	for k, v := range raw {
		switch k {
		case string(Attributes), string(Relations), string(States):
			var fields map[string][]Effect
			if err := json.Unmarshal(v, &fields); err != nil {
				return fmt.Errorf("registration: decode %s: %w", k, err)
			}
			if fields == nil {
				fields = map[string][]Effect{}
			}
			out.Fields[Group(k)] = fields
		case lifecycleKey, noteKey, actorRefKey:
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				// Metadata is not always a plain string in older LoRa versions.
				if out.Extra == nil {
					out.Extra = map[string]json.RawMessage{}
				}
				out.Extra[k] = v
				continue
			}
			switch k {
			case lifecycleKey:
				out.LifecycleCode = s
			case noteKey:
				out.Note = s
			default:
				out.ActorRef = s
			}
		default:
			if out.Extra == nil {
				out.Extra = map[string]json.RawMessage{}
			}
			out.Extra[k] = v
		}
	}
	*r = out
	return nil
}

// Object is a LoRa search result: an id and its registrations, oldest first.
type Object struct {
	ID            uuid.UUID      `json:"id"`
	Registrations []Registration `json:"registreringer"`
}

// Current returns the newest registration, or nil when there is none.
func (o *Object) Current() *Registration {
	if o == nil || len(o.Registrations) == 0 {
		return nil
	}
	return &o.Registrations[len(o.Registrations)-1]
}
