package services

import (
	"fmt"

	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/registration"
	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/virkning"
)

// Cardinality controls how a field's entries are extended and merged.
type Cardinality uint8

const (
	// ZeroToOne fields hold at most one entry at any instant.
	ZeroToOne Cardinality = iota
	// ZeroToMany fields hold any number of coexisting entries.
	ZeroToMany
	// AdaptedZeroToMany fields re-derive their value for newly covered time
	// instead of copying the neighbouring entry.
	AdaptedZeroToMany
)

func (c Cardinality) String() string {
	switch c {
	case ZeroToOne:
		return "zero-to-one"
	case ZeroToMany:
		return "zero-to-many"
	case AdaptedZeroToMany:
		return "adapted-zero-to-many"
	default:
		return fmt.Sprintf("Cardinality(%d)", uint8(c))
	}
}

func ParseCardinality(s string) (Cardinality, error) {
	switch s {
	case "zero-to-one":
		return ZeroToOne, nil
	case "zero-to-many":
		return ZeroToMany, nil
	case "adapted-zero-to-many":
		return AdaptedZeroToMany, nil
	default:
		return 0, fmt.Errorf("unknown cardinality %q", s)
	}
}

const (
	StateKey      = "gyldighed"
	StateActive   = "Aktiv"
	StateInactive = "Inaktiv"
)

// Deriver produces the data of a field for the given interval.
type Deriver func(window virkning.Interval) ([]map[string]any, error)

// Constant returns a Deriver that always yields data.
func Constant(data ...map[string]any) Deriver {
	return func(virkning.Interval) ([]map[string]any, error) {
		return data, nil
	}
}

type FieldSpec struct {
	Path  registration.FieldPath
	Kind  Cardinality
	Value Deriver
}

// EnsureBounds extends each field of original so that it covers
// [newFrom, newTo). Fields already covering the range, and fields missing
// from original, are left out of the payload. Expansion copies the nearest
// entry for ZeroToOne and ZeroToMany and calls the deriver for
// AdaptedZeroToMany. When one side grows while the other shrinks only
// ZeroToOne fields are clipped to the new range; the other kinds keep
// their history.
func EnsureBounds(
	newFrom, newTo virkning.TimePoint,
	specs []FieldSpec,
	original, payload *registration.Registration,
) (*registration.Registration, error) {
	requested := virkning.New(newFrom, newTo)
	if err := validateInterval(requested); err != nil {
		return nil, err
	}
	out := payloadCopy(payload)

	for _, spec := range specs {
		existing, ok := original.Field(spec.Path)
		if !ok || len(existing) == 0 {
			continue
		}
		sorted := make([]registration.Effect, len(existing))
		copy(sorted, existing)
		registration.SortByFrom(sorted)

		first := sorted[0]
		last := sorted[0]
		for _, e := range sorted[1:] {
			if !e.To().Before(last.To()) {
				last = e
			}
		}
		coverage := virkning.New(first.From(), last.To())

		expandLeft := newFrom.Before(coverage.From)
		expandRight := newTo.After(coverage.To)
		if !expandLeft && !expandRight {
			continue
		}

		var exposed []virkning.Interval
		var templates []registration.Effect
		if expandLeft {
			exposed = append(exposed, virkning.New(newFrom, coverage.From))
			templates = append(templates, first)
		}
		if expandRight {
			exposed = append(exposed, virkning.New(coverage.To, newTo))
			templates = append(templates, last)
		}

		var synthesized []registration.Effect
		switch spec.Kind {
		case ZeroToOne, ZeroToMany:
			for i, gap := range exposed {
				synthesized = append(synthesized, templates[i].WithInterval(gap))
			}
		case AdaptedZeroToMany:
			if spec.Value == nil {
				return nil, fmt.Errorf("ensure bounds: %s is %s but has no deriver", spec.Path, spec.Kind)
			}
			for i, gap := range exposed {
				values, err := spec.Value(gap)
				if err != nil {
					return nil, fmt.Errorf("ensure bounds: derive %s: %w", spec.Path, err)
				}
				for _, v := range values {
					synthesized = append(synthesized, registration.NewEffect(v, templates[i].Virkning.WithInterval(gap)))
				}
			}
		default:
			return nil, fmt.Errorf("ensure bounds: %s has unknown cardinality %s", spec.Path, spec.Kind)
		}

		base, queued := out.Field(spec.Path)
		if !queued {
			base = sorted
		}
		updated := MergeObjEffects(base, synthesized)

		shrinks := newFrom.After(coverage.From) || newTo.Before(coverage.To)
		if spec.Kind == ZeroToOne && shrinks {
			updated = clip(updated, requested)
		}
		out.SetField(spec.Path, updated)
	}
	return out, nil
}

func clip(effects []registration.Effect, window virkning.Interval) []registration.Effect {
	out := make([]registration.Effect, 0, len(effects))
	for _, e := range effects {
		if part, ok := e.Virkning.Intersect(window); ok {
			out = append(out, e.WithInterval(part))
		}
	}
	return out
}

// InactivateOldInterval queues Inaktiv state entries for the parts of
// [oldFrom, oldTo) that [newFrom, newTo) no longer covers. When the range
// grows or stays the same, payload is returned untouched.
func InactivateOldInterval(
	oldFrom, oldTo, newFrom, newTo virkning.TimePoint,
	payload *registration.Registration,
	path registration.FieldPath,
) *registration.Registration {
	note := ""
	if payload != nil {
		note = payload.Note
	}
	inactive := func(i virkning.Interval) registration.Effect {
		return registration.NewEffect(
			map[string]any{StateKey: StateInactive},
			virkning.Virkning{Interval: i, Note: note},
		)
	}

	var queued []registration.Effect
	if newFrom.After(oldFrom) {
		queued = append(queued, inactive(virkning.New(oldFrom, newFrom)))
	}
	if newTo.Before(oldTo) {
		queued = append(queued, inactive(virkning.New(newTo, oldTo)))
	}
	if len(queued) == 0 {
		return payload
	}

	out := payloadCopy(payload)
	existing, _ := out.Field(path)
	out.SetField(path, append(existing, queued...))
	return out
}

// UpdatePayload writes each spec's derived value over [newFrom, newTo) into
// the payload, next to whatever EnsureBounds or InactivateOldInterval
// already queued there. Fields without a spec pass through unchanged.
func UpdatePayload(
	newFrom, newTo virkning.TimePoint,
	specs []FieldSpec,
	original, payload *registration.Registration,
) (*registration.Registration, error) {
	window := virkning.New(newFrom, newTo)
	if err := validateInterval(window); err != nil {
		return nil, err
	}
	out := payloadCopy(payload)

	for _, spec := range specs {
		if spec.Value == nil {
			return nil, fmt.Errorf("update payload: %s has no deriver", spec.Path)
		}
		values, err := spec.Value(window)
		if err != nil {
			return nil, fmt.Errorf("update payload: derive %s: %w", spec.Path, err)
		}
		if len(values) == 0 {
			continue
		}
		fresh := make([]registration.Effect, 0, len(values))
		for _, v := range values {
			fresh = append(fresh, registration.NewEffect(v, virkning.Virkning{Interval: window, Note: out.Note}))
		}

		queued, ok := out.Field(spec.Path)
		switch spec.Kind {
		case ZeroToOne, AdaptedZeroToMany:
			base := queued
			if !ok {
				base, _ = original.Field(spec.Path)
			}
			out.SetField(spec.Path, MergeObjEffects(base, fresh))
		case ZeroToMany:
			out.SetField(spec.Path, append(append([]registration.Effect(nil), queued...), fresh...))
		default:
			return nil, fmt.Errorf("update payload: %s has unknown cardinality %s", spec.Path, spec.Kind)
		}
	}
	return out, nil
}

func payloadCopy(payload *registration.Registration) *registration.Registration {
	if payload == nil {
		return registration.New()
	}
	return payload.Clone()
}
