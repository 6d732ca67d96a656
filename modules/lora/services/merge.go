package services

import (
	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/registration"
	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/virkning"
)

// MergeObjEffects lays updates over original. Every update is kept verbatim
// for its full interval, even where updates overlap each other; an
// overlapped original is cut down to what lies before and after each
// update, and pieces that end up empty are dropped. The result is sorted by
// start.
func MergeObjEffects(original, updates []registration.Effect) []registration.Effect {
	remaining := make([]registration.Effect, 0, len(original))
	for _, e := range original {
		remaining = append(remaining, e.Clone())
	}

	ordered := make([]registration.Effect, len(updates))
	copy(ordered, updates)
	registration.SortByFrom(ordered)

	for _, n := range ordered {
		next := make([]registration.Effect, 0, len(remaining)+2)
		for _, o := range remaining {
			if !o.Virkning.Overlaps(n.Virkning.Interval) {
				next = append(next, o)
				continue
			}
			next = append(next, residuals(o, n.Virkning.Interval)...)
		}
		remaining = next
	}

	result := remaining
	for _, n := range ordered {
		result = append(result, n.Clone())
	}
	registration.SortByFrom(result)
	return result
}

// residuals returns the parts of o outside cut.
func residuals(o registration.Effect, cut virkning.Interval) []registration.Effect {
	var out []registration.Effect
	if o.From().Before(cut.From) {
		before := virkning.Interval{
			From:         o.Virkning.From,
			FromIncluded: o.Virkning.FromIncluded,
			To:           cut.From,
			ToIncluded:   !cut.FromIncluded,
		}
		if !before.IsEmpty() {
			out = append(out, o.WithInterval(before))
		}
	}
	if cut.To.Before(o.To()) {
		after := virkning.Interval{
			From:         cut.To,
			FromIncluded: !cut.ToIncluded,
			To:           o.Virkning.To,
			ToIncluded:   o.Virkning.ToIncluded,
		}
		if !after.IsEmpty() {
			out = append(out, o.WithInterval(after))
		}
	}
	return out
}
