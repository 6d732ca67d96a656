package services

import (
	"slices"
	"sort"

	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/registration"
	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/virkning"
)

// FieldSelection names fields per group.
type FieldSelection map[registration.Group][]string

// Paths lists the selected fields in a stable order.
func (s FieldSelection) Paths() []registration.FieldPath {
	var out []registration.FieldPath
	for _, g := range registration.Groups {
		names := slices.Clone(s[g])
		sort.Strings(names)
		for _, n := range slices.Compact(names) {
			out = append(out, registration.Path(g, n))
		}
	}
	return out
}

// Union returns the fields selected by s or o.
func (s FieldSelection) Union(o FieldSelection) FieldSelection {
	out := FieldSelection{}
	for _, sel := range []FieldSelection{s, o} {
		for g, names := range sel {
			out[g] = append(out[g], names...)
		}
	}
	return out
}

// EffectSlice is the data valid throughout [Start, End).
type EffectSlice struct {
	Start  virkning.TimePoint  `json:"start"`
	End    virkning.TimePoint  `json:"end"`
	Effect registration.Fields `json:"effect"`
}

// GetEffects cuts reg into consecutive slices at every boundary of the
// relevant fields, restricted to the window. Fields in also contribute data
// but no boundaries, and cannot on their own make a slice appear.
func GetEffects(reg *registration.Registration, relevant, also FieldSelection, window ValidityWindow) []EffectSlice {
	if reg == nil {
		return nil
	}
	relevantPaths := relevant.Paths()
	allPaths := relevant.Union(also).Paths()

	var points []virkning.TimePoint
	for _, p := range relevantPaths {
		effects, _ := reg.Field(p)
		for _, e := range effects {
			points = append(points, e.From(), e.To())
		}
	}

	var out []EffectSlice
	for _, chunk := range windowChunks(points, window) {
		start, end := chunk[0], chunk[1]
		slice := EffectSlice{Start: start, End: end, Effect: registration.Fields{}}
		found := false
		for _, p := range allPaths {
			effects, _ := reg.Field(p)
			var kept []registration.Effect
			for _, e := range effects {
				if e.From().Before(end) && e.To().After(start) {
					kept = append(kept, e)
				}
			}
			if len(kept) == 0 {
				continue
			}
			slice.Effect.Set(p, kept)
			if slices.Contains(relevantPaths, p) {
				found = true
			}
		}
		if found {
			out = append(out, slice)
		}
	}
	return out
}

func sortedUnique(points []virkning.TimePoint) []virkning.TimePoint {
	sorted := slices.Clone(points)
	slices.SortFunc(sorted, virkning.TimePoint.Compare)
	return slices.CompactFunc(sorted, virkning.TimePoint.Equal)
}

func pairwise(points []virkning.TimePoint) [][2]virkning.TimePoint {
	var out [][2]virkning.TimePoint
	for i := 0; i+1 < len(points); i++ {
		out = append(out, [2]virkning.TimePoint{points[i], points[i+1]})
	}
	return out
}

func windowChunks(points []virkning.TimePoint, w ValidityWindow) [][2]virkning.TimePoint {
	if len(points) == 0 {
		return nil
	}
	switch w.Mode {
	case ValidityPast:
		var kept []virkning.TimePoint
		for _, t := range points {
			if !t.After(w.Today) {
				kept = append(kept, t)
			}
		}
		return pairwise(sortedUnique(kept))
	case ValidityFuture:
		var kept []virkning.TimePoint
		for _, t := range points {
			if t.After(w.Tomorrow) {
				kept = append(kept, t)
			}
		}
		return pairwise(sortedUnique(kept))
	case ValidityCustom:
		bounds := w.Interval()
		var out [][2]virkning.TimePoint
		for _, c := range pairwise(sortedUnique(points)) {
			if virkning.New(c[0], c[1]).Overlaps(bounds) {
				out = append(out, c)
			}
		}
		return out
	default:
		var out [][2]virkning.TimePoint
		for _, c := range pairwise(sortedUnique(points)) {
			if !w.Tomorrow.Before(c[0]) && !w.Today.After(c[1]) {
				out = append(out, c)
			}
		}
		return out
	}
}
