package virkning

import (
	"encoding/json"
	"fmt"
)

// Virkning is the LoRa validity object attached to every attribute,
// relation and state entry: an interval plus actor and note metadata.
type Virkning struct {
	Interval
	ActorRef      string
	ActorTypeCode string
	Note          string
}

type wireVirkning struct {
	From          TimePoint `json:"from"`
	To            TimePoint `json:"to"`
	FromIncluded  *bool     `json:"from_included,omitempty"`
	ToIncluded    *bool     `json:"to_included,omitempty"`
	ActorRef      string    `json:"aktoerref,omitempty"`
	ActorTypeCode string    `json:"aktoertypekode,omitempty"`
	Note          string    `json:"notetekst,omitempty"`
}

// Of wraps a plain interval.
func Of(i Interval) Virkning {
	return Virkning{Interval: i}
}

// WithInterval returns a copy of v with its time bounds replaced.
func (v Virkning) WithInterval(i Interval) Virkning {
	v.Interval = i
	return v
}

func (v Virkning) MarshalJSON() ([]byte, error) {
	fromIncluded, toIncluded := v.FromIncluded, v.ToIncluded
	return json.Marshal(wireVirkning{
		From:          v.From,
		To:            v.To,
		FromIncluded:  &fromIncluded,
		ToIncluded:    &toIncluded,
		ActorRef:      v.ActorRef,
		ActorTypeCode: v.ActorTypeCode,
		Note:          v.Note,
	})
}

// UnmarshalJSON defaults missing inclusion flags to the LoRa convention
// [from, to).
func (v *Virkning) UnmarshalJSON(b []byte) error {
	var w wireVirkning
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("virkning: decode: %w", err)
	}
	out := Virkning{
		Interval:      New(w.From, w.To),
		ActorRef:      w.ActorRef,
		ActorTypeCode: w.ActorTypeCode,
		Note:          w.Note,
	}
	if w.FromIncluded != nil {
		out.FromIncluded = *w.FromIncluded
	}
	if w.ToIncluded != nil {
		out.ToIncluded = *w.ToIncluded
	}
	*v = out
	return nil
}
