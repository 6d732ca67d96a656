package services

import (
	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/registration"
	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/virkning"
)

var (
	ninf = virkning.NegativeInfinity
	pinf = virkning.PositiveInfinity
)

func year(y int) virkning.TimePoint { return virkning.Date(y, 1, 1) }

func named(name string, from, to virkning.TimePoint) registration.Effect {
	return registration.NewEffect(map[string]any{"name": name}, virkning.Of(virkning.New(from, to)))
}

func state(value string, from, to virkning.TimePoint) registration.Effect {
	return registration.NewEffect(map[string]any{StateKey: value}, virkning.Of(virkning.New(from, to)))
}

type span struct {
	Name string
	From virkning.TimePoint
	To   virkning.TimePoint
}

func spans(effects []registration.Effect) []span {
	out := make([]span, 0, len(effects))
	for _, e := range effects {
		name, _ := e.Data["name"].(string)
		if name == "" {
			name, _ = e.Data[StateKey].(string)
		}
		out = append(out, span{Name: name, From: e.From(), To: e.To()})
	}
	return out
}
