package services

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/virkning"
)

type ValidityMode int

const (
	ValidityPresent ValidityMode = iota
	ValidityPast
	ValidityFuture
	ValidityCustom
)

func (m ValidityMode) String() string {
	switch m {
	case ValidityPresent:
		return "present"
	case ValidityPast:
		return "past"
	case ValidityFuture:
		return "future"
	case ValidityCustom:
		return "custom"
	default:
		return fmt.Sprintf("ValidityMode(%d)", int(m))
	}
}

func ParseValidityMode(s string) (ValidityMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "present":
		return ValidityPresent, nil
	case "past":
		return ValidityPast, nil
	case "future":
		return ValidityFuture, nil
	case "custom":
		return ValidityCustom, nil
	default:
		return 0, newServiceError(http.StatusBadRequest, CodeInvalidValidity, fmt.Sprintf("invalid validity %q (expected present|past|future|custom)", s), nil)
	}
}

// ValidityWindow is the time range a Connector reads in. It is derived once
// and never changes.
type ValidityWindow struct {
	Mode     ValidityMode
	From     virkning.TimePoint
	To       virkning.TimePoint
	Today    virkning.TimePoint
	Tomorrow virkning.TimePoint
}

// NewValidityWindow derives the window for mode around at. from/to are
// only used, and then required, for ValidityCustom.
func NewValidityWindow(mode ValidityMode, at time.Time, from, to virkning.TimePoint) (ValidityWindow, error) {
	y, m, d := at.Date()
	todayTime := time.Date(y, m, d, 0, 0, 0, 0, at.Location())
	today := virkning.At(todayTime)
	tomorrow := virkning.At(todayTime.AddDate(0, 0, 1))

	w := ValidityWindow{Mode: mode, Today: today, Tomorrow: tomorrow}
	switch mode {
	case ValidityPresent:
		w.From, w.To = today, tomorrow
	case ValidityPast:
		w.From, w.To = virkning.NegativeInfinity, today
	case ValidityFuture:
		w.From, w.To = tomorrow, virkning.PositiveInfinity
	case ValidityCustom:
		if err := validateInterval(virkning.New(from, to)); err != nil {
			return ValidityWindow{}, err
		}
		w.From, w.To = from, to
	default:
		return ValidityWindow{}, newServiceError(http.StatusBadRequest, CodeInvalidValidity, "unknown validity mode "+mode.String(), nil)
	}
	return w, nil
}

// Interval returns [From, To).
func (w ValidityWindow) Interval() virkning.Interval {
	return virkning.New(w.From, w.To)
}

// QueryParams renders the bitemporal parameters sent with every read.
func (w ValidityWindow) QueryParams() map[string]string {
	return map[string]string{
		"virkningfra": w.From.String(),
		"virkningtil": w.To.String(),
		"konsolider":  "True",
	}
}
