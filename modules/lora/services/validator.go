package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/registration"
	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/virkning"
)

// StateAccessor loads the entries of one state field of an entity that
// overlap window.
type StateAccessor interface {
	StateEffects(ctx context.Context, id uuid.UUID, field string, window virkning.Interval) ([]registration.Effect, error)
}

// IsDateRangeValid reports whether entity id is active throughout
// [from, to): the state entries of field must form a run of touching Aktiv
// intervals starting at or before from and ending at or after to.
func IsDateRangeValid(
	ctx context.Context,
	id uuid.UUID,
	from, to virkning.TimePoint,
	accessor StateAccessor,
	field string,
) (bool, error) {
	window := virkning.New(from, to)
	if window.IsEmpty() {
		return false, nil
	}
	effects, err := accessor.StateEffects(ctx, id, field, window)
	if err != nil {
		return false, err
	}
	// Only entries touching [from, to) matter, whatever the accessor returns.
	sorted := make([]registration.Effect, 0, len(effects))
	for _, e := range effects {
		if e.To().After(from) && e.From().Before(to) {
			sorted = append(sorted, e)
		}
	}
	if len(sorted) == 0 {
		return false, nil
	}
	registration.SortByFrom(sorted)

	if sorted[0].From().After(from) {
		return false, nil
	}
	end := sorted[0].From()
	for i, e := range sorted {
		if i > 0 && !e.From().Equal(end) {
			return false, nil
		}
		if state, _ := e.Data[StateKey].(string); state != StateActive {
			return false, nil
		}
		end = e.To()
	}
	return !end.Before(to), nil
}

// RequireDateRangeValid is IsDateRangeValid turned into a user-facing
// V_DATE_OUTSIDE_RANGE error.
func RequireDateRangeValid(
	ctx context.Context,
	id uuid.UUID,
	from, to virkning.TimePoint,
	accessor StateAccessor,
	field string,
) error {
	if err := validateInterval(virkning.New(from, to)); err != nil {
		return err
	}
	ok, err := IsDateRangeValid(ctx, id, from, to, accessor, field)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	recordCoverageRejection(field)
	return newServiceError(
		http.StatusBadRequest,
		CodeDateOutsideRange,
		fmt.Sprintf("date range %s is outside the validity of %s", virkning.New(from, to), id),
		nil,
	).withMeta("id", id.String(), "from", from.String(), "to", to.String(), "field", field)
}
