package services

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/OS2mo/os2mo-sub000/modules/lora/domain/virkning"
)

const (
	CodeInvalidInput     = "E_INVALID_INPUT"
	CodeUnauthorized     = "E_UNAUTHORIZED"
	CodeForbidden        = "E_FORBIDDEN"
	CodeUnknown          = "E_UNKNOWN"
	CodeEndBeforeStart   = "V_END_BEFORE_START"
	CodeDateOutsideRange = "V_DATE_OUTSIDE_RANGE"
	CodeInvalidValidity  = "E_INVALID_VALIDITY"
)

type ServiceError struct {
	Status  int
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *ServiceError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *ServiceError) Unwrap() error { return e.Cause }

func newServiceError(status int, code, message string, cause error) *ServiceError {
	return &ServiceError{Status: status, Code: code, Message: message, Cause: cause}
}

func (e *ServiceError) withMeta(kv ...string) *ServiceError {
	if e.Meta == nil {
		e.Meta = make(map[string]string, len(kv)/2)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		e.Meta[kv[i]] = kv[i+1]
	}
	return e
}

// HasCode reports whether err is a ServiceError carrying code.
func HasCode(err error, code string) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Code == code
}

// ErrorFromStatus classifies a non-2xx backing-store response. message is
// the store's own description when it sent one.
func ErrorFromStatus(status int, message string, cause error) *ServiceError {
	message = strings.TrimSpace(message)
	switch status {
	case http.StatusBadRequest:
		return newServiceError(http.StatusBadRequest, CodeInvalidInput, orDefault(message, "invalid input"), cause)
	case http.StatusUnauthorized:
		return newServiceError(http.StatusUnauthorized, CodeUnauthorized, orDefault(message, "unauthorized"), cause)
	case http.StatusForbidden:
		return newServiceError(http.StatusForbidden, CodeForbidden, orDefault(message, "forbidden"), cause)
	default:
		err := newServiceError(http.StatusInternalServerError, CodeUnknown, orDefault(message, "unknown error"), cause)
		return err.withMeta("upstream_status", fmt.Sprint(status))
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// noopUpdatePattern is the store's wording for an update that would not
// produce a new registration.
var noopUpdatePattern = regexp.MustCompile(`(?s)Aborted updating .* as the given data, does not give raise to a new registration`)

// IsNoopUpdateMessage is the single place that recognises a no-op update.
// Replace it if the store starts sending a structured code.
func IsNoopUpdateMessage(message string) bool {
	return noopUpdatePattern.MatchString(message)
}

// MalformedInterval is the local rejection of from >= to.
func MalformedInterval(i virkning.Interval) *ServiceError {
	return newServiceError(http.StatusBadRequest, CodeEndBeforeStart, "end date is before start date", virkning.ErrMalformedInterval).
		withMeta("from", i.From.String(), "to", i.To.String())
}

func validateInterval(i virkning.Interval) error {
	if i.IsEmpty() {
		return MalformedInterval(i)
	}
	return nil
}
