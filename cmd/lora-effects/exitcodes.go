package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/OS2mo/os2mo-sub000/modules/lora/services"
)

const (
	exitOK         = 0
	exitValidation = 2
	exitUsage      = 3
	exitLora       = 4
)

// cliError pins an exit code on errors that carry no ServiceError code.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }
func (e *cliError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

// loraError leaves ServiceErrors for exitCode to classify and marks every
// other failure as a LoRa failure.
func loraError(err error) error {
	if err == nil {
		return nil
	}
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		return err
	}
	return withCode(exitLora, err)
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if errors.As(err, &ce) {
		return ce.code
	}
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		switch {
		case svcErr.Code == services.CodeInvalidValidity:
			return exitUsage
		case strings.HasPrefix(svcErr.Code, "V_") && svcErr.Status == http.StatusBadRequest:
			return exitValidation
		default:
			return exitLora
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return exitLora
	}
	return 1
}

// errorLine renders err for stderr, with the code and metadata of a
// ServiceError when there is one.
func errorLine(err error) string {
	var svcErr *services.ServiceError
	if !errors.As(err, &svcErr) || len(svcErr.Meta) == 0 {
		return err.Error()
	}
	keys := make([]string, 0, len(svcErr.Meta))
	for k := range svcErr.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(err.Error())
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, svcErr.Meta[k])
	}
	return b.String()
}
