package game

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to callers. 400-class codes carry structured Details so
// a client can render an actionable message; they are never retried here.
const (
	CodeAlreadyInProgress      = "ALREADY_IN_PROGRESS"
	CodeNoCapacity             = "NO_CAPACITY"
	CodeNoCostDefined          = "NO_COST_DEFINED"
	CodeInsufficientResources  = "INSUFFICIENT_RESOURCES"
	CodeInsufficientEnergy     = "INSUFFICIENT_ENERGY"
	CodeInsufficientArea       = "INSUFFICIENT_AREA"
	CodeInsufficientPopulation = "INSUFFICIENT_POPULATION"
	CodePrereqMissing          = "PREREQ_MISSING"
	CodeNotFound               = "NOT_FOUND"
	CodeNoActiveAction         = "NO_ACTIVE_ACTION"
	CodeNotImplemented         = "NOT_IMPLEMENTED"
	CodeServerError            = "SERVER_ERROR"
)

type Error struct {
	Code    string           `json:"code"`
	Status  int              `json:"-"`
	Message string           `json:"message"`
	Details map[string]int64 `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// AsError unwraps a typed engine error, if err carries one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func newError(code string, status int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Status: status, Message: fmt.Sprintf(format, args...)}
}

func errNotFound(format string, args ...interface{}) *Error {
	return newError(CodeNotFound, http.StatusNotFound, format, args...)
}

func errNoActiveAction(format string, args ...interface{}) *Error {
	return newError(CodeNoActiveAction, http.StatusNotFound, format, args...)
}

func errAlreadyInProgress(key string) *Error {
	return newError(CodeAlreadyInProgress, http.StatusConflict, "an action for %s is already in progress", key)
}

func errNoCapacity(kind string) *Error {
	return newError(CodeNoCapacity, http.StatusBadRequest, "no %s capacity at this base", kind)
}

func errNoCostDefined(key string, level int) *Error {
	return newError(CodeNoCostDefined, http.StatusBadRequest, "no cost defined for %s level %d", key, level)
}

func errInsufficientResources(required, available int64) *Error {
	e := newError(CodeInsufficientResources, http.StatusBadRequest,
		"need %d credits, have %d", required, available)
	e.Details = map[string]int64{
		"required":  required,
		"available": available,
		"shortfall": required - available,
	}
	return e
}

func errInsufficientEnergy(produced, consumed, balance, reserved, delta, projected int64) *Error {
	e := newError(CodeInsufficientEnergy, http.StatusBadRequest,
		"projected energy balance %d is negative", projected)
	e.Details = map[string]int64{
		"produced":  produced,
		"consumed":  consumed,
		"balance":   balance,
		"reserved":  reserved,
		"delta":     delta,
		"projected": projected,
	}
	return e
}

func errInsufficientBudget(code string, required, free int64) *Error {
	e := newError(code, http.StatusBadRequest, "need %d, have %d free", required, free)
	e.Details = map[string]int64{
		"required":  required,
		"available": free,
		"shortfall": required - free,
	}
	return e
}

func errPrereqMissing(key, prereq string) *Error {
	return newError(CodePrereqMissing, http.StatusBadRequest, "%s requires an active %s", key, prereq)
}

func errNotImplemented(kind string) *Error {
	return newError(CodeNotImplemented, http.StatusNotImplemented, "%s actions are not wired to an execution path yet", kind)
}

func errServer(cause error, format string, args ...interface{}) *Error {
	e := newError(CodeServerError, http.StatusInternalServerError, format, args...)
	e.cause = cause
	return e
}
