package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTemporary          = errors.New("temporary failure")
	ErrNotFound           = errors.New("not found")
	ErrService            = errors.New("service error")
	ErrNetwork            = errors.New("network error")
	ErrAnalysis           = errors.New("analysis failed")
	ErrKeywordApplication = errors.New("keyword application failed")
	ErrExport             = errors.New("export failed")
	ErrBusy               = errors.New("operation already in flight")
	ErrInvalidTransition  = errors.New("invalid workflow transition")
	ErrStale              = errors.New("stale response discarded")
	ErrNotConfirmed       = errors.New("action not confirmed")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ServiceError is a non-2xx answer from the remote resume service.
type ServiceError struct {
	Operation  string
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	if e == nil {
		return "service error"
	}
	if strings.TrimSpace(e.Detail) == "" {
		return fmt.Sprintf("%s: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Operation, e.StatusCode, e.Detail)
}

func (e *ServiceError) Unwrap() error { return ErrService }

// NetworkError is a transport failure where no response was received.
type NetworkError struct {
	Operation string
	Err       error
}

func (e *NetworkError) Error() string {
	if e == nil {
		return "network error"
	}
	return fmt.Sprintf("%s: network error: %v", e.Operation, e.Err)
}

func (e *NetworkError) Unwrap() []error { return []error{ErrNetwork, e.Err} }

// PersistenceWarning is the advisory outcome of a failed history save. It is
// attached to an analysis that already succeeded and never replaces it.
type PersistenceWarning struct {
	Err error
}

func (w *PersistenceWarning) Error() string {
	return w.Message()
}

func (w *PersistenceWarning) Unwrap() error { return w.Err }

func (w *PersistenceWarning) Message() string {
	if w == nil {
		return ""
	}
	return fmt.Sprintf("History not saved: %s. Your analysis is still ready below.", Message(w.Err))
}

// Message renders err as a single human-readable line for display.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if warn, ok := err.(*PersistenceWarning); ok {
		return warn.Message()
	}
	if errors.Is(err, ErrUnauthorized) {
		return "you must sign in"
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && strings.TrimSpace(svcErr.Detail) != "" {
		return svcErr.Detail
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "network error: could not reach the resume service"
	}
	return err.Error()
}
