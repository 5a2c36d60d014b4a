package core

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrPendingOut         = errors.New("complete the pending OUT form before starting a new trip")
	ErrNoPendingSession   = errors.New("no IN data found for this trip")
	ErrFeedUnavailable    = errors.New("could not load data from the sheet")
	ErrNotAdmin           = errors.New("admin access required")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAdvanceNotPending  = errors.New("advance request is not awaiting action")
	ErrNotFound           = errors.New("record not found")
)

// ValidationErrors maps a form field to its message
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (v ValidationErrors) add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// LocationError is a failed location lookup reported by the device
type LocationError struct {
	Code int
}

const (
	LocationPermissionDenied = 1
	LocationUnavailable      = 2
	LocationTimeout          = 3
)

func (e *LocationError) Error() string {
	switch e.Code {
	case LocationPermissionDenied:
		return "Location permission denied. Please enable location services."
	case LocationUnavailable:
		return "Location information unavailable."
	case LocationTimeout:
		return "Location request timed out."
	}
	return "An unknown error occurred while retrieving location."
}
