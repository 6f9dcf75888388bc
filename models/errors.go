package models

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrDuplicateRegistration means the Aadhar number already has a registration
	ErrDuplicateRegistration = errors.New("this aadhar number is already registered")
	// ErrSignatureMismatch means the payment proof was not signed by the gateway
	ErrSignatureMismatch = errors.New("invalid payment signature")
	ErrOrderNotFound     = errors.New("payment order not found")
	// ErrOrderNotPayable means the order is failed or refunded
	ErrOrderNotPayable = errors.New("payment order can no longer be paid")
	ErrGateway         = errors.New("payment gateway error")
	ErrNoDocument      = errors.New("no document uploaded")
)

// ValidationError lists the fields that failed local or request validation
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}
	return strings.Join(msgs, ", ")
}

// Add records a failure for field, keeping the first message reported
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// OrNil returns nil when no field failed
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// IsValidation reports whether err carries a *ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
