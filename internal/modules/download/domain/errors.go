//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies a failed download attempt and selects the retry
// behavior applied to it
// ENUM(stale_reference,transient,unclassified,soft)
type FailureKind string

// StaleReferenceError signals that an attachment's server-side file reference
// expired. Recoverable by refetching the message and retrying.
type StaleReferenceError struct {
	Err error
}

func (e *StaleReferenceError) Error() string {
	return fmt.Sprintf("stale file reference: %v", e.Err)
}

func (e *StaleReferenceError) Unwrap() error {
	return e.Err
}

// TransientError signals a timeout-like failure. Recoverable by waiting a
// fixed backoff and retrying.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Classify maps an error from a download attempt to its FailureKind.
// Anything that is neither stale nor transient is unclassified and must not
// be retried.
func Classify(err error) FailureKind {
	var stale *StaleReferenceError
	if errors.As(err, &stale) {
		return FailureKindStaleReference
	}
	var transient *TransientError
	if errors.As(err, &transient) {
		return FailureKindTransient
	}
	return FailureKindUnclassified
}
