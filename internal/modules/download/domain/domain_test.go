package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFailureRegistrySetSemantics(t *testing.T) {
	registry := NewFailureRegistry()

	registry.Add(7)
	registry.Add(7)
	registry.Add(3)

	assert.Equal(t, 2, registry.Len())
	assert.Equal(t, []int64{3, 7}, registry.IDs())
	assert.True(t, registry.Contains(7))
	assert.False(t, registry.Contains(42))
}

func TestClassify(t *testing.T) {
	stale := &StaleReferenceError{Err: errors.New("reference expired")}
	transient := &TransientError{Err: errors.New("timeout")}

	assert.Equal(t, FailureKindStaleReference, Classify(stale))
	assert.Equal(t, FailureKindTransient, Classify(transient))
	assert.Equal(t, FailureKindUnclassified, Classify(errors.New("boom")))

	// Wrapped errors keep their classification.
	assert.Equal(t, FailureKindStaleReference, Classify(fmt.Errorf("download: %w", stale)))
	assert.Equal(t, FailureKindTransient, Classify(fmt.Errorf("download: %w", transient)))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("cause")

	assert.ErrorIs(t, &StaleReferenceError{Err: cause}, cause)
	assert.ErrorIs(t, &TransientError{Err: cause}, cause)
}
