package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewErrorFormatsWithoutCause(t *testing.T) {
	err := New(KindMissingFields, "name is required")
	assert.Equal(t, "MISSING_FIELDS: name is required", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestWrapPreservesCauseForUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindStoreUnavailable, "insert failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestWithDetailsAttachesStructuredData(t *testing.T) {
	err := New(KindInsufficientResources, "not enough wood").
		WithDetails(map[string]any{"shortages": map[string]int{"wood": 5}})
	assert.Equal(t, map[string]int{"wood": 5}, err.Details["shortages"])
}

func TestKindOfExtractsKindOrDefaultsForUnknownErrors(t *testing.T) {
	assert.Equal(t, KindMissingFields, KindOf(New(KindMissingFields, "x")))
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindCreateFailed, KindOf(errors.New("not ours")))
}

func TestIsTransientOnlyTrueForStoreUnavailable(t *testing.T) {
	assert.True(t, IsTransient(New(KindStoreUnavailable, "busy")))
	assert.False(t, IsTransient(New(KindMissingFields, "x")))
	assert.False(t, IsTransient(nil))
}
