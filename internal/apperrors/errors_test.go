package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, SelfFollow, KindOf(New(SelfFollow, "user %s", "u1")))
	assert.Equal(t, Internal, KindOf(errors.New("boom")))

	wrapped := fmt.Errorf("follow: %w", New(UnknownUser, "missing"))
	assert.Equal(t, UnknownUser, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, UnknownUser))
	assert.False(t, IsKind(nil, UnknownUser))
}

func TestErrorsIsMatchesKind(t *testing.T) {
	err := Wrap(Conflict, errors.New("duplicate key"), "insert like")
	assert.True(t, errors.Is(err, New(Conflict, "")))
	assert.False(t, errors.Is(err, New(Unavailable, "")))
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestRetryableAndInfrastructure(t *testing.T) {
	assert.True(t, Retryable(New(Conflict, "")))
	assert.True(t, Retryable(New(Unavailable, "")))
	assert.False(t, Retryable(New(EmptyComment, "")))

	assert.True(t, Infrastructure(New(Unavailable, "")))
	assert.True(t, Infrastructure(errors.New("driver exploded")))
	assert.False(t, Infrastructure(New(SelfFollow, "")))
	assert.False(t, Infrastructure(New(Conflict, "")))
}
