package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBreaker() *Breaker {
	return New(Config{Name: "test", MaxRequests: 1, Timeout: time.Hour, ConsecutiveFailures: 2}, zerolog.Nop())
}

func TestDo_OpensOnInfrastructureFailures(t *testing.T) {
	b := testBreaker()
	down := apperrors.New(apperrors.Unavailable, "db down")

	for i := 0; i < 2; i++ {
		_, err := Do(b, func() (int, error) { return 0, down })
		assert.ErrorIs(t, err, down)
	}
	assert.Equal(t, "open", b.State())

	called := false
	_, err := Do(b, func() (int, error) {
		called = true
		return 1, nil
	})
	assert.False(t, called)
	assert.True(t, apperrors.IsKind(err, apperrors.Unavailable))
}

func TestDo_DomainErrorsDoNotTrip(t *testing.T) {
	b := testBreaker()
	for i := 0; i < 5; i++ {
		_, err := Do(b, func() (string, error) {
			return "", apperrors.New(apperrors.SelfFollow, "nope")
		})
		assert.True(t, apperrors.IsKind(err, apperrors.SelfFollow))
	}
	assert.Equal(t, "closed", b.State())
}

func TestDo_ReturnsValue(t *testing.T) {
	got, err := Do(testBreaker(), func() (int64, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestDo_NilBreaker(t *testing.T) {
	var b *Breaker
	boom := errors.New("boom")
	_, err := Do(b, func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "closed", b.State())
}
