package breaker

import (
	"errors"
	"time"

	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Config tunes the storage circuit breaker.
type Config struct {
	Name                string
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// DefaultConfig trips after five consecutive infrastructure failures and
// probes again after ten seconds.
func DefaultConfig(name string) Config {
	return Config{
		Name:                name,
		MaxRequests:         1,
		Interval:            time.Minute,
		Timeout:             10 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// Breaker guards calls into a backing store. Only infrastructure failures
// count against it; domain errors such as SelfFollow pass through untouched.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

func New(cfg Config, log zerolog.Logger) *Breaker {
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultConfig(cfg.Name).ConsecutiveFailures
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !apperrors.Infrastructure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// State reports the breaker state name: closed, half-open or open.
func (b *Breaker) State() string {
	if b == nil {
		return gobreaker.StateClosed.String()
	}
	return b.cb.State().String()
}

// Do runs fn through b. A nil breaker runs fn directly. Rejections while the
// breaker is open surface as Unavailable.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	if b == nil {
		return fn()
	}
	out, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, apperrors.Wrap(apperrors.Unavailable, err, "storage temporarily unavailable")
	}
	v, _ := out.(T)
	return v, err
}
