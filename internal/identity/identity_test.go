package identity

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/anonto42/jackpot/backend/internal/models"
	"github.com/go-redis/redismock/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	ctx := context.Background()
	s := NewStatic(models.User{ID: "u1", DisplayName: "Ada"})

	ok, err := s.UserExists(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.GetUser(ctx, "u2")
	assert.True(t, apperrors.IsKind(err, apperrors.UnknownUser))

	s.Add(models.User{ID: "u2", DisplayName: "Grace"})
	u, err := s.GetUser(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "Grace", u.DisplayName)
}

type fakeFirebase struct {
	rec *auth.UserRecord
	err error
}

func (f fakeFirebase) GetUser(_ context.Context, uid string) (*auth.UserRecord, error) {
	return f.rec, f.err
}

func TestFirebase_GetUser(t *testing.T) {
	ctx := context.Background()
	f := &Firebase{client: fakeFirebase{rec: &auth.UserRecord{UserInfo: &auth.UserInfo{
		UID: "u1", DisplayName: "Ada", PhotoURL: "https://img/ada.png",
	}}}}

	u, err := f.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.User{ID: "u1", DisplayName: "Ada", AvatarURL: "https://img/ada.png"}, u)

	ok, err := f.UserExists(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.GetUser(ctx, "")
	assert.True(t, apperrors.IsKind(err, apperrors.UnknownUser))
}

func TestFirebase_BackendFailureIsUnavailable(t *testing.T) {
	f := &Firebase{client: fakeFirebase{err: errors.New("connection reset")}}

	ok, err := f.UserExists(context.Background(), "u1")
	assert.False(t, ok)
	assert.True(t, apperrors.IsKind(err, apperrors.Unavailable))
}

// countingSource counts calls reaching the wrapped source.
type countingSource struct {
	Source
	calls atomic.Int32
}

func (c *countingSource) GetUser(ctx context.Context, id string) (models.User, error) {
	c.calls.Add(1)
	return c.Source.GetUser(ctx, id)
}

func (c *countingSource) UserExists(ctx context.Context, id string) (bool, error) {
	c.calls.Add(1)
	return c.Source.UserExists(ctx, id)
}

func TestCached_MissThenHit(t *testing.T) {
	ctx := context.Background()
	ada := models.User{ID: "u1", DisplayName: "Ada"}
	raw, err := json.Marshal(ada)
	require.NoError(t, err)

	db, mock := redismock.NewClientMock()
	backend := &countingSource{Source: NewStatic(ada)}
	c := NewCached(backend, db, time.Minute, zerolog.Nop())

	mock.ExpectGet("identity:user:u1").RedisNil()
	mock.ExpectSet("identity:user:u1", string(raw), time.Minute).SetVal("OK")
	mock.ExpectGet("identity:user:u1").SetVal(string(raw))
	mock.ExpectGet("identity:user:u1").SetVal(string(raw))

	u, err := c.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, ada, u)

	u, err = c.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, ada, u)

	ok, err := c.UserExists(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, int32(1), backend.calls.Load())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCached_UnknownUserIsNotCached(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	c := NewCached(NewStatic(), db, time.Minute, zerolog.Nop())

	mock.ExpectGet("identity:user:ghost").RedisNil()
	_, err := c.GetUser(ctx, "ghost")
	assert.True(t, apperrors.IsKind(err, apperrors.UnknownUser))

	mock.ExpectGet("identity:user:ghost").RedisNil()
	ok, err := c.UserExists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCached_RedisDownFallsThrough(t *testing.T) {
	ctx := context.Background()
	ada := models.User{ID: "u1", DisplayName: "Ada"}
	raw, err := json.Marshal(ada)
	require.NoError(t, err)

	db, mock := redismock.NewClientMock()
	c := NewCached(NewStatic(ada), db, time.Minute, zerolog.Nop())

	mock.ExpectGet("identity:user:u1").SetErr(errors.New("dial tcp: connection refused"))
	mock.ExpectSet("identity:user:u1", string(raw), time.Minute).SetErr(errors.New("dial tcp: connection refused"))

	u, err := c.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, ada, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCached_ExistsMissFillsCache(t *testing.T) {
	ctx := context.Background()
	ada := models.User{ID: "u1", DisplayName: "Ada"}
	raw, err := json.Marshal(ada)
	require.NoError(t, err)

	db, mock := redismock.NewClientMock()
	backend := &countingSource{Source: NewStatic(ada)}
	c := NewCached(backend, db, time.Minute, zerolog.Nop())

	mock.ExpectGet("identity:user:u1").RedisNil()
	mock.ExpectSet("identity:user:u1", string(raw), time.Minute).SetVal("OK")
	mock.ExpectGet("identity:user:u1").SetVal(string(raw))
	mock.ExpectGet("identity:user:u1").SetVal(string(raw))

	for i := 0; i < 2; i++ {
		ok, err := c.UserExists(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	u, err := c.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, ada, u)

	assert.Equal(t, int32(1), backend.calls.Load())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCached_ExistsBackendFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewCached(&Firebase{client: fakeFirebase{err: errors.New("connection reset")}}, db, time.Minute, zerolog.Nop())

	mock.ExpectGet("identity:user:u1").RedisNil()
	ok, err := c.UserExists(context.Background(), "u1")
	assert.False(t, ok)
	assert.True(t, apperrors.IsKind(err, apperrors.Unavailable))
	assert.NoError(t, mock.ExpectationsWereMet())
}
