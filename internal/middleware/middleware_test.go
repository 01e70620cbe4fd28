package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/anonto42/jackpot/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run passes a request with the given Authorization header through mw and
// returns the caller the downstream handler saw.
func run(t *testing.T, mw echo.MiddlewareFunc, header string) (string, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var caller string
	err := mw(func(c echo.Context) error {
		caller = CallerID(c)
		return nil
	})(c)
	return caller, err
}

type fakeVerifier map[string]string

func (f fakeVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	uid, ok := f[idToken]
	if !ok {
		return nil, errors.New("token expired")
	}
	return &auth.Token{UID: uid}, nil
}

func TestFirebaseAuthMiddleware(t *testing.T) {
	mw := FirebaseAuthMiddleware(fakeVerifier{"good": "alice"})

	caller, err := run(t, mw, "Bearer good")
	require.NoError(t, err)
	assert.Equal(t, "alice", caller)

	for _, header := range []string{"", "good", "Basic good", "Bearer bad", "Bearer"} {
		_, err := run(t, mw, header)
		assert.True(t, apperrors.IsKind(err, apperrors.Unauthenticated), "header %q", header)
	}
}

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims *models.JwtCustomClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestJWTAuthMiddleware(t *testing.T) {
	secret := "test-secret"
	mw := JWTAuthMiddleware(secret)
	valid := &models.JwtCustomClaims{
		UserID:           "alice",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}

	caller, err := run(t, mw, "Bearer "+sign(t, jwt.SigningMethodHS256, []byte(secret), valid))
	require.NoError(t, err)
	assert.Equal(t, "alice", caller)

	expired := &models.JwtCustomClaims{
		UserID:           "alice",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))},
	}
	noUser := &models.JwtCustomClaims{}

	for name, header := range map[string]string{
		"wrong secret": "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), valid),
		"expired":      "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), expired),
		"no user id":   "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), noUser),
		"garbage":      "Bearer not.a.jwt",
		"missing":      "",
	} {
		_, err := run(t, mw, header)
		assert.True(t, apperrors.IsKind(err, apperrors.Unauthenticated), name)
	}
}

func TestCallerIDOutsideAuth(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Equal(t, "", CallerID(c))
}

func TestAuthStoresOnlyCaller(t *testing.T) {
	secret := "test-secret"
	token := sign(t, jwt.SigningMethodHS256, []byte(secret), &models.JwtCustomClaims{UserID: "alice"})
	for name, tc := range map[string]struct {
		mw     echo.MiddlewareFunc
		header string
	}{
		"firebase": {FirebaseAuthMiddleware(fakeVerifier{"good": "alice"}), "Bearer good"},
		"jwt":      {JWTAuthMiddleware(secret), "Bearer " + token},
	} {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(echo.HeaderAuthorization, tc.header)
			c := e.NewContext(req, httptest.NewRecorder())

			err := tc.mw(func(c echo.Context) error {
				assert.Equal(t, "alice", c.Get(CallerKey))
				assert.Nil(t, c.Get("user"))
				assert.Nil(t, c.Get("firebaseToken"))
				return nil
			})(c)
			require.NoError(t, err)
		})
	}
}
