package middleware

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/labstack/echo/v4"
)

// tokenVerifier is the part of *auth.Client the middleware uses.
type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseAuthMiddleware verifies Firebase ID tokens and stores the UID as
// the request's caller.
func FirebaseAuthMiddleware(verifier tokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, ok := bearerToken(c)
			if !ok {
				return apperrors.New(apperrors.Unauthenticated, "authorization header must be a bearer token")
			}

			token, err := verifier.VerifyIDToken(c.Request().Context(), idToken)
			if err != nil {
				return apperrors.Wrap(apperrors.Unauthenticated, err, "invalid or expired ID token")
			}

			c.Set(CallerKey, token.UID)
			return next(c)
		}
	}
}
