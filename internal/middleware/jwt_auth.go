package middleware

import (
	"errors"

	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/anonto42/jackpot/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// JWTAuthMiddleware checks for a valid HMAC-signed JWT and stores its user_id
// claim as the request's caller.
func JWTAuthMiddleware(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, ok := bearerToken(c)
			if !ok {
				return apperrors.New(apperrors.Unauthenticated, "authorization header must be a bearer token")
			}

			claims := &models.JwtCustomClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return key, nil
			})
			if err != nil || !token.Valid {
				return apperrors.Wrap(apperrors.Unauthenticated, err, "invalid token")
			}
			if claims.UserID == "" {
				return apperrors.New(apperrors.Unauthenticated, "token carries no user_id")
			}

			c.Set(CallerKey, claims.UserID)
			return next(c)
		}
	}
}
