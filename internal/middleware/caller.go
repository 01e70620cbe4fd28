package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// CallerKey is the echo context key holding the authenticated user ID.
const CallerKey = "callerID"

// CallerID returns the authenticated user ID, or "" outside an
// authenticated group.
func CallerID(c echo.Context) string {
	id, _ := c.Get(CallerKey).(string)
	return id
}

func bearerToken(c echo.Context) (string, bool) {
	parts := strings.Fields(c.Request().Header.Get(echo.HeaderAuthorization))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
