package handlers

import (
	"strconv"

	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/anonto42/jackpot/backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// ProfileHandler serves the profile screen
type ProfileHandler struct {
	reader Reader
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(reader Reader) *ProfileHandler {
	return &ProfileHandler{reader: reader}
}

// RegisterProfileRoutes registers profile routes
func (h *ProfileHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
}

// GetProfile returns user_id's counts, whether the caller follows them, and
// the first page of their posts. caller_id, when given, must be the caller.
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	callerID := middleware.CallerID(c)
	if claimed := c.QueryParam("caller_id"); claimed != "" && claimed != callerID {
		return fail(apperrors.New(apperrors.Forbidden, "caller_id does not match the authenticated user"))
	}
	userID := c.QueryParam("user_id")
	if userID == "" {
		userID = callerID
	}

	postsLimit := 0
	if raw := c.QueryParam("posts_limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fail(apperrors.New(apperrors.InvalidArgument, "posts_limit must be a non-negative integer"))
		}
		postsLimit = n
	}

	profile, err := h.reader.Profile(c.Request().Context(), callerID, userID, c.QueryParam("posts_cursor"), postsLimit)
	if err != nil {
		return fail(err)
	}
	return ok(c, profile)
}
