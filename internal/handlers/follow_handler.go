package handlers

import (
	"context"

	"github.com/anonto42/jackpot/backend/internal/middleware"
	"github.com/anonto42/jackpot/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests and the follower lists
type FollowHandler struct {
	coordinator Coordinator
	reader      Reader
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(coordinator Coordinator, reader Reader) *FollowHandler {
	return &FollowHandler{coordinator: coordinator, reader: reader}
}

// RegisterFollowRoutes registers follow-related routes. mutate wraps the
// state-changing routes, typically with a rate limiter.
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group, mutate ...echo.MiddlewareFunc) {
	g.POST("/follow", h.Follow, mutate...)
	g.POST("/unfollow", h.Unfollow, mutate...)
	g.GET("/followers", h.ListFollowers)
	g.GET("/following", h.ListFollowing)
}

// Follow makes the caller follow followee_id. Repeats succeed with changed=false.
func (h *FollowHandler) Follow(c echo.Context) error {
	var req models.FollowRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.coordinator.Follow(c.Request().Context(), middleware.CallerID(c), req.FollowerID, req.FolloweeID)
	if err != nil {
		return fail(err)
	}
	return ok(c, res)
}

// Unfollow removes the edge. Unfollowing someone you don't follow succeeds
// with changed=false.
func (h *FollowHandler) Unfollow(c echo.Context) error {
	var req models.FollowRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.coordinator.Unfollow(c.Request().Context(), middleware.CallerID(c), req.FollowerID, req.FolloweeID)
	if err != nil {
		return fail(err)
	}
	return ok(c, res)
}

func (h *FollowHandler) ListFollowers(c echo.Context) error {
	return h.list(c, h.reader.ListFollowers)
}

func (h *FollowHandler) ListFollowing(c echo.Context) error {
	return h.list(c, h.reader.ListFollowing)
}

type followLister func(ctx context.Context, userID, cursor string, limit int) (models.Page[models.FollowUser], error)

func (h *FollowHandler) list(c echo.Context, fn followLister) error {
	userID, err := requireQuery(c, "user_id")
	if err != nil {
		return err
	}
	cursor, limit, err := pageParams(c)
	if err != nil {
		return err
	}
	page, err := fn(c.Request().Context(), userID, cursor, limit)
	if err != nil {
		return fail(err)
	}
	return ok(c, page)
}
