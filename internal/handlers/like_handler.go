package handlers

import (
	"github.com/anonto42/jackpot/backend/internal/middleware"
	"github.com/anonto42/jackpot/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles like state reads and writes
type LikeHandler struct {
	coordinator Coordinator
	reader      Reader
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(coordinator Coordinator, reader Reader) *LikeHandler {
	return &LikeHandler{coordinator: coordinator, reader: reader}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group, mutate ...echo.MiddlewareFunc) {
	g.POST("/like", h.SetLike, mutate...)
	g.GET("/likes", h.GetLikes)
}

// SetLike sets whether the caller likes post_id. The response carries the
// authoritative like_count the client must adopt.
func (h *LikeHandler) SetLike(c echo.Context) error {
	var req models.LikeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	res, err := h.coordinator.SetLike(c.Request().Context(), middleware.CallerID(c), req.PostID, req.UserID, *req.Liked)
	if err != nil {
		return fail(err)
	}
	return ok(c, res)
}

// GetLikes returns the like count, the caller's membership and recent likers.
func (h *LikeHandler) GetLikes(c echo.Context) error {
	postID, err := requireQuery(c, "post_id")
	if err != nil {
		return err
	}
	summary, err := h.reader.LikeState(c.Request().Context(), middleware.CallerID(c), postID)
	if err != nil {
		return fail(err)
	}
	return ok(c, summary)
}
