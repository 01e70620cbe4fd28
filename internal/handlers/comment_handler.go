package handlers

import (
	"github.com/anonto42/jackpot/backend/internal/middleware"
	"github.com/anonto42/jackpot/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	coordinator Coordinator
	reader      Reader
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(coordinator Coordinator, reader Reader) *CommentHandler {
	return &CommentHandler{coordinator: coordinator, reader: reader}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group, mutate ...echo.MiddlewareFunc) {
	g.POST("/comment", h.CreateComment, mutate...)
	g.GET("/comments", h.GetComments)
}

// CreateComment appends a comment to post_id. Retrying a request that timed
// out may append a duplicate.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	var req models.CreateCommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	comment, err := h.coordinator.AddComment(c.Request().Context(), middleware.CallerID(c), req.PostID, req.AuthorID, req.Text)
	if err != nil {
		return fail(err)
	}
	return ok(c, comment)
}

// GetComments pages a post's comments oldest first.
func (h *CommentHandler) GetComments(c echo.Context) error {
	postID, err := requireQuery(c, "post_id")
	if err != nil {
		return err
	}
	cursor, limit, err := pageParams(c)
	if err != nil {
		return err
	}
	page, err := h.reader.ListComments(c.Request().Context(), postID, cursor, limit)
	if err != nil {
		return fail(err)
	}
	return ok(c, page)
}
