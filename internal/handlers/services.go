package handlers

import (
	"context"

	"github.com/anonto42/jackpot/backend/internal/models"
)

// Coordinator applies engagement intents.
type Coordinator interface {
	Follow(ctx context.Context, callerID, followerID, followeeID string) (models.FollowResult, error)
	Unfollow(ctx context.Context, callerID, followerID, followeeID string) (models.FollowResult, error)
	SetLike(ctx context.Context, callerID, postID, userID string, liked bool) (models.LikeResult, error)
	AddComment(ctx context.Context, callerID, postID, authorID, text string) (models.Comment, error)
}

// Reader serves the read-only views.
type Reader interface {
	Profile(ctx context.Context, callerID, subjectID, postsCursor string, postsLimit int) (models.Profile, error)
	ListFollowers(ctx context.Context, userID, cursor string, limit int) (models.Page[models.FollowUser], error)
	ListFollowing(ctx context.Context, userID, cursor string, limit int) (models.Page[models.FollowUser], error)
	ListComments(ctx context.Context, postID, cursor string, limit int) (models.CommentPage, error)
	LikeState(ctx context.Context, callerID, postID string) (models.LikeSummary, error)
}
