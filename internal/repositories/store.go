package repositories

import (
	"context"

	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/anonto42/jackpot/backend/internal/models"
)

// UserChecker answers whether an identity exists. The identity sources
// satisfy it.
type UserChecker interface {
	UserExists(ctx context.Context, id string) (bool, error)
}

// FollowGraphStore owns follow edges. Counts are always the live cardinality
// of the edge set.
type FollowGraphStore interface {
	Follow(ctx context.Context, followerID, followeeID string) (models.FollowResult, error)
	Unfollow(ctx context.Context, followerID, followeeID string) (models.FollowResult, error)
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
	FollowerCount(ctx context.Context, userID string) (int64, error)
	FollowingCount(ctx context.Context, userID string) (int64, error)
	ListFollowers(ctx context.Context, userID, cursor string, limit int) (models.Page[models.FollowEntry], error)
	ListFollowing(ctx context.Context, userID, cursor string, limit int) (models.Page[models.FollowEntry], error)
}

// EngagementStore owns like membership and the per-post comment logs.
type EngagementStore interface {
	SetLike(ctx context.Context, postID, userID string, liked bool) (models.LikeResult, error)
	GetLikeState(ctx context.Context, postID, userID string) (models.LikeState, error)
	GetLikeStates(ctx context.Context, postIDs []string, userID string) (map[string]models.LikeState, error)
	RecentLikers(ctx context.Context, postID string, n int) ([]string, error)
	LikeCount(ctx context.Context, postID string) (int64, error)
	AddComment(ctx context.Context, postID, authorID, text string) (models.Comment, error)
	ListComments(ctx context.Context, postID, cursor string, limit int) (models.Page[models.Comment], error)
	CommentCount(ctx context.Context, postID string) (int64, error)
}

// PostRepository is the external post store, read-only from here.
type PostRepository interface {
	PostExists(ctx context.Context, id string) (bool, error)
	ListPostsByAuthor(ctx context.Context, authorID, cursor string, limit int) (models.Page[models.Post], error)
	CountPostsByAuthor(ctx context.Context, authorID string) (int64, error)
}

func checkUsers(ctx context.Context, users UserChecker, ids ...string) error {
	if users == nil {
		return nil
	}
	for _, id := range ids {
		ok, err := users.UserExists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.New(apperrors.UnknownUser, "user %q does not exist", id)
		}
	}
	return nil
}
