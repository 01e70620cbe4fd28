package models

import "time"

// Like marks that a user currently likes a post. Membership, not a counter:
// at most one row per (post, user).
type Like struct {
	PostID    string    `json:"post_id" gorm:"primaryKey;type:varchar(64);index:idx_post_likes_post_created,priority:1"`
	UserID    string    `json:"user_id" gorm:"primaryKey;type:varchar(128)"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;index:idx_post_likes_post_created,priority:2"`
}

func (Like) TableName() string { return "post_likes" }

// LikeState is what a client renders for one post.
type LikeState struct {
	PostID        string `json:"post_id" db:"post_id"`
	LikeCount     int64  `json:"like_count" db:"like_count"`
	LikedByCaller bool   `json:"liked_by_caller" db:"liked_by_caller"`
}

// LikeResult is the authoritative state after a like or unlike intent.
// Clients overwrite their optimistic count with it.
type LikeResult struct {
	Changed bool `json:"changed"`
	LikeState
}

// LikeSummary extends LikeState with the most recent likers for display.
type LikeSummary struct {
	LikeState
	RecentLikers []string `json:"recent_likers"`
}

// LikeRequest defines the request body for liking or unliking a post.
// UserID defaults to the authenticated caller.
type LikeRequest struct {
	PostID string `json:"post_id" validate:"required,max=64"`
	UserID string `json:"user_id" validate:"omitempty,max=128"`
	Liked  *bool  `json:"liked" validate:"required"`
}
