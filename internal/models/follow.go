package models

import "time"

// Follow is a directed follow edge. The composite primary key is the
// uniqueness constraint that makes concurrent follows collapse to one row.
type Follow struct {
	FollowerID string    `json:"follower_id" gorm:"primaryKey;type:varchar(128);check:chk_follow_not_self,follower_id <> followee_id;index:idx_follow_edges_follower_created,priority:1"`
	FolloweeID string    `json:"followee_id" gorm:"primaryKey;type:varchar(128);index:idx_follow_edges_followee_created,priority:1"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null;index:idx_follow_edges_followee_created,priority:2;index:idx_follow_edges_follower_created,priority:2"`
}

func (Follow) TableName() string { return "follow_edges" }

// FollowResult is the authoritative state after a follow or unfollow intent.
// FollowerCount belongs to the followee, FollowingCount to the follower.
type FollowResult struct {
	Changed        bool  `json:"changed"`
	Following      bool  `json:"following"`
	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
}

// FollowEntry is one row of a follower/following listing: the other user of
// the edge and when the edge was created.
type FollowEntry struct {
	UserID     string    `json:"user_id" db:"user_id"`
	FollowedAt time.Time `json:"followed_at" db:"followed_at"`
}

// FollowUser is a FollowEntry hydrated with the user's display attributes.
type FollowUser struct {
	User
	FollowedAt time.Time `json:"followed_at"`
}

// FollowRequest defines the request body for follow and unfollow.
// FollowerID defaults to the authenticated caller.
type FollowRequest struct {
	FollowerID string `json:"follower_id" validate:"omitempty,max=128"`
	FolloweeID string `json:"followee_id" validate:"required,max=128"`
}
