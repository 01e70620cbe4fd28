package models

// Profile is the read-only view behind a profile screen.
// IsFollowingCaller reports whether the caller follows the profile's subject.
type Profile struct {
	User              User          `json:"user"`
	FollowerCount     int64         `json:"follower_count"`
	FollowingCount    int64         `json:"following_count"`
	IsFollowingCaller bool          `json:"is_following_caller"`
	PostCount         int64         `json:"post_count"`
	Posts             []PostSummary `json:"posts"`
	PostsNextCursor   *string       `json:"posts_next_cursor"`
}
