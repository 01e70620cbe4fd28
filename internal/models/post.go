package models

import "time"

// Post is the subset of the external post record the engagement core reads.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	ImageURLs []string  `json:"image_urls,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PostSummary is a post enriched with live engagement for the caller.
type PostSummary struct {
	Post
	LikeCount     int64 `json:"like_count"`
	CommentCount  int64 `json:"comment_count"`
	LikedByCaller bool  `json:"liked_by_caller"`
}
