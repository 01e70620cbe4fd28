package models

import "time"

// Comment is an append-only entry in a post's comment log, ordered by
// (CreatedAt, ID) ascending.
type Comment struct {
	ID        int64     `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	PostID    string    `json:"post_id" db:"post_id" gorm:"type:varchar(64);not null;index:idx_post_comments_post_order,priority:1"`
	AuthorID  string    `json:"author_id" db:"author_id" gorm:"type:varchar(128);not null;index"`
	Text      string    `json:"text" db:"text" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"not null;index:idx_post_comments_post_order,priority:2"`
}

func (Comment) TableName() string { return "post_comments" }

// CommentSequence serializes appends to a single post's log and keeps its
// timestamps non-decreasing. It holds no count.
type CommentSequence struct {
	PostID        string    `gorm:"primaryKey;type:varchar(64)"`
	LastCreatedAt time.Time `gorm:"not null"`
}

func (CommentSequence) TableName() string { return "post_comment_sequences" }

// CommentView is a comment with its author's display attributes.
type CommentView struct {
	Comment
	Author User `json:"author"`
}

// CommentPage is a page of a post's comment log plus the live total.
type CommentPage struct {
	Page[CommentView]
	TotalCount int64 `json:"total_count"`
}

// CreateCommentRequest defines the request body for creating a new comment.
// Text is checked by the store so that empty and oversized comments surface
// with their own error kinds.
type CreateCommentRequest struct {
	PostID   string `json:"post_id" validate:"required,max=64"`
	AuthorID string `json:"author_id" validate:"omitempty,max=128"`
	Text     string `json:"text"`
}
