package repositories

import (
	"strings"
	"unicode/utf8"

	"github.com/anonto42/jackpot/backend/internal/apperrors"
)

// Limits bounds page sizes and comment length for every store.
type Limits struct {
	DefaultPageSize  int
	MaxPageSize      int
	MaxCommentLength int
}

// DefaultLimits mirrors the request validation on the old comment DTOs.
func DefaultLimits() Limits {
	return Limits{DefaultPageSize: 20, MaxPageSize: 100, MaxCommentLength: 500}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.DefaultPageSize <= 0 {
		l.DefaultPageSize = d.DefaultPageSize
	}
	if l.MaxPageSize <= 0 {
		l.MaxPageSize = d.MaxPageSize
	}
	if l.DefaultPageSize > l.MaxPageSize {
		l.DefaultPageSize = l.MaxPageSize
	}
	if l.MaxCommentLength <= 0 {
		l.MaxCommentLength = d.MaxCommentLength
	}
	return l
}

// ClampPageSize turns a requested limit into one the stores will serve.
func (l Limits) ClampPageSize(limit int) int {
	l = l.withDefaults()
	if limit <= 0 {
		return l.DefaultPageSize
	}
	if limit > l.MaxPageSize {
		return l.MaxPageSize
	}
	return limit
}

// NormalizeComment trims text and enforces the non-empty and length rules.
func (l Limits) NormalizeComment(text string) (string, error) {
	l = l.withDefaults()
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", apperrors.New(apperrors.EmptyComment, "comment text is empty")
	}
	if n := utf8.RuneCountInString(trimmed); n > l.MaxCommentLength {
		return "", apperrors.New(apperrors.CommentTooLong, "comment has %d characters, limit is %d", n, l.MaxCommentLength)
	}
	return trimmed, nil
}
