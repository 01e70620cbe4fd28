package repositories

import (
	"context"
	"strconv"
	"time"

	"github.com/anonto42/jackpot/backend/internal/models"
	"gorm.io/gorm"
)

// claimCommentSlot upserts the post's sequence row. The row lock it takes is
// held until commit, which serializes appends to one post's log; the returned
// timestamp never precedes the previous comment's.
const claimCommentSlot = `
	INSERT INTO post_comment_sequences (post_id, last_created_at)
	VALUES (?, ?)
	ON CONFLICT (post_id) DO UPDATE
	SET last_created_at = GREATEST(post_comment_sequences.last_created_at, EXCLUDED.last_created_at)
	RETURNING post_id, last_created_at`

// AddComment appends to the post's comment log. Not idempotent: every call
// appends a new row.
func (r *PostgresEngagementStore) AddComment(ctx context.Context, postID, authorID, text string) (models.Comment, error) {
	text, err := r.limits.NormalizeComment(text)
	if err != nil {
		return models.Comment{}, err
	}

	comment := models.Comment{PostID: postID, AuthorID: authorID, Text: text}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var slot models.CommentSequence
		now := time.Now().UTC().Truncate(time.Microsecond)
		if err := tx.Raw(claimCommentSlot, postID, now).Scan(&slot).Error; err != nil {
			return err
		}
		comment.CreatedAt = slot.LastCreatedAt.UTC()
		return tx.Create(&comment).Error
	})
	if err != nil {
		return models.Comment{}, translate(err, "add comment")
	}
	return comment, nil
}

func (r *PostgresEngagementStore) ListComments(ctx context.Context, postID, cur string, limit int) (models.Page[models.Comment], error) {
	after, err := decodeCursor(cur)
	if err != nil {
		return models.Page[models.Comment]{}, err
	}
	limit = r.limits.ClampPageSize(limit)

	query := `
		SELECT id, post_id, author_id, text, created_at
		FROM post_comments
		WHERE post_id = $1`
	args := []interface{}{postID}
	if after != nil {
		afterID, err := strconv.ParseInt(after.Key, 10, 64)
		if err != nil {
			return models.Page[models.Comment]{}, invalidCursor(err)
		}
		query += " AND (created_at, id) > ($2, $3)"
		args = append(args, after.At, afterID)
	}
	query += " ORDER BY created_at ASC, id ASC LIMIT " + strconv.Itoa(limit+1)

	rows := []models.Comment{}
	if err := r.reader.SelectContext(ctx, &rows, query, args...); err != nil {
		return models.Page[models.Comment]{}, translate(err, "list comments")
	}
	items, more := trimPage(rows, limit)
	page := models.Page[models.Comment]{Items: items}
	if more {
		last := items[len(items)-1]
		next := encodeCursor(last.CreatedAt, strconv.FormatInt(last.ID, 10))
		page.NextCursor = &next
	}
	return page, nil
}

func (r *PostgresEngagementStore) CommentCount(ctx context.Context, postID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, translate(err, "comment count")
	}
	return count, nil
}
