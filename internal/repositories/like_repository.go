package repositories

import (
	"context"
	"time"

	"github.com/anonto42/jackpot/backend/internal/models"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresEngagementStore implements EngagementStore on PostgreSQL: likes in
// post_likes keyed by (post_id, user_id), comments in post_comments.
type PostgresEngagementStore struct {
	db     *gorm.DB
	reader *sqlx.DB
	limits Limits
}

// NewPostgresEngagementStore creates a PostgresEngagementStore sharing db's
// pool for its list queries.
func NewPostgresEngagementStore(db *gorm.DB, limits Limits) (*PostgresEngagementStore, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return &PostgresEngagementStore{
		db:     db,
		reader: sqlx.NewDb(sqlDB, "postgres"),
		limits: limits.withDefaults(),
	}, nil
}

// SetLike moves the (post, user) membership to the requested state. The
// insert relies on the primary key and ON CONFLICT DO NOTHING, so racing
// likes produce one row and one changed=true.
func (r *PostgresEngagementStore) SetLike(ctx context.Context, postID, userID string, liked bool) (models.LikeResult, error) {
	res := models.LikeResult{LikeState: models.LikeState{PostID: postID, LikedByCaller: liked}}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var affected int64
		if liked {
			like := models.Like{PostID: postID, UserID: userID, CreatedAt: time.Now().UTC().Truncate(time.Microsecond)}
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like)
			if ins.Error != nil {
				return ins.Error
			}
			affected = ins.RowsAffected
		} else {
			del := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
			if del.Error != nil {
				return del.Error
			}
			affected = del.RowsAffected
		}
		res.Changed = affected > 0
		return tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&res.LikeCount).Error
	})
	if err != nil {
		return models.LikeResult{}, translate(err, "set like")
	}
	return res, nil
}

// GetLikeState reads count and membership in one statement so both come from
// the same snapshot.
func (r *PostgresEngagementStore) GetLikeState(ctx context.Context, postID, userID string) (models.LikeState, error) {
	const query = `
		SELECT $1::text AS post_id,
		       COUNT(*) AS like_count,
		       COALESCE(BOOL_OR(user_id = $2), false) AS liked_by_caller
		FROM post_likes
		WHERE post_id = $1`

	var state models.LikeState
	if err := r.reader.GetContext(ctx, &state, query, postID, userID); err != nil {
		return models.LikeState{}, translate(err, "get like state")
	}
	return state, nil
}

func (r *PostgresEngagementStore) GetLikeStates(ctx context.Context, postIDs []string, userID string) (map[string]models.LikeState, error) {
	states := make(map[string]models.LikeState, len(postIDs))
	if len(postIDs) == 0 {
		return states, nil
	}
	query, args, err := sqlx.In(`
		SELECT post_id,
		       COUNT(*) AS like_count,
		       COALESCE(BOOL_OR(user_id = ?), false) AS liked_by_caller
		FROM post_likes
		WHERE post_id IN (?)
		GROUP BY post_id`, userID, postIDs)
	if err != nil {
		return nil, translate(err, "get like states")
	}

	var rows []models.LikeState
	if err := r.reader.SelectContext(ctx, &rows, r.reader.Rebind(query), args...); err != nil {
		return nil, translate(err, "get like states")
	}
	for _, id := range postIDs {
		states[id] = models.LikeState{PostID: id}
	}
	for _, row := range rows {
		states[row.PostID] = row
	}
	return states, nil
}

func (r *PostgresEngagementStore) RecentLikers(ctx context.Context, postID string, n int) ([]string, error) {
	if n <= 0 {
		n = 5
	}
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ?", postID).
		Order("created_at DESC, user_id DESC").
		Limit(n).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, translate(err, "recent likers")
	}
	return ids, nil
}

func (r *PostgresEngagementStore) LikeCount(ctx context.Context, postID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, translate(err, "like count")
	}
	return count, nil
}
