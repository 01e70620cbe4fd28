package repositories

import (
	"context"
	"strconv"
	"time"

	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/anonto42/jackpot/backend/internal/models"
	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	listFollowersQuery = `
		SELECT follower_id AS user_id, created_at AS followed_at
		FROM follow_edges
		WHERE followee_id = $1`
	listFollowingQuery = `
		SELECT followee_id AS user_id, created_at AS followed_at
		FROM follow_edges
		WHERE follower_id = $1`
)

// PostgresFollowStore implements FollowGraphStore on PostgreSQL. Uniqueness
// comes from the (follower_id, followee_id) primary key.
type PostgresFollowStore struct {
	db     *gorm.DB
	reader *sqlx.DB
	users  UserChecker
	limits Limits
}

// NewPostgresFollowStore creates a PostgresFollowStore sharing db's pool for
// its list queries.
func NewPostgresFollowStore(db *gorm.DB, users UserChecker, limits Limits) (*PostgresFollowStore, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return &PostgresFollowStore{
		db:     db,
		reader: sqlx.NewDb(sqlDB, "postgres"),
		users:  users,
		limits: limits.withDefaults(),
	}, nil
}

func (r *PostgresFollowStore) Follow(ctx context.Context, followerID, followeeID string) (models.FollowResult, error) {
	if followerID == followeeID {
		return models.FollowResult{}, apperrors.New(apperrors.SelfFollow, "user %q cannot follow themselves", followerID)
	}
	if err := checkUsers(ctx, r.users, followerID, followeeID); err != nil {
		return models.FollowResult{}, err
	}

	res := models.FollowResult{Following: true}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		edge := models.Follow{
			FollowerID: followerID,
			FolloweeID: followeeID,
			CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
		}
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge)
		if ins.Error != nil {
			return ins.Error
		}
		res.Changed = ins.RowsAffected == 1
		return countEdges(tx, followerID, followeeID, &res)
	})
	if err != nil {
		return models.FollowResult{}, translate(err, "follow")
	}
	return res, nil
}

func (r *PostgresFollowStore) Unfollow(ctx context.Context, followerID, followeeID string) (models.FollowResult, error) {
	var res models.FollowResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).Delete(&models.Follow{})
		if del.Error != nil {
			return del.Error
		}
		res.Changed = del.RowsAffected > 0
		return countEdges(tx, followerID, followeeID, &res)
	})
	if err != nil {
		return models.FollowResult{}, translate(err, "unfollow")
	}
	return res, nil
}

func countEdges(tx *gorm.DB, followerID, followeeID string, res *models.FollowResult) error {
	if err := tx.Model(&models.Follow{}).Where("followee_id = ?", followeeID).Count(&res.FollowerCount).Error; err != nil {
		return err
	}
	return tx.Model(&models.Follow{}).Where("follower_id = ?", followerID).Count(&res.FollowingCount).Error
}

func (r *PostgresFollowStore) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	if err != nil {
		return false, translate(err, "is following")
	}
	return count > 0, nil
}

func (r *PostgresFollowStore) FollowerCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("followee_id = ?", userID).Count(&count).Error; err != nil {
		return 0, translate(err, "follower count")
	}
	return count, nil
}

func (r *PostgresFollowStore) FollowingCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&count).Error; err != nil {
		return 0, translate(err, "following count")
	}
	return count, nil
}

func (r *PostgresFollowStore) ListFollowers(ctx context.Context, userID, cur string, limit int) (models.Page[models.FollowEntry], error) {
	return r.list(ctx, listFollowersQuery, "follower_id", userID, cur, limit)
}

func (r *PostgresFollowStore) ListFollowing(ctx context.Context, userID, cur string, limit int) (models.Page[models.FollowEntry], error) {
	return r.list(ctx, listFollowingQuery, "followee_id", userID, cur, limit)
}

func (r *PostgresFollowStore) list(ctx context.Context, base, otherCol, userID, cur string, limit int) (models.Page[models.FollowEntry], error) {
	after, err := decodeCursor(cur)
	if err != nil {
		return models.Page[models.FollowEntry]{}, err
	}
	limit = r.limits.ClampPageSize(limit)

	query := base
	args := []interface{}{userID}
	if after != nil {
		query += " AND (created_at, " + otherCol + ") < ($2, $3)"
		args = append(args, after.At, after.Key)
	}
	query += " ORDER BY created_at DESC, " + otherCol + " DESC LIMIT " + strconv.Itoa(limit+1)

	rows := []models.FollowEntry{}
	if err := r.reader.SelectContext(ctx, &rows, query, args...); err != nil {
		return models.Page[models.FollowEntry]{}, translate(err, "list follow edges")
	}
	items, more := trimPage(rows, limit)
	page := models.Page[models.FollowEntry]{Items: items}
	if more {
		last := items[len(items)-1]
		next := encodeCursor(last.FollowedAt, last.UserID)
		page.NextCursor = &next
	}
	return page, nil
}
