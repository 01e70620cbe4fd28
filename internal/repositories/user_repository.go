package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/anonto42/jackpot/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	UpsertUser(ctx context.Context, user models.User) error
	GetUserByID(ctx context.Context, id string) (models.User, error)
	UserExists(ctx context.Context, id string) (bool, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// UpsertUser creates the user or refreshes its display attributes
func (r *PostgresUserRepository) UpsertUser(ctx context.Context, user models.User) error {
	rec := models.UserRecord{User: user}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "avatar_url", "updated_at"}),
	}).Create(&rec).Error
	return translate(err, "upsert user")
}

// GetUserByID retrieves a user by ID from PostgreSQL
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var rec models.UserRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, apperrors.New(apperrors.UnknownUser, "user %q does not exist", id)
		}
		return models.User{}, translate(err, "get user")
	}
	return rec.User, nil
}

// UserExists reports whether a users row exists for id
func (r *PostgresUserRepository) UserExists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.UserRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, translate(err, "user exists")
	}
	return count > 0, nil
}
