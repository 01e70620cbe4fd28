package repositories

import (
	"github.com/anonto42/jackpot/backend/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the engagement core owns, including
// the composite keys the idempotency guarantees depend on.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.UserRecord{},
		&models.Follow{},
		&models.Like{},
		&models.Comment{},
		&models.CommentSequence{},
	)
}
