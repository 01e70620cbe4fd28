// Package identity resolves user IDs to existence and display attributes.
// Everything here is read-only; accounts are owned by the auth provider.
package identity

import (
	"context"

	"github.com/anonto42/jackpot/backend/internal/models"
)

// Source answers identity questions for the engagement core. GetUser fails
// with apperrors.UnknownUser when the ID names nobody.
type Source interface {
	UserExists(ctx context.Context, id string) (bool, error)
	GetUser(ctx context.Context, id string) (models.User, error)
}
