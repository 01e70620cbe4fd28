package identity

import (
	"context"

	"github.com/anonto42/jackpot/backend/internal/models"
	"github.com/anonto42/jackpot/backend/internal/repositories"
)

// Postgres reads identities from the users table.
type Postgres struct {
	users repositories.UserRepository
}

func NewPostgres(users repositories.UserRepository) *Postgres {
	return &Postgres{users: users}
}

func (p *Postgres) UserExists(ctx context.Context, id string) (bool, error) {
	return p.users.UserExists(ctx, id)
}

func (p *Postgres) GetUser(ctx context.Context, id string) (models.User, error) {
	return p.users.GetUserByID(ctx, id)
}
