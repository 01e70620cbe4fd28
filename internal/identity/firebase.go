package identity

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/jackpot/backend/internal/apperrors"
	"github.com/anonto42/jackpot/backend/internal/models"
)

// userGetter is the slice of *auth.Client this package uses.
type userGetter interface {
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
}

// Firebase reads identities from Firebase Authentication.
type Firebase struct {
	client userGetter
}

func NewFirebase(client *auth.Client) *Firebase {
	return &Firebase{client: client}
}

func (f *Firebase) UserExists(ctx context.Context, id string) (bool, error) {
	_, err := f.GetUser(ctx, id)
	if apperrors.IsKind(err, apperrors.UnknownUser) {
		return false, nil
	}
	return err == nil, err
}

func (f *Firebase) GetUser(ctx context.Context, id string) (models.User, error) {
	if id == "" {
		return models.User{}, apperrors.New(apperrors.UnknownUser, "empty user id")
	}
	rec, err := f.client.GetUser(ctx, id)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return models.User{}, apperrors.New(apperrors.UnknownUser, "user %q does not exist", id)
		}
		return models.User{}, apperrors.Wrap(apperrors.Unavailable, err, "firebase get user")
	}
	u := models.User{ID: id}
	if rec.UserInfo != nil {
		u.DisplayName = rec.UserInfo.DisplayName
		u.AvatarURL = rec.UserInfo.PhotoURL
	}
	return u, nil
}
