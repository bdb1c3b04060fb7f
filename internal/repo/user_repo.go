package repo

import (
	"context"

	"github.com/forja-app/auth-service/internal/auth/model"
)

type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) (model.User, error)

	GetUserByEmail(ctx context.Context, email string) (model.User, error)

	GetUserByID(ctx context.Context, id string) (model.User, error)

	UpdatePassword(ctx context.Context, userID string, passwordHash string) error

	CreateOAuthLink(ctx context.Context, link model.OAuthLink) error

	GetOAuthLink(ctx context.Context, userID string, provider model.OAuthProvider) (model.OAuthLink, error)

	ListOAuthLinks(ctx context.Context, userID string) ([]model.OAuthLink, error)
}
