package service

import (
	"context"
	"time"

	"github.com/forja-app/auth-service/internal/auth/dto"
	"github.com/forja-app/auth-service/internal/auth/jwt"
	"github.com/forja-app/auth-service/internal/auth/model"
	"github.com/forja-app/auth-service/internal/auth/password"
	"github.com/forja-app/auth-service/internal/auth/resettoken"
	"github.com/forja-app/auth-service/internal/config"
	"github.com/forja-app/auth-service/internal/mail"
	"github.com/forja-app/auth-service/internal/repo"
	validate "github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, dto dto.RegisterDTO) error

	// Login checks credentials and returns the sanitized user for the
	// transport layer to store in the session cookie.
	Login(ctx context.Context, dto dto.LoginDTO) (model.PublicUser, error)

	LoginJWT(ctx context.Context, dto dto.LoginDTO) (model.TokenPair, model.PublicUser, error)

	Refresh(ctx context.Context, dto dto.RefreshDTO) (model.TokenPair, model.PublicUser, error)

	// ResolveToken resolves a bearer access token to its user; ResolveUser
	// re-fetches a session identity. Both back the auth resolver.
	ResolveToken(ctx context.Context, token string) (model.PublicUser, error)
	ResolveUser(ctx context.Context, email string) (model.PublicUser, error)

	ForgotPassword(ctx context.Context, dto dto.ForgotPasswordDTO, expiresIn time.Duration) error

	ResetPassword(ctx context.Context, dto dto.ResetPasswordDTO) error

	OAuth(ctx context.Context, dto dto.OAuthDTO) (model.PublicUser, model.OAuthAction, error)
}

func NewAuthService(
	userRepo repo.UserRepo,
	tokenRepo repo.TokenRepo,
	jwtUtil jwt.JWTUtil,
	codec *resettoken.Codec,
	hasher *password.Hasher,
	mailer mail.Mailer,
	cfg *config.Config,
	v *validate.Validate,
	log *zap.Logger,
) AuthService {
	registerTagNames(v)
	return &authService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwtUtil:   jwtUtil,
		codec:     codec,
		hasher:    hasher,
		mailer:    mailer,
		cfg:       cfg,
		v:         v,
		log:       log,
	}
}
