package postgres

import (
	"context"
	"errors"

	customErrors "github.com/forja-app/auth-service/internal/auth/errors"
	"github.com/forja-app/auth-service/internal/auth/model"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// uniqueViolation is the Postgres error code the unique constraints surface
// as; it is the actual guard against duplicate emails and duplicate links.
const uniqueViolation = "23505"

type PostgresUserRepo struct {
	db *gorm.DB
}

func NewPostgresUserRepo(db *gorm.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func (p *PostgresUserRepo) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	res := p.db.WithContext(ctx).Create(&user)
	if err := res.Error; err != nil {
		if isUniqueViolation(err) {
			return model.User{}, customErrors.ErrAlreadyExists
		}
		return model.User{}, customErrors.WrapInternal(err, "CreateUser")
	}
	return user, nil
}

// isUniqueViolation matches the pgx/v5 error type the gorm postgres driver
// actually surfaces.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (p *PostgresUserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	res := p.db.WithContext(ctx).Where("email = ?", email).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "GetUserByEmail")
	}

	return u, nil
}

func (p *PostgresUserRepo) GetUserByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	res := p.db.WithContext(ctx).Where("id = ?", id).First(&u)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.User{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.User{}, customErrors.WrapInternal(err, "GetUserByID")
	}

	return u, nil
}

func (p *PostgresUserRepo) UpdatePassword(ctx context.Context, userID string, passwordHash string) error {
	res := p.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Update("password", passwordHash)
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "UpdatePassword")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}

	return nil
}

func (p *PostgresUserRepo) CreateOAuthLink(ctx context.Context, link model.OAuthLink) error {
	res := p.db.WithContext(ctx).Create(&link)
	if err := res.Error; err != nil {
		if isUniqueViolation(err) {
			return customErrors.ErrAlreadyExists
		}
		return customErrors.WrapInternal(err, "CreateOAuthLink")
	}
	return nil
}

func (p *PostgresUserRepo) GetOAuthLink(ctx context.Context, userID string, provider model.OAuthProvider) (model.OAuthLink, error) {
	var link model.OAuthLink
	res := p.db.WithContext(ctx).
		Where("user_id = ? AND provider = ?", userID, provider).
		First(&link)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.OAuthLink{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.OAuthLink{}, customErrors.WrapInternal(err, "GetOAuthLink")
	}

	return link, nil
}

func (p *PostgresUserRepo) ListOAuthLinks(ctx context.Context, userID string) ([]model.OAuthLink, error) {
	var links []model.OAuthLink
	res := p.db.WithContext(ctx).Where("user_id = ?", userID).Find(&links)
	if err := res.Error; err != nil {
		return nil, customErrors.WrapInternal(err, "ListOAuthLinks")
	}

	return links, nil
}
