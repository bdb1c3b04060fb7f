package jwt

import (
	"time"

	customErrors "github.com/forja-app/auth-service/internal/auth/errors"
	"github.com/forja-app/auth-service/internal/auth/model"
	"github.com/golang-jwt/jwt/v5"
)

type jwtUtilImpl struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewJWTUtil(secret []byte, accessTTL, refreshTTL time.Duration) JWTUtil {
	return &jwtUtilImpl{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (j *jwtUtilImpl) GenerateAccessToken(u model.User) (string, time.Time, error) {
	return j.generate(u, TypeAccess, j.accessTTL)
}

func (j *jwtUtilImpl) GenerateRefreshToken(u model.User) (string, time.Time, error) {
	return j.generate(u, TypeRefresh, j.refreshTTL)
}

func (j *jwtUtilImpl) GeneratePair(u model.User) (model.TokenPair, error) {
	at, atExp, err := j.GenerateAccessToken(u)
	if err != nil {
		return model.TokenPair{}, err
	}
	rt, rtExp, err := j.GenerateRefreshToken(u)
	if err != nil {
		return model.TokenPair{}, err
	}
	return model.TokenPair{
		AccessToken:  at,
		AccessExp:    atExp,
		RefreshToken: rt,
		RefreshExp:   rtExp,
	}, nil
}

func (j *jwtUtilImpl) generate(u model.User, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Type:   tokenType,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign "+tokenType+" token")
	}

	return signed, claims.ExpiresAt.Time, nil
}

func (j *jwtUtilImpl) ValidateToken(raw string) (Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, customErrors.ErrInvalidToken
		}
		return j.secret, nil
	})

	if err != nil || !token.Valid {
		return Claims{}, customErrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return Claims{}, customErrors.ErrInvalidToken
	}

	return *claims, nil
}

func (j *jwtUtilImpl) ValidateAccessToken(raw string) (Claims, error) {
	claims, err := j.ValidateToken(raw)
	if err != nil {
		return Claims{}, err
	}
	if claims.Type != TypeAccess {
		return Claims{}, customErrors.ErrInvalidToken
	}
	return claims, nil
}
