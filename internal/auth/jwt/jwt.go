package jwt

import (
	"time"

	"github.com/forja-app/auth-service/internal/auth/model"
	"github.com/golang-jwt/jwt/v5"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims is the shape shared by access and refresh tokens; Type is the only
// structural difference between the two.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Type   string `json:"type"`
}

type JWTUtil interface {
	GenerateAccessToken(u model.User) (token string, exp time.Time, err error)
	GenerateRefreshToken(u model.User) (token string, exp time.Time, err error)
	GeneratePair(u model.User) (model.TokenPair, error)

	// ValidateToken checks signature and expiry only; the refresh flow
	// accepts either token type.
	ValidateToken(raw string) (Claims, error)

	// ValidateAccessToken additionally requires type=access, so refresh
	// tokens cannot be used as bearer credentials.
	ValidateAccessToken(raw string) (Claims, error)
}
