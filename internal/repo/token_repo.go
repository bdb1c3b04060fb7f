package repo

import (
	"context"
	"time"
)

// TokenRepo holds the two independent blacklists. Once a token string is in a
// set, every future verification of that exact string fails, regardless of
// cryptographic validity. RevokeJWT and RevokeResetToken are atomic
// check-and-set operations: exactly one of any number of concurrent callers
// gets claimed=true for a given token.
type TokenRepo interface {
	RevokeJWT(ctx context.Context, token string, expiresAt time.Time) (claimed bool, err error)

	IsJWTRevoked(ctx context.Context, token string) (bool, error)

	RevokeResetToken(ctx context.Context, token string, expiresAt time.Time) (claimed bool, err error)

	IsResetTokenRevoked(ctx context.Context, token string) (bool, error)
}
