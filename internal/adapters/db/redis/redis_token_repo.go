package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	jwtPrefix   = "bl:jwt:"
	resetPrefix = "bl:reset:"
)

// RedisTokenRepo keeps the JWT and reset-token blacklists in two key
// namespaces. Entries expire together with the token they revoke, so the sets
// never outgrow the live token population.
type RedisTokenRepo struct {
	client *redis.Client
}

func NewRedisTokenRepo(client *redis.Client) *RedisTokenRepo {
	return &RedisTokenRepo{
		client: client,
	}
}

func (r *RedisTokenRepo) RevokeJWT(ctx context.Context, token string, exp time.Time) (bool, error) {
	return r.revokeOnce(ctx, jwtPrefix+digest(token), exp)
}

func (r *RedisTokenRepo) IsJWTRevoked(ctx context.Context, token string) (bool, error) {
	return r.isRevoked(ctx, jwtPrefix+digest(token))
}

func (r *RedisTokenRepo) RevokeResetToken(ctx context.Context, token string, exp time.Time) (bool, error) {
	return r.revokeOnce(ctx, resetPrefix+digest(token), exp)
}

func (r *RedisTokenRepo) IsResetTokenRevoked(ctx context.Context, token string) (bool, error) {
	return r.isRevoked(ctx, resetPrefix+digest(token))
}

// revokeOnce is the conditional insert the single-use guarantees rest on:
// SET NX succeeds for exactly one of any number of concurrent callers.
func (r *RedisTokenRepo) revokeOnce(ctx context.Context, key string, exp time.Time) (bool, error) {
	return r.client.SetNX(ctx, key, 1, safeTTL(exp)).Result()
}

func (r *RedisTokenRepo) isRevoked(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		// fail closed: an unreachable blacklist must not admit tokens
		return true, err
	}
	return n > 0, nil
}

// digest keys the set by a fixed-width fingerprint of the exact token string.
func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func safeTTL(exp time.Time) time.Duration {
	ttl := time.Until(exp)
	if ttl <= 0 {
		// keep already-expired entries around briefly so the key still dies
		return time.Hour
	}
	return ttl
}
