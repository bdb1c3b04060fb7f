package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
)

func newRepo(t *testing.T) *RedisTokenRepo {
	mr := miniredis.RunT(t)
	t.Cleanup(mr.Close)

	client := redisv9.NewClient(&redisv9.Options{
		Addr: mr.Addr(),
	})
	return NewRedisTokenRepo(client)
}

func TestRedisTokenRepo_RevokeJWT(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	exp := time.Now().Add(10 * time.Minute)
	claimed, err := repo.RevokeJWT(ctx, "token-1", exp)
	if err != nil {
		t.Fatalf("RevokeJWT: %v", err)
	}
	if !claimed {
		t.Fatal("first revocation must claim the token")
	}

	revoked, err := repo.IsJWTRevoked(ctx, "token-1")
	if err != nil {
		t.Fatalf("IsJWTRevoked err: %v", err)
	}
	if !revoked {
		t.Fatal("token should be marked revoked")
	}
}

func TestRedisTokenRepo_RevokeJWT_SecondClaimFails(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Minute)

	claimed, err := repo.RevokeJWT(ctx, "token-2", exp)
	if err != nil || !claimed {
		t.Fatalf("first claim: claimed=%v err=%v", claimed, err)
	}

	claimed, err = repo.RevokeJWT(ctx, "token-2", exp)
	if err != nil {
		t.Fatalf("second claim err: %v", err)
	}
	if claimed {
		t.Fatal("second claim for the same token must fail")
	}
}

func TestRedisTokenRepo_ConcurrentClaims_ExactlyOneWinner(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Minute)

	const n = 16
	var wg sync.WaitGroup
	wins := make(chan bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := repo.RevokeResetToken(ctx, "contested", exp)
			if err != nil {
				t.Errorf("RevokeResetToken: %v", err)
				return
			}
			if claimed {
				wins <- true
			}
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for range wins {
		winners++
	}
	if winners != 1 {
		t.Fatalf("want exactly 1 winner, got %d", winners)
	}
}

func TestRedisTokenRepo_SetsAreIndependent(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Minute)

	if _, err := repo.RevokeResetToken(ctx, "shared-string", exp); err != nil {
		t.Fatalf("RevokeResetToken: %v", err)
	}

	revoked, err := repo.IsJWTRevoked(ctx, "shared-string")
	if err != nil {
		t.Fatalf("IsJWTRevoked err: %v", err)
	}
	if revoked {
		t.Fatal("reset-token revocation must not leak into the jwt set")
	}
}

func TestRedisTokenRepo_AbsentToken(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	revoked, err := repo.IsResetTokenRevoked(ctx, "never-seen")
	if err != nil {
		t.Fatalf("IsResetTokenRevoked err: %v", err)
	}
	if revoked {
		t.Fatal("absent token must be considered NOT revoked")
	}
}
