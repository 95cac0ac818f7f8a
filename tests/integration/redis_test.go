package integration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/bionicpro/reports-platform/internal/adapter/cache"
	"github.com/bionicpro/reports-platform/internal/mocks"
	"github.com/bionicpro/reports-platform/internal/ports"
	"github.com/bionicpro/reports-platform/internal/service/session"
)

// TestRedisCache_BasicOperations exercises the cache adapter against a
// real Redis.
func TestRedisCache_BasicOperations(t *testing.T) {
	env := SetupTestEnvironment(t)
	if env == nil || env.Redis == nil {
		t.Skip("Redis not available")
	}

	FlushRedis(t, env.Redis)
	ctx := context.Background()

	store, err := cache.NewRedisCache(env.RedisURL, env.Logger)
	if err != nil {
		t.Fatalf("Failed to build cache: %v", err)
	}

	t.Run("SetGet", func(t *testing.T) {
		if err := store.Set(ctx, "test:key", "test-value", time.Minute); err != nil {
			t.Fatalf("Failed to set key: %v", err)
		}

		val, err := store.Get(ctx, "test:key")
		if err != nil {
			t.Fatalf("Failed to get key: %v", err)
		}
		if val != "test-value" {
			t.Errorf("Expected 'test-value', got '%s'", val)
		}
	})

	t.Run("Expiration", func(t *testing.T) {
		if err := store.Set(ctx, "test:expiring", "value", 100*time.Millisecond); err != nil {
			t.Fatalf("Failed to set key: %v", err)
		}

		time.Sleep(150 * time.Millisecond)

		if _, err := store.Get(ctx, "test:expiring"); !errors.Is(err, goredis.Nil) {
			t.Error("Key should have expired")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		store.Set(ctx, "test:delete", "value", time.Minute)

		if err := store.Delete(ctx, "test:delete"); err != nil {
			t.Fatalf("Failed to delete key: %v", err)
		}

		if _, err := store.Get(ctx, "test:delete"); !errors.Is(err, goredis.Nil) {
			t.Error("Key should have been deleted")
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := store.Ping(); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})
}

// TestSessionLifecycle_Redis runs the full login/rotate/logout flow
// against a real Redis behind the session service.
func TestSessionLifecycle_Redis(t *testing.T) {
	env := SetupTestEnvironment(t)
	if env == nil || env.Redis == nil {
		t.Skip("Redis not available")
	}

	FlushRedis(t, env.Redis)
	ctx := context.Background()

	store, err := cache.NewRedisCache(env.RedisURL, env.Logger)
	if err != nil {
		t.Fatalf("Failed to build cache: %v", err)
	}

	sealer, err := session.NewSealer("integration-test-key")
	if err != nil {
		t.Fatalf("Failed to build sealer: %v", err)
	}

	idp := &mocks.MockIdentityProvider{}
	svc := session.NewService(store, idp, sealer, session.Config{
		CookieName:     "bionicpro_session",
		TTL:            time.Hour,
		AccessTokenTTL: 5 * time.Minute,
		PKCEStateTTL:   time.Minute,
	}, env.Logger)

	// Login
	authURL, err := svc.BeginLogin(ctx)
	if err != nil {
		t.Fatalf("BeginLogin failed: %v", err)
	}
	state := queryParam(t, authURL, "state")

	sessionID, err := svc.CompleteLogin(ctx, "the-code", state)
	if err != nil {
		t.Fatalf("CompleteLogin failed: %v", err)
	}

	// The stored record is sealed: the raw Redis value must not leak
	// the access token
	raw, err := env.Redis.Get(ctx, "session:"+sessionID).Result()
	if err != nil {
		t.Fatalf("Session record missing from Redis: %v", err)
	}
	if strings.Contains(raw, "access-the-code") {
		t.Error("session record leaks the plaintext access token")
	}

	// Sessions carry a TTL
	ttl, err := env.Redis.TTL(ctx, "session:"+sessionID).Result()
	if err != nil {
		t.Fatalf("Failed to read TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("unexpected session TTL: %v", ttl)
	}

	// Resolve returns the decrypted access token
	token, err := svc.Resolve(ctx, sessionID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if token != "access-the-code" {
		t.Errorf("unexpected access token: %q", token)
	}

	// Rotation invalidates the old ID
	newID, info, err := svc.ResolveAndRotate(ctx, sessionID)
	if err != nil {
		t.Fatalf("ResolveAndRotate failed: %v", err)
	}
	if !info.Authenticated {
		t.Error("expected authenticated session info")
	}
	if _, err := svc.Resolve(ctx, sessionID); !errors.Is(err, ports.ErrNoSession) {
		t.Errorf("expected old session gone, got %v", err)
	}

	// Logout removes the record
	if err := svc.Logout(ctx, newID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := svc.Resolve(ctx, newID); !errors.Is(err, ports.ErrNoSession) {
		t.Errorf("expected session gone after logout, got %v", err)
	}
}

// TestPKCEState_SingleUse verifies the state record is consumed by the
// first completion.
func TestPKCEState_SingleUse(t *testing.T) {
	env := SetupTestEnvironment(t)
	if env == nil || env.Redis == nil {
		t.Skip("Redis not available")
	}

	FlushRedis(t, env.Redis)
	ctx := context.Background()

	store, err := cache.NewRedisCache(env.RedisURL, env.Logger)
	if err != nil {
		t.Fatalf("Failed to build cache: %v", err)
	}
	sealer, _ := session.NewSealer("integration-test-key")

	svc := session.NewService(store, &mocks.MockIdentityProvider{}, sealer, session.Config{}, env.Logger)

	authURL, err := svc.BeginLogin(ctx)
	if err != nil {
		t.Fatalf("BeginLogin failed: %v", err)
	}
	state := queryParam(t, authURL, "state")

	if _, err := svc.CompleteLogin(ctx, "the-code", state); err != nil {
		t.Fatalf("first completion failed: %v", err)
	}

	if _, err := svc.CompleteLogin(ctx, "the-code", state); !errors.Is(err, ports.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState on reuse, got %v", err)
	}

	if n, _ := env.Redis.Exists(ctx, "pkce:"+state).Result(); n != 0 {
		t.Error("state record should be deleted after use")
	}
}

func queryParam(t *testing.T, rawURL, name string) string {
	t.Helper()
	idx := strings.Index(rawURL, name+"=")
	if idx < 0 {
		t.Fatalf("parameter %s not found in %s", name, rawURL)
	}
	value := rawURL[idx+len(name)+1:]
	if amp := strings.Index(value, "&"); amp >= 0 {
		value = value[:amp]
	}
	return value
}
