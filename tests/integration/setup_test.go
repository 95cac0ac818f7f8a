package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// TestEnv holds test environment resources
type TestEnv struct {
	RedisURL       string
	Redis          *goredis.Client
	RedisContainer testcontainers.Container
	Logger         *zap.Logger
}

var testEnv *TestEnv

// SetupTestEnvironment starts (or connects to) Redis for the session
// store tests. CI provides REDIS_URL; local runs get a container.
func SetupTestEnvironment(t *testing.T) *TestEnv {
	if testEnv != nil {
		return testEnv
	}

	ctx := context.Background()

	if url := os.Getenv("REDIS_URL"); url != "" {
		return setupExternalRedis(t, ctx, url)
	}

	return setupRedisContainer(t, ctx)
}

func setupExternalRedis(t *testing.T, ctx context.Context, url string) *TestEnv {
	logger, _ := zap.NewDevelopment()

	opt, err := goredis.ParseURL(url)
	if err != nil {
		t.Fatalf("Failed to parse Redis URL: %v", err)
	}

	client := goredis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	testEnv = &TestEnv{
		RedisURL: url,
		Redis:    client,
		Logger:   logger,
	}
	return testEnv
}

func setupRedisContainer(t *testing.T, ctx context.Context) *TestEnv {
	logger, _ := zap.NewDevelopment()

	container, err := redis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("Failed to start redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get redis port: %v", err)
	}

	url := fmt.Sprintf("redis://%s:%s/0", host, port.Port())

	client := goredis.NewClient(&goredis.Options{
		Addr: fmt.Sprintf("%s:%s", host, port.Port()),
	})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}

	testEnv = &TestEnv{
		RedisURL:       url,
		Redis:          client,
		RedisContainer: container,
		Logger:         logger,
	}
	return testEnv
}

// TeardownTestEnvironment cleans up the test environment
func TeardownTestEnvironment(t *testing.T) {
	if testEnv == nil {
		return
	}

	ctx := context.Background()

	if testEnv.Redis != nil {
		testEnv.Redis.Close()
	}

	if testEnv.RedisContainer != nil {
		if err := testEnv.RedisContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	}

	testEnv = nil
}

// FlushRedis clears all Redis keys
func FlushRedis(t *testing.T, client *goredis.Client) {
	ctx := context.Background()
	if err := client.FlushAll(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush redis: %v", err)
	}
}

func TestMain(m *testing.M) {
	code := m.Run()
	if testEnv != nil {
		if testEnv.Redis != nil {
			testEnv.Redis.Close()
		}
		if testEnv.RedisContainer != nil {
			_ = testEnv.RedisContainer.Terminate(context.Background())
		}
	}
	os.Exit(code)
}
