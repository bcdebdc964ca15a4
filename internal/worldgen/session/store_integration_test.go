package session

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestRedisStore_Integration mirrors status to a real Redis instance,
// the way tw-backend's cache package integration-tests its
// RedisAdapter against a redis:7-alpine container instead of a fake.
// miniredis (TestRedisStore_MirrorsStatus) covers the everyday unit
// path; this test catches anything miniredis doesn't emulate faithfully
// (TTL semantics, real network round trips).
func TestRedisStore_Integration(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skip("Docker not available for integration test")
	}
	defer redisContainer.Terminate(ctx)

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	defer client.Close()
	require.NoError(t, client.Ping(ctx).Err())

	store := NewRedisStore(client, 2*time.Second)
	s := New("integration-session", WithStore(store))

	_, err = s.Generate(ctx, testInputs(7))
	require.NoError(t, err)

	status, found, err := store.GetStatus(ctx, "integration-session")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "done", status.Stage)
	require.Equal(t, 1.0, status.Progress)

	time.Sleep(3 * time.Second)
	_, found, err = store.GetStatus(ctx, "integration-session")
	require.NoError(t, err)
	require.False(t, found, "status key should expire after its TTL")
}
