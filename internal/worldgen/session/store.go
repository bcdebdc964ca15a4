package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Status is the small, JSON-friendly status descriptor mirrored to a
// Store between stages. It intentionally excludes the bulk per-region
// arrays — those stay in the Session's in-process retained state, the
// way mud-platform-backend's RedisAdapter broadcasts lightweight typed
// events across instances rather than shipping game state through
// Redis itself.
type Status struct {
	Stage     string    `json:"stage"`
	Progress  float64   `json:"progress"`
	Err       string    `json:"err,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store mirrors session status to a shared backend so another instance
// (or an operator dashboard) can answer "is session X alive and what
// stage is it on" without holding the retained state itself.
type Store interface {
	SetStatus(sessionID string, status Status)
	GetStatus(ctx context.Context, sessionID string) (Status, bool, error)
}

// RedisStore is a Store backed by go-redis, with a TTL so an abandoned
// session's status key expires on its own instead of needing an
// explicit cleanup pass.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore builds a RedisStore. ttl bounds how long a session's
// status survives after its last update; 0 disables expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func statusKey(sessionID string) string {
	return fmt.Sprintf("planetgen:session:%s:status", sessionID)
}

// SetStatus writes status synchronously with a 2-second deadline;
// failures are swallowed the way progress reporting is best-effort
// everywhere else in the pipeline (a lost status update never fails
// the staged commands it describes).
func (rs *RedisStore) SetStatus(sessionID string, status Status) {
	data, err := json.Marshal(status)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rs.client.Set(ctx, statusKey(sessionID), data, rs.ttl)
}

// GetStatus reads the last mirrored status for sessionID.
func (rs *RedisStore) GetStatus(ctx context.Context, sessionID string) (Status, bool, error) {
	data, err := rs.client.Get(ctx, statusKey(sessionID)).Bytes()
	if err == redis.Nil {
		return Status{}, false, nil
	}
	if err != nil {
		return Status{}, false, fmt.Errorf("session: get status: %w", err)
	}
	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		return Status{}, false, fmt.Errorf("session: unmarshal status: %w", err)
	}
	return status, true, nil
}
