package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"MacanFM/model"

	"github.com/go-redis/redis/v8"
)

const sessionSnapshotKey = "session:snapshot"

// SessionStore persists playback snapshots in Redis. Each save is a single
// SET so a reader never observes a partially written record.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a SessionStore backed by the given client. Passing
// nil uses the global RedisClient.
func NewSessionStore(client *redis.Client) *SessionStore {
	if client == nil {
		client = RedisClient
	}
	return &SessionStore{client: client}
}

// SaveSnapshot 将播放快照写入Redis（单次原子SET）
func (s *SessionStore) SaveSnapshot(ctx context.Context, snap *model.PlaybackSnapshot) error {
	if s.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal playback snapshot: %w", err)
	}

	if err := s.client.Set(ctx, sessionSnapshotKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save playback snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot 读取播放快照，不存在时返回 (nil, nil)
func (s *SessionStore) LoadSnapshot(ctx context.Context) (*model.PlaybackSnapshot, error) {
	if s.client == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	data, err := s.client.Get(ctx, sessionSnapshotKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load playback snapshot: %w", err)
	}

	snap := &model.PlaybackSnapshot{CurrentIndex: -1}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal playback snapshot: %w", err)
	}
	return snap, nil
}
