package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// PlaylistItem 表示播放列表中的一个项目
type PlaylistItem struct {
	Path     string `json:"path"`
	Title    string `json:"title"`
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	IsVideo  bool   `json:"isVideo,omitempty"`
	Duration float64 `json:"duration,omitempty"` // 时长（秒）
	Position int     `json:"position"`           // 在播放列表中的位置
}

const playlistKey = "session:playlist"

// GetPlaylistKey 返回播放列表的Redis键
func GetPlaylistKey() string {
	return playlistKey
}

// SavePlaylist 以位置为分数整体重写播放列表（有序集合）
func SavePlaylist(ctx context.Context, items []PlaylistItem) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	pipe := RedisClient.TxPipeline()
	pipe.Del(ctx, playlistKey)
	for i, item := range items {
		item.Position = i
		itemJSON, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal playlist item: %w", err)
		}
		pipe.ZAdd(ctx, playlistKey, &redis.Z{
			Score:  float64(i),
			Member: itemJSON,
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save playlist: %w", err)
	}
	return nil
}

// GetPlaylist 获取整个播放列表，按位置升序
func GetPlaylist(ctx context.Context) ([]PlaylistItem, error) {
	if RedisClient == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	result, err := RedisClient.ZRangeByScore(ctx, playlistKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "+inf",
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return []PlaylistItem{}, nil
		}
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}

	var playlist []PlaylistItem
	for _, itemJSON := range result {
		var item PlaylistItem
		if err := json.Unmarshal([]byte(itemJSON), &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal playlist item: %w", err)
		}
		playlist = append(playlist, item)
	}

	return playlist, nil
}

// ClearPlaylist 清空播放列表
func ClearPlaylist(ctx context.Context) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	if err := RedisClient.Del(ctx, playlistKey).Err(); err != nil {
		return fmt.Errorf("failed to clear playlist: %w", err)
	}
	return nil
}
