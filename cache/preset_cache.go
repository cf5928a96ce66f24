package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const customPresetKey = "equalizer:preset:custom"

// SaveCustomPreset 保存用户自定义均衡器预设（十个频段增益）
func SaveCustomPreset(ctx context.Context, bands []float64) error {
	if RedisClient == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(bands)
	if err != nil {
		return fmt.Errorf("failed to marshal custom preset: %w", err)
	}

	if err := RedisClient.Set(ctx, customPresetKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save custom preset: %w", err)
	}
	return nil
}

// GetCustomPreset 读取自定义预设，不存在时返回 (nil, nil)
func GetCustomPreset(ctx context.Context) ([]float64, error) {
	if RedisClient == nil {
		return nil, fmt.Errorf("Redis client not initialized")
	}

	data, err := RedisClient.Get(ctx, customPresetKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load custom preset: %w", err)
	}

	var bands []float64
	if err := json.Unmarshal(data, &bands); err != nil {
		return nil, fmt.Errorf("failed to unmarshal custom preset: %w", err)
	}
	return bands, nil
}
