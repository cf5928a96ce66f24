package repository

import (
	"fmt"
	"time"

	"MacanFM/db"
	"MacanFM/model"

	"gorm.io/gorm"
)

// HistoryRepository 播放历史数据访问层，基于 GORM
type HistoryRepository struct {
	orm *gorm.DB
}

// NewHistoryRepository creates a HistoryRepository. Passing nil uses the
// global GORM handle.
func NewHistoryRepository(orm *gorm.DB) *HistoryRepository {
	if orm == nil {
		orm = db.GormDB
	}
	return &HistoryRepository{orm: orm}
}

// Append 记录一次播放
func (r *HistoryRepository) Append(track *model.Track) error {
	if r.orm == nil {
		return fmt.Errorf("GORM database not initialized")
	}

	entry := &model.PlayHistory{
		TrackPath: track.Path,
		Title:     track.Title,
		Artist:    track.Artist,
		PlayedAt:  time.Now(),
	}
	if err := r.orm.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append play history: %w", err)
	}
	return nil
}

// Recent 返回最近播放的 limit 条记录
func (r *HistoryRepository) Recent(limit int) ([]model.PlayHistory, error) {
	if r.orm == nil {
		return nil, fmt.Errorf("GORM database not initialized")
	}

	var entries []model.PlayHistory
	err := r.orm.Order("played_at DESC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query play history: %w", err)
	}
	return entries, nil
}
