package model

import "time"

// PlayHistory records one playback start. Managed through GORM, separate
// from the raw-SQL track store.
type PlayHistory struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TrackPath string    `gorm:"size:767;index" json:"trackPath"`
	Title     string    `gorm:"size:255" json:"title"`
	Artist    string    `gorm:"size:255" json:"artist"`
	PlayedAt  time.Time `gorm:"index" json:"playedAt"`
}

// TableName keeps the table name stable across GORM naming strategies.
func (PlayHistory) TableName() string {
	return "play_history"
}
