package models

import "time"

// SessionEntry is one JSON value stored for a browsing session.
type SessionEntry struct {
	SessionID string     `gorm:"column:session_id;primaryKey"`
	Key       string     `gorm:"column:entry_key;primaryKey"`
	Value     string     `gorm:"column:value;not null"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at;not null;autoUpdateTime"`
}

func (SessionEntry) TableName() string { return "session_entries" }
