package sessionstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront/pkg/db/models"
)

// SQL stores session values in the session_entries table.
type SQL struct {
	conn *gorm.DB
	ttl  time.Duration
	now  func() time.Time
}

func NewSQL(conn *gorm.DB, ttl time.Duration) *SQL {
	return &SQL{conn: conn, ttl: ttl, now: time.Now}
}

func (s *SQL) Get(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	var entry models.SessionEntry
	err := s.conn.WithContext(ctx).
		Where("session_id = ? AND entry_key = ?", sessionID, key).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, dependencyErr(err, "get", key)
	}
	if entry.ExpiresAt != nil && !s.now().Before(*entry.ExpiresAt) {
		return nil, false, nil
	}
	return []byte(entry.Value), true, nil
}

func (s *SQL) Set(ctx context.Context, sessionID, key string, value []byte) error {
	now := s.now().UTC()
	entry := models.SessionEntry{
		SessionID: sessionID,
		Key:       key,
		Value:     string(value),
		UpdatedAt: now,
	}
	if s.ttl > 0 {
		expires := now.Add(s.ttl)
		entry.ExpiresAt = &expires
	}

	err := s.conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return dependencyErr(err, "set", key)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, sessionID, key string) error {
	err := s.conn.WithContext(ctx).
		Where("session_id = ? AND entry_key = ?", sessionID, key).
		Delete(&models.SessionEntry{}).Error
	if err != nil {
		return dependencyErr(err, "delete", key)
	}
	return nil
}

// PurgeExpired deletes rows whose expiry has passed.
func (s *SQL) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.conn.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now().UTC()).
		Delete(&models.SessionEntry{})
	if res.Error != nil {
		return 0, dependencyErr(res.Error, "purge", "")
	}
	return res.RowsAffected, nil
}
