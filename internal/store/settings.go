package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// 已知设置项
const (
	SettingLastRetentionRun = "last_retention_run"
)

// GetSetting 获取设置项
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting 设置配置项
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

// GetSettingTime 获取时间类型设置项；不存在时返回零值
func (s *Store) GetSettingTime(ctx context.Context, key string) (time.Time, error) {
	v, err := s.GetSetting(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return parseTime(v)
}

// SetSettingTime 设置时间类型设置项
func (s *Store) SetSettingTime(ctx context.Context, key string, t time.Time) error {
	return s.SetSetting(ctx, key, formatTime(t))
}
