package store

import (
	"database/sql"
	"fmt"
	"strconv"
)

// GetConfig 获取配置项
func (s *Store) GetConfig(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("config key not found: %s", key)
		}
		return "", err
	}
	return value, nil
}

// GetConfigBool 获取布尔配置项
func (s *Store) GetConfigBool(key string) (bool, error) {
	value, err := s.GetConfig(key)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(value)
}

// SetConfig 设置配置项
func (s *Store) SetConfig(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`, key, value, value)
	return err
}

// SetConfigBool 设置布尔配置项
func (s *Store) SetConfigBool(key string, value bool) error {
	return s.SetConfig(key, strconv.FormatBool(value))
}

// GetAllConfig 获取所有配置项
func (s *Store) GetAllConfig() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM config")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	config := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		config[key] = value
	}

	return config, rows.Err()
}

// 匹配行为相关的配置键
const (
	ConfigKeyDefaultRuleset    = "default_ruleset"
	ConfigKeyNormalizeJobLast4 = "normalize_job_last4"
)

// GetDefaultRuleset 库内配置的默认规则链名，未配置时回落到给定值
func (s *Store) GetDefaultRuleset(fallback string) string {
	v, err := s.GetConfig(ConfigKeyDefaultRuleset)
	if err != nil || v == "" {
		return fallback
	}
	return v
}
