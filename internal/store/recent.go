package store

import (
	"fmt"
	"time"
)

// 最近文件列表的保留条数
const recentFilesMax = 10

// RecentFile 最近使用过的导出文件
type RecentFile struct {
	Path       string    `json:"path"`
	Side       string    `json:"side"`
	LastUsedAt time.Time `json:"lastUsedAt"`
}

// TouchRecentFile 记录一次文件使用，超出保留条数时淘汰最旧的
func (s *Store) TouchRecentFile(path, side string) error {
	if path == "" {
		return nil
	}
	// CURRENT_TIMESTAMP 只有秒级精度，连续写入会并列，这里用 Go 侧时间戳
	now := time.Now().UTC()
	_, err := s.db.Exec(`
		INSERT INTO recent_files (path, side, last_used_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET side = ?, last_used_at = ?
	`, path, side, now, side, now)
	if err != nil {
		return fmt.Errorf("failed to touch recent file: %w", err)
	}

	_, err = s.db.Exec(`
		DELETE FROM recent_files WHERE path NOT IN (
			SELECT path FROM recent_files ORDER BY last_used_at DESC LIMIT ?
		)
	`, recentFilesMax)
	if err != nil {
		return fmt.Errorf("failed to prune recent files: %w", err)
	}
	return nil
}

// ListRecentFiles 按最近使用时间倒序列出文件
func (s *Store) ListRecentFiles() ([]RecentFile, error) {
	rows, err := s.db.Query(`
		SELECT path, side, last_used_at FROM recent_files
		ORDER BY last_used_at DESC
		LIMIT ?
	`, recentFilesMax)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecentFile
	for rows.Next() {
		var f RecentFile
		if err := rows.Scan(&f.Path, &f.Side, &f.LastUsedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
