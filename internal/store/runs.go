package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rakib-bul/exportScan/internal/model"
)

// CreateCompareRun 创建核对任务记录，状态为 processing
func (s *Store) CreateCompareRun(id, logicFile, storeFile, buyer, ruleset string) error {
	_, err := s.db.Exec(`
		INSERT INTO compare_runs (id, logic_file, store_file, buyer, ruleset, status)
		VALUES (?, ?, ?, ?, ?, 'processing')
	`, id, logicFile, storeFile, buyer, ruleset)
	if err != nil {
		return fmt.Errorf("failed to create compare run: %w", err)
	}
	return nil
}

// CompleteCompareRun 写回汇总并标记完成
func (s *Store) CompleteCompareRun(report *model.CompareReport) error {
	_, err := s.db.Exec(`
		UPDATE compare_runs SET
			total_logic = ?, total_store = ?,
			matched = ?, exact_count = ?, high_conf_count = ?, partial_count = ?,
			unmatched_logic = ?, unmatched_store = ?,
			ok_shipments = ?, over_shipments = ?, less_shipments = ?, no_shipments = ?,
			diagnostic_count = ?,
			status = 'completed',
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`,
		report.TotalLogic, report.TotalStore,
		report.Matched, report.ExactCount, report.HighConfCount, report.PartialCount,
		report.UnmatchedLogic, report.UnmatchedStore,
		report.OkShipments, report.OverShipments, report.LessShipments, report.NoShipments,
		report.DiagnosticCount,
		report.RunID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete compare run: %w", err)
	}
	return nil
}

// FailCompareRun 标记任务失败
func (s *Store) FailCompareRun(id, errorMessage string) error {
	_, err := s.db.Exec(`
		UPDATE compare_runs SET
			status = 'failed',
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to mark compare run failed: %w", err)
	}
	return nil
}

// ListCompareRuns 按时间倒序列出核对任务
func (s *Store) ListCompareRuns(limit int) ([]model.RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, logic_file, store_file, buyer,
			total_logic, total_store, matched, unmatched_logic, unmatched_store,
			diagnostic_count, status, created_at
		FROM compare_runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		var r model.RunSummary
		var createdAt time.Time
		if err := rows.Scan(&r.ID, &r.LogicFile, &r.StoreFile, &r.Buyer,
			&r.TotalLogic, &r.TotalStore, &r.Matched, &r.UnmatchedLogic, &r.UnmatchedStore,
			&r.DiagnosticCount, &r.Status, &createdAt); err != nil {
			return nil, err
		}
		r.CreatedAt = createdAt
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunDetail 单个核对任务的完整信息
type RunDetail struct {
	model.CompareReport
	Ruleset      string    `json:"ruleset"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// GetCompareRun 读取单个核对任务
func (s *Store) GetCompareRun(id string) (*RunDetail, error) {
	var d RunDetail
	err := s.db.QueryRow(`
		SELECT id, logic_file, store_file, buyer, ruleset,
			total_logic, total_store,
			matched, exact_count, high_conf_count, partial_count,
			unmatched_logic, unmatched_store,
			ok_shipments, over_shipments, less_shipments, no_shipments,
			diagnostic_count, status, error_message, created_at
		FROM compare_runs WHERE id = ?
	`, id).Scan(
		&d.RunID, &d.LogicFile, &d.StoreFile, &d.Buyer, &d.Ruleset,
		&d.TotalLogic, &d.TotalStore,
		&d.Matched, &d.ExactCount, &d.HighConfCount, &d.PartialCount,
		&d.UnmatchedLogic, &d.UnmatchedStore,
		&d.OkShipments, &d.OverShipments, &d.LessShipments, &d.NoShipments,
		&d.DiagnosticCount, &d.Status, &d.ErrorMessage, &d.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("compare run not found: %s", id)
		}
		return nil, err
	}
	return &d, nil
}

// CountCompareRuns 统计核对任务数
func (s *Store) CountCompareRuns() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM compare_runs").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// LatestCompletedRun 最近一次完成的核对任务
func (s *Store) LatestCompletedRun() (*RunDetail, error) {
	var id string
	err := s.db.QueryRow(`
		SELECT id FROM compare_runs
		WHERE status = 'completed'
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return s.GetCompareRun(id)
}
