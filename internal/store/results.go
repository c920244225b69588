package store

import (
	"fmt"
	"strings"

	"github.com/rakib-bul/exportScan/internal/model"
)

// 明细内 notes 的拼接分隔符
const noteSep = "\n"

// BatchInsertResults 批量写入一次核对的全部结果明细
func (s *Store) BatchInsertResults(runID string, results []model.MatchResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO match_results (
			run_id, seq, status, tier, rule, shipment, notes,
			logic_row, logic_po, logic_job, logic_style, logic_color, logic_qty,
			store_row, store_po, store_job, store_style, store_color, store_qty
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range results {
		r := &results[i]

		tier := ""
		shipment := ""
		if r.Status == model.StatusMatched {
			tier = r.Tier.String()
			shipment = string(r.Shipment)
		}

		args := []interface{}{
			runID, i, string(r.Status), tier, r.Rule, shipment, strings.Join(r.Notes, noteSep),
		}
		args = append(args, recordArgs(r.Logic)...)
		args = append(args, recordArgs(r.Store)...)

		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("failed to insert result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// recordArgs 记录的六个明细列；记录缺失时全部为 NULL
func recordArgs(rec *model.Record) []interface{} {
	if rec == nil {
		return []interface{}{nil, nil, nil, nil, nil, nil}
	}
	var qty interface{}
	if rec.HasQty {
		qty = rec.Qty
	}
	return []interface{}{rec.RowNo, rec.PONumber, rec.JobNumber, rec.Style, rec.Color, qty}
}

// BatchInsertDiagnostics 批量写入诊断
func (s *Store) BatchInsertDiagnostics(runID string, diags []model.Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO diagnostics (run_id, side, row_no, reason) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, d := range diags {
		if _, err := stmt.Exec(runID, string(d.Side), d.RowNo, d.Reason); err != nil {
			return fmt.Errorf("failed to insert diagnostic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ResultQueryOptions 结果明细查询选项
type ResultQueryOptions struct {
	RunID    string
	Status   *string // matched/unmatched_logic/unmatched_store
	Tier     *string
	Shipment *string
	Limit    int
	Offset   int
}

// StoredRecord 明细中的单侧记录
type StoredRecord struct {
	RowNo     int      `json:"rowNo"`
	PONumber  string   `json:"poNumber"`
	JobNumber string   `json:"jobNumber"`
	Style     string   `json:"style"`
	Color     string   `json:"color"`
	Qty       *float64 `json:"qty,omitempty"`
}

// StoredResult 持久化后的结果明细
type StoredResult struct {
	Seq      int           `json:"seq"`
	Status   string        `json:"status"`
	Tier     string        `json:"tier,omitempty"`
	Rule     string        `json:"rule,omitempty"`
	Shipment string        `json:"shipment,omitempty"`
	Notes    []string      `json:"notes,omitempty"`
	Logic    *StoredRecord `json:"logic,omitempty"`
	Store    *StoredRecord `json:"store,omitempty"`
}

func buildResultWhere(opts ResultQueryOptions) (string, []interface{}) {
	query := " WHERE run_id = ?"
	args := []interface{}{opts.RunID}

	if opts.Status != nil {
		query += " AND status = ?"
		args = append(args, *opts.Status)
	}
	if opts.Tier != nil {
		query += " AND tier = ?"
		args = append(args, *opts.Tier)
	}
	if opts.Shipment != nil {
		query += " AND shipment = ?"
		args = append(args, *opts.Shipment)
	}
	return query, args
}

// QueryResults 查询结果明细，按写入顺序返回
func (s *Store) QueryResults(opts ResultQueryOptions) ([]StoredResult, error) {
	where, args := buildResultWhere(opts)

	query := `
		SELECT seq, status, tier, rule, shipment, notes,
			logic_row, logic_po, logic_job, logic_style, logic_color, logic_qty,
			store_row, store_po, store_job, store_style, store_color, store_qty
		FROM match_results` + where + " ORDER BY seq"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredResult
	for rows.Next() {
		var r StoredResult
		var notes string
		var lRow, sRow *int
		var lPO, lJob, lStyle, lColor, sPO, sJob, sStyle, sColor *string
		var lQty, sQty *float64

		if err := rows.Scan(&r.Seq, &r.Status, &r.Tier, &r.Rule, &r.Shipment, &notes,
			&lRow, &lPO, &lJob, &lStyle, &lColor, &lQty,
			&sRow, &sPO, &sJob, &sStyle, &sColor, &sQty); err != nil {
			return nil, err
		}

		if notes != "" {
			r.Notes = strings.Split(notes, noteSep)
		}
		r.Logic = buildStoredRecord(lRow, lPO, lJob, lStyle, lColor, lQty)
		r.Store = buildStoredRecord(sRow, sPO, sJob, sStyle, sColor, sQty)
		out = append(out, r)
	}
	return out, rows.Err()
}

// CountResults 统计满足条件的结果明细数
func (s *Store) CountResults(opts ResultQueryOptions) (int, error) {
	where, args := buildResultWhere(opts)
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM match_results"+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func buildStoredRecord(rowNo *int, po, job, style, color *string, qty *float64) *StoredRecord {
	if rowNo == nil {
		return nil
	}
	return &StoredRecord{
		RowNo:     *rowNo,
		PONumber:  deref(po),
		JobNumber: deref(job),
		Style:     deref(style),
		Color:     deref(color),
		Qty:       qty,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// QueryDiagnostics 查询一次核对的诊断列表
func (s *Store) QueryDiagnostics(runID string) ([]model.Diagnostic, error) {
	rows, err := s.db.Query(`SELECT side, row_no, reason FROM diagnostics WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Diagnostic
	for rows.Next() {
		var d model.Diagnostic
		var side string
		if err := rows.Scan(&side, &d.RowNo, &d.Reason); err != nil {
			return nil, err
		}
		d.Side = model.RecordSide(side)
		out = append(out, d)
	}
	return out, rows.Err()
}
