package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/rakib-bul/exportScan/internal/model"
)

// 结果工作簿的 sheet 名
const (
	SheetStoreResults   = "Store Results"
	SheetUnmatchedLogic = "Unmatched Logic"
	SheetDiagnostics    = "Diagnostics"
	SheetSummary        = "Summary"
)

// Exporter 核对结果导出器
// 以 Store 侧为主表写回状态列（与旧版工具的输出格式保持一致），
// 未匹配的 Logic 记录和诊断单独成表。
type Exporter struct{}

// NewExporter 创建导出器
func NewExporter() *Exporter {
	return &Exporter{}
}

// BuildWorkbook 构建结果工作簿
func (e *Exporter) BuildWorkbook(report *model.CompareReport, results []model.MatchResult, diags []model.Diagnostic) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetStoreResults); err != nil {
		_ = f.Close()
		return nil, err
	}
	for _, name := range []string{SheetUnmatchedLogic, SheetDiagnostics, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	if err := e.fillStoreResults(f, results); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := e.fillUnmatchedLogic(f, results); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := e.fillDiagnostics(f, diags); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := e.fillSummary(f, report); err != nil {
		_ = f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// storeResultColumns Store 主表固定列；Extra 列排序后追加在末尾
var storeResultColumns = []string{
	"Row", "PO Number", "Job No", "Style Ref No", "Color",
	"Ship Qty", "Ex-Factory Qty", "Match Status", "Confidence", "Notes",
}

func (e *Exporter) fillStoreResults(f *excelize.File, results []model.MatchResult) error {
	extraCols := collectExtraColumns(results)

	header := make([]interface{}, 0, len(storeResultColumns)+len(extraCols))
	for _, c := range storeResultColumns {
		header = append(header, c)
	}
	for _, c := range extraCols {
		header = append(header, c)
	}
	if err := f.SetSheetRow(SheetStoreResults, "A1", &header); err != nil {
		return err
	}

	rowNo := 2
	for i := range results {
		r := &results[i]
		if r.Store == nil {
			continue
		}
		row := []interface{}{
			r.Store.RowNo,
			r.Store.PONumber,
			r.Store.JobNumber,
			r.Store.Style,
			r.Store.Color,
			qtyCell(r.Store),
			logicQtyCell(r),
			StatusText(r),
			tierCell(r),
			joinNotes(r.Notes),
		}
		for _, c := range extraCols {
			row = append(row, r.Store.Extra[c])
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNo)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetStoreResults, cell, &row); err != nil {
			return err
		}
		rowNo++
	}
	return nil
}

func (e *Exporter) fillUnmatchedLogic(f *excelize.File, results []model.MatchResult) error {
	header := []interface{}{"Row", "PO Number", "Job No", "Style Ref No", "Color", "Ex-Factory Qty"}
	if err := f.SetSheetRow(SheetUnmatchedLogic, "A1", &header); err != nil {
		return err
	}

	rowNo := 2
	for i := range results {
		r := &results[i]
		if r.Status != model.StatusUnmatchedLogic {
			continue
		}
		row := []interface{}{
			r.Logic.RowNo,
			r.Logic.PONumber,
			r.Logic.JobNumber,
			r.Logic.Style,
			r.Logic.Color,
			qtyCell(r.Logic),
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNo)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetUnmatchedLogic, cell, &row); err != nil {
			return err
		}
		rowNo++
	}
	return nil
}

func (e *Exporter) fillDiagnostics(f *excelize.File, diags []model.Diagnostic) error {
	header := []interface{}{"Side", "Row", "Reason"}
	if err := f.SetSheetRow(SheetDiagnostics, "A1", &header); err != nil {
		return err
	}
	for i, d := range diags {
		row := []interface{}{string(d.Side), d.RowNo, d.Reason}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetDiagnostics, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) fillSummary(f *excelize.File, report *model.CompareReport) error {
	if report == nil {
		return nil
	}
	lines := [][]interface{}{
		{"Logic File", report.LogicFile},
		{"Store File", report.StoreFile},
		{"Logic Records", report.TotalLogic},
		{"Store Records", report.TotalStore},
		{"Matched", report.Matched},
		{"  Exact", report.ExactCount},
		{"  High Confidence", report.HighConfCount},
		{"  Partial Match", report.PartialCount},
		{"Unmatched Logic", report.UnmatchedLogic},
		{"Unmatched Store", report.UnmatchedStore},
		{"Ok Shipments", report.OkShipments},
		{"Over Shipments", report.OverShipments},
		{"Less Shipments", report.LessShipments},
		{"No Shipments", report.NoShipments},
		{"Diagnostics", report.DiagnosticCount},
	}
	for i, line := range lines {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &line); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSV 以 CSV 形式写出 Store 主表（旧版工具支持另存为 CSV）
func (e *Exporter) WriteCSV(w io.Writer, results []model.MatchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(storeResultColumns); err != nil {
		return err
	}
	for i := range results {
		r := &results[i]
		if r.Store == nil {
			continue
		}
		row := []string{
			strconv.Itoa(r.Store.RowNo),
			r.Store.PONumber,
			r.Store.JobNumber,
			r.Store.Style,
			r.Store.Color,
			qtyString(r.Store),
			logicQtyString(r),
			StatusText(r),
			tierString(r),
			joinNotes(r.Notes),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// StatusText 状态列文案，与旧版 Excel 输出保持同一词汇
func StatusText(r *model.MatchResult) string {
	switch r.Status {
	case model.StatusUnmatchedStore:
		return "No Match Found"
	case model.StatusUnmatchedLogic:
		return "Missing In Store"
	}

	tier := r.Tier.String()
	switch r.Shipment {
	case model.ShipmentOK:
		return fmt.Sprintf("Ok (%s)", tier)
	case model.ShipmentOver:
		return fmt.Sprintf("Over Shipment (%s: %s vs %s)", tier, qtyString(r.Logic), qtyString(r.Store))
	case model.ShipmentLess:
		return fmt.Sprintf("Less Shipment (%s: %s vs %s)", tier, qtyString(r.Logic), qtyString(r.Store))
	case model.ShipmentNone:
		return fmt.Sprintf("No Shipment (%s)", tier)
	default:
		return fmt.Sprintf("Matched (%s)", tier)
	}
}

func collectExtraColumns(results []model.MatchResult) []string {
	seen := map[string]bool{}
	for i := range results {
		if results[i].Store == nil {
			continue
		}
		for k := range results[i].Store.Extra {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func qtyCell(rec *model.Record) interface{} {
	if rec == nil || !rec.HasQty {
		return ""
	}
	return rec.Qty
}

func logicQtyCell(r *model.MatchResult) interface{} {
	return qtyCell(r.Logic)
}

func qtyString(rec *model.Record) string {
	if rec == nil || !rec.HasQty {
		return ""
	}
	return strconv.FormatFloat(rec.Qty, 'f', -1, 64)
}

func logicQtyString(r *model.MatchResult) string {
	return qtyString(r.Logic)
}

func tierCell(r *model.MatchResult) string {
	return tierString(r)
}

func tierString(r *model.MatchResult) string {
	if r.Status != model.StatusMatched {
		return ""
	}
	return r.Tier.String()
}

func joinNotes(notes []string) string {
	out := ""
	for i, n := range notes {
		if i > 0 {
			out += "; "
		}
		out += n
	}
	return out
}
