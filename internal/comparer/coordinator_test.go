package comparer

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/rakib-bul/exportScan/internal/config"
	"github.com/rakib-bul/exportScan/internal/model"
	"github.com/rakib-bul/exportScan/internal/store"
)

// runCompare 执行一次核对并返回 done 事件中的报告
func runCompare(t *testing.T, coordinator *Coordinator, opts CompareOptions) *model.CompareReport {
	t.Helper()

	var report *model.CompareReport
	for evt := range coordinator.Compare(opts) {
		if evt.Type == "error" {
			t.Fatalf("compare error event: %s", evt.Message)
		}
		if evt.Type == "done" {
			r, ok := evt.Data.(*model.CompareReport)
			if !ok {
				t.Fatalf("unexpected done payload: %T", evt.Data)
			}
			report = r
		}
	}
	if report == nil {
		t.Fatalf("missing done report")
	}
	return report
}

func writeExportFile(t *testing.T, path string, headers []string, rows ...[]interface{}) {
	t.Helper()

	wb := excelize.NewFile()
	defer wb.Close()

	hdr := make([]interface{}, 0, len(headers))
	for _, h := range headers {
		hdr = append(hdr, h)
	}
	if err := wb.SetSheetRow("Sheet1", "A1", &hdr); err != nil {
		t.Fatalf("SetSheetRow header: %v", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := wb.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	if err := wb.SaveAs(path); err != nil {
		t.Fatalf("SaveAs %s: %v", path, err)
	}
}

func TestCompare_EndToEnd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logicPath := filepath.Join(dir, "logic.xlsx")
	storePath := filepath.Join(dir, "store.xlsx")

	writeExportFile(t, logicPath,
		[]string{"PO Number", "Job No", "Style Ref No", "Color", "Ex Factory Qty"},
		[]interface{}{"PO1", "J1", "S1", "Red", "100"},
		[]interface{}{"PO2", "J2", "S2", "Blue", "200"},
		[]interface{}{"PO9", "J9", "S9", "Green", "50"},
		[]interface{}{"", "", "", "", "1"}, // 畸形行：有数量但无任何匹配字段
	)
	writeExportFile(t, storePath,
		[]string{"PO Number", "Job No", "Style Ref No", "Color", "Ship Qty"},
		[]interface{}{"PO1", "J1", "S1", "Red", "100"},  // Exact + Ok
		[]interface{}{"PO2", "J7", "S2", "Blue", "250"}, // HighConfidence + Over
		[]interface{}{"PO8", "J8", "S8", "White", "30"}, // 不匹配
	)

	dbPath := filepath.Join(t.TempDir(), "exportscan.db")
	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	coordinator := NewCoordinator(st, config.MatchingConfig{})
	ch := coordinator.Compare(CompareOptions{
		LogicPath: logicPath,
		StorePath: storePath,
	})

	var report *model.CompareReport
	for evt := range ch {
		if evt.Type == "error" {
			t.Fatalf("compare error event: %s", evt.Message)
		}
		if evt.Type == "done" {
			r, ok := evt.Data.(*model.CompareReport)
			if !ok {
				t.Fatalf("unexpected done payload: %T", evt.Data)
			}
			report = r
		}
	}
	if report == nil {
		t.Fatalf("missing done report")
	}

	if report.TotalLogic != 4 || report.TotalStore != 3 {
		t.Fatalf("totals=%d/%d, want 4/3", report.TotalLogic, report.TotalStore)
	}
	if report.Matched != 2 || report.ExactCount != 1 || report.HighConfCount != 1 {
		t.Fatalf("matched=%d exact=%d highConf=%d", report.Matched, report.ExactCount, report.HighConfCount)
	}
	if report.UnmatchedLogic != 1 || report.UnmatchedStore != 1 {
		t.Fatalf("unmatched=%d/%d, want 1/1", report.UnmatchedLogic, report.UnmatchedStore)
	}
	if report.OkShipments != 1 || report.OverShipments != 1 {
		t.Fatalf("shipments ok=%d over=%d, want 1/1", report.OkShipments, report.OverShipments)
	}
	if report.DiagnosticCount != 1 {
		t.Fatalf("diagnostics=%d, want 1", report.DiagnosticCount)
	}

	// 入库校验
	detail, err := st.GetCompareRun(report.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if detail.Status != "completed" {
		t.Fatalf("run status=%s, want completed", detail.Status)
	}
	if detail.Matched != 2 || detail.DiagnosticCount != 1 {
		t.Fatalf("persisted counts: matched=%d diags=%d", detail.Matched, detail.DiagnosticCount)
	}

	n, err := st.CountResults(store.ResultQueryOptions{RunID: report.RunID})
	if err != nil {
		t.Fatalf("count results: %v", err)
	}
	if n != 4 { // 2 matched + 1 unmatched logic + 1 unmatched store
		t.Fatalf("result rows=%d, want 4", n)
	}

	matched := string(model.StatusMatched)
	matchedResults, err := st.QueryResults(store.ResultQueryOptions{RunID: report.RunID, Status: &matched})
	if err != nil {
		t.Fatalf("query matched: %v", err)
	}
	if len(matchedResults) != 2 {
		t.Fatalf("matched rows=%d, want 2", len(matchedResults))
	}
	if matchedResults[0].Tier != "Exact" || matchedResults[1].Tier != "High Confidence" {
		t.Fatalf("tiers=%s/%s", matchedResults[0].Tier, matchedResults[1].Tier)
	}

	diags, err := st.QueryDiagnostics(report.RunID)
	if err != nil {
		t.Fatalf("query diagnostics: %v", err)
	}
	if len(diags) != 1 || diags[0].Side != model.SideLogic || diags[0].RowNo != 5 {
		t.Fatalf("diagnostics=%+v", diags)
	}

	recent, err := st.ListRecentFiles()
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent files=%d, want 2", len(recent))
	}
}

func TestCompare_BuyerPinnedRuleset(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logicPath := filepath.Join(dir, "logic.xlsx")
	storePath := filepath.Join(dir, "store.xlsx")

	// 同一 PO 重复使用、工单号对不上：默认规则链无法 Exact 命中，
	// 被固定到 combined_po 的买家走 PO+款号 键
	writeExportFile(t, logicPath,
		[]string{"PO Number", "Job No", "Style Ref No", "Color"},
		[]interface{}{"PO1", "J1", "S1", "Red"},
		[]interface{}{"PO1", "J2", "S2", "Red"},
	)
	writeExportFile(t, storePath,
		[]string{"PO Number", "Job No", "Style Ref No", "Color"},
		[]interface{}{"PO1", "X9", "S2", "Red"},
		[]interface{}{"PO1", "X8", "S1", "Red"},
	)

	st, err := store.New(filepath.Join(t.TempDir(), "exportscan.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	coordinator := NewCoordinator(st, config.MatchingConfig{
		DefaultRuleset:   "default",
		CombinedPOBuyers: []string{"ACME"},
	})

	report := runCompare(t, coordinator, CompareOptions{
		LogicPath: logicPath,
		StorePath: storePath,
		Buyer:     "ACME",
	})

	if report.Matched != 2 || report.ExactCount != 2 {
		t.Fatalf("matched=%d exact=%d, want 2/2", report.Matched, report.ExactCount)
	}

	detail, err := st.GetCompareRun(report.RunID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if detail.Ruleset != "combined_po" {
		t.Fatalf("recorded ruleset=%q, want combined_po", detail.Ruleset)
	}
}

func TestResolveRulesetPrecedence(t *testing.T) {
	t.Parallel()

	st, err := store.New(filepath.Join(t.TempDir(), "exportscan.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	coordinator := NewCoordinator(st, config.MatchingConfig{
		CombinedPOBuyers: []string{"ACME"},
	})

	if got := coordinator.resolveRuleset("ACME"); got != "combined_po" {
		t.Fatalf("pinned buyer ruleset=%q, want combined_po", got)
	}
	if got := coordinator.resolveRuleset("Other"); got != "default" {
		t.Fatalf("unpinned buyer ruleset=%q, want default", got)
	}

	// 库内配置优先于配置文件默认
	if err := st.SetConfig(store.ConfigKeyDefaultRuleset, "combined_po"); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if got := coordinator.resolveRuleset("Other"); got != "combined_po" {
		t.Fatalf("store-configured ruleset=%q, want combined_po", got)
	}
}

func TestCompare_JobLast4FromConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logicPath := filepath.Join(dir, "logic.xlsx")
	storePath := filepath.Join(dir, "store.xlsx")

	// 两侧工单号前缀口径不同，末 4 位一致
	writeExportFile(t, logicPath,
		[]string{"PO Number", "Job No", "Style Ref No", "Color"},
		[]interface{}{"PO1", "LGC-2025-8841", "S1", "Red"},
	)
	writeExportFile(t, storePath,
		[]string{"PO Number", "Job No", "Style Ref No", "Color"},
		[]interface{}{"PO1", "BX-8841", "S1", "Red"},
	)

	st, err := store.New(filepath.Join(t.TempDir(), "exportscan.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	// 请求未显式指定 jobLast4，由配置文件开启
	coordinator := NewCoordinator(st, config.MatchingConfig{NormalizeJobLast4: true})
	report := runCompare(t, coordinator, CompareOptions{
		LogicPath: logicPath,
		StorePath: storePath,
	})
	if report.Matched != 1 || report.ExactCount != 1 {
		t.Fatalf("matched=%d exact=%d, want 1/1", report.Matched, report.ExactCount)
	}

	// 库内配置可以关掉归一，优先于配置文件
	if err := st.SetConfigBool(store.ConfigKeyNormalizeJobLast4, false); err != nil {
		t.Fatalf("SetConfigBool: %v", err)
	}
	report = runCompare(t, coordinator, CompareOptions{
		LogicPath: logicPath,
		StorePath: storePath,
	})
	if report.ExactCount != 0 {
		t.Fatalf("exact=%d after disabling normalization, want 0", report.ExactCount)
	}
}

func TestCompare_MissingFileFailsRun(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "exportscan.db")
	st, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	coordinator := NewCoordinator(st, config.MatchingConfig{})
	ch := coordinator.Compare(CompareOptions{
		LogicPath: filepath.Join(t.TempDir(), "nope.xlsx"),
		StorePath: filepath.Join(t.TempDir(), "nope2.xlsx"),
	})

	sawError := false
	for evt := range ch {
		if evt.Type == "error" {
			sawError = true
		}
		if evt.Type == "done" {
			t.Fatalf("run should not complete")
		}
	}
	if !sawError {
		t.Fatalf("missing error event")
	}

	runs, err := st.ListCompareRuns(10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != "failed" {
		t.Fatalf("runs=%+v, want one failed run", runs)
	}
}
