package matcher_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/rakib-bul/exportScan/internal/matcher"
	"github.com/rakib-bul/exportScan/internal/model"
)

func logicRec(rowNo int, po, job, style, color string) *model.Record {
	return &model.Record{Side: model.SideLogic, RowNo: rowNo, PONumber: po, JobNumber: job, Style: style, Color: color}
}

func storeRec(rowNo int, po, job, style, color string) *model.Record {
	return &model.Record{Side: model.SideStore, RowNo: rowNo, PONumber: po, JobNumber: job, Style: style, Color: color}
}

func withQty(r *model.Record, qty float64) *model.Record {
	r.Qty = qty
	r.HasQty = true
	return r
}

func TestMatch_ExactTier(t *testing.T) {
	t.Parallel()

	logic := []*model.Record{logicRec(2, "PO1", "J1", "S1", "Red")}
	store := []*model.Record{storeRec(2, "PO1", "J1", "S1", "Red")}

	results, diags := matcher.Match(logic, store)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if len(results) != 1 {
		t.Fatalf("results=%d, want 1", len(results))
	}
	r := results[0]
	if r.Status != model.StatusMatched {
		t.Fatalf("status=%s, want matched", r.Status)
	}
	if r.Tier != model.TierExact {
		t.Fatalf("tier=%s, want Exact", r.Tier)
	}
	if len(r.Notes) != 0 {
		t.Fatalf("unexpected notes: %v", r.Notes)
	}
}

func TestMatch_HighConfidenceWhenJobDiffers(t *testing.T) {
	t.Parallel()

	logic := []*model.Record{logicRec(2, "PO1", "J1", "S1", "Red")}
	store := []*model.Record{storeRec(2, "PO1", "J2", "S1", "Red")}

	results, _ := matcher.Match(logic, store)
	if len(results) != 1 {
		t.Fatalf("results=%d, want 1", len(results))
	}
	r := results[0]
	if r.Status != model.StatusMatched || r.Tier != model.TierHighConfidence {
		t.Fatalf("status=%s tier=%s, want matched/High Confidence", r.Status, r.Tier)
	}
}

func TestMatch_PartialTierNotesPOMismatch(t *testing.T) {
	t.Parallel()

	logic := []*model.Record{logicRec(2, "PO1", "", "S1", "Blue")}
	store := []*model.Record{storeRec(2, "PO2", "", "S1", "Blue")}

	results, _ := matcher.Match(logic, store)
	if len(results) != 1 {
		t.Fatalf("results=%d, want 1", len(results))
	}
	r := results[0]
	if r.Status != model.StatusMatched || r.Tier != model.TierPartialMatch {
		t.Fatalf("status=%s tier=%s, want matched/Partial Match", r.Status, r.Tier)
	}
	if len(r.Notes) == 0 || !strings.Contains(r.Notes[0], "po_number") {
		t.Fatalf("notes should mention po_number mismatch, got %v", r.Notes)
	}
}

func TestMatch_UnmatchedLogicWhenStoreEmpty(t *testing.T) {
	t.Parallel()

	logic := []*model.Record{logicRec(2, "PO9", "J9", "S9", "Green")}

	results, _ := matcher.Match(logic, nil)
	if len(results) != 1 {
		t.Fatalf("results=%d, want 1", len(results))
	}
	if results[0].Status != model.StatusUnmatchedLogic {
		t.Fatalf("status=%s, want unmatched_logic", results[0].Status)
	}
}

func TestMatch_MalformedRecordGoesToDiagnostics(t *testing.T) {
	t.Parallel()

	logic := []*model.Record{
		logicRec(2, "", "", "", ""),
		logicRec(3, "PO1", "J1", "S1", "Red"),
	}
	store := []*model.Record{storeRec(2, "PO1", "J1", "S1", "Red")}

	results, diags := matcher.Match(logic, store)
	if len(diags) != 1 {
		t.Fatalf("diagnostics=%d, want 1", len(diags))
	}
	if diags[0].Side != model.SideLogic || diags[0].RowNo != 2 {
		t.Fatalf("diagnostic=%+v", diags[0])
	}
	// 畸形记录不得出现在任何结果中
	if len(results) != 1 {
		t.Fatalf("results=%d, want 1", len(results))
	}
	if results[0].Logic.RowNo != 3 {
		t.Fatalf("matched logic row=%d, want 3", results[0].Logic.RowNo)
	}
}

func TestMatch_Completeness(t *testing.T) {
	t.Parallel()

	logic := []*model.Record{
		logicRec(2, "PO1", "J1", "S1", "Red"),
		logicRec(3, "PO1", "J1", "S1", "Red"), // 重复键
		logicRec(4, "PO2", "", "S2", "Blue"),
		logicRec(5, "", "", "S3", "Black"),
	}
	store := []*model.Record{
		storeRec(2, "PO1", "J1", "S1", "Red"),
		storeRec(3, "PO3", "", "S2", "Blue"),
		storeRec(4, "PO4", "J4", "S4", "White"),
	}

	results, diags := matcher.Match(logic, store)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	// 每条输入记录恰好出现一次
	seenLogic := map[int]int{}
	seenStore := map[int]int{}
	for _, r := range results {
		if r.Logic != nil {
			seenLogic[r.Logic.RowNo]++
		}
		if r.Store != nil {
			seenStore[r.Store.RowNo]++
		}
	}
	for _, l := range logic {
		if seenLogic[l.RowNo] != 1 {
			t.Fatalf("logic row %d appears %d times", l.RowNo, seenLogic[l.RowNo])
		}
	}
	for _, s := range store {
		if seenStore[s.RowNo] != 1 {
			t.Fatalf("store row %d appears %d times", s.RowNo, seenStore[s.RowNo])
		}
	}
}

func TestMatch_Deterministic(t *testing.T) {
	t.Parallel()

	logic := []*model.Record{
		logicRec(2, "PO1", "J1", "S1", "Red"),
		logicRec(3, "PO2", "J2", "S1", "Red"),
		logicRec(4, "", "", "S1", "Red"),
	}
	store := []*model.Record{
		storeRec(2, "PO2", "J9", "S1", "Red"),
		storeRec(3, "PO1", "J1", "S1", "Red"),
		storeRec(4, "PO1", "J1", "S1", "Red"),
	}

	first, _ := matcher.Match(logic, store)
	second, _ := matcher.Match(logic, store)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("two runs over identical input diverged:\n first: %+v\nsecond: %+v", first, second)
	}
}

func TestMatch_TieBreakEarliestStore(t *testing.T) {
	t.Parallel()

	logic := []*model.Record{logicRec(2, "PO1", "J1", "S1", "Red")}
	store := []*model.Record{
		storeRec(2, "PO1", "J1", "S1", "Red"),
		storeRec(3, "PO1", "J1", "S1", "Red"),
	}

	results, _ := matcher.Match(logic, store)
	if len(results) != 2 {
		t.Fatalf("results=%d, want 2", len(results))
	}
	if results[0].Status != model.StatusMatched || results[0].Store.RowNo != 2 {
		t.Fatalf("should pair with earliest store row, got %+v", results[0])
	}
	if results[1].Status != model.StatusUnmatchedStore || results[1].Store.RowNo != 3 {
		t.Fatalf("later duplicate should stay unmatched, got %+v", results[1])
	}
}

func TestMatch_TierMonotonicity(t *testing.T) {
	t.Parallel()

	// 同时满足三层条件的记录必须按最高层命中
	logic := []*model.Record{logicRec(2, "PO1", "J1", "S1", "Red")}
	store := []*model.Record{
		storeRec(2, "PO1", "J2", "S1", "Red"), // 只满足 HighConfidence
		storeRec(3, "PO1", "J1", "S1", "Red"), // 满足 Exact
	}

	results, _ := matcher.Match(logic, store)
	r := results[0]
	if r.Tier != model.TierExact || r.Store.RowNo != 3 {
		t.Fatalf("tier=%s store=%d, want Exact/row3", r.Tier, r.Store.RowNo)
	}
}

func TestMatch_PartialRequiresPresentMismatch(t *testing.T) {
	t.Parallel()

	// 两侧单号全空：仅款号颜色相等不构成 PartialMatch
	logic := []*model.Record{logicRec(2, "", "", "S1", "Red")}
	store := []*model.Record{storeRec(2, "", "", "S1", "Red")}

	results, _ := matcher.Match(logic, store)
	if len(results) != 2 {
		t.Fatalf("results=%d, want 2", len(results))
	}
	if results[0].Status != model.StatusUnmatchedLogic {
		t.Fatalf("status=%s, want unmatched_logic", results[0].Status)
	}
	if results[1].Status != model.StatusUnmatchedStore {
		t.Fatalf("status=%s, want unmatched_store", results[1].Status)
	}
}

func TestMatch_EmptyInputs(t *testing.T) {
	t.Parallel()

	results, diags := matcher.Match(nil, nil)
	if len(results) != 0 || len(diags) != 0 {
		t.Fatalf("empty inputs should yield empty output, got %d results %d diags", len(results), len(diags))
	}
}

func TestMatch_ShipmentStatus(t *testing.T) {
	t.Parallel()

	logic := []*model.Record{
		withQty(logicRec(2, "PO1", "J1", "S1", "Red"), 100),
		withQty(logicRec(3, "PO2", "J2", "S2", "Red"), 100),
		withQty(logicRec(4, "PO3", "J3", "S3", "Red"), 100),
		logicRec(5, "PO4", "J4", "S4", "Red"), // 无出厂数量
	}
	store := []*model.Record{
		withQty(storeRec(2, "PO1", "J1", "S1", "Red"), 100),
		withQty(storeRec(3, "PO2", "J2", "S2", "Red"), 120),
		withQty(storeRec(4, "PO3", "J3", "S3", "Red"), 80),
		withQty(storeRec(5, "PO4", "J4", "S4", "Red"), 50),
	}

	results, _ := matcher.Match(logic, store)
	want := []model.ShipmentStatus{model.ShipmentOK, model.ShipmentOver, model.ShipmentLess, model.ShipmentNone}
	for i, w := range want {
		if results[i].Shipment != w {
			t.Fatalf("result %d shipment=%s, want %s", i, results[i].Shipment, w)
		}
	}
	if len(results[0].Notes) != 0 {
		t.Fatalf("ok shipment should carry no note, got %v", results[0].Notes)
	}
	if len(results[1].Notes) == 0 {
		t.Fatalf("over shipment should carry a note")
	}
}
