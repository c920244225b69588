package matcher

import (
	"fmt"
	"strings"

	"github.com/rakib-bul/exportScan/internal/model"
)

// Rule 单层匹配规则
// 规则按优先级组成有序链，逐层消耗两侧未匹配记录。
type Rule interface {
	Name() string
	Tier() model.ConfidenceTier
	// Key 返回记录在本层的分桶键；false 表示记录不参与本层
	Key(r *model.Record) (string, bool)
	// Qualify 同桶候选的逐对附加校验
	Qualify(logic, store *model.Record) bool
	// Notes 命中后的差异说明
	Notes(logic, store *model.Record) []string
}

// 分桶键的字段分隔符，避免字段值拼接歧义
const keySep = "\x1f"

// exactRule 第一优先级：采购单号 + 工单号 全等（两侧均须非空）
type exactRule struct{}

func (exactRule) Name() string               { return "po_job" }
func (exactRule) Tier() model.ConfidenceTier { return model.TierExact }

func (exactRule) Key(r *model.Record) (string, bool) {
	if r.PONumber == "" || r.JobNumber == "" {
		return "", false
	}
	return r.PONumber + keySep + r.JobNumber, true
}

func (exactRule) Qualify(_, _ *model.Record) bool { return true }

func (exactRule) Notes(logic, store *model.Record) []string { return nil }

// highConfRule 第二优先级：采购单号 + 款号 + 颜色 全等，忽略工单号
type highConfRule struct{}

func (highConfRule) Name() string               { return "po_style_color" }
func (highConfRule) Tier() model.ConfidenceTier { return model.TierHighConfidence }

func (highConfRule) Key(r *model.Record) (string, bool) {
	if r.PONumber == "" {
		return "", false
	}
	return r.PONumber + keySep + r.Style + keySep + r.Color, true
}

func (highConfRule) Qualify(_, _ *model.Record) bool { return true }

func (highConfRule) Notes(logic, store *model.Record) []string {
	// 工单号两侧都有但不一致时提示，常见为录入口径差异
	if logic.JobNumber != "" && store.JobNumber != "" && logic.JobNumber != store.JobNumber {
		return []string{fieldMismatchNote("job_number", logic.JobNumber, store.JobNumber)}
	}
	return nil
}

// partialRule 第三优先级：仅 款号 + 颜色 全等
// 要求采购单号或工单号“存在但不一致”，提示可能的录入错误；
// 两侧单号全空的记录不在此层匹配。
type partialRule struct{}

func (partialRule) Name() string               { return "style_color" }
func (partialRule) Tier() model.ConfidenceTier { return model.TierPartialMatch }

func (partialRule) Key(r *model.Record) (string, bool) {
	if r.Style == "" && r.Color == "" {
		return "", false
	}
	return r.Style + keySep + r.Color, true
}

func (partialRule) Qualify(logic, store *model.Record) bool {
	return presentMismatch(logic.PONumber, store.PONumber) ||
		presentMismatch(logic.JobNumber, store.JobNumber)
}

func (partialRule) Notes(logic, store *model.Record) []string {
	var notes []string
	if presentMismatch(logic.PONumber, store.PONumber) {
		notes = append(notes, fieldMismatchNote("po_number", logic.PONumber, store.PONumber))
	}
	if presentMismatch(logic.JobNumber, store.JobNumber) {
		notes = append(notes, fieldMismatchNote("job_number", logic.JobNumber, store.JobNumber))
	}
	return notes
}

// comboPORule 买家定制：采购单号 + 款号 作为最高优先级键
// 适用于同一 PO 跨多个款号重复使用的买家。
type comboPORule struct{}

func (comboPORule) Name() string               { return "po_style" }
func (comboPORule) Tier() model.ConfidenceTier { return model.TierExact }

func (comboPORule) Key(r *model.Record) (string, bool) {
	if r.PONumber == "" || r.Style == "" {
		return "", false
	}
	return r.PONumber + keySep + r.Style, true
}

func (comboPORule) Qualify(_, _ *model.Record) bool { return true }

func (comboPORule) Notes(logic, store *model.Record) []string {
	if logic.JobNumber != "" && store.JobNumber != "" && logic.JobNumber != store.JobNumber {
		return []string{fieldMismatchNote("job_number", logic.JobNumber, store.JobNumber)}
	}
	return nil
}

// presentMismatch 字段至少一侧非空且两侧不相等
func presentMismatch(a, b string) bool {
	if a == "" && b == "" {
		return false
	}
	return a != b
}

func fieldMismatchNote(field, logicVal, storeVal string) string {
	return fmt.Sprintf("%s 不一致: %q vs %q", field, displayValue(logicVal), displayValue(storeVal))
}

func displayValue(v string) string {
	if v == "" {
		return "(空)"
	}
	return v
}

// DefaultRules 默认规则链（PO+工单号 → PO+款号+颜色 → 款号+颜色）
func DefaultRules() []Rule {
	return []Rule{exactRule{}, highConfRule{}, partialRule{}}
}

// CombinedPORules PO 与款号组合优先的规则链
func CombinedPORules() []Rule {
	return []Rule{comboPORule{}, highConfRule{}, partialRule{}}
}

// RulesByName 按配置名取规则链，未知名称回落到默认链
func RulesByName(name string) []Rule {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "combined_po":
		return CombinedPORules()
	default:
		return DefaultRules()
	}
}
