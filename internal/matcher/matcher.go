package matcher

import (
	"fmt"
	"strconv"

	"github.com/rakib-bul/exportScan/internal/model"
)

// Matcher 多键记录匹配器
// 纯函数式：不做 I/O，不持有跨次调用状态，相同输入产生相同输出。
type Matcher struct {
	rules []Rule
}

// New 创建匹配器，规则为空时使用默认规则链
func New(rules ...Rule) *Matcher {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Matcher{rules: rules}
}

// Match 使用默认规则链执行一次匹配
func Match(logic, store []*model.Record) ([]model.MatchResult, []model.Diagnostic) {
	return New().Match(logic, store)
}

// Match 按规则链逐层匹配两侧记录
//
// 每条输入记录恰好出现在一条结果中（已匹配不再以未匹配形式出现）。
// 同层出现多个同键候选时取 Store 序列中最早的一条，保证重复键下的确定性。
// 四个匹配字段全空的记录不参与匹配，单独返回诊断列表。
func (m *Matcher) Match(logic, store []*model.Record) ([]model.MatchResult, []model.Diagnostic) {
	var diags []model.Diagnostic

	logicOK := make([]bool, len(logic))
	for i, r := range logic {
		if err := r.Validate(); err != nil {
			diags = append(diags, model.Diagnostic{Side: model.SideLogic, RowNo: r.RowNo, Reason: err.Error()})
			continue
		}
		logicOK[i] = true
	}
	storeOK := make([]bool, len(store))
	for i, r := range store {
		if err := r.Validate(); err != nil {
			diags = append(diags, model.Diagnostic{Side: model.SideStore, RowNo: r.RowNo, Reason: err.Error()})
			continue
		}
		storeOK[i] = true
	}

	pairedWith := make([]int, len(logic)) // logic 下标 -> store 下标
	pairedRule := make([]Rule, len(logic))
	for i := range pairedWith {
		pairedWith[i] = -1
	}
	storeUsed := make([]bool, len(store))

	for _, rule := range m.rules {
		// 未消耗的 Store 记录按键分桶，桶内保持原始顺序
		buckets := make(map[string][]int)
		for si, r := range store {
			if !storeOK[si] || storeUsed[si] {
				continue
			}
			key, ok := rule.Key(r)
			if !ok {
				continue
			}
			buckets[key] = append(buckets[key], si)
		}

		for li, r := range logic {
			if !logicOK[li] || pairedWith[li] >= 0 {
				continue
			}
			key, ok := rule.Key(r)
			if !ok {
				continue
			}
			for _, si := range buckets[key] {
				if storeUsed[si] {
					continue
				}
				if !rule.Qualify(r, store[si]) {
					continue
				}
				pairedWith[li] = si
				pairedRule[li] = rule
				storeUsed[si] = true
				break
			}
		}
	}

	results := make([]model.MatchResult, 0, len(logic)+len(store))

	for li, l := range logic {
		if !logicOK[li] {
			continue
		}
		si := pairedWith[li]
		if si < 0 {
			results = append(results, model.MatchResult{
				Status:   model.StatusUnmatchedLogic,
				Logic:    l,
				Shipment: model.ShipmentUnknown,
			})
			continue
		}
		rule := pairedRule[li]
		s := store[si]
		shipment, shipNote := checkShipment(l, s)
		notes := rule.Notes(l, s)
		if shipNote != "" {
			notes = append(notes, shipNote)
		}
		results = append(results, model.MatchResult{
			Status:   model.StatusMatched,
			Logic:    l,
			Store:    s,
			Tier:     rule.Tier(),
			Rule:     rule.Name(),
			Shipment: shipment,
			Notes:    notes,
		})
	}

	for si, s := range store {
		if !storeOK[si] || storeUsed[si] {
			continue
		}
		results = append(results, model.MatchResult{
			Status:   model.StatusUnmatchedStore,
			Store:    s,
			Shipment: model.ShipmentUnknown,
		})
	}

	return results, diags
}

// checkShipment 核对出厂数量与出货数量
// 双侧都无数量时视为无数量数据，不产生说明。
func checkShipment(logic, store *model.Record) (model.ShipmentStatus, string) {
	if !logic.HasQty {
		if !store.HasQty {
			return model.ShipmentUnknown, ""
		}
		return model.ShipmentNone, "Logic 侧无出厂数量"
	}
	if !store.HasQty {
		return model.ShipmentUnknown, ""
	}
	switch {
	case logic.Qty == store.Qty:
		return model.ShipmentOK, ""
	case logic.Qty < store.Qty:
		return model.ShipmentOver, fmt.Sprintf("数量不一致: 出厂 %s vs 出货 %s", formatQty(logic.Qty), formatQty(store.Qty))
	default:
		return model.ShipmentLess, fmt.Sprintf("数量不一致: 出厂 %s vs 出货 %s", formatQty(logic.Qty), formatQty(store.Qty))
	}
}

func formatQty(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
