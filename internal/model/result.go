package model

// ConfidenceTier 匹配置信层级，按匹配规则优先级排序
type ConfidenceTier int

const (
	TierExact          ConfidenceTier = iota // 采购单号 + 工单号 全等
	TierHighConfidence                       // 采购单号 + 款号 + 颜色 全等
	TierPartialMatch                         // 仅 款号 + 颜色 全等，单号存在但不一致
)

// String 层级的展示名（写入导出结果，买家侧阅读，保留英文）
func (t ConfidenceTier) String() string {
	switch t {
	case TierExact:
		return "Exact"
	case TierHighConfidence:
		return "High Confidence"
	case TierPartialMatch:
		return "Partial Match"
	default:
		return "Unknown"
	}
}

// ParseTier 从展示名还原层级（查询过滤用）
func ParseTier(s string) (ConfidenceTier, bool) {
	switch s {
	case "Exact", "exact":
		return TierExact, true
	case "High Confidence", "high_confidence":
		return TierHighConfidence, true
	case "Partial Match", "partial_match":
		return TierPartialMatch, true
	default:
		return 0, false
	}
}

// MatchStatus 匹配结果状态
type MatchStatus string

const (
	StatusMatched        MatchStatus = "matched"
	StatusUnmatchedLogic MatchStatus = "unmatched_logic"
	StatusUnmatchedStore MatchStatus = "unmatched_store"
)

// ShipmentStatus 数量核对结果（出厂数量 vs 出货数量）
type ShipmentStatus string

const (
	ShipmentOK      ShipmentStatus = "ok"
	ShipmentOver    ShipmentStatus = "over"        // 出货多于出厂
	ShipmentLess    ShipmentStatus = "less"        // 出货少于出厂
	ShipmentNone    ShipmentStatus = "no_shipment" // Logic 侧无出厂数量
	ShipmentUnknown ShipmentStatus = "unknown"     // 未匹配或 Store 侧无数量
)

// Label 数量核对结果的展示名（与旧版 Excel 状态列保持一致）
func (s ShipmentStatus) Label() string {
	switch s {
	case ShipmentOK:
		return "Ok"
	case ShipmentOver:
		return "Over Shipment"
	case ShipmentLess:
		return "Less Shipment"
	case ShipmentNone:
		return "No Shipment"
	default:
		return ""
	}
}

// MatchResult 一条匹配结果
// 每条输入记录出现在且仅出现在一条结果中：
// 已匹配的记录不会再以未匹配形式出现，反之亦然。
type MatchResult struct {
	Status   MatchStatus    `json:"status"`
	Logic    *Record        `json:"logic,omitempty"`
	Store    *Record        `json:"store,omitempty"`
	Tier     ConfidenceTier `json:"tier"`     // 仅 matched 有效
	Rule     string         `json:"rule"`     // 命中的规则名
	Shipment ShipmentStatus `json:"shipment"` // 仅 matched 有效
	Notes    []string       `json:"notes,omitempty"`
}
