package model

import (
	"errors"
	"strings"
)

// ErrMalformedRecord 四个匹配字段全部为空的记录无法参与匹配
var ErrMalformedRecord = errors.New("record has no key fields")

// RecordSide 记录来源
type RecordSide string

const (
	SideLogic RecordSide = "logic" // 生产端 Logic 导出
	SideStore RecordSide = "store" // 买家端 Store 导出
)

// Record 导出表中的一行记录
// 四个匹配字段可部分为空（空值按通配处理，只降低置信度），
// 其余列原样放入 Extra 透传。
type Record struct {
	ID        string            `json:"id"`
	Side      RecordSide        `json:"side"`
	RowNo     int               `json:"rowNo"` // 源表行号（含表头，从 2 开始）
	PONumber  string            `json:"poNumber"`
	JobNumber string            `json:"jobNumber"`
	Style     string            `json:"style"`
	Color     string            `json:"color"`
	Qty       float64           `json:"qty"`    // Logic 侧为出厂数量，Store 侧为出货数量
	HasQty    bool              `json:"hasQty"` // 数量列为空时为 false
	Extra     map[string]string `json:"extra,omitempty"`
}

// Validate 校验记录可参与匹配
// 四个匹配字段全部为空时返回 ErrMalformedRecord。
func (r *Record) Validate() error {
	if r.PONumber == "" && r.JobNumber == "" && r.Style == "" && r.Color == "" {
		return ErrMalformedRecord
	}
	return nil
}

// MatchKey 返回 (采购单号, 工单号, 款号, 颜色) 四元组
func (r *Record) MatchKey() [4]string {
	return [4]string{r.PONumber, r.JobNumber, r.Style, r.Color}
}

// KeyString 匹配键的展示形式
func (r *Record) KeyString() string {
	k := r.MatchKey()
	return strings.Join(k[:], " / ")
}

// Diagnostic 无法参与匹配的记录诊断
type Diagnostic struct {
	Side   RecordSide `json:"side"`
	RowNo  int        `json:"rowNo"`
	Reason string     `json:"reason"`
}
