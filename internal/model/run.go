package model

import "time"

// CompareReport 单次核对的汇总报告
type CompareReport struct {
	RunID     string `json:"runId"`
	LogicFile string `json:"logicFile"`
	StoreFile string `json:"storeFile"`
	Buyer     string `json:"buyer,omitempty"` // 启用买家规则时记录买家名

	TotalLogic int `json:"totalLogic"`
	TotalStore int `json:"totalStore"`

	Matched        int `json:"matched"`
	ExactCount     int `json:"exactCount"`
	HighConfCount  int `json:"highConfCount"`
	PartialCount   int `json:"partialCount"`
	UnmatchedLogic int `json:"unmatchedLogic"`
	UnmatchedStore int `json:"unmatchedStore"`

	OkShipments   int `json:"okShipments"`
	OverShipments int `json:"overShipments"`
	LessShipments int `json:"lessShipments"`
	NoShipments   int `json:"noShipments"`

	DiagnosticCount int `json:"diagnosticCount"`

	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
}

// Tally 按结果累加计数
func (r *CompareReport) Tally(results []MatchResult) {
	for i := range results {
		res := &results[i]
		switch res.Status {
		case StatusMatched:
			r.Matched++
			switch res.Tier {
			case TierExact:
				r.ExactCount++
			case TierHighConfidence:
				r.HighConfCount++
			case TierPartialMatch:
				r.PartialCount++
			}
			switch res.Shipment {
			case ShipmentOK:
				r.OkShipments++
			case ShipmentOver:
				r.OverShipments++
			case ShipmentLess:
				r.LessShipments++
			case ShipmentNone:
				r.NoShipments++
			}
		case StatusUnmatchedLogic:
			r.UnmatchedLogic++
		case StatusUnmatchedStore:
			r.UnmatchedStore++
		}
	}
}

// RunSummary 历史核对记录（列表展示用）
type RunSummary struct {
	ID              string    `json:"id"`
	LogicFile       string    `json:"logicFile"`
	StoreFile       string    `json:"storeFile"`
	Buyer           string    `json:"buyer,omitempty"`
	TotalLogic      int       `json:"totalLogic"`
	TotalStore      int       `json:"totalStore"`
	Matched         int       `json:"matched"`
	UnmatchedLogic  int       `json:"unmatchedLogic"`
	UnmatchedStore  int       `json:"unmatchedStore"`
	DiagnosticCount int       `json:"diagnosticCount"`
	Status          string    `json:"status"` // processing/completed/failed
	CreatedAt       time.Time `json:"createdAt"`
}
