package comparer

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/rakib-bul/exportScan/internal/config"
	"github.com/rakib-bul/exportScan/internal/matcher"
	"github.com/rakib-bul/exportScan/internal/model"
	"github.com/rakib-bul/exportScan/internal/service/excel"
	"github.com/rakib-bul/exportScan/internal/store"
)

// Coordinator 核对协调器
// 串联 解析 → 匹配 → 入库 全流程，进度通过通道上报。
type Coordinator struct {
	store    *store.Store
	matching config.MatchingConfig
}

// NewCoordinator 创建核对协调器
func NewCoordinator(store *store.Store, matching config.MatchingConfig) *Coordinator {
	return &Coordinator{store: store, matching: matching}
}

// CompareOptions 核对选项
type CompareOptions struct {
	LogicPath  string
	StorePath  string
	LogicSheet string // 为空时取第一个工作表
	StoreSheet string
	Buyer      string // 启用买家定制规则时的买家名
	Ruleset    string // 规则链名；为空时按 买家定制 > 库内配置 > 配置文件 解析
	JobLast4   *bool  // 工单号按末 4 位归一；nil 时按 库内配置 > 配置文件 解析
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"` // start/info/warning/error/done
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Compare 执行核对，返回进度通道
func (c *Coordinator) Compare(opts CompareOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		c.doCompare(opts, progressChan)
	}()

	return progressChan
}

// doCompare 执行核对逻辑
func (c *Coordinator) doCompare(opts CompareOptions, ch chan ProgressEvent) {
	startTime := time.Now()
	runID := uuid.New().String()

	logicFile := filepath.Base(opts.LogicPath)
	storeFile := filepath.Base(opts.StorePath)

	ruleset := opts.Ruleset
	if ruleset == "" {
		ruleset = c.resolveRuleset(opts.Buyer)
	}
	jobLast4 := c.resolveJobLast4(opts.JobLast4)

	c.send(ch, ProgressEvent{
		Type:    "start",
		Message: "开始核对",
		Data: map[string]string{
			"runId":     runID,
			"logicFile": logicFile,
			"storeFile": storeFile,
			"ruleset":   ruleset,
		},
		Timestamp: time.Now(),
	})

	if err := c.store.CreateCompareRun(runID, logicFile, storeFile, opts.Buyer, ruleset); err != nil {
		c.fail(ch, runID, fmt.Sprintf("创建核对任务失败: %v", err))
		return
	}

	logicRecords, err := c.parseSide(ch, opts.LogicPath, opts.LogicSheet, model.SideLogic, jobLast4)
	if err != nil {
		c.fail(ch, runID, fmt.Sprintf("解析 Logic 导出失败: %v", err))
		return
	}
	storeRecords, err := c.parseSide(ch, opts.StorePath, opts.StoreSheet, model.SideStore, jobLast4)
	if err != nil {
		c.fail(ch, runID, fmt.Sprintf("解析 Store 导出失败: %v", err))
		return
	}

	c.send(ch, ProgressEvent{
		Type:      "info",
		Message:   "正在匹配记录...",
		Timestamp: time.Now(),
	})

	m := matcher.New(matcher.RulesByName(ruleset)...)
	results, diags := m.Match(logicRecords, storeRecords)

	report := &model.CompareReport{
		RunID:           runID,
		LogicFile:       logicFile,
		StoreFile:       storeFile,
		Buyer:           opts.Buyer,
		TotalLogic:      len(logicRecords),
		TotalStore:      len(storeRecords),
		DiagnosticCount: len(diags),
		StartedAt:       startTime,
	}
	report.Tally(results)

	c.send(ch, ProgressEvent{
		Type:    "info",
		Message: fmt.Sprintf("匹配完成: %d 对, Logic 未匹配 %d, Store 未匹配 %d", report.Matched, report.UnmatchedLogic, report.UnmatchedStore),
		Data: map[string]int{
			"matched":        report.Matched,
			"unmatchedLogic": report.UnmatchedLogic,
			"unmatchedStore": report.UnmatchedStore,
		},
		Timestamp: time.Now(),
	})

	if err := c.store.BatchInsertResults(runID, results); err != nil {
		c.fail(ch, runID, fmt.Sprintf("写入结果明细失败: %v", err))
		return
	}
	if err := c.store.BatchInsertDiagnostics(runID, diags); err != nil {
		c.fail(ch, runID, fmt.Sprintf("写入诊断失败: %v", err))
		return
	}

	report.Duration = time.Since(startTime)
	if err := c.store.CompleteCompareRun(report); err != nil {
		c.fail(ch, runID, fmt.Sprintf("更新核对任务失败: %v", err))
		return
	}

	// 最近文件列表，写失败不影响核对结果
	if err := c.store.TouchRecentFile(opts.LogicPath, string(model.SideLogic)); err != nil {
		c.send(ch, ProgressEvent{Type: "warning", Message: fmt.Sprintf("记录最近文件失败: %v", err), Timestamp: time.Now()})
	}
	if err := c.store.TouchRecentFile(opts.StorePath, string(model.SideStore)); err != nil {
		c.send(ch, ProgressEvent{Type: "warning", Message: fmt.Sprintf("记录最近文件失败: %v", err), Timestamp: time.Now()})
	}

	c.send(ch, ProgressEvent{
		Type:      "done",
		Message:   "核对完成",
		Data:      report,
		Timestamp: time.Now(),
	})
}

// resolveRuleset 未显式指定规则链时的解析顺序：买家定制 > 库内配置 > 配置文件
func (c *Coordinator) resolveRuleset(buyer string) string {
	if rs, ok := c.matching.BuyerPinnedRuleset(buyer); ok {
		return rs
	}
	fallback := c.matching.DefaultRuleset
	if fallback == "" {
		fallback = "default"
	}
	return c.store.GetDefaultRuleset(fallback)
}

// resolveJobLast4 未显式指定时的解析顺序：库内配置 > 配置文件
func (c *Coordinator) resolveJobLast4(explicit *bool) bool {
	if explicit != nil {
		return *explicit
	}
	if v, err := c.store.GetConfigBool(store.ConfigKeyNormalizeJobLast4); err == nil {
		return v
	}
	return c.matching.NormalizeJobLast4
}

// parseSide 解析单侧导出表
func (c *Coordinator) parseSide(ch chan ProgressEvent, path, sheet string, side model.RecordSide, jobLast4 bool) ([]*model.Record, error) {
	p := excel.NewParser()
	if err := p.OpenFile(path); err != nil {
		return nil, err
	}
	defer p.Close()

	result, err := p.Parse(excel.ParseOptions{
		Sheet:             sheet,
		Side:              side,
		NormalizeJobLast4: jobLast4,
	})
	if err != nil {
		return nil, err
	}

	c.send(ch, ProgressEvent{
		Type:    "info",
		Message: fmt.Sprintf("%s 导出解析完成: %d 行", side, result.Rows),
		Data: map[string]interface{}{
			"side":    string(side),
			"sheet":   result.Sheet,
			"rows":    result.Rows,
			"skipped": result.SkippedRows,
		},
		Timestamp: time.Now(),
	})

	return result.Records, nil
}

// fail 发送错误事件并标记任务失败
func (c *Coordinator) fail(ch chan ProgressEvent, runID, message string) {
	if err := c.store.FailCompareRun(runID, message); err != nil {
		c.send(ch, ProgressEvent{Type: "warning", Message: fmt.Sprintf("标记任务失败出错: %v", err), Timestamp: time.Now()})
	}
	c.send(ch, ProgressEvent{
		Type:      "error",
		Message:   message,
		Timestamp: time.Now(),
	})
}

// send 发送进度事件
func (c *Coordinator) send(ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	default:
		// 通道已满，丢弃事件
	}
}
