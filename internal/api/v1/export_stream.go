package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rakib-bul/exportScan/internal/model"
	"github.com/rakib-bul/exportScan/internal/service/excel"
	"github.com/rakib-bul/exportScan/internal/store"
)

type exportRequest struct {
	RunID  string `json:"runId"`
	Format string `json:"format"` // xlsx / csv，默认 xlsx
}

type exportProgressEvent struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// ExportStream 导出核对结果（SSE 进度 + 完成后提供下载地址）
// POST /api/export/stream
func (h *Handler) ExportStream(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}
	if req.Format == "" {
		req.Format = "xlsx"
	}
	if req.Format != "xlsx" && req.Format != "csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "不支持的导出格式: " + req.Format})
		return
	}

	detail, err := h.store.GetCompareRun(req.RunID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "核对任务不存在"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	send := func(event exportProgressEvent) {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	send(exportProgressEvent{
		Type:    "start",
		Message: "开始导出",
		Data: map[string]any{
			"runId":  req.RunID,
			"format": req.Format,
		},
		Timestamp: time.Now(),
	})

	stored, err := h.store.QueryResults(store.ResultQueryOptions{RunID: req.RunID})
	if err != nil {
		send(exportProgressEvent{Type: "error", Message: "读取结果明细失败: " + err.Error(), Data: map[string]any{}, Timestamp: time.Now()})
		return
	}
	diags, err := h.store.QueryDiagnostics(req.RunID)
	if err != nil {
		send(exportProgressEvent{Type: "error", Message: "读取诊断明细失败: " + err.Error(), Data: map[string]any{}, Timestamp: time.Now()})
		return
	}

	results := restoreResults(stored)

	tempPath := filepath.Join(os.TempDir(), fmt.Sprintf("exportscan_export_%d_%d.%s", time.Now().UnixNano(), os.Getpid(), req.Format))
	if err := writeExportFile(tempPath, req.Format, &detail.CompareReport, results, diags); err != nil {
		send(exportProgressEvent{Type: "error", Message: "写入导出文件失败: " + err.Error(), Data: map[string]any{}, Timestamp: time.Now()})
		_ = os.Remove(tempPath)
		return
	}

	token := h.downloads.put(tempPath, req.RunID, req.Format, 10*time.Minute)
	downloadURL := "/api/export/download/" + token

	send(exportProgressEvent{
		Type:    "done",
		Message: "导出完成",
		Data: map[string]any{
			"downloadUrl": downloadURL,
		},
		Timestamp: time.Now(),
	})
}

// DownloadExport 下载导出的结果文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token"})
		return
	}

	item, ok := h.downloads.get(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}

	if _, err := os.Stat(item.filePath); err != nil {
		h.downloads.delete(token)
		c.JSON(http.StatusNotFound, gin.H{"error": "导出文件不存在"})
		return
	}

	c.Header("Content-Disposition", buildExportContentDisposition(item.runID, item.format))
	if item.format == "csv" {
		c.Header("Content-Type", "text/csv; charset=utf-8")
	} else {
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	}
	c.File(item.filePath)

	h.downloads.delete(token)
	_ = os.Remove(item.filePath)
}

func writeExportFile(path, format string, report *model.CompareReport, results []model.MatchResult, diags []model.Diagnostic) error {
	exp := excel.NewExporter()
	if format == "csv" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return exp.WriteCSV(f, results)
	}

	wb, err := exp.BuildWorkbook(report, results, diags)
	if err != nil {
		return err
	}
	defer wb.Close()
	return wb.SaveAs(path)
}

// restoreResults 将持久化的明细还原为导出所需的结构
func restoreResults(stored []store.StoredResult) []model.MatchResult {
	results := make([]model.MatchResult, 0, len(stored))
	for _, sr := range stored {
		r := model.MatchResult{
			Status:   model.MatchStatus(sr.Status),
			Rule:     sr.Rule,
			Shipment: model.ShipmentStatus(sr.Shipment),
			Notes:    sr.Notes,
			Logic:    restoreRecord(sr.Logic, model.SideLogic),
			Store:    restoreRecord(sr.Store, model.SideStore),
		}
		if tier, ok := model.ParseTier(sr.Tier); ok {
			r.Tier = tier
		}
		results = append(results, r)
	}
	return results
}

func restoreRecord(sr *store.StoredRecord, side model.RecordSide) *model.Record {
	if sr == nil {
		return nil
	}
	rec := &model.Record{
		Side:      side,
		RowNo:     sr.RowNo,
		PONumber:  sr.PONumber,
		JobNumber: sr.JobNumber,
		Style:     sr.Style,
		Color:     sr.Color,
	}
	if sr.Qty != nil {
		rec.Qty = *sr.Qty
		rec.HasQty = true
	}
	return rec
}

// buildExportContentDisposition 生成兼容中文文件名的下载头
func buildExportContentDisposition(runID, format string) string {
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	ascii := fmt.Sprintf("scan-result-%s.%s", short, format)
	utf8Name := fmt.Sprintf("核对结果-%s.%s", short, format)
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", ascii, url.PathEscape(utf8Name))
}
