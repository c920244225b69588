package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rakib-bul/exportScan/internal/store"
)

// ListRuns 列出核对历史
// GET /api/runs?limit=50
func (h *Handler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	runs, err := h.store.ListCompareRuns(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": runs})
}

// GetRun 获取单个核对任务
// GET /api/runs/:id
func (h *Handler) GetRun(c *gin.Context) {
	detail, err := h.store.GetCompareRun(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, detail)
}

// ListRunResults 查询结果明细
// GET /api/runs/:id/results?status=&tier=&shipment=&limit=&offset=
func (h *Handler) ListRunResults(c *gin.Context) {
	opts := store.ResultQueryOptions{
		RunID: c.Param("id"),
	}

	if v := c.Query("status"); v != "" {
		opts.Status = &v
	}
	if v := c.Query("tier"); v != "" {
		opts.Tier = &v
	}
	if v := c.Query("shipment"); v != "" {
		opts.Shipment = &v
	}
	opts.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "200"))
	opts.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	total, err := h.store.CountResults(opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items, err := h.store.QueryResults(opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total": total,
		"items": items,
	})
}

// ListRunDiagnostics 查询诊断列表
// GET /api/runs/:id/diagnostics
func (h *Handler) ListRunDiagnostics(c *gin.Context) {
	diags, err := h.store.QueryDiagnostics(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": diags})
}

// ListRecent 最近使用过的导出文件
// GET /api/recent
func (h *Handler) ListRecent(c *gin.Context) {
	files, err := h.store.ListRecentFiles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": files})
}
