package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rakib-bul/exportScan/internal/store"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized bool             `json:"initialized"` // 是否已有核对记录
	TotalRuns   int              `json:"totalRuns"`   // 核对任务总数
	LastRun     *store.RunDetail `json:"lastRun,omitempty"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	total, err := h.store.CountCompareRuns()
	if err != nil {
		c.JSON(http.StatusOK, StatusResponse{})
		return
	}

	last, err := h.store.LatestCompletedRun()
	if err != nil {
		last = nil
	}

	c.JSON(http.StatusOK, StatusResponse{
		Initialized: total > 0,
		TotalRuns:   total,
		LastRun:     last,
	})
}
