package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/rakib-bul/exportScan/internal/config"
	"github.com/rakib-bul/exportScan/internal/store"
)

// Handler API 处理器
type Handler struct {
	store     *store.Store
	matching  config.MatchingConfig
	downloads *exportDownloadStore
}

// NewHandler 创建 API 处理器
func NewHandler(store *store.Store, matching config.MatchingConfig) *Handler {
	return &Handler{
		store:     store,
		matching:  matching,
		downloads: newExportDownloadStore(),
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 执行核对（SSE 进度）
	router.POST("/compare", h.Compare)

	// 核对历史与结果明细
	router.GET("/runs", h.ListRuns)
	router.GET("/runs/:id", h.GetRun)
	router.GET("/runs/:id/results", h.ListRunResults)
	router.GET("/runs/:id/diagnostics", h.ListRunDiagnostics)

	// 结果导出
	router.POST("/export/stream", h.ExportStream)
	router.GET("/export/download/:token", h.DownloadExport)

	// 最近文件
	router.GET("/recent", h.ListRecent)

	// 配置管理
	router.GET("/config", h.GetConfig)
	router.PATCH("/config", h.UpdateConfig)
}
