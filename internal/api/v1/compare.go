package v1

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rakib-bul/exportScan/internal/comparer"
)

// Compare 上传两侧导出表并执行核对 (SSE 流式响应)
// POST /api/compare
// 表单字段: logic / store 文件, buyer, ruleset, jobLast4, logicSheet, storeSheet
func (h *Handler) Compare(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的表单数据"})
		return
	}

	logicFile := firstFile(form, "logic")
	storeFile := firstFile(form, "store")
	if logicFile == nil || storeFile == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "需要同时上传 Logic 与 Store 导出文件"})
		return
	}

	// 保存到临时目录
	tempDir := os.TempDir()
	logicPath := filepath.Join(tempDir, fmt.Sprintf("exportscan_logic_%d_%s", time.Now().UnixNano(), logicFile.Filename))
	storePath := filepath.Join(tempDir, fmt.Sprintf("exportscan_store_%d_%s", time.Now().UnixNano(), storeFile.Filename))

	if err := c.SaveUploadedFile(logicFile, logicPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败"})
		return
	}
	defer os.Remove(logicPath)

	if err := c.SaveUploadedFile(storeFile, storePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败"})
		return
	}
	defer os.Remove(storePath)

	// 表单未带 jobLast4 时交由协调器按库内配置/配置文件解析
	var jobLast4 *bool
	if v := c.PostForm("jobLast4"); v != "" {
		b := v == "true"
		jobLast4 = &b
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	coordinator := comparer.NewCoordinator(h.store, h.matching)
	progressChan := coordinator.Compare(comparer.CompareOptions{
		LogicPath:  logicPath,
		StorePath:  storePath,
		LogicSheet: c.PostForm("logicSheet"),
		StoreSheet: c.PostForm("storeSheet"),
		Buyer:      c.PostForm("buyer"),
		Ruleset:    c.PostForm("ruleset"),
		JobLast4:   jobLast4,
	})

	for event := range progressChan {
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}

		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

func firstFile(form *multipart.Form, field string) *multipart.FileHeader {
	files := form.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}
