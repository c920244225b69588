package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rakib-bul/exportScan/internal/store"
)

// ConfigResponse 配置响应
type ConfigResponse struct {
	DefaultRuleset    string `json:"defaultRuleset"`    // 默认匹配规则集
	NormalizeJobLast4 bool   `json:"normalizeJobLast4"` // Job 号取末四位
}

// UpdateConfigRequest 更新配置请求
type UpdateConfigRequest struct {
	// 使用 map 允许部分更新
	Updates map[string]interface{} `json:"updates"`
}

var allowedConfigKeys = map[string]bool{
	store.ConfigKeyDefaultRuleset:    true,
	store.ConfigKeyNormalizeJobLast4: true,
}

// GetConfig 获取所有配置
// GET /api/config
func (h *Handler) GetConfig(c *gin.Context) {
	// 库内未配置时回落到配置文件
	jobLast4, err := h.store.GetConfigBool(store.ConfigKeyNormalizeJobLast4)
	if err != nil {
		jobLast4 = h.matching.NormalizeJobLast4
	}
	fallback := h.matching.DefaultRuleset
	if fallback == "" {
		fallback = "default"
	}

	c.JSON(http.StatusOK, ConfigResponse{
		DefaultRuleset:    h.store.GetDefaultRuleset(fallback),
		NormalizeJobLast4: jobLast4,
	})
}

// UpdateConfig 更新配置
// PATCH /api/config
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}

	for key, value := range req.Updates {
		if !allowedConfigKeys[key] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "未知配置项: " + key})
			return
		}

		var strValue string
		switch v := value.(type) {
		case string:
			strValue = v
		case float64:
			strValue = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			if v {
				strValue = "1"
			} else {
				strValue = "0"
			}
		default:
			continue // 跳过不支持的类型
		}

		if err := h.store.SetConfig(key, strValue); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "更新配置失败: " + key,
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "配置更新成功"})
}
