package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/store"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized      bool   `json:"initialized"`      // 是否已有加班记录
	TotalOperations  int    `json:"totalOperations"`  // 可见范围内记录数
	AccessLevel      string `json:"accessLevel"`      // 数据范围
	LastImportTime   string `json:"lastImportTime"`   // 最后导入时间
	LastImportStatus string `json:"lastImportStatus"` // 最后导入状态
	LastRetentionRun string `json:"lastRetentionRun"` // 最后一次日志清理
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	page, err := h.store.ListOperations(ctx, store.OperationQuery{
		OperationFilter: store.OperationFilter{Warehouse: sc.Warehouse},
		PageSize:        1,
	})
	if err != nil {
		h.internalError(c, "status count failed", err)
		return
	}

	resp := StatusResponse{
		Initialized:     page.Total > 0,
		TotalOperations: page.Total,
		AccessLevel:     sc.Access(),
	}

	if logs, err := h.store.ListImportLogs(ctx, 1); err == nil && len(logs) > 0 {
		resp.LastImportTime = logs[0].CreatedAt.Format("2006-01-02T15:04:05Z")
		resp.LastImportStatus = string(logs[0].Status)
	}
	if t, err := h.store.GetSettingTime(ctx, store.SettingLastRetentionRun); err == nil && !t.IsZero() {
		resp.LastRetentionRun = t.Format("2006-01-02T15:04:05Z")
	}

	c.JSON(http.StatusOK, resp)
}

// ListImports 导入日志
// GET /api/imports
func (h *Handler) ListImports(c *gin.Context) {
	limit, err := intQuery(c, "limit", 50)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	logs, err := h.store.ListImportLogs(c.Request.Context(), limit)
	if err != nil {
		h.internalError(c, "list imports failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": logs})
}
