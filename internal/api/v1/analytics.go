package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/analytics"
)

// WarehouseAnalytics 仓库维度汇总
// GET /api/analytics/warehouse
func (h *Handler) WarehouseAnalytics(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	r, err := dateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, err := h.analytics.WarehouseTotals(c.Request.Context(), sc.Warehouse, r)
	if err != nil {
		h.internalError(c, "warehouse analytics failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessLevel": sc.Access(), "data": data})
}

// MonthlyTrend 逐月趋势（year 缺省为当年）
// GET /api/analytics/monthly-trend
func (h *Handler) MonthlyTrend(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	year, err := intQuery(c, "year", time.Now().UTC().Year())
	if err != nil || year < 1900 || year > 9999 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return
	}
	data, err := h.analytics.MonthlyTrend(c.Request.Context(), year, sc.Warehouse)
	if err != nil {
		h.internalError(c, "monthly trend failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessLevel": sc.Access(), "year": year, "data": data})
}

// ApprovalStatus 审批状态汇总
// GET /api/analytics/approval-status
func (h *Handler) ApprovalStatus(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	r, err := dateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, err := h.analytics.ApprovalSummary(c.Request.Context(), sc.Warehouse, r)
	if err != nil {
		h.internalError(c, "approval analytics failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessLevel": sc.Access(), "data": data})
}

// ListMonths 存在数据的年月
// GET /api/analytics/months
func (h *Handler) ListMonths(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	items, err := h.store.ListAvailableYearMonths(c.Request.Context(), sc.Warehouse)
	if err != nil {
		h.internalError(c, "list months failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessLevel": sc.Access(), "items": items})
}

// ForecastMonthlyOT 下月加班工时预测
// GET /api/forecast/monthly-ot
func (h *Handler) ForecastMonthlyOT(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	f, err := h.analytics.ForecastMonthlyOT(c.Request.Context(), sc.Warehouse)
	if errors.Is(err, analytics.ErrNoHistory) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No historical data available for forecast", "accessLevel": sc.Access()})
		return
	}
	if err != nil {
		h.internalError(c, "forecast failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessLevel":        sc.Access(),
		"historical":         f.Historical,
		"predictedNextMonth": f.PredictedNextMonth,
		"slope":              f.Slope,
		"intercept":          f.Intercept,
		"note":               f.Note,
	})
}
