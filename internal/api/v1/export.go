package v1

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/exporter"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/parser"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/store"
)

// ExportOperations 导出加班记录明细与仓库汇总（xlsx）
// GET /api/operations/export
func (h *Handler) ExportOperations(c *gin.Context) {
	sc, ok := scope(c)
	if !ok {
		return
	}
	r, err := dateRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	filter := store.OperationFilter{Warehouse: sc.Warehouse, StartDate: r.Start, EndDate: r.End}
	if w := strings.TrimSpace(c.Query("warehouse")); w != "" {
		if !sc.Allows(w) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied to this warehouse"})
			return
		}
		filter.Warehouse = w
	}

	f, err := exporter.NewExporter(h.store).Export(c.Request.Context(), exporter.ExportOptions{Filter: filter})
	if err != nil {
		h.internalError(c, "export operations failed", err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("ot-operations-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", parser.MimeXLSX)
	c.Status(http.StatusOK)
	if _, err := f.WriteTo(c.Writer); err != nil {
		h.logger.Warn("write export failed", "error", err)
	}
}
