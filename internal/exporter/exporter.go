package exporter

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/model"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/store"
)

const (
	SheetOperations = "Operations"
	SheetSummary    = "Summary"

	pageSize = 500
)

// OperationHeaders 导出表头，与导入别名表兼容，导出文件可原样回导
var OperationHeaders = []string{
	"Operation Date", "Warehouse", "Customer", "Employee", "Contractor",
	"Start Time", "End Time", "Duration Hours", "OT Amount", "Rate Per Hour",
	"Approval Status", "Remarks",
}

var summaryHeaders = []string{"Warehouse", "Operations", "Total OT Hours", "Total OT Amount"}

// Source 导出所需的数据来源
type Source interface {
	ListOperations(ctx context.Context, q store.OperationQuery) (*store.OperationPage, error)
	WarehouseTotals(ctx context.Context, f store.OperationFilter) ([]model.WarehouseTotal, error)
}

// Exporter 加班记录导出器
type Exporter struct {
	source Source
}

// NewExporter 创建导出器
func NewExporter(source Source) *Exporter {
	return &Exporter{source: source}
}

// ExportOptions 导出选项
type ExportOptions struct {
	Filter   store.OperationFilter
	Progress func(ProgressEvent)
}

// Export 按过滤条件导出明细与仓库汇总，返回的工作簿由调用方关闭
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := e.fill(ctx, f, opts); err != nil {
		_ = f.Close()
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

func (e *Exporter) fill(ctx context.Context, f *excelize.File, opts ExportOptions) error {
	reportProgress(opts.Progress, 0, "读取加班记录")

	if err := f.SetSheetName(f.GetSheetName(0), SheetOperations); err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	rows, err := e.writeOperations(ctx, f, opts, headerStyle)
	if err != nil {
		return err
	}
	reportProgress(opts.Progress, 90, "生成仓库汇总")

	totals, err := e.source.WarehouseTotals(ctx, opts.Filter)
	if err != nil {
		return fmt.Errorf("读取仓库汇总失败: %w", err)
	}
	if err := writeSummary(f, totals, headerStyle); err != nil {
		return err
	}
	reportProgress(opts.Progress, 100, fmt.Sprintf("导出完成，共 %d 条", rows))
	return nil
}

// writeOperations 分页读取并流式写入明细，返回写入条数
func (e *Exporter) writeOperations(ctx context.Context, f *excelize.File, opts ExportOptions, headerStyle int) (int, error) {
	sw, err := f.NewStreamWriter(SheetOperations)
	if err != nil {
		return 0, err
	}
	if err := sw.SetColWidth(1, len(OperationHeaders), 16); err != nil {
		return 0, err
	}

	header := make([]interface{}, len(OperationHeaders))
	for i, h := range OperationHeaders {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return 0, err
	}

	written := 0
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		res, err := e.source.ListOperations(ctx, store.OperationQuery{
			OperationFilter: opts.Filter,
			Page:            page,
			PageSize:        pageSize,
		})
		if err != nil {
			return written, fmt.Errorf("读取加班记录失败: %w", err)
		}
		for _, op := range res.Items {
			cell, err := excelize.CoordinatesToCellName(1, written+2)
			if err != nil {
				return written, err
			}
			if err := sw.SetRow(cell, operationRow(op)); err != nil {
				return written, err
			}
			written++
		}
		if res.Total > 0 {
			reportProgress(opts.Progress, written*90/res.Total, fmt.Sprintf("已写入 %d/%d 条", written, res.Total))
		}
		if len(res.Items) == 0 || written >= res.Total {
			break
		}
	}

	if err := sw.Flush(); err != nil {
		return written, err
	}
	return written, nil
}

func operationRow(op *model.Operation) []interface{} {
	return []interface{}{
		op.OperationDate.UTC().Format("2006-01-02"),
		op.WarehouseName,
		op.CustomerName,
		op.EmployeeName,
		deref(op.ContractorName),
		op.StartTime.UTC().Format("15:04:05"),
		op.EndTime.UTC().Format("15:04:05"),
		op.DurationHours,
		op.OTAmount,
		optionalFloat(op.RatePerHour),
		string(op.ApprovalStatus),
		deref(op.Remarks),
	}
}

func writeSummary(f *excelize.File, totals []model.WarehouseTotal, headerStyle int) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetSummary, "A1", &summaryHeaders); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetSummary, "A1", "D1", headerStyle); err != nil {
		return err
	}
	for i, t := range totals {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{t.WarehouseName, t.OperationCount, t.TotalOTHours, t.TotalOTAmount}
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetSummary, "A", "D", 18)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func optionalFloat(p *float64) interface{} {
	if p == nil {
		return ""
	}
	return *p
}
