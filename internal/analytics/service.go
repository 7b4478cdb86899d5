package analytics

import (
	"context"
	"time"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/model"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/store"
)

// Source 分析所需的聚合查询
type Source interface {
	WarehouseTotals(ctx context.Context, f store.OperationFilter) ([]model.WarehouseTotal, error)
	MonthlyTrend(ctx context.Context, year int, warehouse string) ([]model.MonthlyTotal, error)
	ApprovalSummary(ctx context.Context, f store.OperationFilter) ([]model.ApprovalTotal, error)
	MonthlyHours(ctx context.Context, warehouse string) ([]float64, error)
}

// Service 分析服务：统一施加仓库范围并取整
type Service struct {
	src Source
}

// NewService 创建分析服务
func NewService(src Source) *Service {
	return &Service{src: src}
}

// DateRange 可选日期区间（含首尾）
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// WarehouseTotals 仓库维度汇总
func (s *Service) WarehouseTotals(ctx context.Context, warehouse string, r DateRange) ([]model.WarehouseTotal, error) {
	out, err := s.src.WarehouseTotals(ctx, store.OperationFilter{Warehouse: warehouse, StartDate: r.Start, EndDate: r.End})
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].TotalOTHours = Round2(out[i].TotalOTHours)
		out[i].TotalOTAmount = Round2(out[i].TotalOTAmount)
	}
	return out, nil
}

// MonthlyTrend 指定年份逐月汇总
func (s *Service) MonthlyTrend(ctx context.Context, year int, warehouse string) ([]model.MonthlyTotal, error) {
	out, err := s.src.MonthlyTrend(ctx, year, warehouse)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].TotalOTHours = Round2(out[i].TotalOTHours)
		out[i].TotalOTAmount = Round2(out[i].TotalOTAmount)
	}
	return out, nil
}

// ApprovalSummary 审批状态汇总
func (s *Service) ApprovalSummary(ctx context.Context, warehouse string, r DateRange) ([]model.ApprovalTotal, error) {
	out, err := s.src.ApprovalSummary(ctx, store.OperationFilter{Warehouse: warehouse, StartDate: r.Start, EndDate: r.End})
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].TotalOTHours = Round2(out[i].TotalOTHours)
		out[i].TotalOTAmount = Round2(out[i].TotalOTAmount)
	}
	return out, nil
}

// ForecastMonthlyOT 下月加班工时预测
func (s *Service) ForecastMonthlyOT(ctx context.Context, warehouse string) (*model.Forecast, error) {
	hours, err := s.src.MonthlyHours(ctx, warehouse)
	if err != nil {
		return nil, err
	}
	f, err := ForecastNextMonth(hours)
	if err != nil {
		return nil, err
	}
	historical := make([]float64, len(hours))
	for i, h := range hours {
		historical[i] = Round2(h)
	}
	return &model.Forecast{
		Historical:         historical,
		PredictedNextMonth: f.Predicted,
		Slope:              f.Slope,
		Intercept:          f.Intercept,
		Note:               f.Note,
	}, nil
}
