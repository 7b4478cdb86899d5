package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/model"
)

// WarehouseTotals 按仓库汇总（工时倒序）
func (s *Store) WarehouseTotals(ctx context.Context, f OperationFilter) ([]model.WarehouseTotal, error) {
	where, args := f.where()
	rows, err := s.db.QueryContext(ctx, `
		SELECT warehouse_name, COALESCE(SUM(duration_hours), 0), COALESCE(SUM(ot_amount), 0), COUNT(1)
		FROM operations`+where+`
		GROUP BY warehouse_name
		ORDER BY SUM(duration_hours) DESC, warehouse_name
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query warehouse totals failed: %w", err)
	}
	defer rows.Close()

	out := []model.WarehouseTotal{}
	for rows.Next() {
		var it model.WarehouseTotal
		if err := rows.Scan(&it.WarehouseName, &it.TotalOTHours, &it.TotalOTAmount, &it.OperationCount); err != nil {
			return nil, fmt.Errorf("scan warehouse totals failed: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate warehouse totals failed: %w", err)
	}
	return out, nil
}

// MonthlyTrend 指定年份的逐月汇总（按月升序）；year<=0 表示不限年份
func (s *Store) MonthlyTrend(ctx context.Context, year int, warehouse string) ([]model.MonthlyTotal, error) {
	where, args := OperationFilter{Warehouse: warehouse}.where()
	if year > 0 {
		where = appendCond(where, "substr(operation_date, 1, 4) = ?")
		args = append(args, strconv.Itoa(year))
	}
	return s.monthly(ctx, where, args)
}

// MonthlyHours 全部历史的逐月工时（预测输入，按时间升序）
func (s *Store) MonthlyHours(ctx context.Context, warehouse string) ([]float64, error) {
	where, args := OperationFilter{Warehouse: warehouse}.where()
	months, err := s.monthly(ctx, where, args)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(months))
	for i, m := range months {
		out[i] = m.TotalOTHours
	}
	return out, nil
}

func (s *Store) monthly(ctx context.Context, where string, args []any) ([]model.MonthlyTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT CAST(substr(operation_date, 1, 4) AS INTEGER) AS y,
		       CAST(substr(operation_date, 6, 2) AS INTEGER) AS m,
		       COALESCE(SUM(duration_hours), 0), COALESCE(SUM(ot_amount), 0), COUNT(1)
		FROM operations`+where+`
		GROUP BY y, m
		ORDER BY y, m
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query monthly totals failed: %w", err)
	}
	defer rows.Close()

	out := []model.MonthlyTotal{}
	for rows.Next() {
		var it model.MonthlyTotal
		if err := rows.Scan(&it.Year, &it.Month, &it.TotalOTHours, &it.TotalOTAmount, &it.OperationCount); err != nil {
			return nil, fmt.Errorf("scan monthly totals failed: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly totals failed: %w", err)
	}
	return out, nil
}

// ApprovalSummary 按审批状态汇总（条数倒序）
func (s *Store) ApprovalSummary(ctx context.Context, f OperationFilter) ([]model.ApprovalTotal, error) {
	where, args := f.where()
	rows, err := s.db.QueryContext(ctx, `
		SELECT approval_status, COALESCE(SUM(duration_hours), 0), COALESCE(SUM(ot_amount), 0), COUNT(1)
		FROM operations`+where+`
		GROUP BY approval_status
		ORDER BY COUNT(1) DESC, approval_status
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query approval summary failed: %w", err)
	}
	defer rows.Close()

	out := []model.ApprovalTotal{}
	for rows.Next() {
		var (
			it     model.ApprovalTotal
			status string
		)
		if err := rows.Scan(&status, &it.TotalOTHours, &it.TotalOTAmount, &it.OperationCount); err != nil {
			return nil, fmt.Errorf("scan approval summary failed: %w", err)
		}
		it.ApprovalStatus = model.ApprovalStatus(status)
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate approval summary failed: %w", err)
	}
	return out, nil
}
