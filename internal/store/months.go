package store

import (
	"context"
	"fmt"
)

// YearMonthStat 可用年月统计
type YearMonthStat struct {
	Year       int `json:"year"`
	Month      int `json:"month"`
	Operations int `json:"operations"`
	Warehouses int `json:"warehouses"`
}

// ListAvailableYearMonths 列出存在加班记录的年月（按年/月倒序）
func (s *Store) ListAvailableYearMonths(ctx context.Context, warehouse string) ([]YearMonthStat, error) {
	where, args := OperationFilter{Warehouse: warehouse}.where()
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			CAST(substr(operation_date, 1, 4) AS INTEGER) AS y,
			CAST(substr(operation_date, 6, 2) AS INTEGER) AS m,
			COUNT(1),
			COUNT(DISTINCT warehouse_name)
		FROM operations`+where+`
		GROUP BY y, m
		ORDER BY y DESC, m DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query available months failed: %w", err)
	}
	defer rows.Close()

	out := []YearMonthStat{}
	for rows.Next() {
		var it YearMonthStat
		if err := rows.Scan(&it.Year, &it.Month, &it.Operations, &it.Warehouses); err != nil {
			return nil, fmt.Errorf("scan available months failed: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate available months failed: %w", err)
	}
	return out, nil
}
