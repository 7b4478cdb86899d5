package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/model"
)

// OperationFilter 加班记录公共过滤条件
type OperationFilter struct {
	Warehouse string     // 为空表示不限仓库
	StartDate *time.Time // 含当日
	EndDate   *time.Time // 含当日
}

// OperationQuery 分页查询条件
type OperationQuery struct {
	OperationFilter
	ApprovalStatus model.ApprovalStatus
	Page           int
	PageSize       int
}

// OperationPage 分页结果
type OperationPage struct {
	Items    []*model.Operation `json:"items"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
}

const operationColumns = `id, operation_date, warehouse_name, customer_name, employee_name, contractor_name,
	start_time, end_time, duration_hours, ot_amount, rate_per_hour, approval_status, remarks,
	source_file, import_id, created_at, updated_at`

// InsertOperations 批量写入加班记录。
// 单事务单语句；个别记录被约束拒绝时只回滚该条，其余照常提交。
// 开启或提交事务失败时返回错误，视为全部未写入。
func (s *Store) InsertOperations(ctx context.Context, ops []*model.Operation) (model.InsertResult, error) {
	var result model.InsertResult
	if len(ops) == 0 {
		return result, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO operations (`+operationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return result, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := s.now()
	saved := 0
	var failures []model.InsertFailure
	for i, op := range ops {
		id := op.ID
		if id == "" {
			id = uuid.NewString()
		}
		status := op.ApprovalStatus
		if status == "" {
			status = model.ApprovalPending
		}
		_, err := stmt.ExecContext(ctx,
			id,
			op.OperationDate.UTC().Format(dateLayout),
			op.WarehouseName,
			op.CustomerName,
			op.EmployeeName,
			nullString(op.ContractorName),
			formatTime(op.StartTime),
			formatTime(op.EndTime),
			op.DurationHours,
			op.OTAmount,
			nullFloat(op.RatePerHour),
			string(status),
			nullString(op.Remarks),
			op.SourceFile,
			op.ImportID,
			formatTime(now),
			formatTime(now),
		)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return model.InsertResult{}, fmt.Errorf("insert operations canceled: %w", ctxErr)
			}
			failures = append(failures, model.InsertFailure{Index: i, Err: err.Error()})
			continue
		}
		op.ID = id
		op.ApprovalStatus = status
		op.CreatedAt, op.UpdatedAt = now, now
		saved++
	}

	if err := tx.Commit(); err != nil {
		return model.InsertResult{}, fmt.Errorf("failed to commit operations: %w", err)
	}
	result.Saved = saved
	result.Failures = failures
	return result, nil
}

// ListOperations 分页查询加班记录（按作业日期倒序）
func (s *Store) ListOperations(ctx context.Context, q OperationQuery) (*OperationPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 500 {
		q.PageSize = 50
	}

	where, args := q.OperationFilter.where()
	if q.ApprovalStatus != "" {
		where = appendCond(where, "approval_status = ?")
		args = append(args, string(q.ApprovalStatus))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM operations`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count operations: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+operationColumns+` FROM operations`+where+`
		ORDER BY operation_date DESC, start_time DESC LIMIT ? OFFSET ?`,
		append(args, q.PageSize, (q.Page-1)*q.PageSize)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	page := &OperationPage{Items: []*model.Operation{}, Total: total, Page: q.Page, PageSize: q.PageSize}
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations failed: %w", err)
	}
	return page, nil
}

// GetOperation 按 ID 查询
func (s *Store) GetOperation(ctx context.Context, id string) (*model.Operation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+operationColumns+` FROM operations WHERE id = ?`, id)
	op, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return op, err
}

// DeleteOperation 删除记录
func (s *Store) DeleteOperation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM operations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete operation: %w", err)
	}
	return requireAffected(res)
}

// UpdateApprovalStatus 更新审批状态
func (s *Store) UpdateApprovalStatus(ctx context.Context, id string, status model.ApprovalStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid approval status %q", status)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE operations SET approval_status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("failed to update approval status: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOperation(r rowScanner) (*model.Operation, error) {
	var (
		op                                    model.Operation
		date, start, end, created, updated    string
		status                                string
		contractor, remarks, source, importID sql.NullString
		rate                                  sql.NullFloat64
	)
	err := r.Scan(&op.ID, &date, &op.WarehouseName, &op.CustomerName, &op.EmployeeName, &contractor,
		&start, &end, &op.DurationHours, &op.OTAmount, &rate, &status, &remarks,
		&source, &importID, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan operation failed: %w", err)
	}

	if op.OperationDate, err = time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid stored date %q: %w", date, err)
	}
	for _, p := range []struct {
		dst *time.Time
		src string
	}{{&op.StartTime, start}, {&op.EndTime, end}, {&op.CreatedAt, created}, {&op.UpdatedAt, updated}} {
		if *p.dst, err = parseTime(p.src); err != nil {
			return nil, err
		}
	}

	op.ApprovalStatus = model.ApprovalStatus(status)
	if contractor.Valid {
		op.ContractorName = &contractor.String
	}
	if remarks.Valid {
		op.Remarks = &remarks.String
	}
	if rate.Valid {
		op.RatePerHour = &rate.Float64
	}
	op.SourceFile = source.String
	op.ImportID = importID.String
	return &op, nil
}

// where 生成 WHERE 子句（以空格开头，无条件时为空串）
func (f OperationFilter) where() (string, []any) {
	var (
		clause string
		args   []any
	)
	if f.Warehouse != "" {
		clause = appendCond(clause, "warehouse_name = ?")
		args = append(args, f.Warehouse)
	}
	if f.StartDate != nil {
		clause = appendCond(clause, "operation_date >= ?")
		args = append(args, f.StartDate.UTC().Format(dateLayout))
	}
	if f.EndDate != nil {
		clause = appendCond(clause, "operation_date <= ?")
		args = append(args, f.EndDate.UTC().Format(dateLayout))
	}
	return clause, args
}

func appendCond(clause, cond string) string {
	if strings.TrimSpace(clause) == "" {
		return " WHERE " + cond
	}
	return clause + " AND " + cond
}
