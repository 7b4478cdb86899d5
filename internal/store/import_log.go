package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/model"
)

// CreateImportLog 创建导入日志，返回 import_log_id
func (s *Store) CreateImportLog(ctx context.Context, filename string, fileSize int64, fileHash, uploadedBy string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_logs (id, filename, file_size, file_hash, uploaded_by, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, filename, fileSize, fileHash, uploadedBy, string(model.ImportProcessing), formatTime(s.now()))
	if err != nil {
		return "", fmt.Errorf("failed to create import log: %w", err)
	}
	return id, nil
}

// FinishImportLog 完成导入日志更新
func (s *Store) FinishImportLog(ctx context.Context, id string, status model.ImportStatus, totalRows, savedRows, failedRows int, errorMessage string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE import_logs SET
			status = ?,
			total_rows = ?,
			saved_rows = ?,
			failed_rows = ?,
			error_message = ?,
			completed_at = ?
		WHERE id = ?
	`, string(status), totalRows, savedRows, failedRows, errorMessage, formatTime(s.now()), id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// ListImportLogs 最近的导入日志（按创建时间倒序）
func (s *Store) ListImportLogs(ctx context.Context, limit int) ([]model.ImportLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, file_size, file_hash, uploaded_by, status, total_rows, saved_rows,
		       failed_rows, error_message, created_at, completed_at
		FROM import_logs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import logs failed: %w", err)
	}
	defer rows.Close()

	out := []model.ImportLog{}
	for rows.Next() {
		var (
			it                  model.ImportLog
			status, created     string
			uploadedBy, message sql.NullString
			completed           sql.NullString
		)
		if err := rows.Scan(&it.ID, &it.Filename, &it.FileSize, &it.FileHash, &uploadedBy, &status,
			&it.TotalRows, &it.SavedRows, &it.FailedRows, &message, &created, &completed); err != nil {
			return nil, fmt.Errorf("scan import log failed: %w", err)
		}
		it.Status = model.ImportStatus(status)
		it.UploadedBy = uploadedBy.String
		it.ErrorMessage = message.String
		if it.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if it.CompletedAt, err = nullTime(completed); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import logs failed: %w", err)
	}
	return out, nil
}

// PurgeImportLogs 删除早于 before 的导入日志，返回删除条数
func (s *Store) PurgeImportLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM import_logs WHERE created_at < ?`, formatTime(before))
	if err != nil {
		return 0, fmt.Errorf("failed to purge import logs: %w", err)
	}
	return res.RowsAffected()
}
