package model

import "time"

// RowError 行级错误（行号按含表头的物理行计，从 1 开始）
type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportSummary 单次上传的导入回执
type ImportSummary struct {
	ImportID            string     `json:"importId,omitempty"`
	Sheet               string     `json:"sheet,omitempty"`
	TotalRows           int        `json:"totalRows"`
	SavedCount          int        `json:"savedCount"`
	FailedCount         int        `json:"failedCount"`
	PreValidationErrors []RowError `json:"preValidationErrors"`
	PersistenceErrors   []RowError `json:"persistenceErrors,omitempty"`
}

// InsertFailure 存储层拒绝的单条记录
type InsertFailure struct {
	Index int    // 在提交批次中的下标
	Err   string // 存储层错误信息
}

// InsertResult 批量写入结果（支持部分成功）
type InsertResult struct {
	Saved    int
	Failures []InsertFailure
}

// ImportStatus 导入日志状态
type ImportStatus string

const (
	ImportProcessing ImportStatus = "processing"
	ImportCompleted  ImportStatus = "completed"
	ImportPartial    ImportStatus = "partial"
	ImportFailed     ImportStatus = "failed"
)

// ImportLog 导入日志
type ImportLog struct {
	ID           string       `json:"id"`
	Filename     string       `json:"filename"`
	FileSize     int64        `json:"fileSize"`
	FileHash     string       `json:"fileHash"`
	UploadedBy   string       `json:"uploadedBy,omitempty"`
	Status       ImportStatus `json:"status"`
	TotalRows    int          `json:"totalRows"`
	SavedRows    int          `json:"savedRows"`
	FailedRows   int          `json:"failedRows"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	CompletedAt  *time.Time   `json:"completedAt,omitempty"`
}
