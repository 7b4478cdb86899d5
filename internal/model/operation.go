package model

import "time"

// ApprovalStatus 加班审批状态
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid 是否为合法的审批状态
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Operation 统一口径的加班记录（解析产出，入库后由存储层持有）
type Operation struct {
	ID    string `json:"id,omitempty"`
	RowNo int    `json:"-"` // 源表物理行号，仅用于导入回执

	OperationDate  time.Time `json:"operationDate"` // UTC 零点
	WarehouseName  string    `json:"warehouseName"`
	CustomerName   string    `json:"customerName"`
	EmployeeName   string    `json:"employeeName"`
	ContractorName *string   `json:"contractorName,omitempty"`

	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	DurationHours float64   `json:"durationHours"` // 派生字段，不接受外部输入

	OTAmount       float64        `json:"otAmount"`
	RatePerHour    *float64       `json:"ratePerHour,omitempty"`
	ApprovalStatus ApprovalStatus `json:"approvalStatus"`
	Remarks        *string        `json:"remarks,omitempty"`

	SourceFile string    `json:"sourceFile,omitempty"`
	ImportID   string    `json:"importId,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}
