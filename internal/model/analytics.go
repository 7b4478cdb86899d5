package model

// WarehouseTotal 仓库维度加班汇总
type WarehouseTotal struct {
	WarehouseName  string  `json:"warehouseName"`
	TotalOTHours   float64 `json:"totalOTHours"`
	TotalOTAmount  float64 `json:"totalOTAmount"`
	OperationCount int     `json:"operationCount"`
}

// MonthlyTotal 月度加班汇总
type MonthlyTotal struct {
	Year           int     `json:"year"`
	Month          int     `json:"month"`
	TotalOTHours   float64 `json:"totalOTHours"`
	TotalOTAmount  float64 `json:"totalOTAmount"`
	OperationCount int     `json:"operationCount"`
}

// ApprovalTotal 审批状态汇总
type ApprovalTotal struct {
	ApprovalStatus ApprovalStatus `json:"approvalStatus"`
	TotalOTHours   float64        `json:"totalOTHours"`
	TotalOTAmount  float64        `json:"totalOTAmount"`
	OperationCount int            `json:"operationCount"`
}

// Forecast 下月加班工时预测
type Forecast struct {
	Historical         []float64 `json:"historical"`
	PredictedNextMonth float64   `json:"predictedNextMonth"`
	Slope              *float64  `json:"slope,omitempty"`
	Intercept          *float64  `json:"intercept,omitempty"`
	Note               string    `json:"note,omitempty"`
}
