package parser

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/model"
)

// ReasonInvalidTimeRange 跨零点修正后结束时间仍不晚于开始时间
const ReasonInvalidTimeRange = "Invalid time range: endTime must be after startTime"

var (
	approvedWords = map[string]bool{"approved": true, "yes": true, "y": true}
	rejectedWords = map[string]bool{"rejected": true, "no": true, "n": true}
)

// ParseApprovalStatus 由原始值推断审批状态，只看该单元格本身
func ParseApprovalStatus(c Cell) model.ApprovalStatus {
	if c.Kind != CellText {
		return model.ApprovalPending
	}
	s := strings.ToLower(strings.TrimSpace(c.Text))
	switch {
	case approvedWords[s]:
		return model.ApprovalApproved
	case rejectedWords[s]:
		return model.ApprovalRejected
	}
	return model.ApprovalPending
}

// RowMapper 行映射器：原始行 -> 统一口径记录
type RowMapper struct {
	mapper *FieldMapper
	policy TimePolicy
}

// NewRowMapper 创建行映射器
func NewRowMapper(mapper *FieldMapper, policy TimePolicy) *RowMapper {
	if mapper == nil {
		mapper = NewFieldMapper(nil)
	}
	return &RowMapper{mapper: mapper, policy: policy}
}

// Resolve 解析表头
func (p *RowMapper) Resolve(headers []string) HeaderResolution {
	return p.mapper.Resolve(headers)
}

// Map 按行自身表头解析并映射
func (p *RowMapper) Map(row RawRow, rowNo int) (*model.Operation, *RowRejection) {
	return p.MapRow(row, p.mapper.Resolve(row.Headers), rowNo)
}

// MapRow 映射单行；返回记录或拒绝原因，二者恰有其一
func (p *RowMapper) MapRow(row RawRow, res HeaderResolution, rowNo int) (*model.Operation, *RowRejection) {
	get := func(f Field) Cell {
		idx, ok := res.Lookup(f)
		if !ok {
			return EmptyCell()
		}
		return row.Get(idx)
	}

	op := &model.Operation{RowNo: rowNo}
	present := make(map[Field]bool, len(RequiredFields))

	if d, ok := CoerceDate(get(FieldOperationDate)); ok {
		op.OperationDate = DateOnly(d)
		present[FieldOperationDate] = true
	}
	op.WarehouseName, present[FieldWarehouseName] = cellString(get(FieldWarehouseName))
	op.CustomerName, present[FieldCustomerName] = cellString(get(FieldCustomerName))
	op.EmployeeName, present[FieldEmployeeName] = cellString(get(FieldEmployeeName))

	if present[FieldOperationDate] {
		op.StartTime, present[FieldStartTime] = CombineDateAndTime(op.OperationDate, get(FieldStartTime), p.policy)
		op.EndTime, present[FieldEndTime] = CombineDateAndTime(op.OperationDate, get(FieldEndTime), p.policy)
	}

	var missing []Field
	for _, f := range RequiredFields {
		if !present[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &RowRejection{RowNumber: rowNo, MissingFields: missing}
	}

	// 跨零点：只修正一次
	if op.EndTime.Before(op.StartTime) {
		op.EndTime = op.EndTime.Add(24 * time.Hour)
	}
	if !op.EndTime.After(op.StartTime) {
		return nil, &RowRejection{RowNumber: rowNo, Reason: ReasonInvalidTimeRange}
	}
	op.DurationHours = DurationHours(op.StartTime, op.EndTime)

	if s, ok := cellString(get(FieldContractorName)); ok {
		op.ContractorName = &s
	}
	if s, ok := cellString(get(FieldRemarks)); ok {
		op.Remarks = &s
	}
	if n, ok := cellNumber(get(FieldOTAmount)); ok && n >= 0 {
		op.OTAmount = n
	}
	if n, ok := cellNumber(get(FieldRatePerHour)); ok && n >= 0 {
		op.RatePerHour = &n
	}
	op.ApprovalStatus = ParseApprovalStatus(get(FieldApprovalStatus))

	return op, nil
}

// DurationHours 工时（小时，保留两位小数）
func DurationHours(start, end time.Time) float64 {
	ms := decimal.NewFromInt(end.Sub(start).Milliseconds())
	return ms.Div(decimal.NewFromInt(3_600_000)).Round(2).InexactFloat64()
}
