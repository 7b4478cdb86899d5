package parser

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// CellKind 单元格值类型（在解码边界一次性确定）
type CellKind int

const (
	CellEmpty   CellKind = iota // 空单元格
	CellInstant                 // 绝对时间（原生日期）
	CellNumber                  // 数值：日期列按序列号解释，时间列按日内小数解释
	CellText                    // 文本
	CellBool                    // 布尔
)

// Cell 原始单元格值
type Cell struct {
	Kind    CellKind
	Instant time.Time
	Number  float64
	Text    string // 文本值；由文本识别出的数值也保留原文
	Bool    bool
}

// EmptyCell 空单元格
func EmptyCell() Cell { return Cell{Kind: CellEmpty} }

// InstantCell 日期单元格
func InstantCell(t time.Time) Cell { return Cell{Kind: CellInstant, Instant: t} }

// NumberCell 数值单元格
func NumberCell(n float64) Cell { return Cell{Kind: CellNumber, Number: n} }

// TextCell 文本单元格；空白文本视为空
func TextCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return EmptyCell()
	}
	return Cell{Kind: CellText, Text: s}
}

// TypedTextCell 仅有文本的来源（CSV/旧版 xls）：纯数值文本识别为数值并保留原文
func TypedTextCell(s string) Cell {
	t := strings.TrimSpace(s)
	if t == "" {
		return EmptyCell()
	}
	if n, err := strconv.ParseFloat(t, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return Cell{Kind: CellNumber, Number: n, Text: t}
	}
	return Cell{Kind: CellText, Text: s}
}

// BoolCell 布尔单元格
func BoolCell(b bool) Cell { return Cell{Kind: CellBool, Bool: b} }

// IsEmpty 是否为空
func (c Cell) IsEmpty() bool { return c.Kind == CellEmpty }

// String 单元格的文本表示（去除首尾空白）
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return strings.TrimSpace(c.Text)
	case CellNumber:
		if t := strings.TrimSpace(c.Text); t != "" {
			return t
		}
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellInstant:
		return c.Instant.UTC().Format(time.RFC3339)
	case CellBool:
		return strconv.FormatBool(c.Bool)
	}
	return ""
}

// RawRow 一行原始数据：表头与单元格一一对应
type RawRow struct {
	Headers []string
	Cells   []Cell
}

// Get 按列下标取值，越界视为空
func (r RawRow) Get(idx int) Cell {
	if idx < 0 || idx >= len(r.Cells) {
		return EmptyCell()
	}
	return r.Cells[idx]
}

// IsBlank 整行是否为空
func (r RawRow) IsBlank() bool {
	for _, c := range r.Cells {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// Field 统一口径字段名
type Field string

const (
	FieldOperationDate  Field = "operationDate"
	FieldWarehouseName  Field = "warehouseName"
	FieldCustomerName   Field = "customerName"
	FieldEmployeeName   Field = "employeeName"
	FieldContractorName Field = "contractorName"
	FieldStartTime      Field = "startTime"
	FieldEndTime        Field = "endTime"
	FieldOTAmount       Field = "otAmount"
	FieldApprovalStatus Field = "approvalStatus"
	FieldRemarks        Field = "remarks"
	FieldRatePerHour    Field = "ratePerHour"
)

// RequiredFields 必填字段（按拒绝原因中的列举顺序）
var RequiredFields = []Field{
	FieldOperationDate,
	FieldWarehouseName,
	FieldCustomerName,
	FieldEmployeeName,
	FieldStartTime,
	FieldEndTime,
}

// RowRejection 行级拒绝原因
type RowRejection struct {
	RowNumber     int     `json:"row"`
	MissingFields []Field `json:"missingFields,omitempty"`
	Reason        string  `json:"reason,omitempty"`
}

// Message 面向用户的错误描述
func (r *RowRejection) Message() string {
	if len(r.MissingFields) > 0 {
		names := make([]string, len(r.MissingFields))
		for i, f := range r.MissingFields {
			names[i] = string(f)
		}
		return "Missing fields: " + strings.Join(names, ", ")
	}
	return r.Reason
}

// Sheet 解码后的工作表
type Sheet struct {
	Name    string
	Headers []string
	Rows    []RawRow
}
