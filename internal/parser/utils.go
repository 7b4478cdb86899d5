package parser

import (
	"math"
	"strconv"
	"strings"
)

// NormalizeColumnName 规范化列名：转小写后仅保留 a-z 与 0-9
// "Operation Date" / "operation_date" / "OperationDate" 均得到 "operationdate"
func NormalizeColumnName(name string) string {
	name = strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ParseNumber 宽松解析数值文本（千分位、货币符号、空白）
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.NewReplacer(",", "", " ", "", "$", "", "₹", "", "€", "", "£", "").Replace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// cellNumber 将单元格解释为数值
func cellNumber(c Cell) (float64, bool) {
	switch c.Kind {
	case CellNumber:
		return c.Number, true
	case CellText:
		return ParseNumber(c.Text)
	}
	return 0, false
}

// cellString 单元格文本；空串视为缺失
func cellString(c Cell) (string, bool) {
	s := c.String()
	return s, s != ""
}
