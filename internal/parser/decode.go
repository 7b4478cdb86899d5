package parser

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Format 容器格式
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

// MIME 类型
const (
	MimeXLSX        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeXLS         = "application/vnd.ms-excel"
	MimeOctetStream = "application/octet-stream"
	MimeCSV         = "text/csv"
)

var (
	// ErrUnsupportedMIME 不支持的文件类型（解码前即拒绝）
	ErrUnsupportedMIME = errors.New("unsupported file type")
	// ErrNoWorksheet 工作簿中没有工作表
	ErrNoWorksheet = errors.New("no worksheet found")
	// ErrTooManyRows 数据行超过上限
	ErrTooManyRows = errors.New("too many rows")
	// ErrUnreadable 文件损坏或格式与声明不符
	ErrUnreadable = errors.New("unreadable file")
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DecodeOptions 解码选项
type DecodeOptions struct {
	MaxRows int // 数据行上限（不含表头），<=0 表示不限制
}

// DetectFormat 根据声明的 MIME 类型（必要时嗅探内容）确定容器格式
func DetectFormat(mimeType string, data []byte) (Format, error) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		mt = parsed
	}

	switch mt {
	case MimeXLSX:
		return FormatXLSX, nil
	case MimeXLS, MimeOctetStream:
		// 浏览器常把 csv 也标成 ms-excel
		return sniffFormat(data), nil
	case MimeCSV, "application/csv", "text/comma-separated-values", "text/plain":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMIME, mimeType)
}

func sniffFormat(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatXLSX
	case bytes.HasPrefix(data, oleMagic):
		return FormatXLS
	}
	return FormatCSV
}

// DecodeSheet 解码上传文件的第一个工作表
func DecodeSheet(data []byte, mimeType string, opts DecodeOptions) (*Sheet, error) {
	format, err := DetectFormat(mimeType, data)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatXLSX:
		return decodeXLSX(data, opts)
	case FormatXLS:
		return decodeXLS(data, opts)
	default:
		return decodeCSV(data, opts)
	}
}

// sheetBuilder 逐行收集：首个非空行为表头，空行跳过
type sheetBuilder struct {
	sheet   *Sheet
	maxRows int
}

func newSheetBuilder(name string, maxRows int) *sheetBuilder {
	return &sheetBuilder{sheet: &Sheet{Name: name}, maxRows: maxRows}
}

func (b *sheetBuilder) addHeader(cells []string) bool {
	headers := make([]string, len(cells))
	blank := true
	for i, c := range cells {
		headers[i] = strings.TrimSpace(c)
		if headers[i] != "" {
			blank = false
		}
	}
	if blank {
		return false
	}
	b.sheet.Headers = headers
	return true
}

func (b *sheetBuilder) addRow(cells []Cell) error {
	row := RawRow{Headers: b.sheet.Headers, Cells: make([]Cell, len(b.sheet.Headers))}
	for i := range row.Cells {
		if i < len(cells) {
			row.Cells[i] = cells[i]
		}
	}
	if row.IsBlank() {
		return nil
	}
	if b.maxRows > 0 && len(b.sheet.Rows) >= b.maxRows {
		return fmt.Errorf("%w: limit is %d", ErrTooManyRows, b.maxRows)
	}
	b.sheet.Rows = append(b.sheet.Rows, row)
	return nil
}

func decodeXLSX(data []byte, opts DecodeOptions) (*Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open excel: %v", ErrUnreadable, err)
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, ErrNoWorksheet
	}

	rows, err := f.Rows(name)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet: %v", ErrUnreadable, err)
	}
	defer rows.Close()

	b := newSheetBuilder(name, opts.MaxRows)
	rowNum := 0
	for rows.Next() {
		rowNum++
		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrUnreadable, rowNum, err)
		}
		if b.sheet.Headers == nil {
			b.addHeader(cols)
			continue
		}
		cells := make([]Cell, len(cols))
		for i, raw := range cols {
			cells[i] = xlsxCell(f, name, i+1, rowNum, raw)
		}
		if err := b.addRow(cells); err != nil {
			return nil, err
		}
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return b.sheet, nil
}

// xlsxCell 按单元格类型还原原始值
func xlsxCell(f *excelize.File, sheet string, col, row int, raw string) Cell {
	if strings.TrimSpace(raw) == "" {
		return EmptyCell()
	}
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return TextCell(raw)
	}
	typ, err := f.GetCellType(sheet, ref)
	if err != nil {
		return TextCell(raw)
	}

	switch typ {
	case excelize.CellTypeBool:
		return BoolCell(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeDate:
		if t, ok := ParseDateString(raw); ok {
			return InstantCell(t)
		}
		return TextCell(raw)
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return NumberCell(n)
		}
		return TextCell(raw)
	case excelize.CellTypeError:
		return EmptyCell()
	}
	return TextCell(raw)
}

func decodeXLS(data []byte, opts DecodeOptions) (sheet *Sheet, err error) {
	// 旧版 xls 解析库遇到损坏文件可能 panic
	defer func() {
		if r := recover(); r != nil {
			sheet, err = nil, fmt.Errorf("%w: %v", ErrUnreadable, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open xls: %v", ErrUnreadable, err)
	}
	if wb.NumSheets() == 0 {
		return nil, ErrNoWorksheet
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, ErrNoWorksheet
	}

	b := newSheetBuilder(ws.Name, opts.MaxRows)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			continue
		}
		values := make([]string, row.LastCol())
		for c := range values {
			values[c] = row.Col(c)
		}
		if b.sheet.Headers == nil {
			b.addHeader(values)
			continue
		}
		cells := make([]Cell, len(values))
		for c, v := range values {
			cells[c] = TypedTextCell(v)
		}
		if err := b.addRow(cells); err != nil {
			return nil, err
		}
	}
	return b.sheet, nil
}
