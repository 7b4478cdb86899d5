package parser

import (
	"errors"
	"fmt"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		mime string
		data []byte
		want Format
	}{
		{MimeXLSX, nil, FormatXLSX},
		{"text/csv; charset=utf-8", nil, FormatCSV},
		{MimeXLS, []byte("date,warehouse\n"), FormatCSV},
		{MimeXLS, append([]byte{}, oleMagic...), FormatXLS},
		{MimeOctetStream, []byte("PK\x03\x04rest"), FormatXLSX},
	} {
		got, err := DetectFormat(tc.mime, tc.data)
		if err != nil || got != tc.want {
			t.Fatalf("DetectFormat(%q)=%q,%v want %q", tc.mime, got, err, tc.want)
		}
	}

	if _, err := DetectFormat("application/pdf", []byte("%PDF")); !errors.Is(err, ErrUnsupportedMIME) {
		t.Fatalf("expected ErrUnsupportedMIME, got %v", err)
	}
}

func TestDecodeSheet_XLSX(t *testing.T) {
	t.Parallel()

	data := buildWorkbook(t, [][]any{
		{"Date", "Warehouse", "Customer", "Employee", "Start", "End", "Amount", "Approved"},
		{45667, "Bhiwandi", "Acme", "Ravi", 0.9166666666666666, "02:00", 400, true},
		{},
		{"2025-01-11", "Pune", "Globex", "Asha", "09:00", "17:30", "", "yes"},
	})

	sheet, err := DecodeSheet(data, MimeXLSX, DecodeOptions{MaxRows: 10})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sheet.Name != "Sheet1" || len(sheet.Headers) != 8 {
		t.Fatalf("sheet=%q headers=%v", sheet.Name, sheet.Headers)
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("rows=%d want 2 (blank row skipped)", len(sheet.Rows))
	}

	first := sheet.Rows[0]
	if c := first.Get(0); c.Kind != CellNumber || c.Number != 45667 {
		t.Fatalf("date cell=%+v", c)
	}
	if c := first.Get(1); c.Kind != CellText || c.String() != "Bhiwandi" {
		t.Fatalf("warehouse cell=%+v", c)
	}
	if c := first.Get(7); c.Kind != CellBool || !c.Bool {
		t.Fatalf("bool cell=%+v", c)
	}
	if c := sheet.Rows[1].Get(6); !c.IsEmpty() {
		t.Fatalf("empty amount should decode as empty, got %+v", c)
	}

	op, rej := NewRowMapper(nil, TimePermissive).Map(first, 2)
	if rej != nil {
		t.Fatalf("unexpected rejection: %+v", rej)
	}
	if op.DurationHours != 4 {
		t.Fatalf("duration=%v", op.DurationHours)
	}
}

func TestDecodeSheet_TooManyRows(t *testing.T) {
	t.Parallel()

	rows := [][]any{{"Date", "Warehouse"}}
	for i := 0; i < 6; i++ {
		rows = append(rows, []any{"2025-01-10", fmt.Sprintf("W%d", i)})
	}
	data := buildWorkbook(t, rows)

	if _, err := DecodeSheet(data, MimeXLSX, DecodeOptions{MaxRows: 5}); !errors.Is(err, ErrTooManyRows) {
		t.Fatalf("expected ErrTooManyRows, got %v", err)
	}
	sheet, err := DecodeSheet(data, MimeXLSX, DecodeOptions{MaxRows: 6})
	if err != nil || len(sheet.Rows) != 6 {
		t.Fatalf("decode at limit: rows=%v err=%v", sheet, err)
	}
}

func TestDecodeSheet_CorruptWorkbook(t *testing.T) {
	t.Parallel()

	_, err := DecodeSheet([]byte("PK\x03\x04 not really a zip"), MimeXLSX, DecodeOptions{})
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("expected ErrUnreadable, got %v", err)
	}
}

func TestDecodeSheet_CSV(t *testing.T) {
	t.Parallel()

	data := []byte("\xEF\xBB\xBFDate;Warehouse;Employee;Amount\r\n10/01/2025;Chakan;007;1,200\r\n;;;\r\n2025-01-12;Pune;Asha;300\r\n")
	sheet, err := DecodeSheet(data, MimeCSV, DecodeOptions{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sheet.Headers[0] != "Date" {
		t.Fatalf("BOM not stripped: %q", sheet.Headers[0])
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("rows=%d want 2", len(sheet.Rows))
	}
	if c := sheet.Rows[0].Get(2); c.Kind != CellNumber || c.String() != "007" {
		t.Fatalf("employee cell=%+v", c)
	}
	if c := sheet.Rows[0].Get(3); c.Kind != CellText {
		t.Fatalf("amount with separator should stay text, got %+v", c)
	}
	if n, ok := cellNumber(sheet.Rows[0].Get(3)); !ok || n != 1200 {
		t.Fatalf("amount=%v,%v", n, ok)
	}
}

func TestDecodeSheet_CSVWindows1252(t *testing.T) {
	t.Parallel()

	data := []byte("Warehouse,Remarks\nPune,Caf\xe9 shift\n")
	sheet, err := DecodeSheet(data, MimeOctetStream, DecodeOptions{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := sheet.Rows[0].Get(1).String(); got != "Café shift" {
		t.Fatalf("remarks=%q", got)
	}
	if sheet.Headers[1] != "Remarks" {
		t.Fatalf("headers=%v", sheet.Headers)
	}
}
