package parser

import (
	"reflect"
	"testing"
	"time"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/model"
)

var testHeaders = []string{"Date", "Warehouse", "Customer", "Employee", "Start Time", "End Time", "OT Amount", "Status", "Rate", "Contractor", "Remarks"}

func testRow(cells ...Cell) RawRow {
	return RawRow{Headers: testHeaders, Cells: cells}
}

func fullRow(start, end Cell) RawRow {
	return testRow(
		TextCell("2025-01-10"),
		TextCell(" Bhiwandi "),
		TextCell("Acme"),
		TextCell("Ravi"),
		start,
		end,
		NumberCell(500),
		TextCell("Y"),
		TypedTextCell("125.5"),
		EmptyCell(),
		TextCell("peak season"),
	)
}

func TestRowMapper_CrossMidnight(t *testing.T) {
	t.Parallel()

	op, rej := NewRowMapper(nil, TimePermissive).Map(fullRow(TextCell("22:00"), TextCell("02:00")), 2)
	if rej != nil {
		t.Fatalf("unexpected rejection: %+v", rej)
	}
	if want := time.Date(2025, 1, 11, 2, 0, 0, 0, time.UTC); !op.EndTime.Equal(want) {
		t.Fatalf("end=%v want %v", op.EndTime, want)
	}
	if op.DurationHours != 4.0 {
		t.Fatalf("duration=%v want 4", op.DurationHours)
	}
	if !op.EndTime.After(op.StartTime) {
		t.Fatalf("end must be after start")
	}
}

func TestRowMapper_FieldsAndDefaults(t *testing.T) {
	t.Parallel()

	op, rej := NewRowMapper(nil, TimePermissive).Map(fullRow(NumberCell(0.375), NumberCell(0.5)), 7)
	if rej != nil {
		t.Fatalf("unexpected rejection: %+v", rej)
	}
	if op.RowNo != 7 {
		t.Fatalf("rowNo=%d", op.RowNo)
	}
	if !op.OperationDate.Equal(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date=%v", op.OperationDate)
	}
	if op.WarehouseName != "Bhiwandi" {
		t.Fatalf("warehouse=%q", op.WarehouseName)
	}
	if op.DurationHours != 3 {
		t.Fatalf("duration=%v", op.DurationHours)
	}
	if op.OTAmount != 500 {
		t.Fatalf("otAmount=%v", op.OTAmount)
	}
	if op.RatePerHour == nil || *op.RatePerHour != 125.5 {
		t.Fatalf("rate=%v", op.RatePerHour)
	}
	if op.ContractorName != nil {
		t.Fatalf("contractor should be absent")
	}
	if op.Remarks == nil || *op.Remarks != "peak season" {
		t.Fatalf("remarks=%v", op.Remarks)
	}
	if op.ApprovalStatus != model.ApprovalApproved {
		t.Fatalf("status=%s", op.ApprovalStatus)
	}
}

func TestRowMapper_DurationRounding(t *testing.T) {
	t.Parallel()

	op, rej := NewRowMapper(nil, TimePermissive).Map(fullRow(TextCell("08:00"), TextCell("08:20")), 2)
	if rej != nil {
		t.Fatalf("unexpected rejection: %+v", rej)
	}
	if op.DurationHours != 0.33 {
		t.Fatalf("duration=%v want 0.33", op.DurationHours)
	}
}

func TestRowMapper_MissingEmployee(t *testing.T) {
	t.Parallel()

	row := fullRow(TextCell("09:00"), TextCell("11:00"))
	row.Cells[3] = TextCell("   ")

	op, rej := NewRowMapper(nil, TimePermissive).Map(row, 5)
	if op != nil {
		t.Fatalf("row should not be accepted")
	}
	if rej == nil || !reflect.DeepEqual(rej.MissingFields, []Field{FieldEmployeeName}) {
		t.Fatalf("rejection=%+v", rej)
	}
	if rej.RowNumber != 5 || rej.Message() != "Missing fields: employeeName" {
		t.Fatalf("rejection=%+v message=%q", rej, rej.Message())
	}
}

func TestRowMapper_MissingDateListsTimes(t *testing.T) {
	t.Parallel()

	row := fullRow(TextCell("09:00"), TextCell("11:00"))
	row.Cells[0] = TextCell("someday")
	row.Cells[2] = EmptyCell()

	_, rej := NewRowMapper(nil, TimePermissive).Map(row, 3)
	want := []Field{FieldOperationDate, FieldCustomerName, FieldStartTime, FieldEndTime}
	if rej == nil || !reflect.DeepEqual(rej.MissingFields, want) {
		t.Fatalf("rejection=%+v", rej)
	}
}

func TestRowMapper_ZeroLengthShiftRejected(t *testing.T) {
	t.Parallel()

	_, rej := NewRowMapper(nil, TimePermissive).Map(fullRow(TextCell("09:00"), TextCell("09:00")), 4)
	if rej == nil || rej.Reason != ReasonInvalidTimeRange || len(rej.MissingFields) != 0 {
		t.Fatalf("rejection=%+v", rej)
	}
}

func TestRowMapper_OptionalNumbers(t *testing.T) {
	t.Parallel()

	row := fullRow(TextCell("09:00"), TextCell("11:00"))
	row.Cells[6] = NumberCell(-20)
	row.Cells[8] = TextCell("n/a")

	op, rej := NewRowMapper(nil, TimePermissive).Map(row, 2)
	if rej != nil {
		t.Fatalf("unexpected rejection: %+v", rej)
	}
	if op.OTAmount != 0 || op.RatePerHour != nil {
		t.Fatalf("otAmount=%v rate=%v", op.OTAmount, op.RatePerHour)
	}
}

func TestRowMapper_Idempotent(t *testing.T) {
	t.Parallel()

	m := NewRowMapper(nil, TimePermissive)
	row := fullRow(NumberCell(0.9), TextCell("3:30"))
	a, _ := m.Map(row, 2)
	b, _ := m.Map(row, 2)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("mapping not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestParseApprovalStatus(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		cell Cell
		want model.ApprovalStatus
	}{
		{TextCell("Y"), model.ApprovalApproved},
		{TextCell("approved"), model.ApprovalApproved},
		{TextCell(" YES "), model.ApprovalApproved},
		{TextCell("n"), model.ApprovalRejected},
		{TextCell("Rejected"), model.ApprovalRejected},
		{TextCell(""), model.ApprovalPending},
		{EmptyCell(), model.ApprovalPending},
		{TextCell("maybe"), model.ApprovalPending},
		{BoolCell(true), model.ApprovalPending},
	} {
		if got := ParseApprovalStatus(tc.cell); got != tc.want {
			t.Fatalf("ParseApprovalStatus(%+v)=%s want %s", tc.cell, got, tc.want)
		}
	}
}
