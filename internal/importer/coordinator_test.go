package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/model"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/parser"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/store"
)

// memoryWriter 内存写入器；rejectEmployee 命中的记录模拟存储层约束失败
type memoryWriter struct {
	mu             sync.Mutex
	calls          int
	saved          []*model.Operation
	rejectEmployee string
	err            error
}

func (w *memoryWriter) InsertOperations(_ context.Context, ops []*model.Operation) (model.InsertResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.err != nil {
		return model.InsertResult{}, w.err
	}
	var res model.InsertResult
	for i, op := range ops {
		if w.rejectEmployee != "" && op.EmployeeName == w.rejectEmployee {
			res.Failures = append(res.Failures, model.InsertFailure{Index: i, Err: "UNIQUE constraint failed"})
			continue
		}
		w.saved = append(w.saved, op)
		res.Saved++
	}
	return res, nil
}

var csvHeader = "Date,Warehouse,Customer,Employee,Start Time,End Time,OT Amount,Status\n"

func csvUpload(lines ...string) Upload {
	return Upload{
		Filename: "ot.csv",
		MimeType: parser.MimeCSV,
		Data:     []byte(csvHeader + strings.Join(lines, "\n") + "\n"),
	}
}

func TestImport_MixedRows(t *testing.T) {
	t.Parallel()

	w := &memoryWriter{}
	c := NewCoordinator(w, nil, Options{})
	summary, err := c.Import(context.Background(), csvUpload(
		"2025-01-10,Pune,Acme,Ravi,22:00,02:00,400,yes",
		"2025-01-10,Pune,Acme,,09:00,10:00,0,",
		"2025-01-10,Pune,Acme,Asha,09:00,09:00,0,",
		"2025-01-11,Chakan,Globex,Asha,08:00,10:30,,no",
	))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if summary.TotalRows != 4 || summary.SavedCount != 2 || summary.FailedCount != 2 {
		t.Fatalf("summary=%+v", summary)
	}
	want := []model.RowError{
		{Row: 3, Error: "Missing fields: employeeName"},
		{Row: 4, Error: parser.ReasonInvalidTimeRange},
	}
	if !reflect.DeepEqual(summary.PreValidationErrors, want) {
		t.Fatalf("errors=%+v", summary.PreValidationErrors)
	}
	if w.calls != 1 {
		t.Fatalf("writer calls=%d want 1 bulk write", w.calls)
	}
	if w.saved[0].DurationHours != 4 || w.saved[0].ApprovalStatus != model.ApprovalApproved {
		t.Fatalf("first=%+v", w.saved[0])
	}
	if w.saved[1].ApprovalStatus != model.ApprovalRejected || w.saved[1].SourceFile != "ot.csv" {
		t.Fatalf("second=%+v", w.saved[1])
	}
}

func TestImport_CapacityBeforeProcessing(t *testing.T) {
	t.Parallel()

	lines := make([]string, 6000)
	for i := range lines {
		lines[i] = "2025-01-10,Pune,Acme,Ravi,09:00,10:00,0,"
	}
	w := &memoryWriter{}
	c := NewCoordinator(w, nil, Options{MaxRows: 5000})

	summary, err := c.Import(context.Background(), csvUpload(lines...))
	if !errors.Is(err, ErrTooManyRows) {
		t.Fatalf("expected ErrTooManyRows, got %v", err)
	}
	if summary != nil || w.calls != 0 {
		t.Fatalf("summary=%v calls=%d", summary, w.calls)
	}

	rows := make([]parser.RawRow, 6000)
	if _, err := c.ProcessRows(context.Background(), "Sheet1", rows); !errors.Is(err, ErrTooManyRows) {
		t.Fatalf("expected ErrTooManyRows from ProcessRows, got %v", err)
	}
}

func TestImport_WholeBatchFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	w := &memoryWriter{}
	c := NewCoordinator(w, nil, Options{})

	if _, err := c.Import(ctx, Upload{Filename: "empty.csv", MimeType: parser.MimeCSV, Data: []byte(csvHeader)}); !errors.Is(err, ErrEmptySheet) {
		t.Fatalf("expected ErrEmptySheet, got %v", err)
	}

	summary, err := c.Import(ctx, csvUpload("2025-01-10,,,,,,,", "bad,Pune,Acme,Ravi,09:00,10:00,,"))
	if !errors.Is(err, ErrNoValidRows) {
		t.Fatalf("expected ErrNoValidRows, got %v", err)
	}
	if summary == nil || len(summary.PreValidationErrors) != 2 || summary.FailedCount != 2 {
		t.Fatalf("summary=%+v", summary)
	}

	_, err = c.Import(ctx, Upload{Filename: "x.pdf", MimeType: "application/pdf", Data: []byte("%PDF")})
	var ce *ContainerError
	if !errors.As(err, &ce) || !errors.Is(err, parser.ErrUnsupportedMIME) {
		t.Fatalf("expected ContainerError(unsupported), got %v", err)
	}

	_, err = c.Import(ctx, Upload{Filename: "broken.xlsx", MimeType: parser.MimeXLSX, Data: []byte("PK\x03\x04garbage")})
	if !errors.As(err, &ce) {
		t.Fatalf("expected ContainerError, got %v", err)
	}
	if w.calls != 0 {
		t.Fatalf("writer must not be called, calls=%d", w.calls)
	}
}

func TestImport_PersistenceOutageKeepsRejections(t *testing.T) {
	t.Parallel()

	w := &memoryWriter{err: errors.New("database is locked")}
	c := NewCoordinator(w, nil, Options{})
	summary, err := c.Import(context.Background(), csvUpload(
		"2025-01-10,Pune,Acme,Ravi,09:00,10:00,,",
		"2025-01-10,Pune,Acme,,09:00,10:00,,",
	))
	var pe *PersistenceError
	if !errors.As(err, &pe) || errors.Is(err, ErrNoValidRows) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if summary.SavedCount != 0 || summary.FailedCount != 2 || len(summary.PreValidationErrors) != 1 {
		t.Fatalf("summary=%+v", summary)
	}
}

func TestImport_PartialPersistence(t *testing.T) {
	t.Parallel()

	w := &memoryWriter{rejectEmployee: "Dup"}
	c := NewCoordinator(w, nil, Options{})
	summary, err := c.Import(context.Background(), csvUpload(
		"2025-01-10,Pune,Acme,Ravi,09:00,10:00,,",
		"2025-01-10,Pune,Acme,Dup,09:00,10:00,,",
		"2025-01-10,Pune,Acme,Asha,09:00,10:00,,",
	))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if summary.SavedCount != 2 || summary.FailedCount != 1 {
		t.Fatalf("summary=%+v", summary)
	}
	if len(summary.PersistenceErrors) != 1 || summary.PersistenceErrors[0].Row != 3 {
		t.Fatalf("persistence errors=%+v", summary.PersistenceErrors)
	}
}

func TestProcessRows_ParallelKeepsOrder(t *testing.T) {
	t.Parallel()

	headers := []string{"date", "warehouse", "customer", "employee", "start", "end"}
	rows := make([]parser.RawRow, 1200)
	for i := range rows {
		employee := parser.TextCell(fmt.Sprintf("E%04d", i))
		if i%7 == 0 {
			employee = parser.EmptyCell()
		}
		rows[i] = parser.RawRow{Headers: headers, Cells: []parser.Cell{
			parser.NumberCell(45667),
			parser.TextCell("Pune"),
			parser.TextCell("Acme"),
			employee,
			parser.NumberCell(0.25),
			parser.NumberCell(0.5),
		}}
	}

	serialW, parallelW := &memoryWriter{}, &memoryWriter{}
	serial, err := NewCoordinator(serialW, nil, Options{}).ProcessRows(context.Background(), "Sheet1", rows)
	if err != nil {
		t.Fatalf("serial: %v", err)
	}
	parallel, err := NewCoordinator(parallelW, nil, Options{Workers: 4, ParallelThreshold: 100}).ProcessRows(context.Background(), "Sheet1", rows)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}

	if !reflect.DeepEqual(serial, parallel) {
		t.Fatalf("summaries differ:\n%+v\n%+v", serial, parallel)
	}
	if !reflect.DeepEqual(serialW.saved, parallelW.saved) {
		t.Fatalf("accepted records differ")
	}
	for i := 1; i < len(parallel.PreValidationErrors); i++ {
		if parallel.PreValidationErrors[i-1].Row >= parallel.PreValidationErrors[i].Row {
			t.Fatalf("rejections out of order at %d", i)
		}
	}
	if parallel.PreValidationErrors[0].Row != 2 {
		t.Fatalf("first rejection row=%d want 2", parallel.PreValidationErrors[0].Row)
	}
}

func TestImport_Idempotent(t *testing.T) {
	t.Parallel()

	up := csvUpload(
		"1/10/2025,Pune,Acme,Ravi,0.9,3:30,120,Y",
		"1/11/2025,Pune,Acme,,0.9,3:30,120,Y",
	)
	w1, w2 := &memoryWriter{}, &memoryWriter{}
	s1, err1 := NewCoordinator(w1, nil, Options{}).Import(context.Background(), up)
	s2, err2 := NewCoordinator(w2, nil, Options{}).Import(context.Background(), up)
	if err1 != nil || err2 != nil {
		t.Fatalf("errs: %v %v", err1, err2)
	}
	if !reflect.DeepEqual(s1, s2) || !reflect.DeepEqual(w1.saved, w2.saved) {
		t.Fatalf("re-import differs")
	}
}

func TestImport_XLSXIntoStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st, err := store.New(filepath.Join(t.TempDir(), "smartops.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Operation Date", "Site", "Client", "Staff", "In Time", "Out Time", "OT Pay", "Approval", "Vendor"},
		{45667, "Pune", "Acme", "Ravi", 0.9166666666666666, 0.0833333333333333, 400, "approved", "LabourCo"},
		{45668, "Pune", "Acme", "Asha", "09:00", "11:30", 150, "", ""},
		{45668, "Pune", "", "Asha", "09:00", "11:30", 150, "", ""},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	c := NewCoordinator(st, st, Options{})
	summary, err := c.Import(ctx, Upload{Filename: "jan.xlsx", MimeType: parser.MimeXLSX, Data: buf.Bytes(), UploadedBy: "admin@example.com"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if summary.SavedCount != 2 || summary.FailedCount != 1 || summary.ImportID == "" {
		t.Fatalf("summary=%+v", summary)
	}
	if summary.PreValidationErrors[0].Row != 4 {
		t.Fatalf("errors=%+v", summary.PreValidationErrors)
	}

	page, err := st.ListOperations(ctx, store.OperationQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("stored=%d", page.Total)
	}
	for _, op := range page.Items {
		if op.ImportID != summary.ImportID {
			t.Fatalf("import id=%q want %q", op.ImportID, summary.ImportID)
		}
		if op.EmployeeName == "Ravi" && (op.DurationHours != 4 || op.ContractorName == nil || *op.ContractorName != "LabourCo") {
			t.Fatalf("ravi=%+v", op)
		}
	}

	logs, err := st.ListImportLogs(ctx, 10)
	if err != nil || len(logs) != 1 {
		t.Fatalf("logs=%+v err=%v", logs, err)
	}
	if logs[0].Status != model.ImportPartial || logs[0].SavedRows != 2 || len(logs[0].FileHash) != 64 {
		t.Fatalf("log=%+v", logs[0])
	}
}

func TestImportStream_Events(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(&memoryWriter{}, nil, Options{})
	var types []string
	var last ProgressEvent
	for evt := range c.ImportStream(context.Background(), csvUpload("2025-01-10,Pune,Acme,Ravi,09:00,10:00,,")) {
		types = append(types, evt.Type)
		last = evt
	}
	want := []string{"start", "decoded", "mapped", "saved", "done"}
	if !reflect.DeepEqual(types, want) {
		t.Fatalf("events=%v want %v", types, want)
	}
	if s, ok := last.Data.(*model.ImportSummary); !ok || s.SavedCount != 1 {
		t.Fatalf("done data=%#v", last.Data)
	}
}
