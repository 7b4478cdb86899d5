package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/model"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/parser"
)

// DefaultMaxRows 单次导入行数上限
const DefaultMaxRows = 5000

// OperationWriter 批量持久化加班记录，报告实际写入条数与逐条失败
type OperationWriter interface {
	InsertOperations(ctx context.Context, ops []*model.Operation) (model.InsertResult, error)
}

// ImportLogWriter 导入日志
type ImportLogWriter interface {
	CreateImportLog(ctx context.Context, filename string, fileSize int64, fileHash, uploadedBy string) (string, error)
	FinishImportLog(ctx context.Context, id string, status model.ImportStatus, totalRows, savedRows, failedRows int, errorMessage string) error
}

// Options 导入选项
type Options struct {
	MaxRows           int               // 行数上限，<=0 取 DefaultMaxRows
	Workers           int               // 并行映射的 worker 数，<=1 串行
	ParallelThreshold int               // 行数达到该值才并行
	TimePolicy        parser.TimePolicy // 非标准时间文本的处理策略
	Logger            *slog.Logger
}

// Upload 一次上传
type Upload struct {
	Filename   string
	MimeType   string
	Data       []byte
	UploadedBy string
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`    // start/decoded/mapped/saved/done/error
	Message   string      `json:"message"` // 事件消息
	Data      interface{} `json:"data"`    // 附加数据
	Timestamp time.Time   `json:"timestamp"`
}

// Coordinator 导入协调器：解码 -> 行映射 -> 批量写入 -> 回执
type Coordinator struct {
	writer OperationWriter
	logs   ImportLogWriter
	mapper *parser.RowMapper
	opts   Options
	logger *slog.Logger
}

// NewCoordinator 创建导入协调器；logs 可为 nil
func NewCoordinator(writer OperationWriter, logs ImportLogWriter, opts Options) *Coordinator {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}
	if opts.ParallelThreshold <= 0 {
		opts.ParallelThreshold = 500
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		writer: writer,
		logs:   logs,
		mapper: parser.NewRowMapper(parser.NewFieldMapper(nil), opts.TimePolicy),
		opts:   opts,
		logger: logger.With("component", "importer"),
	}
}

// Import 同步执行一次导入
func (c *Coordinator) Import(ctx context.Context, up Upload) (*model.ImportSummary, error) {
	return c.run(ctx, up, nil)
}

// ImportStream 异步执行导入，返回进度通道；最后一个事件为 done 或 error
func (c *Coordinator) ImportStream(ctx context.Context, up Upload) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 16)

	go func() {
		defer close(progressChan)
		summary, err := c.run(ctx, up, progressChan)
		if err != nil {
			progressChan <- ProgressEvent{Type: "error", Message: err.Error(), Data: summary, Timestamp: time.Now()}
			return
		}
		progressChan <- ProgressEvent{Type: "done", Message: "导入完成", Data: summary, Timestamp: time.Now()}
	}()

	return progressChan
}

func (c *Coordinator) run(ctx context.Context, up Upload, progress chan ProgressEvent) (summary *model.ImportSummary, err error) {
	started := time.Now()
	log := c.logger.With("filename", up.Filename)

	c.sendProgress(progress, "start", "开始导入", map[string]any{"filename": up.Filename, "size": len(up.Data)})

	importID := c.openLog(ctx, up, log)
	defer func() {
		c.closeLog(ctx, importID, summary, err, log)
		if err != nil {
			log.Warn("import failed", "error", err, "elapsed", time.Since(started))
			return
		}
		log.Info("import finished", "rows", summary.TotalRows, "saved", summary.SavedCount,
			"failed", summary.FailedCount, "elapsed", time.Since(started))
	}()

	sheet, err := parser.DecodeSheet(up.Data, up.MimeType, parser.DecodeOptions{MaxRows: c.opts.MaxRows})
	if err != nil {
		if errors.Is(err, parser.ErrTooManyRows) {
			return nil, fmt.Errorf("%w: maximum %d rows allowed per upload", ErrTooManyRows, c.opts.MaxRows)
		}
		return nil, &ContainerError{Filename: up.Filename, Err: err}
	}
	c.sendProgress(progress, "decoded", fmt.Sprintf("解析工作表 %s，共 %d 行", sheet.Name, len(sheet.Rows)),
		map[string]any{"sheet": sheet.Name, "rows": len(sheet.Rows), "headers": sheet.Headers})

	return c.process(ctx, sheet.Name, sheet.Rows, batchMeta{importID: importID, sourceFile: up.Filename}, progress)
}

// ProcessRows 对已解码的行执行映射与写入
func (c *Coordinator) ProcessRows(ctx context.Context, sheetName string, rows []parser.RawRow) (*model.ImportSummary, error) {
	return c.process(ctx, sheetName, rows, batchMeta{}, nil)
}

type batchMeta struct {
	importID   string
	sourceFile string
}

func (c *Coordinator) process(ctx context.Context, sheetName string, rows []parser.RawRow, meta batchMeta, progress chan ProgressEvent) (*model.ImportSummary, error) {
	if len(rows) > c.opts.MaxRows {
		return nil, fmt.Errorf("%w: got %d rows, maximum %d rows allowed per upload", ErrTooManyRows, len(rows), c.opts.MaxRows)
	}
	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	summary := &model.ImportSummary{
		ImportID:            meta.importID,
		Sheet:               sheetName,
		TotalRows:           len(rows),
		PreValidationErrors: []model.RowError{},
	}

	accepted, rejections, err := c.mapRows(ctx, rows)
	if err != nil {
		return nil, err
	}
	for _, rej := range rejections {
		summary.PreValidationErrors = append(summary.PreValidationErrors, model.RowError{Row: rej.RowNumber, Error: rej.Message()})
	}
	c.sendProgress(progress, "mapped", fmt.Sprintf("校验通过 %d 行，拒绝 %d 行", len(accepted), len(rejections)),
		map[string]any{"accepted": len(accepted), "rejected": len(rejections)})

	if len(accepted) == 0 {
		summary.FailedCount = summary.TotalRows
		return summary, ErrNoValidRows
	}

	for _, op := range accepted {
		op.ImportID = meta.importID
		op.SourceFile = meta.sourceFile
	}

	result, err := c.writer.InsertOperations(ctx, accepted)
	if err != nil {
		summary.FailedCount = summary.TotalRows
		return summary, &PersistenceError{Err: err}
	}
	for _, f := range result.Failures {
		row := 0
		if f.Index >= 0 && f.Index < len(accepted) {
			row = accepted[f.Index].RowNo
		}
		summary.PersistenceErrors = append(summary.PersistenceErrors, model.RowError{Row: row, Error: f.Err})
	}
	summary.SavedCount = result.Saved
	summary.FailedCount = summary.TotalRows - result.Saved
	c.sendProgress(progress, "saved", fmt.Sprintf("写入 %d 条", result.Saved), map[string]any{"saved": result.Saved})

	return summary, nil
}

// mapRows 映射全部行；结果按下标回填，保证顺序与物理行号一致
func (c *Coordinator) mapRows(ctx context.Context, rows []parser.RawRow) ([]*model.Operation, []*parser.RowRejection, error) {
	ops := make([]*model.Operation, len(rows))
	rejs := make([]*parser.RowRejection, len(rows))

	headers := rows[0].Headers
	res := c.mapper.Resolve(headers)
	mapOne := func(i int) {
		row := rows[i]
		rowNo := i + 2 // 表头占第 1 行
		if slices.Equal(row.Headers, headers) {
			ops[i], rejs[i] = c.mapper.MapRow(row, res, rowNo)
		} else {
			ops[i], rejs[i] = c.mapper.Map(row, rowNo)
		}
	}

	if c.opts.Workers > 1 && len(rows) >= c.opts.ParallelThreshold {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.opts.Workers)
		chunk := (len(rows) + c.opts.Workers - 1) / c.opts.Workers
		for lo := 0; lo < len(rows); lo += chunk {
			lo, hi := lo, min(lo+chunk, len(rows))
			g.Go(func() error {
				for i := lo; i < hi; i++ {
					if err := gctx.Err(); err != nil {
						return err
					}
					mapOne(i)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}
	} else {
		for i := range rows {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			mapOne(i)
		}
	}

	var accepted []*model.Operation
	var rejected []*parser.RowRejection
	for i := range rows {
		if ops[i] != nil {
			accepted = append(accepted, ops[i])
		} else if rejs[i] != nil {
			rejected = append(rejected, rejs[i])
		}
	}
	return accepted, rejected, nil
}

func (c *Coordinator) openLog(ctx context.Context, up Upload, log *slog.Logger) string {
	if c.logs == nil {
		return ""
	}
	sum := sha256.Sum256(up.Data)
	id, err := c.logs.CreateImportLog(ctx, up.Filename, int64(len(up.Data)), hex.EncodeToString(sum[:]), up.UploadedBy)
	if err != nil {
		log.Warn("create import log failed", "error", err)
		return ""
	}
	return id
}

func (c *Coordinator) closeLog(ctx context.Context, id string, summary *model.ImportSummary, runErr error, log *slog.Logger) {
	if c.logs == nil || id == "" {
		return
	}
	status := model.ImportCompleted
	var total, saved, failed int
	if summary != nil {
		total, saved, failed = summary.TotalRows, summary.SavedCount, summary.FailedCount
	}
	switch {
	case runErr != nil:
		status = model.ImportFailed
	case failed > 0 && saved > 0:
		status = model.ImportPartial
	case saved == 0:
		status = model.ImportFailed
	}
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	// 请求被取消时仍需落日志
	if err := c.logs.FinishImportLog(context.WithoutCancel(ctx), id, status, total, saved, failed, msg); err != nil {
		log.Warn("finish import log failed", "import_id", id, "error", err)
	}
}

// sendProgress 发送进度事件
func (c *Coordinator) sendProgress(ch chan ProgressEvent, typ, msg string, data interface{}) {
	if ch == nil {
		return
	}
	select {
	case ch <- ProgressEvent{Type: typ, Message: msg, Data: data, Timestamp: time.Now()}:
	default:
		// 通道已满，丢弃事件
	}
}
