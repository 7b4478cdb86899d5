package importer

import (
	"errors"
	"fmt"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/parser"
)

var (
	// ErrEmptySheet 工作表没有数据行
	ErrEmptySheet = errors.New("sheet contains no data rows")
	// ErrNoValidRows 所有行均未通过校验
	ErrNoValidRows = errors.New("no valid rows found in file")
	// ErrTooManyRows 超过单次导入行数上限（任何行处理之前即拒绝）
	ErrTooManyRows = parser.ErrTooManyRows
)

// ContainerError 文件本身无法解析（损坏、类型不支持、没有工作表）
type ContainerError struct {
	Filename string
	Err      error
}

func (e *ContainerError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Filename, e.Err)
}

func (e *ContainerError) Unwrap() error { return e.Err }

// PersistenceError 批量写入整体失败（与行校验失败区分）
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to save operations: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
