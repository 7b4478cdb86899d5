package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/store"
)

// RetentionStore 导入日志清理所需的存储能力
type RetentionStore interface {
	PurgeImportLogs(ctx context.Context, before time.Time) (int64, error)
	SetSettingTime(ctx context.Context, key string, t time.Time) error
}

// Scheduler 定时任务调度
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewScheduler 创建调度器
func NewScheduler(loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(cron.DiscardLogger))),
		logger: logger.With("component", "jobs"),
	}
}

// AddImportLogRetention 注册导入日志清理任务
func (s *Scheduler) AddImportLogRetention(spec string, st RetentionStore, days int) error {
	if days <= 0 {
		return fmt.Errorf("retention days must be positive, got %d", days)
	}
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := PurgeImportLogs(ctx, st, days, time.Now()); err != nil {
			s.logger.Error("import log retention failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	s.logger.Info("job registered", "job", "import_log_retention", "spec", spec, "days", days)
	return nil
}

// Start 启动调度
func (s *Scheduler) Start() { s.cron.Start() }

// Stop 停止调度并等待运行中的任务结束
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// PurgeImportLogs 删除 days 天前的导入日志并记录执行时间
func PurgeImportLogs(ctx context.Context, st RetentionStore, days int, now time.Time) (int64, error) {
	cutoff := now.AddDate(0, 0, -days)
	n, err := st.PurgeImportLogs(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if err := st.SetSettingTime(ctx, store.SettingLastRetentionRun, now); err != nil {
		return n, err
	}
	slog.Default().Debug("import logs purged", "deleted", n, "cutoff", cutoff)
	return n, nil
}
