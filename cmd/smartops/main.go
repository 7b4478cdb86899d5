package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/config"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/store"
)

// 构建时通过 -ldflags 注入
var (
	version = "dev"
	commit  = "none"
)

type rootOptions struct {
	configPath string
	dataDir    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:           "smartops",
		Short:         "KSH SmartOps - warehouse overtime ingestion and analytics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config.toml (default: next to the executable)")
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "Data directory (overrides config)")

	cmd.AddCommand(
		newServeCmd(&opts),
		newImportCmd(&opts),
		newSeedUsersCmd(&opts),
		newExportCmd(&opts),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig 加载配置并应用命令行覆盖
func loadConfig(opts *rootOptions) (*config.AppConfig, config.LoadConfigInfo, error) {
	var (
		cfg  *config.AppConfig
		info config.LoadConfigInfo
		err  error
	)
	if opts.configPath != "" {
		cfg, info, err = config.LoadFrom(opts.configPath)
	} else {
		cfg, info, err = config.LoadConfigWithInfo()
	}
	if err != nil {
		return nil, info, fmt.Errorf("load config: %w", err)
	}
	if opts.dataDir != "" {
		cfg.Data.DataDir = opts.dataDir
	}
	return cfg, info, nil
}

// openStore 确保数据目录存在并打开数据库
func openStore(cfg *config.AppConfig) (*store.Store, error) {
	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(config.DBPath(cfg, dataDir))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

// newLogger 开发模式输出文本日志，其余输出 JSON
func newLogger(devMode bool) *slog.Logger {
	if devMode {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "smartops %s (%s)\n", version, commit)
		},
	}
}
