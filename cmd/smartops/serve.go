package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/jobs"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/server"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/util"
)

type serveOptions struct {
	port    int
	devMode bool
	open    bool
}

func newServeCmd(root *rootOptions) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), root, opts)
		},
	}
	cmd.Flags().IntVar(&opts.port, "port", 0, "Server port (config.toml wins when it sets port explicitly)")
	cmd.Flags().BoolVar(&opts.devMode, "dev", false, "Development mode")
	cmd.Flags().BoolVar(&opts.open, "open", false, "Open the server address in a browser after start")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, opts serveOptions) error {
	cfg, info, err := loadConfig(root)
	if err != nil {
		return err
	}
	// 命令行参数覆盖配置
	if opts.port > 0 && !info.PortSpecified {
		cfg.Server.Port = opts.port
	}
	if opts.devMode {
		cfg.Server.DevMode = true
	}

	logger := newLogger(cfg.Server.DevMode)
	slog.SetDefault(logger)
	if info.Path != "" {
		logger.Info("config loaded", "path", info.Path)
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	srv, err := server.NewServer(cfg, st, logger)
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation(cfg.Jobs.Timezone)
	if err != nil {
		return fmt.Errorf("jobs timezone: %w", err)
	}
	scheduler := jobs.NewScheduler(loc, logger)
	if cfg.Jobs.RetentionSpec != "" {
		if err := scheduler.AddImportLogRetention(cfg.Jobs.RetentionSpec, st, cfg.Jobs.RetentionDays); err != nil {
			return err
		}
	}
	scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(fmt.Sprintf(":%d", cfg.Server.Port))
	}()

	if opts.open {
		url := fmt.Sprintf("http://localhost:%d/", cfg.Server.Port)
		if oerr := util.OpenBrowser(url); oerr != nil {
			logger.Warn("open browser failed", "url", url, "error", oerr)
		}
	}

	select {
	case err = <-errCh:
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		logger.Error("server shutdown failed", "error", serr)
	}
	scheduler.Stop(shutdownCtx)
	return err
}
