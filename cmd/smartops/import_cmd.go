package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	v1 "github.com/Jaykumar-Kale/ksh-smartops/internal/api/v1"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/importer"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/model"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/server"
)

type importOptions struct {
	mimeType string
	dryRun   bool
	quiet    bool
}

func newImportCmd(root *rootOptions) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import an overtime spreadsheet (xlsx, xls or csv) into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), root, opts, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&opts.mimeType, "mime", "", "Declared MIME type (default: derived from the file extension)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Parse and validate only, do not write to the database")
	cmd.Flags().BoolVar(&opts.quiet, "quiet", false, "Suppress progress output")
	return cmd
}

// discardWriter 试运行：只计数不落库
type discardWriter struct{}

func (discardWriter) InsertOperations(_ context.Context, ops []*model.Operation) (model.InsertResult, error) {
	return model.InsertResult{Saved: len(ops)}, nil
}

func runImport(ctx context.Context, root *rootOptions, opts importOptions, path string, stdout, stderr io.Writer) error {
	cfg, _, err := loadConfig(root)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Server.DevMode)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	up := importer.Upload{
		Filename:   filepath.Base(path),
		MimeType:   opts.mimeType,
		Data:       data,
		UploadedBy: "cli",
	}
	if up.MimeType == "" {
		up.MimeType = v1.MimeFromFilename(path)
	}

	var coordinator *importer.Coordinator
	if opts.dryRun {
		coordinator = importer.NewCoordinator(discardWriter{}, nil, server.ImporterOptions(cfg, logger))
	} else {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		coordinator = importer.NewCoordinator(st, st, server.ImporterOptions(cfg, logger))
	}

	var (
		summary *model.ImportSummary
		runErr  error
	)
	for evt := range coordinator.ImportStream(ctx, up) {
		switch evt.Type {
		case "done", "error":
			summary, _ = evt.Data.(*model.ImportSummary)
			if evt.Type == "error" {
				runErr = errors.New(evt.Message)
			}
		default:
			if !opts.quiet {
				fmt.Fprintf(stderr, "[%s] %s\n", evt.Type, evt.Message)
			}
		}
	}

	if summary != nil {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	}
	return runErr
}
