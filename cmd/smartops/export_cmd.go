package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Jaykumar-Kale/ksh-smartops/internal/exporter"
	"github.com/Jaykumar-Kale/ksh-smartops/internal/store"
)

type exportOptions struct {
	out       string
	warehouse string
	startDate string
	endDate   string
}

func newExportCmd(root *rootOptions) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export operations and warehouse totals to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), root, opts, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&opts.out, "out", "ot-operations.xlsx", "Output file")
	cmd.Flags().StringVar(&opts.warehouse, "warehouse", "", "Only export this warehouse")
	cmd.Flags().StringVar(&opts.startDate, "start", "", "First operation date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.endDate, "end", "", "Last operation date (YYYY-MM-DD)")
	return cmd
}

// exportFilter 解析命令行过滤条件
func exportFilter(opts exportOptions) (store.OperationFilter, error) {
	f := store.OperationFilter{Warehouse: opts.warehouse}
	for _, p := range []struct {
		name, value string
		dst         **time.Time
	}{{"start", opts.startDate, &f.StartDate}, {"end", opts.endDate, &f.EndDate}} {
		if p.value == "" {
			continue
		}
		t, err := time.ParseInLocation("2006-01-02", p.value, time.UTC)
		if err != nil {
			return f, fmt.Errorf("invalid --%s, expected YYYY-MM-DD", p.name)
		}
		*p.dst = &t
	}
	return f, nil
}

func runExport(ctx context.Context, root *rootOptions, opts exportOptions, stderr io.Writer) error {
	filter, err := exportFilter(opts)
	if err != nil {
		return err
	}
	cfg, _, err := loadConfig(root)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	f, err := exporter.NewExporter(st).Export(ctx, exporter.ExportOptions{
		Filter: filter,
		Progress: func(p exporter.ProgressEvent) {
			fmt.Fprintf(stderr, "[%3d%%] %s\n", p.Percent, p.Stage)
		},
	})
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(opts.out); err != nil {
		return fmt.Errorf("save %s: %w", opts.out, err)
	}
	fmt.Fprintf(stderr, "wrote %s\n", opts.out)
	return nil
}
