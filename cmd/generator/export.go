package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"almanac-platform/internal/calendar"
	"almanac-platform/internal/models"
	"almanac-platform/internal/repository"
	"almanac-platform/internal/services"
	"almanac-platform/pkg/logging"
)

type exportOptions struct {
	format string
	out    string
	start  string
	end    string
	filter string
}

func newExportCmd(c *cli) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored almanac days as iCalendar or CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, c, opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "ics", "Output format: ics or csv")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&opts.start, "start", "", "First date YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.end, "end", "", "Last date YYYY-MM-DD")
	cmd.Flags().StringVarP(&opts.filter, "filter", "f", "all", "Focus filter for csv: all, farming or business")
	return cmd
}

func (o *exportOptions) dayFilter() (repository.DayFilter, error) {
	var filter repository.DayFilter
	if o.start != "" {
		if _, err := models.ParseCivilDate(o.start); err != nil {
			return filter, err
		}
		filter.Start = &o.start
	}
	if o.end != "" {
		if _, err := models.ParseCivilDate(o.end); err != nil {
			return filter, err
		}
		filter.End = &o.end
	}
	return filter, nil
}

func runExport(cmd *cobra.Command, c *cli, opts *exportOptions) (err error) {
	ctx := cmd.Context()

	e, err := c.setup(cmd)
	if err != nil {
		return err
	}
	filter, err := opts.dayFilter()
	if err != nil {
		return err
	}
	mode, err := calendar.ParseFilterMode(opts.filter)
	if err != nil {
		return err
	}
	if opts.format != "ics" && opts.format != "csv" {
		return fmt.Errorf("invalid format %q, expected ics or csv", opts.format)
	}

	store, err := repository.OpenStore(ctx, e.cfg, false, e.logger, e.metrics)
	if err != nil {
		return err
	}
	defer store.Close()

	var w io.Writer = cmd.OutOrStdout()
	if opts.out != "" {
		f, ferr := os.Create(opts.out)
		if ferr != nil {
			return fmt.Errorf("failed to create %s: %w", opts.out, ferr)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	svc := services.NewExportService(store.Repo, services.RealClock{}, e.logger, e.metrics)
	if opts.format == "csv" {
		err = svc.WriteCSV(ctx, w, filter, mode)
	} else {
		err = svc.WriteICS(ctx, w, filter)
	}
	if err != nil {
		return err
	}

	if opts.out != "" {
		e.logger.Info(ctx, "[EXPORT_WRITE] Export written", logging.Fields{
			"path":   opts.out,
			"format": opts.format,
		})
	}
	return nil
}
