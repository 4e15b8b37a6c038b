package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"almanac-platform/internal/calendar"
	"almanac-platform/internal/models"
)

type previewOptions struct {
	month  string
	filter string
}

func newPreviewCmd(c *cli) *cobra.Command {
	opts := &previewOptions{}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print one month as a calendar grid without writing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd, c, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.month, "month", "m", "", "Month YYYY-MM (default: the month of almanac.start)")
	cmd.Flags().StringVarP(&opts.filter, "filter", "f", "all", "Focus filter: all, farming or business")
	return cmd
}

func runPreview(cmd *cobra.Command, c *cli, opts *previewOptions) error {
	e, err := c.setup(cmd)
	if err != nil {
		return err
	}

	key := opts.month
	if key == "" {
		key = e.cfg.Almanac.Start[:7]
	}
	year, month, err := calendar.ParseMonthKey(key)
	if err != nil {
		return err
	}
	mode, err := calendar.ParseFilterMode(opts.filter)
	if err != nil {
		return err
	}

	gen, err := e.generator()
	if err != nil {
		return err
	}
	first := models.NewCivilDate(year, month, 1)
	last := models.NewCivilDate(year, month, models.DaysIn(year, month))
	days, _, err := gen.Generate(cmd.Context(), first, last)
	if err != nil {
		return err
	}

	printMonth(cmd.OutOrStdout(), key, mode, calendar.Filter(days, mode))
	return nil
}

// printMonth renders the grid followed by the notable days of the month
func printMonth(w io.Writer, key string, mode calendar.FilterMode, days []models.DayRecord) {
	year, month, _ := calendar.ParseMonthKey(key)
	cells := calendar.BuildMonthGrid(year, month, days)

	fmt.Fprintf(w, "%s (%s)\n", calendar.MonthLabel(key), mode.Label())
	fmt.Fprintln(w, strings.Repeat("─", 7*6))
	for _, label := range calendar.WeekdayLabels {
		fmt.Fprintf(w, "%-6s", label)
	}
	fmt.Fprintln(w)

	for _, row := range calendar.Rows(cells) {
		var line strings.Builder
		for _, c := range row {
			if c.IsBlank() {
				line.WriteString(strings.Repeat(" ", 6))
				continue
			}
			badge := calendar.Badge(c.Entry)
			if c.Entry == nil {
				badge = "·"
			}
			fmt.Fprintf(&line, "%3d%-3s", c.DayNumber, badge)
		}
		fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
	}
	fmt.Fprintln(w, strings.Repeat("─", 7*6))

	for _, d := range days {
		if d.Holiday == nil && d.MoonName == nil {
			continue
		}
		fmt.Fprintf(w, "%s  %s", d.Date, calendar.PhaseLabel(d.MoonPhase))
		if d.MoonName != nil {
			fmt.Fprintf(w, " (%s)", *d.MoonName)
		}
		if d.Holiday != nil {
			fmt.Fprintf(w, "  %s", *d.Holiday)
		}
		fmt.Fprintln(w)
	}
}
