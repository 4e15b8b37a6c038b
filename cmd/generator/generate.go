package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"almanac-platform/internal/config"
	"almanac-platform/internal/repository"
	"almanac-platform/internal/services"
	"almanac-platform/pkg/logging"
)

type generateOptions struct {
	start     string
	end       string
	out       string
	load      bool
	batchSize int
}

func newGenerateCmd(c *cli) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the almanac artifact for a date range",
		Long: `Classify every date in the range and write the JSON artifact.

With --load the records are also upserted into the SQL backend
(storage.backend: sql), applying the schema first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, c, opts)
		},
	}

	cmd.Flags().StringVar(&opts.start, "start", "", "First date YYYY-MM-DD (default almanac.start)")
	cmd.Flags().StringVar(&opts.end, "end", "", "Last date YYYY-MM-DD (default almanac.end)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Artifact path (default storage.data_path)")
	cmd.Flags().BoolVar(&opts.load, "load", false, "Upsert records into the SQL backend")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "Records per load transaction (default almanac.batch_size)")
	return cmd
}

func runGenerate(cmd *cobra.Command, c *cli, opts *generateOptions) error {
	ctx := cmd.Context()

	e, err := c.setup(cmd)
	if err != nil {
		return err
	}
	if opts.start != "" {
		e.cfg.Almanac.Start = opts.start
	}
	if opts.end != "" {
		e.cfg.Almanac.End = opts.end
	}
	if opts.batchSize > 0 {
		e.cfg.Almanac.BatchSize = opts.batchSize
	}
	if opts.out == "" {
		opts.out = e.cfg.Storage.DataPath
	}

	start, end, err := e.cfg.Almanac.Range()
	if err != nil {
		return err
	}
	gen, err := e.generator()
	if err != nil {
		return err
	}

	var repo repository.AlmanacRepository
	if opts.load {
		if e.cfg.Storage.Backend != config.BackendSQL {
			return fmt.Errorf("--load requires storage.backend %q, got %q", config.BackendSQL, e.cfg.Storage.Backend)
		}
		store, err := repository.OpenStore(ctx, e.cfg, true, e.logger, e.metrics)
		if err != nil {
			return err
		}
		defer store.Close()
		repo = store.Repo
	}

	svc := services.NewGenerationService(gen, repo, e.logger, e.metrics)
	result, err := svc.Run(ctx, services.GenerationRequest{
		Start:      start,
		End:        end,
		OutputPath: opts.out,
		Load:       opts.load,
		BatchSize:  e.cfg.Almanac.BatchSize,
	})
	if err != nil {
		e.logger.Error(ctx, "[GENERATE_ERROR] Generation failed", logging.Fields{
			"start": start.String(),
			"end":   end.String(),
		}, err)
		return err
	}

	w := cmd.OutOrStdout()
	banner(w, "GENERATION COMPLETE")
	fmt.Fprintf(w, "Range:          %s .. %s\n", start, end)
	fmt.Fprintf(w, "Days:           %d\n", result.Stats.Days)
	fmt.Fprintf(w, "Full Moons:     %d\n", result.Stats.FullMoons)
	fmt.Fprintf(w, "Holidays:       %d\n", result.Stats.Holidays)
	fmt.Fprintf(w, "Unknown Phases: %d\n", result.Stats.UnknownPhases)
	fmt.Fprintf(w, "Artifact:       %s\n", result.OutputPath)
	if opts.load {
		fmt.Fprintf(w, "Loaded Records: %d (%d batches)\n", result.LoadedRecords, result.Batches)
	}
	fmt.Fprintf(w, "Duration:       %v\n", result.Duration)

	if len(result.Stats.UnknownLabels) > 0 {
		fmt.Fprintf(w, "\nUnmapped phase labels (%d):\n", len(result.Stats.UnknownLabels))
		for _, label := range result.Stats.UnknownLabels {
			fmt.Fprintf(w, "  - %q\n", label)
		}
	}
	return nil
}
