package services

import (
	"context"
	"fmt"
	"time"

	"almanac-platform/internal/almanac"
	"almanac-platform/internal/models"
	"almanac-platform/internal/repository"
	"almanac-platform/pkg/logging"
	"almanac-platform/pkg/metrics"
)

// GenerationService runs the almanac generator and stores its output
type GenerationService struct {
	generator *almanac.Generator
	repo      repository.AlmanacRepository
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// GenerationRequest describes one generation run
type GenerationRequest struct {
	Start models.CivilDate
	End   models.CivilDate

	// OutputPath receives the JSON artifact when set
	OutputPath string

	// Load upserts the records into the repository in batches of BatchSize
	Load      bool
	BatchSize int
}

// GenerationResult contains generation statistics
type GenerationResult struct {
	Days          []models.DayRecord
	Stats         almanac.Stats
	OutputPath    string
	LoadedRecords int
	Batches       int
	Duration      time.Duration
}

// NewGenerationService creates a new generation service. repo may be nil
// when requests never set Load.
func NewGenerationService(generator *almanac.Generator, repo repository.AlmanacRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *GenerationService {
	return &GenerationService{
		generator: generator,
		repo:      repo,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// Run generates the requested range, checks it, and writes it out
func (s *GenerationService) Run(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	startTime := time.Now()
	ctx = logging.WithComponent(ctx, "generator")

	s.logger.Info(ctx, "[GENERATE_START] Starting almanac generation", logging.Fields{
		"start":  req.Start.String(),
		"end":    req.End.String(),
		"output": req.OutputPath,
		"load":   req.Load,
		"region": s.generator.Options.Region,
		"stage":  "INITIALIZATION",
	})

	if req.Load && s.repo == nil {
		return nil, fmt.Errorf("load requested but no repository is configured")
	}

	days, stats, err := s.generator.Generate(ctx, req.Start, req.End)
	if err != nil {
		s.metrics.RecordGenerationError("generate_error")
		return nil, fmt.Errorf("failed to generate almanac: %w", err)
	}

	if err := almanac.VerifyContiguous(days); err != nil {
		s.metrics.RecordGenerationError("verify_error")
		return nil, fmt.Errorf("generated almanac failed verification: %w", err)
	}

	if stats.UnknownPhases > 0 {
		s.logger.Warn(ctx, "[GENERATE_UNKNOWN_PHASE] Phase labels could not be mapped", logging.Fields{
			"count":  stats.UnknownPhases,
			"labels": stats.UnknownLabels,
			"stage":  "CLASSIFICATION",
		})
	}

	s.logger.Info(ctx, "[GENERATE_CLASSIFIED] Dates classified", logging.Fields{
		"days":       stats.Days,
		"full_moons": stats.FullMoons,
		"holidays":   stats.Holidays,
		"stage":      "CLASSIFICATION",
	})

	result := &GenerationResult{
		Days:  days,
		Stats: stats,
	}

	if req.OutputPath != "" {
		if err := repository.WriteArtifact(req.OutputPath, days); err != nil {
			s.metrics.RecordGenerationError("write_error")
			return nil, err
		}
		result.OutputPath = req.OutputPath

		s.logger.Info(ctx, "[GENERATE_WRITE] Almanac artifact written", logging.Fields{
			"path":  req.OutputPath,
			"days":  len(days),
			"stage": "OUTPUT",
		})
	}

	if req.Load {
		loaded, batches, err := s.load(ctx, days, req.BatchSize)
		if err != nil {
			s.metrics.RecordGenerationError("load_error")
			return nil, err
		}
		result.LoadedRecords = loaded
		result.Batches = batches
	}

	result.Duration = time.Since(startTime)
	s.metrics.GenerationDuration.Observe(result.Duration.Seconds())
	s.metrics.RecordGeneration(stats.Days, stats.UnknownPhases)

	s.logger.Info(ctx, "[GENERATE_COMPLETE] Almanac generation completed", logging.Fields{
		"days":             stats.Days,
		"unknown_phases":   stats.UnknownPhases,
		"loaded_records":   result.LoadedRecords,
		"batches":          result.Batches,
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}

// load upserts records in batches
func (s *GenerationService) load(ctx context.Context, days []models.DayRecord, batchSize int) (int, int, error) {
	if batchSize <= 0 {
		batchSize = len(days)
	}

	loaded, batches := 0, 0
	for start := 0; start < len(days); start += batchSize {
		end := start + batchSize
		if end > len(days) {
			end = len(days)
		}

		if err := s.repo.SaveDays(ctx, days[start:end]); err != nil {
			return loaded, batches, fmt.Errorf("failed to load batch %d: %w", batches+1, err)
		}
		loaded += end - start
		batches++

		s.logger.Debug(ctx, "[GENERATE_LOAD_BATCH] Batch loaded", logging.Fields{
			"batch": batches,
			"from":  days[start].Date,
			"to":    days[end-1].Date,
			"stage": "LOAD",
		})
	}

	return loaded, batches, nil
}
