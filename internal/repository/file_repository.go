package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"almanac-platform/internal/models"
	"almanac-platform/pkg/logging"
)

// FileRepository serves day records from the JSON artifact written by the
// generator. The artifact is loaded into memory; writes rewrite the whole file.
type FileRepository struct {
	path   string
	logger *logging.StructuredLogger

	mu    sync.RWMutex
	days  []models.DayRecord
	index map[string]int
}

// NewFileRepository creates a repository for the artifact at path. Call Load
// before serving reads.
func NewFileRepository(path string, logger *logging.StructuredLogger) *FileRepository {
	return &FileRepository{
		path:   path,
		logger: logger,
		index:  make(map[string]int),
	}
}

// Path returns the artifact location
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the artifact into memory, replacing what was loaded before
func (r *FileRepository) Load(ctx context.Context) error {
	days, err := ReadArtifact(r.path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.replaceLocked(days)
	r.mu.Unlock()

	r.logger.Info(ctx, "[REPO_LOAD] Almanac artifact loaded", logging.Fields{
		"path": r.path,
		"days": len(days),
	})
	return nil
}

// Len returns the number of loaded records
func (r *FileRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.days)
}

func (r *FileRepository) replaceLocked(days []models.DayRecord) {
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	r.days = days
	r.index = make(map[string]int, len(days))
	for i := range days {
		r.index[days[i].Date] = i
	}
}

// SaveDays merges records by date and rewrites the artifact
func (r *FileRepository) SaveDays(ctx context.Context, days []models.DayRecord) error {
	if len(days) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	merged := make([]models.DayRecord, len(r.days))
	copy(merged, r.days)
	index := make(map[string]int, len(r.index))
	for k, v := range r.index {
		index[k] = v
	}

	for _, d := range days {
		if err := d.Validate(); err != nil {
			return err
		}
		d.Normalize()
		if i, ok := index[d.Date]; ok {
			merged[i] = d
			continue
		}
		index[d.Date] = len(merged)
		merged = append(merged, d)
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Date < merged[j].Date })
	if err := WriteArtifact(r.path, merged); err != nil {
		return err
	}
	r.replaceLocked(merged)

	r.logger.Debug(ctx, "[REPO_SAVE] Almanac artifact written", logging.Fields{
		"path":  r.path,
		"saved": len(days),
		"total": len(merged),
	})
	return nil
}

// GetDay retrieves the record for one date
func (r *FileRepository) GetDay(ctx context.Context, date string) (*models.DayRecord, error) {
	if _, err := models.ParseCivilDate(date); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[date]
	if !ok {
		return nil, &NotFoundError{Resource: "almanac_day", ID: date}
	}
	rec := r.days[i]
	return &rec, nil
}

// ListDays returns matching records in date order
func (r *FileRepository) ListDays(ctx context.Context, filter DayFilter) ([]models.DayRecord, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.DayRecord, 0)
	for i := range r.days {
		if filter.Matches(&r.days[i]) {
			matched = append(matched, r.days[i])
		}
	}
	total := len(matched)

	if filter.Limit > 0 {
		start := filter.Offset
		if start > total {
			start = total
		}
		end := start + filter.Limit
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}

	return matched, total, nil
}

// ListMonth retrieves every loaded record of a month
func (r *FileRepository) ListMonth(ctx context.Context, year int, month time.Month) ([]models.DayRecord, error) {
	days, _, err := r.ListDays(ctx, monthFilter(year, month))
	return days, err
}

// HealthCheck verifies the artifact is still readable
func (r *FileRepository) HealthCheck(ctx context.Context) error {
	if _, err := os.Stat(r.path); err != nil {
		return fmt.Errorf("almanac artifact unavailable: %w", err)
	}
	return nil
}

// ReadArtifact decodes a JSON array of day records
func ReadArtifact(path string) ([]models.DayRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read almanac artifact: %w", err)
	}

	var days []models.DayRecord
	if err := json.Unmarshal(data, &days); err != nil {
		return nil, fmt.Errorf("failed to parse almanac artifact %s: %w", path, err)
	}
	for i := range days {
		days[i].Normalize()
	}
	return days, nil
}

// EncodeArtifact renders records as the artifact bytes: a pretty printed
// JSON array with two space indentation and a trailing newline.
func EncodeArtifact(days []models.DayRecord) ([]byte, error) {
	if days == nil {
		days = []models.DayRecord{}
	}
	data, err := json.MarshalIndent(days, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode almanac artifact: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteArtifact replaces the artifact at path atomically: the records are
// written to a temp file in the same directory which is then renamed.
func WriteArtifact(path string, days []models.DayRecord) (err error) {
	data, err := EncodeArtifact(days)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set artifact permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace artifact: %w", err)
	}
	return nil
}

// IsNotExist reports whether err means the artifact has not been generated
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
