// =============================================================================
// Sales Loader - File Utilities
// =============================================================================
//
// This module provides the file handling the CLI needs around a load:
//   - Input checks (existence, size, format detection)
//   - Run IDs
//   - The YAML run summary
//
// SUMMARY FILES:
//   --summary accepts either a file path or an existing directory. For a
//   directory the file name is generated from the summary name format, so
//   repeated runs never overwrite each other.
//
// =============================================================================

package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/salesloader/internal/types"
	"github.com/ginjaninja78/salesloader/internal/validation"
)

// ErrUnsupportedFormat is returned for input files that are neither
// workbooks nor CSV.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// SummaryNameFormat names summary files written into a directory.
const SummaryNameFormat = "load_summary_{timestamp}_{run_id}.yaml"

// =============================================================================
// INPUT FILES
// =============================================================================

// Format is the kind of input file.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// DetectFormat picks the reader for a file from its extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return FormatXLSX, nil
	case ".csv", ".tsv", ".txt":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// CheckInputFile verifies that path is an existing regular file.
func CheckInputFile(path string) error {
	if path == "" {
		return errors.New("no input file given")
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("file not found: %s", path)
		}
		return fmt.Errorf("cannot access %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	return nil
}

// GetFileSize returns the size of a file in bytes.
func GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// =============================================================================
// RUN IDS
// =============================================================================

// NewRunID returns a fresh identifier for one load run.
func NewRunID() string {
	return uuid.New().String()
}

// GenerateFileName fills the {placeholders} of format.
//
// Placeholders:
//
//	{timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//	{uuid}      - A random UUID
//	any key of params
func GenerateFileName(format string, params map[string]string) string {
	name := strings.ReplaceAll(format, "{timestamp}", time.Now().Format("20060102_150405"))
	if strings.Contains(name, "{uuid}") {
		name = strings.ReplaceAll(name, "{uuid}", uuid.New().String())
	}
	for key, value := range params {
		name = strings.ReplaceAll(name, "{"+key+"}", value)
	}
	return name
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary is the record of one load run.
type RunSummary struct {
	RunID      string              `yaml:"run_id"`
	SourceFile string              `yaml:"source_file"`
	Driver     string              `yaml:"driver"`
	Table      string              `yaml:"table"`
	BatchSize  int                 `yaml:"batch_size"`
	StartTime  time.Time           `yaml:"start_time"`
	EndTime    time.Time           `yaml:"end_time"`
	Duration   string              `yaml:"duration"`
	Inserted   int64               `yaml:"rows_inserted"`
	Batches    int                 `yaml:"batches_committed"`
	Verified   *int64              `yaml:"rows_in_table,omitempty"`
	Sheets     []types.SheetReport `yaml:"sheets"`
	Quality    validation.Report   `yaml:"quality"`
	Error      string              `yaml:"error,omitempty"`
}

// SkippedSheets counts the sheets that were not loaded for missing columns.
func (s RunSummary) SkippedSheets() int {
	n := 0
	for _, sheet := range s.Sheets {
		if sheet.Status == types.SheetSkipped {
			n++
		}
	}
	return n
}

// WriteSummary writes the summary as YAML.
//
// PARAMETERS:
//   - summary: The run summary.
//   - path: A file path, or an existing directory to generate a name in.
//
// RETURNS:
//   - The path of the file written.
//   - An error if the file cannot be written.
func WriteSummary(summary RunSummary, path string) (string, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, GenerateFileName(SummaryNameFormat, map[string]string{"run_id": summary.RunID}))
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create summary directory: %w", err)
		}
	}

	data, err := yaml.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}
	return path, nil
}
