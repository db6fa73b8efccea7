// =============================================================================
// Sales Loader - CSV Reader
// =============================================================================
//
// This module streams canonical records out of a CSV export. A CSV file is
// treated as a workbook with a single sheet named after the file, so it goes
// through the same header resolution and sanitizing as an XLSX sheet.
//
// FEATURES:
//   - Configurable delimiter (comma, pipe, tab, semicolon)
//   - Legacy encodings (ISO-8859-1, Windows-1252, ...) decoded to UTF-8
//   - A leading byte order mark is stripped whatever the encoding
//   - Multi-line headers are merged into one header row
//   - One row in memory at a time
//
// DIFFERENCES FROM XLSX:
//   CSV cells are always text, so there are no serial dates. The invoice date
//   column goes through the day-first text layouts only.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/salesloader/internal/config"
	"github.com/ginjaninja78/salesloader/internal/types"
	"github.com/ginjaninja78/salesloader/internal/xlsxparser"
)

// =============================================================================
// READER
// =============================================================================

// Reader produces canonical records from a CSV file.
//
// USAGE:
//
//	reader, err := csvparser.Open(path, settings, logger)
//	if err != nil {
//	    return err
//	}
//	defer reader.Close()
//
//	for reader.Next() {
//	    record := reader.Record()
//	    // ...
//	}
//
//	if err := reader.Err(); err != nil {
//	    return err
//	}
type Reader struct {
	file      *os.File
	reader    *csv.Reader
	settings  config.CSVSettings
	log       *slog.Logger
	mapping   xlsxparser.HeaderMapping
	report    types.SheetReport
	current   types.Record
	rowNumber int
	err       error
	done      bool
}

// Open opens a CSV file and reads its header.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter, encoding and header settings.
//   - logger: Receives the skip warning. nil means slog.Default().
//
// RETURNS:
//   - The reader. A file whose header misses a required field is not an
//     error: the reader reports the file as skipped and yields no records.
//   - An error if the file cannot be opened, decoded or read.
func Open(filePath string, settings config.CSVSettings, logger *slog.Logger) (*Reader, error) {
	if logger == nil {
		logger = slog.Default()
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	decoded, err := decode(file, settings.Encoding)
	if err != nil {
		file.Close()
		return nil, err
	}

	reader := csv.NewReader(bufio.NewReader(decoded))
	configureReader(reader, settings)

	p := &Reader{
		file:     file,
		reader:   reader,
		settings: settings,
		log:      logger,
		report:   types.SheetReport{Name: filepath.Base(filePath)},
	}

	if err := p.readHeaders(); err != nil {
		file.Close()
		return nil, err
	}

	return p, nil
}

// decode wraps r with a decoder for the named encoding. A byte order mark
// overrides the configured encoding.
func decode(r io.Reader, name string) (io.Reader, error) {
	var enc encoding.Encoding = unicode.UTF8
	if name != "" {
		e, err := htmlindex.Get(name)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
		}
		enc = e
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Exports routinely have ragged rows and stray quotes.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
}

// readHeaders reads and merges the header rows, then resolves them.
func (p *Reader) readHeaders() error {
	headerRows := max(p.settings.HeaderRows, 1)
	rows := make([][]string, 0, headerRows)

	for i := 0; i < headerRows; i++ {
		row, err := p.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading header row %d: %w", i+1, err)
		}
		rows = append(rows, row)
		p.rowNumber++
	}

	if len(rows) == 0 {
		p.report.Status = types.SheetEmpty
		p.done = true
		p.log.Debug("skipping empty file", "sheet", p.report.Name)
		return nil
	}

	p.mapping = xlsxparser.ResolveHeaderStrings(mergeHeaders(rows))
	report := p.mapping.Report(p.report.Name)
	p.report = report

	if report.Status == types.SheetSkipped {
		p.done = true
		p.log.Warn("skipping sheet", "sheet", report.Name, "missing_columns", report.Missing)
		return nil
	}

	p.log.Info("processing sheet", "sheet", report.Name)
	return nil
}

// mergeHeaders merges multi-line headers into one row.
//
// MULTI-LINE HEADER HANDLING:
//
//	Row 1: "Invoice", "",      "Unit"
//	Row 2: "No",      "Qty",   "Price"
//	Result: "Invoice No", "Qty", "Unit Price"
func mergeHeaders(rows [][]string) []string {
	if len(rows) == 1 {
		return rows[0]
	}

	maxCols := 0
	for _, row := range rows {
		maxCols = max(maxCols, len(row))
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string
		for _, row := range rows {
			if col < len(row) {
				if value := strings.TrimSpace(row[col]); value != "" {
					parts = append(parts, value)
				}
			}
		}
		headers[col] = strings.Join(parts, " ")
	}
	return headers
}

// Next advances to the next record. Returns false at end of file or on error.
func (p *Reader) Next() bool {
	for {
		if p.err != nil || p.done {
			return false
		}

		row, err := p.reader.Read()
		if errors.Is(err, io.EOF) {
			p.done = true
			p.log.Debug("finished sheet", "sheet", p.report.Name, "rows", p.report.Rows)
			return false
		}
		if err != nil {
			p.err = fmt.Errorf("error reading row %d: %w", p.rowNumber+1, err)
			return false
		}
		p.rowNumber++

		if p.settings.SkipBlankRows && isRowEmpty(row) {
			continue
		}

		p.current = p.mapping.Record(cells(row))
		p.report.Rows++
		return true
	}
}

// cells turns CSV fields into sanitizer input. Blank fields become nil.
func cells(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		if strings.TrimSpace(v) != "" {
			out[i] = v
		}
	}
	return out
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Record returns the current record.
func (p *Reader) Record() types.Record {
	return p.current
}

// Err returns any error that occurred during parsing.
func (p *Reader) Err() error {
	return p.err
}

// Sheets returns the single report for this file.
func (p *Reader) Sheets() []types.SheetReport {
	report := p.report
	report.Missing = slices.Clone(report.Missing)
	return []types.SheetReport{report}
}

// Close closes the underlying file.
func (p *Reader) Close() error {
	p.done = true
	return p.file.Close()
}
