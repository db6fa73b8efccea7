// =============================================================================
// Sales Loader - Workbook Reader
// =============================================================================
//
// This module streams canonical records out of every sheet of an XLSX
// workbook.
//
// SHEET HANDLING:
//   - Sheets are visited in workbook order.
//   - The first row of a sheet is its header.
//   - A sheet with no rows is skipped silently.
//   - A sheet whose header misses a required field is skipped with a warning;
//     the next sheet is still processed.
//   - Every later row becomes exactly one record.
//
// CELL VALUES:
//   Rows are read with RawCellValue so number formats do not get in the way.
//   A numeric cell in the invoice date column is an Excel serial date and is
//   converted to a time.Time here, before the sanitizers see it.
//   Numbers in the quantity, unit price and customer id columns are passed on
//   in their shortest form, so a stored 2.5499999999999998 arrives as 2.55.
//   Text columns keep the cell text unchanged (stock code "085123" stays).
//
// STREAMING:
//   The reader wraps excelize's forward-only row cursor. It holds one row at
//   a time, cannot be rewound, and must be closed.
//
//   reader, err := xlsxparser.Open(path, xlsxparser.Options{})
//   if err != nil {
//       return err
//   }
//   defer reader.Close()
//
//   for reader.Next() {
//       record := reader.Record()
//       // ...
//   }
//   if err := reader.Err(); err != nil {
//       return err
//   }
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/salesloader/internal/types"
)

// maxExcelSerial is 9999-12-31, the last date Excel can represent.
const maxExcelSerial = 2958465

// rawCells reads cell values without applying number formats.
var rawCells = excelize.Options{RawCellValue: true}

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls which sheets and rows are read.
type Options struct {
	// Sheets restricts reading to the named sheets. Empty means all sheets.
	Sheets []string

	// SkipBlankRows drops data rows whose cells are all blank instead of
	// turning them into all-absent records.
	SkipBlankRows bool

	// Logger receives per-sheet diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) wants(sheet string) bool {
	return len(o.Sheets) == 0 || slices.Contains(o.Sheets, sheet)
}

// =============================================================================
// READER
// =============================================================================

// Reader produces canonical records from a workbook, one row at a time.
type Reader struct {
	file     *excelize.File
	opts     Options
	date1904 bool

	sheets   []string
	next     int
	rows     *excelize.Rows
	mapping  HeaderMapping
	dateCol  int
	numCols  map[int]bool
	rowIndex int

	current types.Record
	reports []types.SheetReport
	err     error
	done    bool
}

// Open opens the workbook at path for streaming.
func Open(path string, opts Options) (*Reader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return NewReader(f, opts), nil
}

// NewReader streams records from an already opened workbook. Close closes f.
func NewReader(f *excelize.File, opts Options) *Reader {
	r := &Reader{
		file:   f,
		opts:   opts,
		sheets: f.GetSheetList(),
	}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}
	return r
}

// Next advances to the next record. It returns false when every sheet has
// been read or an error occurred; check Err afterwards.
func (r *Reader) Next() bool {
	for {
		if r.err != nil || r.done {
			return false
		}

		if r.rows == nil {
			r.openNextSheet()
			continue
		}

		if !r.rows.Next() {
			if err := r.rows.Error(); err != nil {
				r.fail(fmt.Errorf("error reading sheet %q: %w", r.sheetName(), err))
				return false
			}
			r.closeSheet()
			continue
		}
		r.rowIndex++

		cols, err := r.rows.Columns(rawCells)
		if err != nil {
			r.fail(fmt.Errorf("error reading sheet %q row %d: %w", r.sheetName(), r.rowIndex, err))
			return false
		}
		if r.opts.SkipBlankRows && isRowEmpty(cols) {
			continue
		}

		r.current = r.mapping.Record(r.cells(cols))
		r.reports[len(r.reports)-1].Rows++
		return true
	}
}

// Record returns the record produced by the last successful call to Next.
func (r *Reader) Record() types.Record {
	return r.current
}

// Err returns the first error encountered while reading.
func (r *Reader) Err() error {
	return r.err
}

// Sheets returns a report for every sheet visited so far.
func (r *Reader) Sheets() []types.SheetReport {
	return slices.Clone(r.reports)
}

// Close releases the row cursor and the workbook.
func (r *Reader) Close() error {
	r.done = true
	var rowsErr error
	if r.rows != nil {
		rowsErr = r.rows.Close()
		r.rows = nil
	}
	if err := r.file.Close(); err != nil {
		return fmt.Errorf("failed to close workbook: %w", err)
	}
	return rowsErr
}

// =============================================================================
// SHEET TRANSITIONS
// =============================================================================

// openNextSheet moves to the next sheet that has a usable header, or marks
// the reader done.
func (r *Reader) openNextSheet() {
	log := r.opts.logger()

	for r.next < len(r.sheets) {
		name := r.sheets[r.next]
		r.next++

		if !r.opts.wants(name) {
			log.Debug("sheet not selected", "sheet", name)
			continue
		}

		rows, err := r.file.Rows(name)
		if err != nil {
			r.fail(fmt.Errorf("failed to open sheet %q: %w", name, err))
			return
		}

		if !rows.Next() {
			err := rows.Error()
			_ = rows.Close()
			if err != nil {
				r.fail(fmt.Errorf("error reading sheet %q: %w", name, err))
				return
			}
			r.reports = append(r.reports, types.SheetReport{Name: name, Status: types.SheetEmpty})
			log.Debug("skipping empty sheet", "sheet", name)
			continue
		}

		header, err := rows.Columns(rawCells)
		if err != nil {
			_ = rows.Close()
			r.fail(fmt.Errorf("error reading header of sheet %q: %w", name, err))
			return
		}

		mapping := ResolveHeaderStrings(header)
		report := mapping.Report(name)
		r.reports = append(r.reports, report)

		if report.Status == types.SheetSkipped {
			_ = rows.Close()
			log.Warn("skipping sheet", "sheet", name, "missing_columns", report.Missing)
			continue
		}

		log.Info("processing sheet", "sheet", name)
		r.rows = rows
		r.mapping = mapping
		r.dateCol = mapping.Index(types.FieldInvoiceDate)
		r.numCols = numericColumns(mapping)
		r.rowIndex = 1
		return
	}

	r.done = true
}

func (r *Reader) closeSheet() {
	if r.rows != nil {
		_ = r.rows.Close()
		r.rows = nil
	}
	last := r.reports[len(r.reports)-1]
	r.opts.logger().Debug("finished sheet", "sheet", last.Name, "rows", last.Rows)
}

func (r *Reader) sheetName() string {
	if len(r.reports) == 0 {
		return ""
	}
	return r.reports[len(r.reports)-1].Name
}

func (r *Reader) fail(err error) {
	r.err = err
	if r.rows != nil {
		_ = r.rows.Close()
		r.rows = nil
	}
}

// =============================================================================
// CELL CONVERSION
// =============================================================================

// numericFields hold numbers; their raw text is shortened before parsing.
var numericFields = []types.Field{types.FieldQuantity, types.FieldUnitPrice, types.FieldCustomerID}

func numericColumns(m HeaderMapping) map[int]bool {
	cols := make(map[int]bool, len(numericFields))
	for _, f := range numericFields {
		if i := m.Index(f); i >= 0 {
			cols[i] = true
		}
	}
	return cols
}

// cells turns raw cell text into sanitizer input. Blank cells become nil,
// a serial number in the date column becomes a time.Time and numbers in
// numeric columns are shortened.
func (r *Reader) cells(cols []string) []any {
	row := make([]any, len(cols))
	for i, c := range cols {
		switch {
		case strings.TrimSpace(c) == "":
			row[i] = nil
		case i == r.dateCol:
			row[i] = r.dateCell(c)
		case r.numCols[i]:
			row[i] = shortestNumber(c)
		default:
			row[i] = c
		}
	}
	return row
}

// shortestNumber rewrites stored float text in its shortest round-trip form.
// Text that is not a finite number is returned unchanged.
func shortestNumber(c string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return c
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (r *Reader) dateCell(c string) any {
	serial, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
	if err != nil || serial <= 0 || serial > maxExcelSerial {
		return c
	}
	t, err := excelize.ExcelDateToTime(serial, r.date1904)
	if err != nil {
		return c
	}
	return t
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
