// =============================================================================
// Sales Loader - Batch Loader
// =============================================================================
//
// This module drains a record stream into the target store in fixed-size
// batches.
//
// COMMIT MODEL:
//   Every batch is written and committed on its own before the next batch is
//   started. A failure stops the load and returns the error; batches that
//   were already committed stay in the table. There is no run-level
//   transaction and no retry.
//
// MEMORY:
//   Only the current batch is held in memory. Records are pulled from the
//   stream one at a time.
//
// =============================================================================

package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ginjaninja78/salesloader/internal/types"
)

// DefaultBatchSize is used when Options.BatchSize is zero.
const DefaultBatchSize = 10000

// TimestampLayout is the wire format for invoice dates.
const TimestampLayout = "2006-01-02 15:04:05"

// ErrBatchSize is returned for a negative batch size.
var ErrBatchSize = errors.New("batch size must be positive")

// =============================================================================
// INTERFACES
// =============================================================================

// RecordStream is a forward-only source of records. The XLSX and CSV
// readers implement it.
type RecordStream interface {
	Next() bool
	Record() types.Record
	Err() error
}

// BatchWriter writes and commits one batch per call.
type BatchWriter interface {
	WriteBatch(ctx context.Context, rows [][]any) error
	Close() error
}

// Sink opens the single writer used for a whole load.
type Sink interface {
	OpenWriter(ctx context.Context) (BatchWriter, error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context) (BatchWriter, error)

// OpenWriter calls f.
func (f SinkFunc) OpenWriter(ctx context.Context) (BatchWriter, error) {
	return f(ctx)
}

// Observer is told about every committed batch.
type Observer interface {
	BatchCommitted(rows int)
}

// =============================================================================
// LOADER
// =============================================================================

// Options configures a Loader.
type Options struct {
	// BatchSize is the number of rows per write. Default: 10000
	BatchSize int

	// ProgressEvery logs progress every N records. 0 means once per batch.
	ProgressEvery int

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Observer, if set, sees each committed batch.
	Observer Observer
}

// Result summarizes a load.
type Result struct {
	// Inserted is the number of rows in committed batches.
	Inserted int64

	// Batches is the number of committed batches.
	Batches int

	Duration time.Duration
}

// Loader moves records from a stream into a sink.
type Loader struct {
	sink Sink
	opts Options
}

// New validates opts and returns a loader.
func New(sink Sink, opts Options) (*Loader, error) {
	if opts.BatchSize == 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchSize < 0 {
		return nil, fmt.Errorf("%w, got %d", ErrBatchSize, opts.BatchSize)
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = opts.BatchSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Loader{sink: sink, opts: opts}, nil
}

// Load drains stream into the sink.
//
// PARAMETERS:
//   - ctx: Checked between records. Cancelling stops the load at a record
//     boundary; the partial batch in memory is not written.
//   - stream: The record source. Load does not close it.
//
// RETURNS:
//   - The totals for committed batches, also on error.
//   - The first error from the sink, the stream or the context.
func (l *Loader) Load(ctx context.Context, stream RecordStream) (res Result, err error) {
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	writer, err := l.sink.OpenWriter(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to open writer: %w", err)
	}
	defer func() {
		if cerr := writer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close writer: %w", cerr)
		}
	}()

	progress := newProgress(l.opts.Logger, l.opts.ProgressEvery, start)
	batch := make([][]any, 0, l.opts.BatchSize)

	flush := func() error {
		if err := writer.WriteBatch(ctx, batch); err != nil {
			return fmt.Errorf("batch %d: %w", res.Batches+1, err)
		}
		res.Inserted += int64(len(batch))
		res.Batches++
		if l.opts.Observer != nil {
			l.opts.Observer.BatchCommitted(len(batch))
		}
		batch = batch[:0]
		return nil
	}

	for stream.Next() {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("load interrupted after %d rows: %w", res.Inserted, err)
		}

		batch = append(batch, Row(stream.Record()))
		if len(batch) == l.opts.BatchSize {
			if err := flush(); err != nil {
				return res, err
			}
		}
		progress.record(res.Inserted+int64(len(batch)), res.Batches)
	}
	if err := stream.Err(); err != nil {
		return res, fmt.Errorf("failed to read records: %w", err)
	}

	if len(batch) > 0 {
		if err := flush(); err != nil {
			return res, err
		}
	}

	progress.done(res.Inserted, res.Batches)
	return res, nil
}

// =============================================================================
// ROW SERIALIZATION
// =============================================================================

// Row converts a record to driver values in canonical column order. Absent
// values become nil (SQL NULL), timestamps become TimestampLayout text and
// prices their exact decimal text.
func Row(rec types.Record) []any {
	return []any{
		nullString(rec.Invoice.String, rec.Invoice.Valid),
		nullString(rec.StockCode.String, rec.StockCode.Valid),
		nullString(rec.Description.String, rec.Description.Valid),
		rec.Quantity,
		nullTime(rec.InvoiceDate.Time, rec.InvoiceDate.Valid),
		rec.UnitPrice.String(),
		nullInt(rec.CustomerID.Int64, rec.CustomerID.Valid),
		nullString(rec.Country.String, rec.Country.Valid),
	}
}

func nullString(s string, valid bool) any {
	if !valid {
		return nil
	}
	return s
}

func nullInt(n int64, valid bool) any {
	if !valid {
		return nil
	}
	return n
}

func nullTime(t time.Time, valid bool) any {
	if !valid {
		return nil
	}
	return t.Format(TimestampLayout)
}
