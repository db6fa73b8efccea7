package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/salesloader/internal/types"
)

// sliceStream yields a fixed list of records, then err.
type sliceStream struct {
	records []types.Record
	pos     int
	err     error
}

func (s *sliceStream) Next() bool {
	if s.pos >= len(s.records) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceStream) Record() types.Record { return s.records[s.pos-1] }
func (s *sliceStream) Err() error { return s.err }

func numbered(n int) *sliceStream {
	s := &sliceStream{}
	for i := 0; i < n; i++ {
		s.records = append(s.records, types.Record{
			Invoice:   sql.NullString{String: fmt.Sprint(i), Valid: true},
			Quantity:  int64(i),
			UnitPrice: decimal.NewFromInt(1),
		})
	}
	return s
}

// fakeWriter records batches and can fail on a given call.
type fakeWriter struct {
	batches [][][]any
	failOn  int
	opened  int
	closed  int
}

func (w *fakeWriter) OpenWriter(context.Context) (BatchWriter, error) {
	w.opened++
	return w, nil
}

func (w *fakeWriter) WriteBatch(_ context.Context, rows [][]any) error {
	if w.failOn > 0 && len(w.batches)+1 == w.failOn {
		return errors.New("deadlock found")
	}
	cp := make([][]any, len(rows))
	copy(cp, rows)
	w.batches = append(w.batches, cp)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed++
	return nil
}

type countingObserver struct{ rows, batches int }

func (o *countingObserver) BatchCommitted(rows int) {
	o.rows += rows
	o.batches++
}

func TestLoad_BatchCount(t *testing.T) {
	tests := []struct {
		records, batchSize, wantBatches, wantLast int
	}{
		{0, 3, 0, 0},
		{1, 3, 1, 1},
		{3, 3, 1, 3},
		{7, 3, 3, 1},
		{9, 3, 3, 3},
		{10, 1, 10, 1},
		{25000, 10000, 3, 5000},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.records, tt.batchSize), func(t *testing.T) {
			w := &fakeWriter{}
			obs := &countingObserver{}
			l, err := New(w, Options{BatchSize: tt.batchSize, Observer: obs})
			require.NoError(t, err)

			res, err := l.Load(context.Background(), numbered(tt.records))
			require.NoError(t, err)

			assert.Equal(t, int64(tt.records), res.Inserted)
			assert.Equal(t, tt.wantBatches, res.Batches)
			assert.Len(t, w.batches, tt.wantBatches)
			assert.Equal(t, 1, w.opened)
			assert.Equal(t, 1, w.closed)
			assert.Equal(t, tt.records, obs.rows)
			assert.Equal(t, tt.wantBatches, obs.batches)

			if tt.wantBatches > 0 {
				assert.Len(t, w.batches[len(w.batches)-1], tt.wantLast)
			}
		})
	}
}

func TestLoad_PreservesOrder(t *testing.T) {
	w := &fakeWriter{}
	l, err := New(w, Options{BatchSize: 4})
	require.NoError(t, err)

	_, err = l.Load(context.Background(), numbered(10))
	require.NoError(t, err)

	i := 0
	for _, batch := range w.batches {
		for _, row := range batch {
			assert.Equal(t, fmt.Sprint(i), row[0])
			i++
		}
	}
	assert.Equal(t, 10, i)
}

func TestLoad_StoreErrorKeepsCommittedBatches(t *testing.T) {
	w := &fakeWriter{failOn: 3}
	l, err := New(w, Options{BatchSize: 2})
	require.NoError(t, err)

	res, err := l.Load(context.Background(), numbered(9))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch 3")
	assert.Contains(t, err.Error(), "deadlock found")

	assert.Equal(t, int64(4), res.Inserted)
	assert.Equal(t, 2, res.Batches)
	assert.Len(t, w.batches, 2)
	assert.Equal(t, 1, w.closed)
}

func TestLoad_StreamError(t *testing.T) {
	w := &fakeWriter{}
	stream := numbered(5)
	stream.err = errors.New("zip: not a valid zip file")

	l, err := New(w, Options{BatchSize: 2})
	require.NoError(t, err)

	res, err := l.Load(context.Background(), stream)
	require.ErrorIs(t, err, stream.err)
	assert.Equal(t, int64(4), res.Inserted)
	assert.Equal(t, 1, w.closed)
}

func TestLoad_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := &fakeWriter{}
	l, err := New(w, Options{BatchSize: 2})
	require.NoError(t, err)

	res, err := l.Load(ctx, numbered(5))
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Inserted)
	assert.Empty(t, w.batches)
	assert.Equal(t, 1, w.closed)
}

func TestLoad_OpenWriterError(t *testing.T) {
	boom := errors.New("connection refused")
	sink := SinkFunc(func(context.Context) (BatchWriter, error) { return nil, boom })

	l, err := New(sink, Options{})
	require.NoError(t, err)

	_, err = l.Load(context.Background(), numbered(1))
	require.ErrorIs(t, err, boom)
}

func TestNew_BatchSize(t *testing.T) {
	_, err := New(&fakeWriter{}, Options{BatchSize: -1})
	require.ErrorIs(t, err, ErrBatchSize)

	l, err := New(&fakeWriter{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBatchSize, l.opts.BatchSize)
	assert.Equal(t, DefaultBatchSize, l.opts.ProgressEvery)
}

func TestRow(t *testing.T) {
	full := types.Record{
		Invoice:     sql.NullString{String: "536365", Valid: true},
		StockCode:   sql.NullString{String: "85123A", Valid: true},
		Description: sql.NullString{String: "WHITE HANGING HEART T-LIGHT HOLDER", Valid: true},
		Quantity:    6,
		InvoiceDate: sql.NullTime{Time: time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC), Valid: true},
		UnitPrice:   decimal.RequireFromString("2.55"),
		CustomerID:  sql.NullInt64{Int64: 17850, Valid: true},
		Country:     sql.NullString{String: "United Kingdom", Valid: true},
	}
	assert.Equal(t, []any{
		"536365", "85123A", "WHITE HANGING HEART T-LIGHT HOLDER", int64(6),
		"2010-12-01 08:26:00", "2.55", int64(17850), "United Kingdom",
	}, Row(full))

	empty := Row(types.Record{})
	assert.Equal(t, []any{nil, nil, nil, int64(0), nil, "0", nil, nil}, empty)
}
