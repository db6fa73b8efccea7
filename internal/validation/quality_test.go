package validation

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ginjaninja78/salesloader/internal/types"
)

func complete() types.Record {
	return types.Record{
		Invoice:     sql.NullString{String: "536365", Valid: true},
		StockCode:   sql.NullString{String: "85123A", Valid: true},
		Quantity:    6,
		InvoiceDate: sql.NullTime{Time: time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC), Valid: true},
		UnitPrice:   decimal.RequireFromString("2.55"),
		CustomerID:  sql.NullInt64{Int64: 17850, Valid: true},
	}
}

func TestCheck(t *testing.T) {
	assert.Empty(t, Check(complete()))

	assert.Equal(t, []Issue{
		MissingInvoice, MissingStockCode, MissingInvoiceDate, ZeroQuantity, ZeroUnitPrice, MissingCustomerID,
	}, Check(types.Record{}))

	guest := complete()
	guest.CustomerID = sql.NullInt64{}
	assert.Equal(t, []Issue{MissingCustomerID}, Check(guest))
}

type records struct {
	list []types.Record
	pos  int
}

func (r *records) Next() bool {
	if r.pos >= len(r.list) {
		return false
	}
	r.pos++
	return true
}

func (r *records) Record() types.Record { return r.list[r.pos-1] }
func (r *records) Err() error { return nil }

func TestTracker(t *testing.T) {
	noDate := complete()
	noDate.InvoiceDate = sql.NullTime{}

	tr := Track(&records{list: []types.Record{complete(), noDate, {}}})

	var seen int
	for tr.Next() {
		seen++
		_ = tr.Record()
	}
	assert.NoError(t, tr.Err())
	assert.Equal(t, 3, seen)

	report := tr.Report()
	assert.Equal(t, int64(3), report.Records)
	assert.Equal(t, int64(2), report.Count(MissingInvoiceDate))
	assert.Equal(t, int64(1), report.Count(ZeroQuantity))
	assert.Equal(t, int64(0), report.Count("unknown"))

	args := report.LogArgs()
	assert.Equal(t, []any{"records", int64(3)}, args[:2])
	assert.Equal(t, "missing_customer_id", args[2])
}
