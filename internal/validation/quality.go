// =============================================================================
// Sales Loader - Data Quality Checks
// =============================================================================
//
// This module counts suspicious values in the record stream while it is
// being loaded. Nothing is rejected: every record is still inserted. The
// counts end up in the run summary and the inspect report so that whoever
// analyses the table knows how much of it is incomplete.
//
// CHECKS:
//   - missing_invoice, missing_stock_code: identifying text is absent
//   - missing_invoice_date: the date cell was empty or did not parse
//   - zero_quantity, zero_unit_price: zero, which also covers cells that
//     were empty or did not parse
//   - missing_customer_id: guest checkouts, usually legitimate
//
// =============================================================================

package validation

import (
	"sort"

	"github.com/ginjaninja78/salesloader/internal/types"
)

// Issue names one kind of suspicious value.
type Issue string

const (
	MissingInvoice     Issue = "missing_invoice"
	MissingStockCode   Issue = "missing_stock_code"
	MissingInvoiceDate Issue = "missing_invoice_date"
	ZeroQuantity       Issue = "zero_quantity"
	ZeroUnitPrice      Issue = "zero_unit_price"
	MissingCustomerID  Issue = "missing_customer_id"
)

// Check returns the issues found in one record.
func Check(rec types.Record) []Issue {
	var issues []Issue
	if !rec.Invoice.Valid {
		issues = append(issues, MissingInvoice)
	}
	if !rec.StockCode.Valid {
		issues = append(issues, MissingStockCode)
	}
	if !rec.InvoiceDate.Valid {
		issues = append(issues, MissingInvoiceDate)
	}
	if rec.Quantity == 0 {
		issues = append(issues, ZeroQuantity)
	}
	if rec.UnitPrice.IsZero() {
		issues = append(issues, ZeroUnitPrice)
	}
	if !rec.CustomerID.Valid {
		issues = append(issues, MissingCustomerID)
	}
	return issues
}

// =============================================================================
// REPORT
// =============================================================================

// Report holds the issue counts for a run.
type Report struct {
	Records int64           `yaml:"records"`
	Issues  map[Issue]int64 `yaml:"issues,omitempty"`
}

// Add counts one record.
func (r *Report) Add(rec types.Record) {
	r.Records++
	for _, issue := range Check(rec) {
		if r.Issues == nil {
			r.Issues = make(map[Issue]int64)
		}
		r.Issues[issue]++
	}
}

// Count returns the number of records with the issue.
func (r Report) Count(issue Issue) int64 {
	return r.Issues[issue]
}

// LogArgs flattens the counts into slog key/value pairs, sorted by issue.
func (r Report) LogArgs() []any {
	keys := make([]string, 0, len(r.Issues))
	for issue := range r.Issues {
		keys = append(keys, string(issue))
	}
	sort.Strings(keys)

	args := make([]any, 0, 2+2*len(keys))
	args = append(args, "records", r.Records)
	for _, k := range keys {
		args = append(args, k, r.Issues[Issue(k)])
	}
	return args
}

// =============================================================================
// STREAM TRACKING
// =============================================================================

// Stream is the record stream shape shared by the readers and the loader.
type Stream interface {
	Next() bool
	Record() types.Record
	Err() error
}

// Tracker passes a stream through unchanged while counting issues.
type Tracker struct {
	Stream
	report Report
}

// Track wraps s.
func Track(s Stream) *Tracker {
	return &Tracker{Stream: s}
}

// Next advances the wrapped stream and checks the new record.
func (t *Tracker) Next() bool {
	if !t.Stream.Next() {
		return false
	}
	t.report.Add(t.Stream.Record())
	return true
}

// Report returns the counts so far.
func (t *Tracker) Report() Report {
	return t.report
}
