// =============================================================================
// Sales Loader - Shared Types
// =============================================================================
//
// This package contains the types shared by the reader, the loader and the
// storage backends. Keeping them here avoids import cycles between:
//   - converter
//   - xlsxparser / csvparser
//   - loader
//   - storage
//
// =============================================================================

package types

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CANONICAL FIELDS
// =============================================================================

// Field is the name of one canonical output column.
type Field string

// The eight canonical fields, in target table column order.
const (
	FieldInvoice     Field = "invoice"
	FieldStockCode   Field = "stock_code"
	FieldDescription Field = "description"
	FieldQuantity    Field = "quantity"
	FieldInvoiceDate Field = "invoice_date"
	FieldUnitPrice   Field = "unit_price"
	FieldCustomerID  Field = "customer_id"
	FieldCountry     Field = "country"
)

// Fields lists every canonical field in target column order.
var Fields = []Field{
	FieldInvoice,
	FieldStockCode,
	FieldDescription,
	FieldQuantity,
	FieldInvoiceDate,
	FieldUnitPrice,
	FieldCustomerID,
	FieldCountry,
}

// RequiredFields must all resolve to a column for a sheet to be loaded.
var RequiredFields = []Field{
	FieldInvoice,
	FieldStockCode,
	FieldQuantity,
	FieldInvoiceDate,
	FieldUnitPrice,
}

// Columns returns the canonical field names as plain strings.
func Columns() []string {
	cols := make([]string, len(Fields))
	for i, f := range Fields {
		cols[i] = string(f)
	}
	return cols
}

// =============================================================================
// CANONICAL RECORD
// =============================================================================

// Record is one normalized sales line.
//
// Quantity and UnitPrice are always set; an empty or unparseable source cell
// becomes zero. Every other field is absent when Valid is false.
//
// NOTE: a zero Quantity or UnitPrice cannot be told apart from a cell that
// failed to parse. Downstream analysis should treat zero as "zero or unknown".
type Record struct {
	Invoice     sql.NullString
	StockCode   sql.NullString
	Description sql.NullString
	Quantity    int64
	InvoiceDate sql.NullTime
	UnitPrice   decimal.Decimal
	CustomerID  sql.NullInt64
	Country     sql.NullString
}

// =============================================================================
// SHEET REPORT
// =============================================================================

// SheetReport describes what a reader did with one sheet.
type SheetReport struct {
	// Name is the sheet name (the file name for single-sheet sources).
	Name string `yaml:"name"`

	// Status is one of SheetLoaded, SheetEmpty or SheetSkipped.
	Status string `yaml:"status"`

	// Missing lists the required fields the header did not resolve.
	Missing []string `yaml:"missing,omitempty"`

	// Columns maps each resolved canonical field to its source column.
	Columns map[string]int `yaml:"columns,omitempty"`

	// Rows is the number of records produced from the sheet.
	Rows int `yaml:"rows"`
}

// Sheet statuses.
const (
	SheetLoaded  = "loaded"
	SheetEmpty   = "empty"
	SheetSkipped = "skipped"
)
