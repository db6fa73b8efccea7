// =============================================================================
// Sales Loader - Header Resolver
// =============================================================================
//
// This module maps an arbitrary header row onto the eight canonical fields.
// Exports of the same dataset spell their headers differently ("Invoice No",
// "InvoiceNo", "invoice"), so each canonical field carries an ordered list of
// synonyms.
//
// MATCHING:
//   Header cells and synonyms are normalized the same way:
//     1. Unicode NFKC (full-width letters, non-breaking spaces)
//     2. Case folding
//     3. Every rune that is not a letter or digit is dropped
//   "Invoice No", "INVOICE_NO" and "invoiceno" all normalize to "invoiceno".
//
// PRIORITY:
//   The synonym list order is the tie-break: the first synonym present in the
//   header wins, even if a later synonym sits in an earlier column.
//
// =============================================================================

package xlsxparser

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/ginjaninja78/salesloader/internal/converter"
	"github.com/ginjaninja78/salesloader/internal/types"
)

// Unresolved marks a canonical field with no matching header column.
const Unresolved = -1

// Synonyms lists the accepted header spellings for each canonical field, in
// priority order.
var Synonyms = map[types.Field][]string{
	types.FieldInvoice:     {"invoice", "invoiceno", "invoice no"},
	types.FieldStockCode:   {"stockcode", "stock code", "productid", "product id"},
	types.FieldDescription: {"description", "productdescription", "product description"},
	types.FieldQuantity:    {"quantity", "qty"},
	types.FieldInvoiceDate: {"invoicedate", "invoice date", "orderdate", "order date"},
	types.FieldUnitPrice:   {"unitprice", "unit price", "price"},
	types.FieldCustomerID:  {"customerid", "customer id"},
	types.FieldCountry:     {"country", "region"},
}

// =============================================================================
// HEADER MAPPING
// =============================================================================

// HeaderMapping maps each canonical field to a zero-based column index, or
// Unresolved. It is built once per sheet and not modified afterwards.
type HeaderMapping struct {
	index map[types.Field]int
}

// Index returns the column for a field, or Unresolved.
func (m HeaderMapping) Index(f types.Field) int {
	if i, ok := m.index[f]; ok {
		return i
	}
	return Unresolved
}

// Missing returns the required fields that did not resolve, in the order of
// types.RequiredFields. An empty result means the sheet is usable.
func (m HeaderMapping) Missing() []types.Field {
	var missing []types.Field
	for _, f := range types.RequiredFields {
		if m.Index(f) == Unresolved {
			missing = append(missing, f)
		}
	}
	return missing
}

// Usable reports whether every required field resolved.
func (m HeaderMapping) Usable() bool {
	return len(m.Missing()) == 0
}

// Value returns the cell for a field from a data row. Unresolved fields and
// indexes past the end of a short row are absent (nil).
func (m HeaderMapping) Value(row []any, f types.Field) any {
	i := m.Index(f)
	if i == Unresolved || i >= len(row) {
		return nil
	}
	return row[i]
}

// =============================================================================
// RESOLVER
// =============================================================================

// ResolveHeaders builds the HeaderMapping for a header row.
//
// PARAMETERS:
//   - header: The raw header cells. nil and blank cells are ignored.
//
// RETURNS:
//   - The mapping. Unresolved fields are reported through Missing, never as
//     an error; deciding what to do with an unusable sheet is up to the
//     caller.
func ResolveHeaders(header []any) HeaderMapping {
	lookup := make(map[string]int, len(header))
	for i, cell := range header {
		if cell == nil {
			continue
		}
		key := NormalizeHeader(converter.ToString(cell).String)
		if key == "" {
			continue
		}
		// Right-most column wins when two headers normalize the same way.
		lookup[key] = i
	}

	mapping := HeaderMapping{index: make(map[types.Field]int, len(types.Fields))}
	for _, field := range types.Fields {
		mapping.index[field] = Unresolved
		for _, synonym := range Synonyms[field] {
			if i, ok := lookup[NormalizeHeader(synonym)]; ok {
				mapping.index[field] = i
				break
			}
		}
	}
	return mapping
}

// ResolveHeaderStrings is ResolveHeaders for readers that produce text cells.
func ResolveHeaderStrings(header []string) HeaderMapping {
	cells := make([]any, len(header))
	for i, h := range header {
		cells[i] = h
	}
	return ResolveHeaders(cells)
}

// NormalizeHeader lower-cases a header and strips every rune that is not a
// letter or digit.
func NormalizeHeader(s string) string {
	s = cases.Fold().String(norm.NFKC.String(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// =============================================================================
// RECORD BUILDING
// =============================================================================

// Record sanitizes one data row into a canonical record. Quantity and unit
// price fall back to zero; every other field may be absent.
func (m HeaderMapping) Record(row []any) types.Record {
	return types.Record{
		Invoice:     converter.ToString(m.Value(row, types.FieldInvoice)),
		StockCode:   converter.ToString(m.Value(row, types.FieldStockCode)),
		Description: converter.ToString(m.Value(row, types.FieldDescription)),
		Quantity:    converter.QuantityOrZero(converter.ToInt(m.Value(row, types.FieldQuantity))),
		InvoiceDate: converter.ToTimestamp(m.Value(row, types.FieldInvoiceDate)),
		UnitPrice:   converter.PriceOrZero(converter.ToDecimal(m.Value(row, types.FieldUnitPrice))),
		CustomerID:  converter.ToInt(m.Value(row, types.FieldCustomerID)),
		Country:     converter.ToString(m.Value(row, types.FieldCountry)),
	}
}

// Report starts a SheetReport for a sheet with this header.
func (m HeaderMapping) Report(sheet string) types.SheetReport {
	report := types.SheetReport{
		Name:    sheet,
		Status:  types.SheetLoaded,
		Columns: make(map[string]int),
	}
	for _, f := range types.Fields {
		if i := m.Index(f); i != Unresolved {
			report.Columns[string(f)] = i
		}
	}
	for _, f := range m.Missing() {
		report.Missing = append(report.Missing, string(f))
	}
	if len(report.Missing) > 0 {
		report.Status = types.SheetSkipped
	}
	return report
}
