// =============================================================================
// Sales Loader - Field Sanitizers
// =============================================================================
//
// This module turns raw spreadsheet cell values into typed, optional values.
// Every conversion is total: malformed input never produces an error, it
// collapses to "absent" (Valid == false) instead.
//
// ACCEPTED INPUTS:
//   Cell values arrive as `any` because a reader may hand over
//     - nil          : a missing cell
//     - string       : text or the raw text of a numeric cell
//     - float64/int  : numbers produced by code or tests
//     - time.Time    : a cell already recognised as a date
//
// This is the only place where invalid data is handled. Callers apply the
// field-specific defaults (see QuantityOrZero and PriceOrZero).
//
// =============================================================================

package converter

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

// =============================================================================
// INTEGER CONVERSION
// =============================================================================

// ToInt converts a cell value to an integer.
//
// The value is parsed as a floating-point number and truncated toward zero,
// so "6", "6.0" and "6.9" all give 6. Empty input, parse failures, NaN,
// infinities and values outside the int64 range are absent.
func ToInt(value any) sql.NullInt64 {
	switch v := value.(type) {
	case nil:
		return sql.NullInt64{}
	case int:
		return sql.NullInt64{Int64: int64(v), Valid: true}
	case int32:
		return sql.NullInt64{Int64: int64(v), Valid: true}
	case int64:
		return sql.NullInt64{Int64: v, Valid: true}
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	}

	s := strings.TrimSpace(stringify(value))
	if s == "" {
		return sql.NullInt64{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullInt64{}
	}
	return floatToInt(f)
}

func floatToInt(f float64) sql.NullInt64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullInt64{}
	}
	t := math.Trunc(f)
	// 2^63 is exactly representable, so anything at or past it overflows.
	if t >= math.MaxInt64 || t < math.MinInt64 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(t), Valid: true}
}

// =============================================================================
// DECIMAL CONVERSION
// =============================================================================

// ToDecimal converts a cell value to an exact decimal.
//
// The string form is parsed exactly first so that currency values such as
// "2.55" are not rounded through binary floating point. If that fails the
// value is parsed as a float and converted. Anything else is absent.
func ToDecimal(value any) decimal.NullDecimal {
	switch v := value.(type) {
	case nil:
		return decimal.NullDecimal{}
	case decimal.Decimal:
		return decimal.NullDecimal{Decimal: v, Valid: true}
	case int:
		return decimal.NullDecimal{Decimal: decimal.NewFromInt(int64(v)), Valid: true}
	case int64:
		return decimal.NullDecimal{Decimal: decimal.NewFromInt(v), Valid: true}
	case float64:
		return floatToDecimal(v)
	case float32:
		return floatToDecimal(float64(v))
	}

	s := strings.TrimSpace(stringify(value))
	if s == "" {
		return decimal.NullDecimal{}
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return decimal.NullDecimal{Decimal: d, Valid: true}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return floatToDecimal(f)
}

func floatToDecimal(f float64) decimal.NullDecimal {
	// NewFromFloat panics on NaN and infinities.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(f), Valid: true}
}

// =============================================================================
// STRING CONVERSION
// =============================================================================

// ToString stringifies and trims a cell value. Blank results are absent.
func ToString(value any) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	s := strings.TrimSpace(stringify(value))
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// =============================================================================
// TIMESTAMP CONVERSION
// =============================================================================

// dayFirstLayouts are tried in order. Ambiguous numeric dates are read
// day-before-month to match the regional convention of the source data, so
// "12/1/2010" is 12 January 2010.
var dayFirstLayouts = []string{
	// Day/month/year with the common separators.
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006 3:04:05 PM",
	"2/1/2006 3:04 PM",
	"2/1/2006",
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"2-1-2006",
	"2.1.2006 15:04:05",
	"2.1.2006 15:04",
	"2.1.2006",
	"2/1/06 15:04",
	"2/1/06",

	// Year first is unambiguous.
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC3339Nano,
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"20060102",

	// Named months.
	"2-Jan-2006 15:04:05",
	"2-Jan-2006 15:04",
	"2-Jan-2006",
	"2-Jan-06 15:04",
	"2-Jan-06",
	"2 Jan 2006 15:04:05",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006 15:04",
	"Jan 2, 2006",
	"Jan 2 2006 3:04PM",
	"Jan 2 2006 3:04 PM",
	"Jan 2 2006 15:04",
	"Jan 2 2006",
	"January 2, 2006",
}

// dayFirst makes dateparse read ambiguous numeric dates day before month.
var dayFirst = dateparse.PreferMonthFirst(false)

// ToTimestamp converts a cell value to a timestamp.
//
// A time.Time is returned as-is, except the zero time, which no target
// column can hold and is treated as absent. Text is parsed with day-first
// layouts, then with dateparse for the remaining free-form spellings, and
// interpreted as UTC wall-clock time. Anything that does not parse is absent.
func ToTimestamp(value any) sql.NullTime {
	switch v := value.(type) {
	case nil:
		return sql.NullTime{}
	case time.Time:
		if v.IsZero() {
			return sql.NullTime{}
		}
		return sql.NullTime{Time: v, Valid: true}
	case *time.Time:
		if v == nil || v.IsZero() {
			return sql.NullTime{}
		}
		return sql.NullTime{Time: *v, Valid: true}
	}

	s := strings.Join(strings.Fields(stringify(value)), " ")
	if s == "" {
		return sql.NullTime{}
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return sql.NullTime{Time: t, Valid: true}
		}
	}

	// Bare digits would be taken as a Unix timestamp.
	if isDigits(s) {
		return sql.NullTime{}
	}
	if t, err := dateparse.ParseIn(s, time.UTC, dayFirst); err == nil {
		return sql.NullTime{Time: t, Valid: true}
	}
	return sql.NullTime{}
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// =============================================================================
// FIELD DEFAULTS
// =============================================================================

// QuantityOrZero applies the quantity fallback: absent becomes 0.
func QuantityOrZero(n sql.NullInt64) int64 {
	if !n.Valid {
		return 0
	}
	return n.Int64
}

// PriceOrZero applies the unit price fallback: absent becomes decimal zero.
func PriceOrZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// stringify renders a cell value as text. Floats use the shortest exact
// form so 536365.0 becomes "536365".
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
