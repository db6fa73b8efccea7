package converter

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    any
		want  int64
		valid bool
	}{
		{name: "nil", in: nil},
		{name: "empty", in: ""},
		{name: "blank", in: "   "},
		{name: "plain", in: "6", want: 6, valid: true},
		{name: "padded", in: " 12 ", want: 12, valid: true},
		{name: "float text truncates", in: "6.9", want: 6, valid: true},
		{name: "negative truncates toward zero", in: "-2.7", want: -2, valid: true},
		{name: "exponent", in: "1e3", want: 1000, valid: true},
		{name: "customer id as float text", in: "13085.0", want: 13085, valid: true},
		{name: "float64", in: 17850.0, want: 17850, valid: true},
		{name: "int", in: 42, want: 42, valid: true},
		{name: "word", in: "abc"},
		{name: "nan text", in: "NaN"},
		{name: "inf text", in: "inf"},
		{name: "nan float", in: math.NaN()},
		{name: "too large", in: "1e30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToInt(tt.in)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.Equal(t, tt.want, got.Int64)
			}
		})
	}
}

func TestToDecimal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    any
		want  string
		valid bool
	}{
		{name: "nil", in: nil},
		{name: "empty", in: ""},
		{name: "exact text", in: "2.55", want: "2.55", valid: true},
		{name: "padded text", in: "  3.10 ", want: "3.1", valid: true},
		{name: "negative", in: "-11.062", want: "-11.062", valid: true},
		{name: "exponent", in: "1.5e2", want: "150", valid: true},
		{name: "float64 keeps shortest form", in: 2.55, want: "2.55", valid: true},
		{name: "int", in: 4, want: "4", valid: true},
		{name: "garbage", in: "n/a"},
		{name: "nan text", in: "NaN"},
		{name: "inf float", in: math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDecimal(tt.in)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.Equal(t, tt.want, got.Decimal.String())
			}
		})
	}
}

func TestToDecimal_NoBinaryRounding(t *testing.T) {
	t.Parallel()

	got := ToDecimal("0.1")
	require.True(t, got.Valid)
	sum := got.Decimal.Add(got.Decimal).Add(got.Decimal)
	assert.True(t, sum.Equal(decimal.RequireFromString("0.3")), "got %s", sum)
}

func TestToString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    any
		want  string
		valid bool
	}{
		{name: "nil", in: nil},
		{name: "empty", in: ""},
		{name: "whitespace only", in: " \t "},
		{name: "trimmed", in: "  WHITE HANGING HEART  ", want: "WHITE HANGING HEART", valid: true},
		{name: "number", in: 536365.0, want: "536365", valid: true},
		{name: "int", in: 71053, want: "71053", valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToString(tt.in)
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.want, got.String)
		})
	}
}

func TestToTimestamp(t *testing.T) {
	t.Parallel()

	structured := time.Date(2011, 12, 9, 12, 50, 0, 0, time.UTC)

	tests := []struct {
		name  string
		in    any
		want  time.Time
		valid bool
	}{
		{name: "nil", in: nil},
		{name: "empty", in: ""},
		{name: "structured passes through", in: structured, want: structured, valid: true},
		{name: "day first with time", in: "12/1/2010 8:26", want: time.Date(2010, 1, 12, 8, 26, 0, 0, time.UTC), valid: true},
		{name: "unambiguous day first", in: "31/12/2011", want: time.Date(2011, 12, 31, 0, 0, 0, 0, time.UTC), valid: true},
		{name: "zero padded", in: "01/12/2010 08:26:00", want: time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC), valid: true},
		{name: "iso", in: "2010-12-01 08:26:00", want: time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC), valid: true},
		{name: "dashes", in: "5-3-2011", want: time.Date(2011, 3, 5, 0, 0, 0, 0, time.UTC), valid: true},
		{name: "named month", in: "9 Dec 2011", want: time.Date(2011, 12, 9, 0, 0, 0, 0, time.UTC), valid: true},
		{name: "extra inner spaces", in: "12/1/2010   8:26", want: time.Date(2010, 1, 12, 8, 26, 0, 0, time.UTC), valid: true},
		{name: "day dash month name", in: "1-Dec-2010 08:26", want: time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC), valid: true},
		{name: "two digit year month name", in: "01-Dec-10", want: time.Date(2010, 12, 1, 0, 0, 0, 0, time.UTC), valid: true},
		{name: "iso minutes", in: "2010-12-01T08:26", want: time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC), valid: true},
		{name: "month name twelve hour", in: "Dec 1 2010 8:26AM", want: time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC), valid: true},
		{name: "day first with seconds", in: "12/1/2010 8:26:00", want: time.Date(2010, 1, 12, 8, 26, 0, 0, time.UTC), valid: true},
		{name: "free form", in: "12 Feb 2006, 19:17", want: time.Date(2006, 2, 12, 19, 17, 0, 0, time.UTC), valid: true},
		{name: "zero time", in: time.Time{}},
		{name: "bare digits", in: "1291194000"},
		{name: "malformed", in: "not-a-date"},
		{name: "impossible day", in: "32/1/2010"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToTimestamp(tt.in)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.True(t, tt.want.Equal(got.Time), "got %s want %s", got.Time, tt.want)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(0), QuantityOrZero(ToInt("")))
	assert.Equal(t, int64(0), QuantityOrZero(ToInt("lots")))
	assert.Equal(t, int64(-3), QuantityOrZero(ToInt("-3")))

	assert.True(t, PriceOrZero(ToDecimal("")).IsZero())
	assert.True(t, PriceOrZero(ToDecimal("free")).IsZero())
	assert.Equal(t, "2.55", PriceOrZero(ToDecimal("2.55")).String())
}
