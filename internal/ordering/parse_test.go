package ordering

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nomnoms/nomnoms/internal/catalog"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name   string
		in     catalog.Scalar
		want   float64
		wantOK bool
	}{
		{"numeric", catalog.NumberScalar(2.99), 2.99, true},
		{"double dollar prefix", catalog.RawScalar("$$16.99"), 16.99, true},
		{"single dollar", catalog.RawScalar("$12.99"), 12.99, true},
		{"bare number", catalog.RawScalar("16.99"), 16.99, true},
		{"promo text", catalog.RawScalar("$0 delivery fee, first order"), 0, true},
		{"fee with trailing text", catalog.RawScalar("$2.99 flyer"), 2.99, true},
		{"no number", catalog.RawScalar("free delivery"), 0, false},
		{"absent", catalog.Scalar{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMoney(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestPriceRangeString(t *testing.T) {
	assert.Equal(t, "$$", PriceRangeString(catalog.NumberScalar(2)))
	assert.Equal(t, "$", PriceRangeString(catalog.NumberScalar(1)))
	assert.Equal(t, "$$$", PriceRangeString(catalog.RawScalar("$$$")))
	assert.Equal(t, "", PriceRangeString(catalog.Scalar{}))
}

func TestParseETA(t *testing.T) {
	tests := []struct {
		name   string
		in     catalog.Scalar
		want   int
		wantOK bool
	}{
		{"numeric", catalog.NumberScalar(30), 30, true},
		{"minutes suffix", catalog.RawScalar("36 min"), 36, true},
		{"distance and minutes", catalog.RawScalar("3.1 mi • 36 min"), 36, true},
		{"no minutes", catalog.RawScalar("nearby"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseETA(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRatingCount(t *testing.T) {
	tests := []struct {
		name   string
		in     catalog.Scalar
		want   int
		wantOK bool
	}{
		{"numeric", catalog.NumberScalar(100), 100, true},
		{"k-plus in parens", catalog.RawScalar("(3k+)"), 3000, true},
		{"fractional k-plus", catalog.RawScalar("1.2k+"), 1200, true},
		{"plain count", catalog.RawScalar("(250)"), 250, true},
		{"no digits", catalog.RawScalar("(new)"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRatingCount(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
