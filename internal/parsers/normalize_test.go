package parsers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"iso date", "2024-06-15", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
		{"dotted day first", "15.03.2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"slashed day first", "15/03/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"rfc3339 keeps the written date", "2024-06-15T23:30:00+05:00", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
		{"iso datetime", "2024-06-15T18:30:00", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
		{"space datetime", "2024-06-15 18:30:00", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
		{"surrounding whitespace", "  2024-06-15  ", time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseDateRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "15-03-2024", "31.02.2025", "yesterday"} {
		_, err := ParseDate(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "KZT"},
		{"   ", "KZT"},
		{"KZT", "KZT"},
		{"usd", "USD"},
		{"$", "USD"},
		{"us$", "USD"},
		{"€", "EUR"},
		{"₸", "KZT"},
		{"тг", "KZT"},
		{"тенге", "KZT"},
		{"руб", "RUB"},
		{"£", "GBP"},
		{" eur ", "EUR"},
	}
	for _, tt := range tests {
		got, err := NormalizeCurrency(tt.in)
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestNormalizeCurrencyRejects(t *testing.T) {
	for _, in := range []string{"DOLLARS", "K1T", "₽", "тенге казахстанское"} {
		_, err := NormalizeCurrency(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"json number", json.Number("1234.56"), "1234.56"},
		{"float", 1500.5, "1500.5"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"plain string", "80000", "80000"},
		{"comma decimal", "500,25", "500.25"},
		{"space grouped", "1 200 000,50", "1200000.5"},
		{"nbsp grouped", "1 200 000", "1200000"},
		{"narrow nbsp grouped", "1 200 000,75", "1200000.75"},
		{"negative string", "-150000", "-150000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseAmountRejects(t *testing.T) {
	for _, in := range []interface{}{nil, "", "   ", "abc", "12,34,56", true, []interface{}{1}} {
		_, err := ParseAmount(in)
		assert.Error(t, err, "input %#v", in)
	}
}
