package parsers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"02/01/2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseDate accepts the date spellings seen across source systems
// (2025-03-10, 10.03.2025, 10/03/2025 and ISO datetimes) and returns the date
// at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

var currencyAliases = map[string]string{
	"$":     "USD",
	"US$":   "USD",
	"€":     "EUR",
	"₸":     "KZT",
	"ТГ":    "KZT",
	"ТЕНГЕ": "KZT",
	"TENGE": "KZT",
	"РУБ":   "RUB",
	"Р":     "RUB",
	"£":     "GBP",
}

// NormalizeCurrency folds a free-form currency spelling to a three-letter
// code. Empty input means tenge.
func NormalizeCurrency(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "KZT", nil
	}
	if code, ok := currencyAliases[s]; ok {
		return code, nil
	}
	if len(s) == 3 {
		for _, r := range s {
			if r < 'A' || r > 'Z' {
				return "", fmt.Errorf("unrecognized currency %q", s)
			}
		}
		return s, nil
	}
	return "", fmt.Errorf("unrecognized currency %q", s)
}

// ParseAmount converts the amount spellings seen in payloads (JSON numbers,
// grouped strings like "1 200 000,50") into a decimal.
func ParseAmount(v interface{}) (decimal.Decimal, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("missing amount")
	case json.Number:
		return decimal.NewFromString(n.String())
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case string:
		s := strings.TrimSpace(n)
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, ",", ".")
		if s == "" {
			return decimal.Zero, fmt.Errorf("empty amount")
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("unrecognized amount %q", n)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount type %T", v)
	}
}

// stringField reads a string value from a generic map under any of the given
// keys
func stringField(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// anyField reads a raw value from a generic map under any of the given keys
func anyField(m map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}
