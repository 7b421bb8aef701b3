package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salyq-kz/declaration-service/internal/models"
)

func dividendSubject() *EventSubject {
	amount := decimal.RequireFromString("500000")
	date, _ := time.Parse("2006-01-02", "2024-06-15")
	return &EventSubject{Event: &models.TaxEvent{
		ID:        uuid.New(),
		EventType: "EV_FOREIGN_DIVIDENDS",
		EventDate: date,
		Amount:    &amount,
		Currency:  "USD",
		TaxYear:   2024,
		Metadata:  models.JSONB(`{"country": "US", "broker": {"name": "IBKR"}, "withheld": 75000.5}`),
	}}
}

func TestConditionMatch(t *testing.T) {
	tests := []struct {
		name string
		cond string
		want bool
	}{
		{"eq event type", `{"field": "event_type", "op": "eq", "value": "EV_FOREIGN_DIVIDENDS"}`, true},
		{"eq mismatch", `{"field": "event_type", "op": "eq", "value": "EV_FOREIGN_INTEREST"}`, false},
		{"neq", `{"field": "event_type", "op": "neq", "value": "EV_FOREIGN_INTEREST"}`, true},
		{"in", `{"field": "event_type", "op": "in", "value": ["EV_FOREIGN_INTEREST", "EV_FOREIGN_DIVIDENDS"]}`, true},
		{"not_in", `{"field": "event_type", "op": "not_in", "value": ["EV_FOREIGN_INTEREST"]}`, true},
		{"gt amount", `{"field": "amount", "op": "gt", "value": 499999}`, true},
		{"gt equal is false", `{"field": "amount", "op": "gt", "value": 500000}`, false},
		{"gte equal", `{"field": "amount", "op": "gte", "value": 500000}`, true},
		{"lt", `{"field": "amount", "op": "lt", "value": 500001}`, true},
		{"lte", `{"field": "amount", "op": "lte", "value": 500000}`, true},
		{"numeric string compares numerically", `{"field": "amount", "op": "eq", "value": "500000.00"}`, true},
		{"exists metadata", `{"field": "metadata.country", "op": "exists"}`, true},
		{"not_exists missing metadata", `{"field": "metadata.oecd", "op": "not_exists"}`, true},
		{"nested metadata path", `{"field": "metadata.broker.name", "op": "eq", "value": "IBKR"}`, true},
		{"metadata number", `{"field": "metadata.withheld", "op": "gt", "value": 75000}`, true},
		{"contains", `{"field": "event_type", "op": "contains", "value": "DIVIDEND"}`, true},
		{"starts_with", `{"field": "event_type", "op": "starts_with", "value": "EV_FOREIGN"}`, true},
		{"ends_with", `{"field": "event_type", "op": "ends_with", "value": "_DIVIDENDS"}`, true},
		{"event date string", `{"field": "event_date", "op": "eq", "value": "2024-06-15"}`, true},
		{"tax year numeric", `{"field": "tax_year", "op": "eq", "value": 2024}`, true},
		{"event prefix stripped", `{"field": "event.currency", "op": "eq", "value": "USD"}`, true},
		{"unknown operator never matches", `{"field": "amount", "op": "between", "value": 1}`, false},
		{"unknown field never matches", `{"field": "settlement", "op": "eq", "value": "x"}`, false},
		{"compact equality", `{"event_type": "EV_FOREIGN_DIVIDENDS"}`, true},
		{"compact operator object", `{"amount": {"gte": 100000}}`, true},
		{"compact multiple keys are conjunctive", `{"event_type": "EV_FOREIGN_DIVIDENDS", "currency": "KZT"}`, false},
		{"always true", `{"always": true}`, true},
		{"always false", `{"always": false}`, false},
		{"empty object is always", `{}`, true},
		{"all", `{"all": [{"field": "currency", "op": "eq", "value": "USD"}, {"field": "amount", "op": "gt", "value": 0}]}`, true},
		{"all short-circuits false", `{"all": [{"field": "currency", "op": "eq", "value": "EUR"}, {"field": "amount", "op": "gt", "value": 0}]}`, false},
		{"any", `{"any": [{"field": "currency", "op": "eq", "value": "EUR"}, {"field": "currency", "op": "eq", "value": "USD"}]}`, true},
		{"nested all under any", `{"any": [{"all": [{"field": "currency", "op": "eq", "value": "USD"}, {"field": "tax_year", "op": "eq", "value": 2024}]}]}`, true},
	}

	subject := dividendSubject()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := ParseCondition([]byte(tt.cond))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cond.Match(subject))
		})
	}
}

func TestParseConditionRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"broken json":      `{"field": `,
		"array root":       `[1, 2]`,
		"non-bool always":  `{"always": "yes"}`,
		"non-array all":    `{"all": {"field": "x"}}`,
		"non-string field": `{"field": 5, "op": "eq"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCondition([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestParseConditionEmptyMeansAlways(t *testing.T) {
	cond, err := ParseCondition(nil)
	require.NoError(t, err)
	assert.True(t, cond.Match(dividendSubject()))
}

func TestEventSubjectMissingAmount(t *testing.T) {
	subject := &EventSubject{Event: &models.TaxEvent{EventType: "EV_OTHER_NON_AGENT"}}

	cond, err := ParseCondition([]byte(`{"field": "amount", "op": "not_exists"}`))
	require.NoError(t, err)
	assert.True(t, cond.Match(subject))

	cond, err = ParseCondition([]byte(`{"field": "amount", "op": "gt", "value": 0}`))
	require.NoError(t, err)
	assert.False(t, cond.Match(subject))
}

func TestFieldSubjectResolvesAccumulatedValues(t *testing.T) {
	subject := FieldSubject{
		models.FieldIncomeTotal: decimal.RequireFromString("1200000"),
	}

	cond, err := ParseCondition([]byte(`{"field": "LF_INCOME_TOTAL", "op": "gt", "value": 1000000}`))
	require.NoError(t, err)
	assert.True(t, cond.Match(subject))

	cond, err = ParseCondition([]byte(`{"field": "LF_DEDUCTION_TOTAL", "op": "exists"}`))
	require.NoError(t, err)
	assert.False(t, cond.Match(subject))
}
