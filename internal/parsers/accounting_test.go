package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salyq-kz/declaration-service/internal/models"
)

func TestAccountingDocuments(t *testing.T) {
	rec := record(models.SourceAccounting, `{"documents": [
		{"doc_type": "sale", "date": "2024-09-10", "currency": "KZT", "number": "INV-7",
		 "line_items": [
			{"amount": "350000", "category": "rent", "description": "Office sublease"},
			{"sum": 120000, "event_type": "EV_MEDIATION_INCOME"}
		 ]}
	]}`)
	events, err := (&AccountingParser{}).Parse(rec)
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "EV_RENT_NON_AGENT", first.EventTypeCode)
	assert.Equal(t, "350000", first.Amount.String())
	assert.Equal(t, "accounting", first.Metadata["channel"])
	assert.Equal(t, "INV-7", first.Metadata["document"])
	assert.Equal(t, "Office sublease", first.Metadata["description"])

	second := events[1]
	assert.Equal(t, "EV_MEDIATION_INCOME", second.EventTypeCode)
	assert.Equal(t, "120000", second.Amount.String())
}

func TestAccountingSkipsExpenseDocuments(t *testing.T) {
	rec := record(models.SourceAccounting, `{"documents": [
		{"doc_type": "expense", "date": "2024-09-10", "line_items": [{"amount": 1}]},
		{"type": "purchase", "date": "2024-09-11", "lines": [{"amount": 2}]}
	]}`)
	events, err := (&AccountingParser{}).Parse(rec)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAccountingOperations(t *testing.T) {
	rec := record(models.SourceAccounting, `{"operations": [
		{"kind": "expense", "date": "2024-03-01", "amount": 500},
		{"date": "2024-03-05", "amount": "90000", "description": "Consulting"},
		{"date": "2024-03-09", "amount": 15000, "category": "mediation"}
	]}`)
	events, err := (&AccountingParser{}).Parse(rec)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "EV_OTHER_NON_AGENT", events[0].EventTypeCode)
	assert.Equal(t, "Consulting", events[0].Metadata["description"])
	assert.Equal(t, "EV_MEDIATION_INCOME", events[1].EventTypeCode)
}

func TestAccountingUnknownCategory(t *testing.T) {
	rec := record(models.SourceAccounting, `{"operations": [
		{"date": "2024-03-01", "amount": 500, "category": "crypto"}
	]}`)
	_, err := (&AccountingParser{}).Parse(rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown category "crypto"`)
	assert.Contains(t, err.Error(), "record 0")
}

func TestAccountingLineErrorsNamePosition(t *testing.T) {
	rec := record(models.SourceAccounting, `{"documents": [
		{"doc_type": "sale", "date": "2024-09-10",
		 "line_items": [{"amount": 100}, {"description": "no amount"}]}
	]}`)
	_, err := (&AccountingParser{}).Parse(rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 0")
	assert.Contains(t, err.Error(), "line 1: missing amount")
}

func TestAccountingDocumentWithoutLines(t *testing.T) {
	rec := record(models.SourceAccounting, `{"documents": [{"doc_type": "sale", "date": "2024-09-10"}]}`)
	_, err := (&AccountingParser{}).Parse(rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no line items")
}

func TestAccountingMissingCollections(t *testing.T) {
	_, err := (&AccountingParser{}).Parse(record(models.SourceAccounting, `{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"documents" or "operations"`)
}
