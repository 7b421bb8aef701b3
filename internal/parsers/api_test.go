package parsers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salyq-kz/declaration-service/internal/models"
)

func TestAPIParseIncomes(t *testing.T) {
	rec := record(models.SourceAPI, `{"incomes": [
		{"event_type": "EV_FOREIGN_EMPLOYMENT", "date": "2024-11-30", "amount": "4500000", "currency": "USD", "employer": "Remote GmbH"}
	]}`)
	events, err := (&APIParser{}).Parse(rec)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "EV_FOREIGN_EMPLOYMENT", ev.EventTypeCode)
	assert.Equal(t, "4500000", ev.Amount.String())
	assert.Equal(t, "USD", ev.Currency)
	assert.Equal(t, "Remote GmbH", ev.Metadata["employer"])
}

func TestAPIParseAssets(t *testing.T) {
	rec := record(models.SourceAPI, `{"assets": [
		{"kind": "apartment", "cost": "32000000", "country": "KZ", "cadastral_number": "20-316-052-777", "year": 2025},
		{"asset_type": "vehicle", "value": 9500000, "date": "2025-06-01", "vin": "XTA21150053965891"}
	]}`)
	events, err := (&APIParser{}).Parse(rec)
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "EV_ASSET_DECLARED", first.EventTypeCode)
	assert.Equal(t, "32000000", first.Amount.String())
	assert.True(t, first.EventDate.Equal(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "registry", first.Metadata["channel"])
	assert.Equal(t, "apartment", first.Metadata["asset_kind"])
	assert.Equal(t, "KZ", first.Metadata["country"])
	assert.Equal(t, "20-316-052-777", first.Metadata["identifier"])

	second := events[1]
	assert.True(t, second.EventDate.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "vehicle", second.Metadata["asset_kind"])
	assert.Equal(t, "XTA21150053965891", second.Metadata["identifier"])
}

func TestAPIParseDebts(t *testing.T) {
	rec := record(models.SourceAPI, `{"debts": [
		{"direction": "receivable", "amount": "2000000", "as_of": "2025-12-31", "counterparty": "T. Omarov", "contract": "loan 2023-11"},
		{"side": "owed_by_me", "amount": 750000, "year": 2025, "creditor": "Halyk Bank"}
	]}`)
	events, err := (&APIParser{}).Parse(rec)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "EV_DEBT_RECEIVABLE", events[0].EventTypeCode)
	assert.Equal(t, "T. Omarov", events[0].Metadata["counterparty"])
	assert.Equal(t, "loan 2023-11", events[0].Metadata["basis"])

	assert.Equal(t, "EV_DEBT_PAYABLE", events[1].EventTypeCode)
	assert.Equal(t, "Halyk Bank", events[1].Metadata["counterparty"])
}

func TestAPIDebtDirectionRequired(t *testing.T) {
	rec := record(models.SourceAPI, `{"debts": [{"amount": 1, "year": 2025}]}`)
	_, err := (&APIParser{}).Parse(rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "receivable or payable")
}

func TestAPIErrorIndexSpansCollections(t *testing.T) {
	rec := record(models.SourceAPI, `{
		"incomes": [{"event_type": "EV_OTHER_NON_AGENT", "date": "2024-01-01", "amount": 1}],
		"assets": [{"kind": "apartment", "year": 2025}]
	}`)
	_, err := (&APIParser{}).Parse(rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 1")
	assert.Contains(t, err.Error(), "missing asset value")
}

func TestAPIEmptyPayload(t *testing.T) {
	_, err := (&APIParser{}).Parse(record(models.SourceAPI, `{"foo": 1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recognized collection")
}
