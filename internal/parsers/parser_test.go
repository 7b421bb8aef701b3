package parsers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
)

func record(kind models.SourceKind, payload string) *models.SourceRecord {
	return &models.SourceRecord{
		ID:         uuid.New(),
		TaxpayerID: uuid.New(),
		SourceKind: kind,
		RawPayload: models.JSONB(payload),
	}
}

func TestRegistryCoversEveryKind(t *testing.T) {
	r := NewRegistry()
	kinds := []models.SourceKind{
		models.SourceManual, models.SourceCSV, models.SourceExcel,
		models.SourceBank, models.SourceAccounting, models.SourceAPI,
	}
	for _, kind := range kinds {
		p, err := r.ForKind(kind)
		require.NoError(t, err, "kind %s", kind)
		assert.Equal(t, kind, p.Kind())
	}
}

func TestRegistryUnknownKind(t *testing.T) {
	r := NewRegistry()
	_, err := r.ForKind(models.SourceKind("PDF"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindParse, apperr.KindOf(err))
}

func TestParsersAttributeEventsToTheRecord(t *testing.T) {
	rec := record(models.SourceManual, `{"event_type": "EV_OTHER_NON_AGENT", "event_date": "2024-05-01", "amount": 1000}`)
	events, err := (&ManualParser{}).Parse(rec)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, rec.TaxpayerID, events[0].TaxpayerID)
	assert.Equal(t, rec.ID, events[0].SourceRecordID)
}
