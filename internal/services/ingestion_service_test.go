package services

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
	"github.com/salyq-kz/declaration-service/internal/parsers"
)

type fakeTaxpayers struct {
	rows map[uuid.UUID]*models.Taxpayer
}

func (f *fakeTaxpayers) GetByID(_ context.Context, id uuid.UUID) (*models.Taxpayer, error) {
	tp, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("taxpayer not found")
	}
	return tp, nil
}

// fakeSourceStore keeps the repository contract in memory: the
// (taxpayer, checksum) pair stays unique and event writes land whole.
type fakeSourceStore struct {
	records map[uuid.UUID]*models.SourceRecord
	events  []*models.TaxEvent
}

func newFakeSourceStore() *fakeSourceStore {
	return &fakeSourceStore{records: make(map[uuid.UUID]*models.SourceRecord)}
}

func (f *fakeSourceStore) CreateSourceRecord(_ context.Context, rec *models.SourceRecord) (bool, *models.SourceRecord, error) {
	for _, existing := range f.records {
		if existing.TaxpayerID == rec.TaxpayerID && existing.Checksum == rec.Checksum {
			return false, existing, nil
		}
	}
	rec.ID = uuid.New()
	f.records[rec.ID] = rec
	return true, rec, nil
}

func (f *fakeSourceStore) SourceByID(_ context.Context, id uuid.UUID) (*models.SourceRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, apperr.NotFound("source record not found")
	}
	return rec, nil
}

func (f *fakeSourceStore) SourcesByTaxpayer(_ context.Context, taxpayerID uuid.UUID) ([]models.SourceRecord, error) {
	var out []models.SourceRecord
	for _, rec := range f.records {
		if rec.TaxpayerID == taxpayerID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakeSourceStore) HasEventsForSource(_ context.Context, sourceID uuid.UUID) (bool, error) {
	for _, ev := range f.events {
		if ev.SourceRecordID != nil && *ev.SourceRecordID == sourceID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSourceStore) InsertEvents(_ context.Context, events []*models.TaxEvent) error {
	for _, ev := range events {
		ev.ID = uuid.New()
		f.events = append(f.events, ev)
	}
	return nil
}

func (f *fakeSourceStore) ReplaceEventsForSource(ctx context.Context, sourceID uuid.UUID, events []*models.TaxEvent) error {
	f.dropEvents(sourceID)
	return f.InsertEvents(ctx, events)
}

func (f *fakeSourceStore) EventsByTaxpayerYear(_ context.Context, taxpayerID uuid.UUID, taxYear int) ([]models.TaxEvent, error) {
	var out []models.TaxEvent
	for _, ev := range f.events {
		if ev.TaxpayerID == taxpayerID && ev.TaxYear == taxYear {
			out = append(out, *ev)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EventDate.Equal(out[j].EventDate) {
			return out[i].EventDate.Before(out[j].EventDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (f *fakeSourceStore) EventsBySource(_ context.Context, sourceID uuid.UUID) ([]models.TaxEvent, error) {
	var out []models.TaxEvent
	for _, ev := range f.events {
		if ev.SourceRecordID != nil && *ev.SourceRecordID == sourceID {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (f *fakeSourceStore) DeactivateSource(_ context.Context, sourceID uuid.UUID) error {
	rec, ok := f.records[sourceID]
	if !ok {
		return apperr.NotFound("source record not found")
	}
	rec.Active = false
	f.dropEvents(sourceID)
	return nil
}

func (f *fakeSourceStore) dropEvents(sourceID uuid.UUID) {
	kept := make([]*models.TaxEvent, 0, len(f.events))
	for _, ev := range f.events {
		if ev.SourceRecordID == nil || *ev.SourceRecordID != sourceID {
			kept = append(kept, ev)
		}
	}
	f.events = kept
}

type fakeCatalog struct {
	codes map[string]bool
}

func (f *fakeCatalog) EventTypeExists(_ context.Context, code string) (bool, error) {
	return f.codes[code], nil
}

func newIngestionFixture() (*IngestionService, *fakeSourceStore, uuid.UUID) {
	taxpayerID := uuid.New()
	taxpayers := &fakeTaxpayers{rows: map[uuid.UUID]*models.Taxpayer{
		taxpayerID: {ID: taxpayerID, IIN: "900101300123"},
	}}
	store := newFakeSourceStore()
	catalog := &fakeCatalog{codes: map[string]bool{
		"EV_FOREIGN_DIVIDENDS": true,
		"EV_RENT_NON_AGENT":    true,
	}}
	svc := NewIngestionService(taxpayers, store, catalog, parsers.NewRegistry())
	return svc, store, taxpayerID
}

func ingestManual(t *testing.T, svc *IngestionService, taxpayerID uuid.UUID, payload string) *models.IngestResponse {
	t.Helper()
	resp, err := svc.Ingest(context.Background(), &models.IngestRequest{
		TaxpayerID: taxpayerID,
		SourceKind: models.SourceManual,
		Payload:    []byte(payload),
	})
	require.NoError(t, err)
	return resp
}

func TestIngestTwiceReturnsSameRecord(t *testing.T) {
	svc, store, taxpayerID := newIngestionFixture()

	first := ingestManual(t, svc, taxpayerID,
		`{"event_type": "EV_FOREIGN_DIVIDENDS", "event_date": "2024-06-15", "amount": "500000"}`)
	assert.True(t, first.Created)

	// same document, reordered keys and different whitespace
	second := ingestManual(t, svc, taxpayerID,
		`{"amount":"500000","event_date":"2024-06-15","event_type":"EV_FOREIGN_DIVIDENDS"}`)
	assert.False(t, second.Created)
	assert.Equal(t, first.SourceRecord.ID, second.SourceRecord.ID)
	assert.Len(t, store.records, 1)
}

func TestIngestDistinctPayloadsGetDistinctRecords(t *testing.T) {
	svc, store, taxpayerID := newIngestionFixture()

	first := ingestManual(t, svc, taxpayerID,
		`{"event_type": "EV_FOREIGN_DIVIDENDS", "event_date": "2024-06-15", "amount": "500000"}`)
	second := ingestManual(t, svc, taxpayerID,
		`{"event_type": "EV_FOREIGN_DIVIDENDS", "event_date": "2024-06-15", "amount": "500001"}`)

	assert.True(t, second.Created)
	assert.NotEqual(t, first.SourceRecord.ID, second.SourceRecord.ID)
	assert.Len(t, store.records, 2)
}

func TestIngestUnknownTaxpayer(t *testing.T) {
	svc, _, _ := newIngestionFixture()

	_, err := svc.Ingest(context.Background(), &models.IngestRequest{
		TaxpayerID: uuid.New(),
		SourceKind: models.SourceManual,
		Payload:    []byte(`{"event_type": "EV_FOREIGN_DIVIDENDS", "event_date": "2024-06-15"}`),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestIngestRejectsUnknownSourceKind(t *testing.T) {
	svc, _, taxpayerID := newIngestionFixture()

	_, err := svc.Ingest(context.Background(), &models.IngestRequest{
		TaxpayerID: taxpayerID,
		SourceKind: models.SourceKind("PDF"),
		Payload:    []byte(`{}`),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnprocessable, apperr.KindOf(err))
}

func TestIngestRejectsInvalidJSON(t *testing.T) {
	svc, _, taxpayerID := newIngestionFixture()

	_, err := svc.Ingest(context.Background(), &models.IngestRequest{
		TaxpayerID: taxpayerID,
		SourceKind: models.SourceManual,
		Payload:    []byte(`not json at all`),
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindParse, apperr.KindOf(err))
}

func TestParseTwiceKeepsOneEventSet(t *testing.T) {
	svc, store, taxpayerID := newIngestionFixture()
	ctx := context.Background()

	resp := ingestManual(t, svc, taxpayerID,
		`{"event_type": "EV_FOREIGN_DIVIDENDS", "event_date": "2024-06-15", "amount": "500000"}`)

	parsed, err := svc.Parse(ctx, resp.SourceRecord.ID)
	require.NoError(t, err)
	assert.True(t, parsed.Created)
	require.Len(t, parsed.Events, 1)
	assert.Equal(t, "EV_FOREIGN_DIVIDENDS", parsed.Events[0].EventType)
	assert.Equal(t, 2024, parsed.Events[0].TaxYear)

	again, err := svc.Parse(ctx, resp.SourceRecord.ID)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	assert.Len(t, again.Events, 1)
	assert.Len(t, store.events, 1)

	events, err := svc.Events(ctx, taxpayerID, 2024)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestParseRejectsUncataloguedEventType(t *testing.T) {
	svc, store, taxpayerID := newIngestionFixture()

	// parses cleanly but the fixture catalog does not know the code
	resp := ingestManual(t, svc, taxpayerID,
		`{"event_type": "EV_CFC_PROFIT", "event_date": "2024-02-01", "amount": "1000"}`)

	_, err := svc.Parse(context.Background(), resp.SourceRecord.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Empty(t, store.events)
}

func TestParseSurfacesParserErrors(t *testing.T) {
	svc, _, taxpayerID := newIngestionFixture()

	resp := ingestManual(t, svc, taxpayerID,
		`{"event_type": "EV_FOREIGN_DIVIDENDS", "event_date": "garbage"}`)

	_, err := svc.Parse(context.Background(), resp.SourceRecord.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindParse, apperr.KindOf(err))
}

func TestReparseReplacesInsteadOfAppending(t *testing.T) {
	svc, store, taxpayerID := newIngestionFixture()
	ctx := context.Background()

	resp := ingestManual(t, svc, taxpayerID,
		`{"event_type": "EV_RENT_NON_AGENT", "event_date": "2024-03-01", "amount": "80000"}`)

	_, err := svc.Parse(ctx, resp.SourceRecord.ID)
	require.NoError(t, err)
	require.Len(t, store.events, 1)
	firstID := store.events[0].ID

	re, err := svc.Reparse(ctx, resp.SourceRecord.ID)
	require.NoError(t, err)
	assert.True(t, re.Created)
	require.Len(t, store.events, 1)
	assert.NotEqual(t, firstID, store.events[0].ID)
}

func TestParseDeactivatedSourceConflicts(t *testing.T) {
	svc, store, taxpayerID := newIngestionFixture()
	ctx := context.Background()

	resp := ingestManual(t, svc, taxpayerID,
		`{"event_type": "EV_RENT_NON_AGENT", "event_date": "2024-03-01", "amount": "80000"}`)
	_, err := svc.Parse(ctx, resp.SourceRecord.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, resp.SourceRecord.ID))
	assert.Empty(t, store.events)

	_, err = svc.Parse(ctx, resp.SourceRecord.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}
