package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
	"github.com/salyq-kz/declaration-service/internal/parsers"
)

// taxpayerGetter is the slice of the taxpayer repository ingestion needs
type taxpayerGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Taxpayer, error)
}

// sourceStore is the slice of the source repository ingestion needs
type sourceStore interface {
	CreateSourceRecord(ctx context.Context, rec *models.SourceRecord) (bool, *models.SourceRecord, error)
	SourceByID(ctx context.Context, id uuid.UUID) (*models.SourceRecord, error)
	SourcesByTaxpayer(ctx context.Context, taxpayerID uuid.UUID) ([]models.SourceRecord, error)
	HasEventsForSource(ctx context.Context, sourceID uuid.UUID) (bool, error)
	InsertEvents(ctx context.Context, events []*models.TaxEvent) error
	ReplaceEventsForSource(ctx context.Context, sourceID uuid.UUID, events []*models.TaxEvent) error
	EventsByTaxpayerYear(ctx context.Context, taxpayerID uuid.UUID, taxYear int) ([]models.TaxEvent, error)
	EventsBySource(ctx context.Context, sourceID uuid.UUID) ([]models.TaxEvent, error)
	DeactivateSource(ctx context.Context, sourceID uuid.UUID) error
}

// eventTypeChecker is the catalog slice ingestion needs
type eventTypeChecker interface {
	EventTypeExists(ctx context.Context, code string) (bool, error)
}

// IngestionService owns the intake half of the pipeline: accepting raw
// payloads as source records and turning them into normalized tax events.
type IngestionService struct {
	taxpayers taxpayerGetter
	sources   sourceStore
	catalog   eventTypeChecker
	registry  *parsers.Registry
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	taxpayers taxpayerGetter,
	sources sourceStore,
	catalog eventTypeChecker,
	registry *parsers.Registry,
) *IngestionService {
	return &IngestionService{
		taxpayers: taxpayers,
		sources:   sources,
		catalog:   catalog,
		registry:  registry,
	}
}

// Ingest stores one raw payload as a source record. Ingestion is idempotent
// by payload checksum: re-submitting the same document returns the stored
// record with created=false.
func (s *IngestionService) Ingest(ctx context.Context, req *models.IngestRequest) (*models.IngestResponse, error) {
	if !models.ValidSourceKind(req.SourceKind) {
		return nil, apperr.Unprocessable("unknown source kind %s", req.SourceKind)
	}
	if _, err := s.taxpayers.GetByID(ctx, req.TaxpayerID); err != nil {
		return nil, err
	}

	checksum, err := models.PayloadChecksum(req.Payload)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindParse, err, "payload is not valid JSON")
	}

	rec := &models.SourceRecord{
		TaxpayerID: req.TaxpayerID,
		SourceKind: req.SourceKind,
		ExternalID: req.ExternalID,
		Checksum:   checksum,
		RawPayload: models.JSONB(req.Payload),
		Active:     true,
	}
	created, stored, err := s.sources.CreateSourceRecord(ctx, rec)
	if err != nil {
		return nil, err
	}

	entry := log.WithFields(log.Fields{
		"taxpayer_id": req.TaxpayerID,
		"source_kind": req.SourceKind,
		"source_id":   stored.ID,
	})
	if created {
		entry.Info("Ingested source record")
	} else {
		entry.Info("Source record already ingested, returning stored row")
	}

	return &models.IngestResponse{SourceRecord: *stored, Created: created}, nil
}

// Parse turns a source record's payload into tax events. Parsing is
// idempotent: when the record already has events they are returned with
// skipped=true and nothing is written.
func (s *IngestionService) Parse(ctx context.Context, sourceID uuid.UUID) (*models.ParseResponse, error) {
	rec, err := s.sources.SourceByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if !rec.Active {
		return nil, apperr.Conflict("source record %s is deactivated", rec.ID)
	}

	has, err := s.sources.HasEventsForSource(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	if has {
		events, err := s.sources.EventsBySource(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		return &models.ParseResponse{Skipped: true, Events: events}, nil
	}

	events, err := s.parseRecord(ctx, rec)
	if err != nil {
		return nil, err
	}
	if err := s.sources.InsertEvents(ctx, events); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"source_id": rec.ID,
		"events":    len(events),
	}).Info("Parsed source record")

	out := make([]models.TaxEvent, len(events))
	for i, ev := range events {
		out[i] = *ev
	}
	return &models.ParseResponse{Created: len(out) > 0, Events: out}, nil
}

// Reparse discards the events previously parsed from the source record and
// parses the stored payload again.
func (s *IngestionService) Reparse(ctx context.Context, sourceID uuid.UUID) (*models.ParseResponse, error) {
	rec, err := s.sources.SourceByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if !rec.Active {
		return nil, apperr.Conflict("source record %s is deactivated", rec.ID)
	}

	events, err := s.parseRecord(ctx, rec)
	if err != nil {
		return nil, err
	}
	if err := s.sources.ReplaceEventsForSource(ctx, rec.ID, events); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"source_id": rec.ID,
		"events":    len(events),
	}).Info("Reparsed source record")

	out := make([]models.TaxEvent, len(events))
	for i, ev := range events {
		out[i] = *ev
	}
	return &models.ParseResponse{Created: len(out) > 0, Events: out}, nil
}

// Deactivate soft-deletes a source record and removes its events
func (s *IngestionService) Deactivate(ctx context.Context, sourceID uuid.UUID) error {
	if err := s.sources.DeactivateSource(ctx, sourceID); err != nil {
		return err
	}
	log.WithField("source_id", sourceID).Info("Deactivated source record")
	return nil
}

// Source returns one source record by id
func (s *IngestionService) Source(ctx context.Context, sourceID uuid.UUID) (*models.SourceRecord, error) {
	return s.sources.SourceByID(ctx, sourceID)
}

// Sources lists a taxpayer's source records
func (s *IngestionService) Sources(ctx context.Context, taxpayerID uuid.UUID) ([]models.SourceRecord, error) {
	if _, err := s.taxpayers.GetByID(ctx, taxpayerID); err != nil {
		return nil, err
	}
	return s.sources.SourcesByTaxpayer(ctx, taxpayerID)
}

// Events lists a taxpayer's events for one tax year
func (s *IngestionService) Events(ctx context.Context, taxpayerID uuid.UUID, taxYear int) ([]models.TaxEvent, error) {
	if _, err := s.taxpayers.GetByID(ctx, taxpayerID); err != nil {
		return nil, err
	}
	return s.sources.EventsByTaxpayerYear(ctx, taxpayerID, taxYear)
}

// parseRecord runs the payload through the registered parser and converts
// the normalized inputs into storable rows. Every event type must already be
// in the catalog; an unknown code fails the whole batch.
func (s *IngestionService) parseRecord(ctx context.Context, rec *models.SourceRecord) ([]*models.TaxEvent, error) {
	parser, err := s.registry.ForKind(rec.SourceKind)
	if err != nil {
		return nil, err
	}
	inputs, err := parser.Parse(rec)
	if err != nil {
		return nil, err
	}

	events := make([]*models.TaxEvent, 0, len(inputs))
	for i, in := range inputs {
		known, err := s.catalog.EventTypeExists(ctx, in.EventTypeCode)
		if err != nil {
			return nil, err
		}
		if !known {
			return nil, apperr.Conflict("record %d: event type %s is not in the catalog", i, in.EventTypeCode)
		}

		taxYear := in.TaxYear
		if taxYear == 0 {
			taxYear = in.EventDate.Year()
		}

		var metadata models.JSONB
		if len(in.Metadata) > 0 {
			raw, err := json.Marshal(in.Metadata)
			if err != nil {
				return nil, fmt.Errorf("record %d: failed to encode metadata: %w", i, err)
			}
			metadata = models.JSONB(raw)
		}

		sourceID := in.SourceRecordID
		events = append(events, &models.TaxEvent{
			TaxpayerID:     in.TaxpayerID,
			SourceRecordID: &sourceID,
			EventType:      in.EventTypeCode,
			EventDate:      in.EventDate,
			Amount:         in.Amount,
			Currency:       in.Currency,
			Metadata:       metadata,
			TaxYear:        taxYear,
		})
	}
	return events, nil
}
