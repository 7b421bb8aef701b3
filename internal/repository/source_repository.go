package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
)

// SourceRepository persists source records and the tax events parsed from them
type SourceRepository struct {
	db *gorm.DB
}

// NewSourceRepository creates a new source repository
func NewSourceRepository(db *gorm.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// CreateSourceRecord inserts a source record. The (taxpayer, checksum) pair is
// unique: re-submitting an identical payload returns the stored record with
// created=false instead of a second row.
func (r *SourceRepository) CreateSourceRecord(ctx context.Context, rec *models.SourceRecord) (bool, *models.SourceRecord, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "taxpayer_id"}, {Name: "checksum"}},
			DoNothing: true,
		}).
		Create(rec)
	if res.Error != nil {
		return false, nil, fmt.Errorf("failed to create source record: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return true, rec, nil
	}

	var existing models.SourceRecord
	err := r.db.WithContext(ctx).
		First(&existing, "taxpayer_id = ? AND checksum = ?", rec.TaxpayerID, rec.Checksum).Error
	if err != nil {
		return false, nil, fmt.Errorf("failed to fetch existing source record: %w", err)
	}
	return false, &existing, nil
}

// SourceByID fetches a source record by id
func (r *SourceRepository) SourceByID(ctx context.Context, id uuid.UUID) (*models.SourceRecord, error) {
	var rec models.SourceRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("source record not found")
		}
		return nil, fmt.Errorf("failed to fetch source record: %w", err)
	}
	return &rec, nil
}

// SourcesByTaxpayer lists source records for a taxpayer, newest first
func (r *SourceRepository) SourcesByTaxpayer(ctx context.Context, taxpayerID uuid.UUID) ([]models.SourceRecord, error) {
	var out []models.SourceRecord
	err := r.db.WithContext(ctx).
		Where("taxpayer_id = ?", taxpayerID).
		Order("imported_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list source records: %w", err)
	}
	return out, nil
}

// HasEventsForSource reports whether any tax events were already parsed from
// the source record
func (r *SourceRepository) HasEventsForSource(ctx context.Context, sourceID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TaxEvent{}).
		Where("source_record_id = ?", sourceID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count events: %w", err)
	}
	return count > 0, nil
}

// InsertEvents writes all events in a single transaction; either every event
// lands or none does
func (r *SourceRepository) InsertEvents(ctx context.Context, events []*models.TaxEvent) error {
	if len(events) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ev := range events {
			if err := tx.Create(ev).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert events: %w", err)
	}
	return nil
}

// ReplaceEventsForSource deletes the events previously parsed from a source
// record and inserts the new set, atomically
func (r *SourceRepository) ReplaceEventsForSource(ctx context.Context, sourceID uuid.UUID, events []*models.TaxEvent) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("source_record_id = ?", sourceID).Delete(&models.TaxEvent{}).Error; err != nil {
			return err
		}
		for _, ev := range events {
			if err := tx.Create(ev).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace events: %w", err)
	}
	return nil
}

// EventsByTaxpayerYear returns the taxpayer's events for a tax year in a
// stable order (event date, then id)
func (r *SourceRepository) EventsByTaxpayerYear(ctx context.Context, taxpayerID uuid.UUID, taxYear int) ([]models.TaxEvent, error) {
	var out []models.TaxEvent
	err := r.db.WithContext(ctx).
		Where("taxpayer_id = ? AND tax_year = ?", taxpayerID, taxYear).
		Order("event_date ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return out, nil
}

// EventsBySource returns the events parsed from one source record
func (r *SourceRepository) EventsBySource(ctx context.Context, sourceID uuid.UUID) ([]models.TaxEvent, error) {
	var out []models.TaxEvent
	err := r.db.WithContext(ctx).
		Where("source_record_id = ?", sourceID).
		Order("event_date ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return out, nil
}

// DeactivateSource marks a source record inactive and removes its events
func (r *SourceRepository) DeactivateSource(ctx context.Context, sourceID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.SourceRecord{}).Where("id = ?", sourceID).Update("active", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("source record not found")
		}
		return tx.Where("source_record_id = ?", sourceID).Delete(&models.TaxEvent{}).Error
	})
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return err
		}
		return fmt.Errorf("failed to deactivate source record: %w", err)
	}
	return nil
}

// SaveMappings records which logical field each event contributed to during an
// engine run, replacing the previous run's rows for the year
func (r *SourceRepository) SaveMappings(ctx context.Context, taxpayerID uuid.UUID, taxYear int, mappings []*models.TaxMapping) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.
			Where("tax_year = ? AND tax_event_id IN (?)",
				taxYear,
				tx.Session(&gorm.Session{NewDB: true}).
					Model(&models.TaxEvent{}).
					Select("id").
					Where("taxpayer_id = ? AND tax_year = ?", taxpayerID, taxYear),
			).
			Delete(&models.TaxMapping{}).Error
		if err != nil {
			return err
		}
		for _, m := range mappings {
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save mappings: %w", err)
	}
	return nil
}
