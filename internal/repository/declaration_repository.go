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

// DeclarationRepository persists declarations, their items, validation reports
// and XML exports
type DeclarationRepository struct {
	db *gorm.DB
}

// NewDeclarationRepository creates a new declaration repository
func NewDeclarationRepository(db *gorm.DB) *DeclarationRepository {
	return &DeclarationRepository{db: db}
}

// Transaction runs fn with a repository bound to a database transaction
func (r *DeclarationRepository) Transaction(ctx context.Context, fn func(tx *DeclarationRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&DeclarationRepository{db: tx})
	})
}

// FindOrCreate returns the declaration for (taxpayer, year, form), creating a
// draft when none exists
func (r *DeclarationRepository) FindOrCreate(ctx context.Context, decl *models.Declaration) (*models.Declaration, bool, error) {
	var existing models.Declaration
	err := r.db.WithContext(ctx).
		First(&existing, "taxpayer_id = ? AND tax_year = ? AND form_code = ?",
			decl.TaxpayerID, decl.TaxYear, decl.FormCode).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to fetch declaration: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(decl).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the race, someone else created it
			err = r.db.WithContext(ctx).
				First(&existing, "taxpayer_id = ? AND tax_year = ? AND form_code = ?",
					decl.TaxpayerID, decl.TaxYear, decl.FormCode).Error
			if err != nil {
				return nil, false, fmt.Errorf("failed to fetch declaration: %w", err)
			}
			return &existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create declaration: %w", err)
	}
	return decl, true, nil
}

// GetByID fetches a declaration with its items
func (r *DeclarationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Declaration, error) {
	var decl models.Declaration
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("logical_field ASC") }).
		First(&decl, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("declaration not found")
		}
		return nil, fmt.Errorf("failed to fetch declaration: %w", err)
	}
	return &decl, nil
}

// LockByID fetches a declaration with a row lock; call inside Transaction
func (r *DeclarationRepository) LockByID(ctx context.Context, id uuid.UUID) (*models.Declaration, error) {
	var decl models.Declaration
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&decl, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("declaration not found")
		}
		return nil, fmt.Errorf("failed to lock declaration: %w", err)
	}
	return &decl, nil
}

// ListByTaxpayer returns a taxpayer's declarations, newest year first
func (r *DeclarationRepository) ListByTaxpayer(ctx context.Context, taxpayerID uuid.UUID) ([]models.Declaration, error) {
	var out []models.Declaration
	err := r.db.WithContext(ctx).
		Where("taxpayer_id = ?", taxpayerID).
		Order("tax_year DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list declarations: %w", err)
	}
	return out, nil
}

// Save persists changed declaration columns
func (r *DeclarationRepository) Save(ctx context.Context, decl *models.Declaration) error {
	if err := r.db.WithContext(ctx).Omit("Items", "Reports").Save(decl).Error; err != nil {
		return fmt.Errorf("failed to save declaration: %w", err)
	}
	return nil
}

// ReplaceItems deletes every item of the declaration and inserts the new set
func (r *DeclarationRepository) ReplaceItems(ctx context.Context, declarationID uuid.UUID, items []*models.DeclarationItem) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("declaration_id = ?", declarationID).Delete(&models.DeclarationItem{}).Error; err != nil {
			return err
		}
		for _, it := range items {
			if err := tx.Create(it).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace items: %w", err)
	}
	return nil
}

// UpsertItem writes one item keyed by (declaration, logical field)
func (r *DeclarationRepository) UpsertItem(ctx context.Context, item *models.DeclarationItem) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "declaration_id"}, {Name: "logical_field"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "source"}),
		}).
		Create(item).Error
	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}
	return nil
}

// ItemsByDeclaration returns a declaration's items ordered by logical field
func (r *DeclarationRepository) ItemsByDeclaration(ctx context.Context, declarationID uuid.UUID) ([]models.DeclarationItem, error) {
	var out []models.DeclarationItem
	err := r.db.WithContext(ctx).
		Where("declaration_id = ?", declarationID).
		Order("logical_field ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return out, nil
}

// SaveReport stores a validation report
func (r *DeclarationRepository) SaveReport(ctx context.Context, report *models.ValidationReport) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// LatestReport returns the newest report of the given kind, or NotFound
func (r *DeclarationRepository) LatestReport(ctx context.Context, declarationID uuid.UUID, kind models.ReportKind) (*models.ValidationReport, error) {
	var report models.ValidationReport
	err := r.db.WithContext(ctx).
		Where("declaration_id = ? AND kind = ?", declarationID, kind).
		Order("created_at DESC").
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("validation report not found")
		}
		return nil, fmt.Errorf("failed to fetch report: %w", err)
	}
	return &report, nil
}

// CreateExport stores an XML export with the next schema version for the
// declaration. Versions are assigned inside a transaction so concurrent
// exports never share one.
func (r *DeclarationRepository) CreateExport(ctx context.Context, exp *models.XmlExport) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.XmlExport{}).
			Where("declaration_id = ?", exp.DeclarationID).
			Count(&count).Error
		if err != nil {
			return err
		}
		exp.SchemaVersion = int(count) + 1
		return tx.Create(exp).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create export: %w", err)
	}
	return nil
}

// ExportsByDeclaration returns exports oldest version first
func (r *DeclarationRepository) ExportsByDeclaration(ctx context.Context, declarationID uuid.UUID) ([]models.XmlExport, error) {
	var out []models.XmlExport
	err := r.db.WithContext(ctx).
		Where("declaration_id = ?", declarationID).
		Order("schema_version ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	return out, nil
}

// LatestExport returns the newest export, or NotFound
func (r *DeclarationRepository) LatestExport(ctx context.Context, declarationID uuid.UUID) (*models.XmlExport, error) {
	var exp models.XmlExport
	err := r.db.WithContext(ctx).
		Where("declaration_id = ?", declarationID).
		Order("schema_version DESC").
		First(&exp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("xml export not found")
		}
		return nil, fmt.Errorf("failed to fetch export: %w", err)
	}
	return &exp, nil
}
