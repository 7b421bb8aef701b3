package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
)

// TaxpayerRepository persists taxpayers
type TaxpayerRepository struct {
	db *gorm.DB
}

// NewTaxpayerRepository creates a new taxpayer repository
func NewTaxpayerRepository(db *gorm.DB) *TaxpayerRepository {
	return &TaxpayerRepository{db: db}
}

// Create inserts a taxpayer; the IIN must be unique
func (r *TaxpayerRepository) Create(ctx context.Context, t *models.Taxpayer) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("taxpayer with IIN %s already exists", t.IIN)
		}
		return fmt.Errorf("failed to create taxpayer: %w", err)
	}
	return nil
}

// GetByID fetches a taxpayer by id
func (r *TaxpayerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Taxpayer, error) {
	var t models.Taxpayer
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("taxpayer not found")
		}
		return nil, fmt.Errorf("failed to fetch taxpayer: %w", err)
	}
	return &t, nil
}

// GetByIIN fetches a taxpayer by IIN
func (r *TaxpayerRepository) GetByIIN(ctx context.Context, iin string) (*models.Taxpayer, error) {
	var t models.Taxpayer
	if err := r.db.WithContext(ctx).First(&t, "iin = ?", iin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("taxpayer not found")
		}
		return nil, fmt.Errorf("failed to fetch taxpayer: %w", err)
	}
	return &t, nil
}

// List returns all taxpayers ordered by creation time
func (r *TaxpayerRepository) List(ctx context.Context) ([]models.Taxpayer, error) {
	var out []models.Taxpayer
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list taxpayers: %w", err)
	}
	return out, nil
}
