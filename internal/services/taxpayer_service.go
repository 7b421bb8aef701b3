package services

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
	"github.com/salyq-kz/declaration-service/internal/repository"
)

// TaxpayerService handles taxpayer registration and lookup
type TaxpayerService struct {
	taxpayers *repository.TaxpayerRepository
}

// NewTaxpayerService creates a new taxpayer service
func NewTaxpayerService(taxpayers *repository.TaxpayerRepository) *TaxpayerService {
	return &TaxpayerService{taxpayers: taxpayers}
}

// Create registers a taxpayer; the IIN is immutable afterwards
func (s *TaxpayerService) Create(ctx context.Context, req *models.CreateTaxpayerRequest) (*models.Taxpayer, error) {
	if !models.ValidIIN(req.IIN) {
		return nil, apperr.Unprocessable("IIN must be exactly 12 digits")
	}

	kind := req.Kind
	if kind == "" {
		kind = models.TaxpayerKindIndividual
	}
	switch kind {
	case models.TaxpayerKindIndividual, models.TaxpayerKindBusiness:
	default:
		return nil, apperr.Unprocessable("unknown taxpayer kind %s", kind)
	}

	resident := true
	if req.Resident != nil {
		resident = *req.Resident
	}

	t := &models.Taxpayer{
		IIN:        req.IIN,
		Kind:       kind,
		LastName:   req.LastName,
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		Phone:      req.Phone,
		Email:      req.Email,
		Resident:   resident,
	}
	if err := s.taxpayers.Create(ctx, t); err != nil {
		return nil, err
	}

	log.WithField("taxpayer_id", t.ID).Info("Registered taxpayer")
	return t, nil
}

// Get fetches a taxpayer by id
func (s *TaxpayerService) Get(ctx context.Context, id uuid.UUID) (*models.Taxpayer, error) {
	return s.taxpayers.GetByID(ctx, id)
}

// GetByIIN fetches a taxpayer by identification number
func (s *TaxpayerService) GetByIIN(ctx context.Context, iin string) (*models.Taxpayer, error) {
	if !models.ValidIIN(iin) {
		return nil, apperr.Unprocessable("IIN must be exactly 12 digits")
	}
	return s.taxpayers.GetByIIN(ctx, iin)
}

// List returns every taxpayer
func (s *TaxpayerService) List(ctx context.Context) ([]models.Taxpayer, error) {
	return s.taxpayers.List(ctx)
}
