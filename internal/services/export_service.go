package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/salyq-kz/declaration-service/internal/models"
	"github.com/salyq-kz/declaration-service/internal/repository"
	"github.com/salyq-kz/declaration-service/internal/workflow"
	"github.com/salyq-kz/declaration-service/internal/xmlgen"
)

// ExportService renders declarations into the regulator's XML layout and
// keeps the version history
type ExportService struct {
	decls   *repository.DeclarationRepository
	catalog *repository.CatalogRepository
}

// NewExportService creates a new export service
func NewExportService(decls *repository.DeclarationRepository, catalog *repository.CatalogRepository) *ExportService {
	return &ExportService{decls: decls, catalog: catalog}
}

// ProjectXML serializes the declaration into the fno tree and appends it as
// the next export version. The declaration must have passed validation.
func (s *ExportService) ProjectXML(ctx context.Context, declarationID uuid.UUID) (*models.XmlExport, error) {
	fieldMaps, err := s.catalog.FieldMaps(ctx)
	if err != nil {
		return nil, err
	}

	var exp *models.XmlExport
	err = s.decls.Transaction(ctx, func(tx *repository.DeclarationRepository) error {
		decl, err := tx.LockByID(ctx, declarationID)
		if err != nil {
			return err
		}
		if err := workflow.CheckExportable(decl.Status); err != nil {
			return err
		}
		items, err := tx.ItemsByDeclaration(ctx, decl.ID)
		if err != nil {
			return err
		}

		payload, hash, err := xmlgen.Project(decl, items, fieldMaps)
		if err != nil {
			return err
		}

		exp = &models.XmlExport{
			DeclarationID: decl.ID,
			Payload:       payload,
			ContentHash:   hash,
		}
		if err := tx.CreateExport(ctx, exp); err != nil {
			return err
		}

		now := time.Now().UTC()
		decl.ExportedAt = &now
		return tx.Save(ctx, decl)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"declaration_id": declarationID,
		"schema_version": exp.SchemaVersion,
		"content_hash":   exp.ContentHash,
	}).Info("Projected declaration XML")

	return exp, nil
}

// Exports returns every XML version of a declaration, oldest first
func (s *ExportService) Exports(ctx context.Context, declarationID uuid.UUID) ([]models.XmlExport, error) {
	if _, err := s.decls.GetByID(ctx, declarationID); err != nil {
		return nil, err
	}
	return s.decls.ExportsByDeclaration(ctx, declarationID)
}

// Latest returns the newest XML version of a declaration
func (s *ExportService) Latest(ctx context.Context, declarationID uuid.UUID) (*models.XmlExport, error) {
	return s.decls.LatestExport(ctx, declarationID)
}
