package services

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/engine"
	"github.com/salyq-kz/declaration-service/internal/models"
	"github.com/salyq-kz/declaration-service/internal/repository"
)

// CatalogService guards writes to the rule and vocabulary catalogs. Every
// rule is compiled before it is stored so a malformed rule never reaches the
// engine.
type CatalogService struct {
	catalog *repository.CatalogRepository
}

// NewCatalogService creates a new catalog service
func NewCatalogService(catalog *repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// CreateEventType registers an event-type code
func (s *CatalogService) CreateEventType(ctx context.Context, req *models.CreateEventTypeRequest) (*models.TaxEventType, error) {
	if !models.ValidEventTypeCode(req.Code) {
		return nil, apperr.Unprocessable("event type code must match EV_[A-Z_]+")
	}
	et := &models.TaxEventType{Code: req.Code, Description: req.Description}
	if err := s.catalog.CreateEventType(ctx, et); err != nil {
		return nil, err
	}
	return et, nil
}

// ListEventTypes returns the event-type vocabulary
func (s *CatalogService) ListEventTypes(ctx context.Context) ([]models.TaxEventType, error) {
	return s.catalog.ListEventTypes(ctx)
}

// CreateLogicalField registers a logical field code
func (s *CatalogService) CreateLogicalField(ctx context.Context, req *models.CreateLogicalFieldRequest) (*models.LogicalField, error) {
	if !models.ValidLogicalFieldCode(req.Code) {
		return nil, apperr.Unprocessable("logical field code must match LF_[A-Z_]+")
	}
	lf := &models.LogicalField{Code: req.Code, Description: req.Description}
	if err := s.catalog.CreateLogicalField(ctx, lf); err != nil {
		return nil, err
	}
	return lf, nil
}

// ListLogicalFields returns the logical-field vocabulary
func (s *CatalogService) ListLogicalFields(ctx context.Context) ([]models.LogicalField, error) {
	return s.catalog.ListLogicalFields(ctx)
}

// CreateRule stores a rule after compiling it and checking its map targets
func (s *CatalogService) CreateRule(ctx context.Context, req *models.CreateRuleRequest) (*models.TaxRule, error) {
	if !models.ValidRuleKind(req.RuleType) {
		return nil, apperr.Unprocessable("unknown rule type %s", req.RuleType)
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	priority := req.Priority
	if priority == 0 {
		priority = 100
	}

	rule := &models.TaxRule{
		RuleCode:   req.RuleCode,
		TaxYear:    req.TaxYear,
		RuleType:   req.RuleType,
		Conditions: models.JSONB(req.Conditions),
		Actions:    models.JSONB(req.Actions),
		Priority:   priority,
		Active:     active,
	}
	if err := s.checkRule(ctx, rule); err != nil {
		return nil, err
	}
	if err := s.catalog.CreateRule(ctx, rule); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"rule_code": rule.RuleCode,
		"rule_type": rule.RuleType,
	}).Info("Created catalog rule")

	return rule, nil
}

// UpdateRule replaces a rule's mutable attributes
func (s *CatalogService) UpdateRule(ctx context.Context, id uuid.UUID, req *models.UpdateRuleRequest) (*models.TaxRule, error) {
	if !models.ValidRuleKind(req.RuleType) {
		return nil, apperr.Unprocessable("unknown rule type %s", req.RuleType)
	}
	rule, err := s.catalog.RuleByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rule.TaxYear = req.TaxYear
	rule.RuleType = req.RuleType
	rule.Conditions = models.JSONB(req.Conditions)
	rule.Actions = models.JSONB(req.Actions)
	if req.Priority != 0 {
		rule.Priority = req.Priority
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}

	if err := s.checkRule(ctx, rule); err != nil {
		return nil, err
	}
	if err := s.catalog.UpdateRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// Rules lists the catalog; a year narrows it to the active rules that would
// run for that year
func (s *CatalogService) Rules(ctx context.Context, taxYear *int) ([]models.TaxRule, error) {
	if taxYear != nil {
		return s.catalog.ActiveRulesForYear(ctx, *taxYear)
	}
	return s.catalog.ListRules(ctx)
}

// checkRule compiles the rule and verifies that every map target names an
// existing logical field
func (s *CatalogService) checkRule(ctx context.Context, rule *models.TaxRule) error {
	compiled, err := engine.CompileRules([]models.TaxRule{*rule})
	if err != nil {
		return apperr.Wrap(apperr.KindUnprocessable, err, "rule does not compile")
	}
	for _, action := range compiled[0].Actions {
		if a, ok := action.(engine.MapAction); ok {
			known, err := s.catalog.LogicalFieldExists(ctx, a.Target)
			if err != nil {
				return err
			}
			if !known {
				return apperr.Unprocessable("map target %s is not a known logical field", a.Target)
			}
		}
	}
	return nil
}

// CreateFieldMap stores one XML field mapping
func (s *CatalogService) CreateFieldMap(ctx context.Context, req *models.CreateFieldMapRequest) (*models.XmlFieldMap, error) {
	if req.LogicalField != nil {
		known, err := s.catalog.LogicalFieldExists(ctx, *req.LogicalField)
		if err != nil {
			return nil, err
		}
		if !known {
			return nil, apperr.Unprocessable("logical field %s is not in the catalog", *req.LogicalField)
		}
	}
	m := &models.XmlFieldMap{
		FormCode:        req.FormCode,
		ApplicationCode: req.ApplicationCode,
		LogicalField:    req.LogicalField,
		XmlFieldName:    req.XmlFieldName,
		Position:        req.Position,
	}
	if err := s.catalog.CreateFieldMap(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// FieldMaps lists every XML field mapping
func (s *CatalogService) FieldMaps(ctx context.Context) ([]models.XmlFieldMap, error) {
	return s.catalog.FieldMaps(ctx)
}
