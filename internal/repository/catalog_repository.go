package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
)

// CatalogRepository persists the rule and vocabulary catalogs. Reads are served
// from an in-process cache; any catalog write invalidates it.
type CatalogRepository struct {
	db *gorm.DB

	mu            sync.RWMutex
	rulesByYear   map[int][]models.TaxRule
	eventTypes    map[string]bool
	logicalFields map[string]bool
	fieldMaps     []models.XmlFieldMap
}

// NewCatalogRepository creates a new catalog repository
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{
		db:          db,
		rulesByYear: make(map[int][]models.TaxRule),
	}
}

func (r *CatalogRepository) invalidate() {
	r.mu.Lock()
	r.rulesByYear = make(map[int][]models.TaxRule)
	r.eventTypes = nil
	r.logicalFields = nil
	r.fieldMaps = nil
	r.mu.Unlock()
}

// CreateEventType inserts an event-type code
func (r *CatalogRepository) CreateEventType(ctx context.Context, et *models.TaxEventType) error {
	if err := r.db.WithContext(ctx).Create(et).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("event type %s already exists", et.Code)
		}
		return fmt.Errorf("failed to create event type: %w", err)
	}
	r.invalidate()
	return nil
}

// ListEventTypes returns all event-type codes ordered by code
func (r *CatalogRepository) ListEventTypes(ctx context.Context) ([]models.TaxEventType, error) {
	var out []models.TaxEventType
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list event types: %w", err)
	}
	return out, nil
}

// EventTypeExists reports whether the code is registered in the catalog
func (r *CatalogRepository) EventTypeExists(ctx context.Context, code string) (bool, error) {
	r.mu.RLock()
	cached := r.eventTypes
	r.mu.RUnlock()
	if cached != nil {
		return cached[code], nil
	}

	types, err := r.ListEventTypes(ctx)
	if err != nil {
		return false, err
	}
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t.Code] = true
	}
	r.mu.Lock()
	r.eventTypes = set
	r.mu.Unlock()
	return set[code], nil
}

// CreateLogicalField inserts a logical field code
func (r *CatalogRepository) CreateLogicalField(ctx context.Context, lf *models.LogicalField) error {
	if err := r.db.WithContext(ctx).Create(lf).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("logical field %s already exists", lf.Code)
		}
		return fmt.Errorf("failed to create logical field: %w", err)
	}
	r.invalidate()
	return nil
}

// ListLogicalFields returns all logical fields ordered by code
func (r *CatalogRepository) ListLogicalFields(ctx context.Context) ([]models.LogicalField, error) {
	var out []models.LogicalField
	if err := r.db.WithContext(ctx).Order("code ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list logical fields: %w", err)
	}
	return out, nil
}

// LogicalFieldExists reports whether the code is registered in the catalog
func (r *CatalogRepository) LogicalFieldExists(ctx context.Context, code string) (bool, error) {
	r.mu.RLock()
	cached := r.logicalFields
	r.mu.RUnlock()
	if cached != nil {
		return cached[code], nil
	}

	fields, err := r.ListLogicalFields(ctx)
	if err != nil {
		return false, err
	}
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f.Code] = true
	}
	r.mu.Lock()
	r.logicalFields = set
	r.mu.Unlock()
	return set[code], nil
}

// CreateRule inserts a catalog rule
func (r *CatalogRepository) CreateRule(ctx context.Context, rule *models.TaxRule) error {
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("rule %s already exists", rule.RuleCode)
		}
		return fmt.Errorf("failed to create rule: %w", err)
	}
	r.invalidate()
	return nil
}

// UpdateRule overwrites a rule's mutable attributes
func (r *CatalogRepository) UpdateRule(ctx context.Context, rule *models.TaxRule) error {
	res := r.db.WithContext(ctx).
		Model(&models.TaxRule{}).
		Where("id = ?", rule.ID).
		Updates(map[string]interface{}{
			"tax_year":   rule.TaxYear,
			"rule_type":  rule.RuleType,
			"conditions": rule.Conditions,
			"actions":    rule.Actions,
			"priority":   rule.Priority,
			"active":     rule.Active,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update rule: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("rule not found")
	}
	r.invalidate()
	return nil
}

// RuleByID fetches one rule
func (r *CatalogRepository) RuleByID(ctx context.Context, id uuid.UUID) (*models.TaxRule, error) {
	var rule models.TaxRule
	if err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("rule not found")
		}
		return nil, fmt.Errorf("failed to fetch rule: %w", err)
	}
	return &rule, nil
}

// ListRules returns all rules ordered by priority then creation time
func (r *CatalogRepository) ListRules(ctx context.Context) ([]models.TaxRule, error) {
	var out []models.TaxRule
	err := r.db.WithContext(ctx).Order("priority ASC, created_at ASC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return out, nil
}

// ActiveRulesForYear returns the active rules applicable to a tax year: rules
// with a matching tax_year plus year-agnostic rules, ordered by priority then
// creation time
func (r *CatalogRepository) ActiveRulesForYear(ctx context.Context, taxYear int) ([]models.TaxRule, error) {
	r.mu.RLock()
	cached, ok := r.rulesByYear[taxYear]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	var out []models.TaxRule
	err := r.db.WithContext(ctx).
		Where("active = ? AND (tax_year IS NULL OR tax_year = ?)", true, taxYear).
		Order("priority ASC, created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active rules: %w", err)
	}

	r.mu.Lock()
	r.rulesByYear[taxYear] = out
	r.mu.Unlock()
	return out, nil
}

// CreateFieldMap inserts one XML field mapping
func (r *CatalogRepository) CreateFieldMap(ctx context.Context, m *models.XmlFieldMap) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("field map %s/%s/%s already exists",
				m.FormCode, m.ApplicationCode, m.XmlFieldName)
		}
		return fmt.Errorf("failed to create field map: %w", err)
	}
	r.invalidate()
	return nil
}

// FieldMaps returns every XML field mapping ordered by form, application and
// position
func (r *CatalogRepository) FieldMaps(ctx context.Context) ([]models.XmlFieldMap, error) {
	r.mu.RLock()
	cached := r.fieldMaps
	r.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	var out []models.XmlFieldMap
	err := r.db.WithContext(ctx).
		Order("form_code ASC, application_code ASC, position ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list field maps: %w", err)
	}

	r.mu.Lock()
	r.fieldMaps = out
	r.mu.Unlock()
	return out, nil
}
