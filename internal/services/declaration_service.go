package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/engine"
	"github.com/salyq-kz/declaration-service/internal/models"
	"github.com/salyq-kz/declaration-service/internal/repository"
	"github.com/salyq-kz/declaration-service/internal/workflow"
)

// FormCode270 is the only form this service files
const FormCode270 = "270.00"

// DeclarationService orchestrates engine runs and the declaration lifecycle
type DeclarationService struct {
	taxpayers *repository.TaxpayerRepository
	sources   *repository.SourceRepository
	catalog   *repository.CatalogRepository
	decls     *repository.DeclarationRepository
}

// NewDeclarationService creates a new declaration service
func NewDeclarationService(
	taxpayers *repository.TaxpayerRepository,
	sources *repository.SourceRepository,
	catalog *repository.CatalogRepository,
	decls *repository.DeclarationRepository,
) *DeclarationService {
	return &DeclarationService{
		taxpayers: taxpayers,
		sources:   sources,
		catalog:   catalog,
		decls:     decls,
	}
}

// RunEngine executes the rule engine over a taxpayer's year without
// persisting anything; used to preview a declaration.
func (s *DeclarationService) RunEngine(ctx context.Context, req *models.RunEngineRequest) (*engine.Result, error) {
	if _, err := s.taxpayers.GetByID(ctx, req.TaxpayerID); err != nil {
		return nil, err
	}
	return s.run(ctx, req.TaxpayerID, req.TaxYear, req.AllowEmpty)
}

// run loads the year's events and rules and executes the engine. Inputs are
// snapshots: nothing is locked while the run computes.
func (s *DeclarationService) run(ctx context.Context, taxpayerID uuid.UUID, taxYear int, allowEmpty bool) (*engine.Result, error) {
	events, err := s.sources.EventsByTaxpayerYear(ctx, taxpayerID, taxYear)
	if err != nil {
		return nil, err
	}
	rules, err := s.catalog.ActiveRulesForYear(ctx, taxYear)
	if err != nil {
		return nil, err
	}
	compiled, err := engine.CompileRules(rules)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConflict, err, "rule catalog is malformed")
	}
	types, err := s.catalog.ListEventTypes(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(types))
	for _, t := range types {
		known[t.Code] = true
	}

	res, err := engine.Run(events, compiled, engine.Options{
		TaxYear:         taxYear,
		AllowEmpty:      allowEmpty,
		KnownEventTypes: known,
	})
	if err != nil {
		return nil, err
	}

	for _, re := range res.Errors {
		log.WithFields(log.Fields{
			"rule_code": re.RuleCode,
			"rule_id":   re.RuleID,
		}).Warn("Rule failed during engine run: " + re.Message)
	}
	log.WithFields(log.Fields{
		"taxpayer_id": taxpayerID,
		"tax_year":    taxYear,
		"events":      res.Stats.EventsProcessed,
		"excluded":    res.Stats.EventsExcluded,
		"mappings":    res.Stats.MappingsCreated,
		"rule_errors": len(res.Errors),
	}).Info("Engine run complete")

	return res, nil
}

// Generate runs the engine and persists the result as the declaration for
// (taxpayer, year, 270.00). Regeneration replaces every item, manual entries
// included; a validated declaration drops back to draft first. Item and flag
// writes share one transaction so a canceled request leaves no partial state.
func (s *DeclarationService) Generate(ctx context.Context, req *models.GenerateDeclarationRequest) (*models.Declaration, *engine.Result, error) {
	taxpayer, err := s.taxpayers.GetByID(ctx, req.TaxpayerID)
	if err != nil {
		return nil, nil, err
	}

	kind := req.Kind
	if kind == "" {
		kind = models.DeclarationKindMain
	}
	if !models.ValidDeclarationKind(kind) {
		return nil, nil, apperr.Unprocessable("unknown declaration kind %s", kind)
	}

	run, err := s.run(ctx, req.TaxpayerID, req.TaxYear, req.AllowEmpty)
	if err != nil {
		return nil, nil, err
	}

	seed := &models.Declaration{
		TaxpayerID: taxpayer.ID,
		TaxYear:    req.TaxYear,
		FormCode:   FormCode270,
		Kind:       kind,
		Status:     models.StatusDraft,
	}
	seed.SnapshotHeader(taxpayer)

	decl, _, err := s.decls.FindOrCreate(ctx, seed)
	if err != nil {
		return nil, nil, err
	}

	err = s.decls.Transaction(ctx, func(tx *repository.DeclarationRepository) error {
		locked, err := tx.LockByID(ctx, decl.ID)
		if err != nil {
			return err
		}
		if !workflow.CanRegenerate(locked.Status) {
			return apperr.Conflict("declaration is %s; regeneration is only allowed in draft or validated", locked.Status)
		}
		if workflow.DropsToDraft(locked.Status) {
			locked.Status = models.StatusDraft
			locked.ValidatedAt = nil
		}
		locked.Kind = kind
		if !locked.HeaderOverridden {
			locked.SnapshotHeader(taxpayer)
		}
		if err := locked.MergeFlags(run.Flags); err != nil {
			return err
		}
		if err := tx.ReplaceItems(ctx, locked.ID, itemsFromFieldValues(locked.ID, run.FieldValues)); err != nil {
			return err
		}
		if err := tx.Save(ctx, locked); err != nil {
			return err
		}
		decl = locked
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	// the mapping audit trail replaces the prior run's rows; it lands after
	// the declaration commit and a retry rewrites it wholesale
	mappings := make([]*models.TaxMapping, 0, len(run.Mappings))
	for _, m := range run.Mappings {
		mappings = append(mappings, &models.TaxMapping{
			TaxEventID:   m.TaxEventID,
			TaxYear:      m.TaxYear,
			LogicalField: m.LogicalField,
			Amount:       m.Amount,
			RuleID:       m.RuleID,
		})
	}
	if err := s.sources.SaveMappings(ctx, taxpayer.ID, req.TaxYear, mappings); err != nil {
		return nil, nil, err
	}

	full, err := s.decls.GetByID(ctx, decl.ID)
	if err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"declaration_id": full.ID,
		"taxpayer_id":    taxpayer.ID,
		"tax_year":       req.TaxYear,
		"items":          len(full.Items),
	}).Info("Generated declaration")

	return full, run, nil
}

// Validate runs the business gate and promotes the declaration to validated.
// The report is persisted whether or not the gate passes.
func (s *DeclarationService) Validate(ctx context.Context, id uuid.UUID) (*models.Declaration, *workflow.GateResult, error) {
	return s.transition(ctx, id, models.StatusValidated)
}

// Transition moves the declaration along one edge of the status graph. The
// draft to validated edge carries the business gate regardless of which
// operation requested it.
func (s *DeclarationService) Transition(ctx context.Context, id uuid.UUID, target models.DeclarationStatus) (*models.Declaration, error) {
	decl, _, err := s.transition(ctx, id, target)
	return decl, err
}

func (s *DeclarationService) transition(ctx context.Context, id uuid.UUID, target models.DeclarationStatus) (*models.Declaration, *workflow.GateResult, error) {
	var (
		decl    *models.Declaration
		gate    *workflow.GateResult
		gateErr error
	)
	err := s.decls.Transaction(ctx, func(tx *repository.DeclarationRepository) error {
		locked, err := tx.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if err := workflow.CheckTransition(locked.Status, target); err != nil {
			return err
		}

		if locked.Status == models.StatusDraft && target == models.StatusValidated {
			gate, err = s.runGate(ctx, tx, locked)
			if err != nil {
				return err
			}
			if !gate.Valid {
				// committing here keeps the invalid report; the 422
				// surfaces after the transaction
				gateErr = apperr.Unprocessable("declaration %s failed business validation", locked.ID)
				decl = locked
				return nil
			}
			now := time.Now().UTC()
			locked.ValidatedAt = &now
		}
		if target == models.StatusDraft {
			locked.ValidatedAt = nil
		}

		locked.Status = target
		if err := tx.Save(ctx, locked); err != nil {
			return err
		}
		decl = locked
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if gateErr != nil {
		return decl, gate, gateErr
	}

	log.WithFields(log.Fields{
		"declaration_id": decl.ID,
		"status":         decl.Status,
	}).Info("Declaration transitioned")

	return decl, gate, nil
}

// runGate evaluates the validation gate against the locked declaration and
// persists the business report
func (s *DeclarationService) runGate(ctx context.Context, tx *repository.DeclarationRepository, decl *models.Declaration) (*workflow.GateResult, error) {
	items, err := tx.ItemsByDeclaration(ctx, decl.ID)
	if err != nil {
		return nil, err
	}
	gate := workflow.ValidateGate(items)

	raw, err := json.Marshal(gate)
	if err != nil {
		return nil, fmt.Errorf("failed to encode validation report: %w", err)
	}
	report := &models.ValidationReport{
		DeclarationID: decl.ID,
		Kind:          models.ReportKindBusiness,
		IsValid:       gate.Valid,
		Report:        models.JSONB(raw),
	}
	if err := tx.SaveReport(ctx, report); err != nil {
		return nil, err
	}
	return gate, nil
}

// UpdateHeader overrides snapshot header fields by hand. The override sticks:
// later regenerations stop refreshing the header from the taxpayer.
func (s *DeclarationService) UpdateHeader(ctx context.Context, id uuid.UUID, req *models.UpdateHeaderRequest) (*models.Declaration, error) {
	var decl *models.Declaration
	err := s.decls.Transaction(ctx, func(tx *repository.DeclarationRepository) error {
		locked, err := tx.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if err := workflow.EnsureMutable(locked.Status); err != nil {
			return err
		}

		setIf := func(dst *string, src *string) {
			if src != nil {
				*dst = *src
			}
		}
		setIf(&locked.LastName, req.LastName)
		setIf(&locked.FirstName, req.FirstName)
		setIf(&locked.MiddleName, req.MiddleName)
		setIf(&locked.Phone, req.Phone)
		setIf(&locked.Email, req.Email)
		setIf(&locked.SpouseIIN, req.SpouseIIN)
		setIf(&locked.LegalRepIIN, req.LegalRepIIN)
		locked.HeaderOverridden = true

		if workflow.DropsToDraft(locked.Status) {
			locked.Status = models.StatusDraft
			locked.ValidatedAt = nil
		}
		if err := tx.Save(ctx, locked); err != nil {
			return err
		}
		decl = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decl, nil
}

// UpsertItem writes one manual item value; editing a validated declaration
// drops it back to draft
func (s *DeclarationService) UpsertItem(ctx context.Context, id uuid.UUID, req *models.UpsertItemRequest) (*models.Declaration, error) {
	known, err := s.catalog.LogicalFieldExists(ctx, req.LogicalField)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, apperr.Unprocessable("logical field %s is not in the catalog", req.LogicalField)
	}

	err = s.decls.Transaction(ctx, func(tx *repository.DeclarationRepository) error {
		locked, err := tx.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if err := workflow.EnsureMutable(locked.Status); err != nil {
			return err
		}

		item := &models.DeclarationItem{
			DeclarationID: locked.ID,
			LogicalField:  req.LogicalField,
			Value:         req.Value.Round(2),
			Source:        models.ItemSourceManual,
		}
		if err := tx.UpsertItem(ctx, item); err != nil {
			return err
		}

		if workflow.DropsToDraft(locked.Status) {
			locked.Status = models.StatusDraft
			locked.ValidatedAt = nil
			return tx.Save(ctx, locked)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.decls.GetByID(ctx, id)
}

// Get fetches a declaration with its items
func (s *DeclarationService) Get(ctx context.Context, id uuid.UUID) (*models.Declaration, error) {
	return s.decls.GetByID(ctx, id)
}

// List returns a taxpayer's declarations
func (s *DeclarationService) List(ctx context.Context, taxpayerID uuid.UUID) ([]models.Declaration, error) {
	if _, err := s.taxpayers.GetByID(ctx, taxpayerID); err != nil {
		return nil, err
	}
	return s.decls.ListByTaxpayer(ctx, taxpayerID)
}

// LatestReport returns the newest validation report of the given kind
func (s *DeclarationService) LatestReport(ctx context.Context, id uuid.UUID, kind models.ReportKind) (*models.ValidationReport, error) {
	return s.decls.LatestReport(ctx, id, kind)
}

// itemsFromFieldValues turns the engine's field map into item rows in a
// stable order, rounded to the storage scale
func itemsFromFieldValues(declarationID uuid.UUID, values map[string]decimal.Decimal) []*models.DeclarationItem {
	codes := make([]string, 0, len(values))
	for code := range values {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	items := make([]*models.DeclarationItem, 0, len(codes))
	for _, code := range codes {
		items = append(items, &models.DeclarationItem{
			DeclarationID: declarationID,
			LogicalField:  code,
			Value:         values[code].Round(2),
			Source:        models.ItemSourceRuleEngine,
		})
	}
	return items
}
