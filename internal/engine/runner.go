package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
)

// Options fixes one engine run's inputs beyond events and rules
type Options struct {
	TaxYear    int
	AllowEmpty bool
	// KnownEventTypes, when non-nil, makes the run fail on events whose type
	// is not in the catalog.
	KnownEventTypes map[string]bool
}

// Mapping records one map action firing
type Mapping struct {
	TaxEventID   uuid.UUID       `json:"taxEventId"`
	TaxYear      int             `json:"taxYear"`
	LogicalField string          `json:"logicalField"`
	Amount       decimal.Decimal `json:"amount"`
	RuleID       uuid.UUID       `json:"ruleId"`
}

// Calculation records one calc action firing
type Calculation struct {
	LogicalField string          `json:"logicalField"`
	Value        decimal.Decimal `json:"value"`
	RuleID       uuid.UUID       `json:"ruleId"`
}

// RuleError is a non-fatal per-rule failure; the run continues past it
type RuleError struct {
	RuleID   uuid.UUID  `json:"ruleId"`
	RuleCode string     `json:"ruleCode"`
	EventID  *uuid.UUID `json:"eventId,omitempty"`
	Message  string     `json:"message"`
}

// Stats counts what the run did
type Stats struct {
	EventsProcessed int `json:"eventsProcessed"`
	EventsExcluded  int `json:"eventsExcluded"`
	RulesMatched    int `json:"rulesMatched"`
	MappingsCreated int `json:"mappingsCreated"`
}

// Result is the full outcome of one engine run
type Result struct {
	FieldValues      map[string]decimal.Decimal `json:"fieldValues"`
	Mappings         []Mapping                  `json:"mappings"`
	Calculations     []Calculation              `json:"calculations"`
	Flags            map[string]bool            `json:"flags"`
	ExcludedEventIDs []uuid.UUID                `json:"excludedEventIds"`
	Errors           []RuleError                `json:"errors"`
	Stats            Stats                      `json:"stats"`
}

// Run folds events and rules into a field map and flag set. The run is
// deterministic: events iterate in their given order, rules in their given
// (priority, created_at) order, and each phase reads only state settled by
// earlier phases.
func Run(events []models.TaxEvent, rules []CompiledRule, opts Options) (*Result, error) {
	if len(events) == 0 && !opts.AllowEmpty {
		return nil, apperr.Unprocessable("no tax events for year %d", opts.TaxYear)
	}
	if opts.KnownEventTypes != nil {
		for _, ev := range events {
			if !opts.KnownEventTypes[ev.EventType] {
				return nil, apperr.Conflict("event %s has unknown type %s", ev.ID, ev.EventType)
			}
		}
	}

	var exclusion, mapping, calculation, flag []CompiledRule
	for _, r := range rules {
		switch r.Kind {
		case models.RuleKindExclusion:
			exclusion = append(exclusion, r)
		case models.RuleKindMapping:
			mapping = append(mapping, r)
		case models.RuleKindCalculation:
			calculation = append(calculation, r)
		case models.RuleKindFlag:
			flag = append(flag, r)
		default:
			return nil, fmt.Errorf("rule %s has unknown kind %s", r.Code, r.Kind)
		}
	}

	res := &Result{
		FieldValues: make(map[string]decimal.Decimal),
		Flags:       make(map[string]bool),
	}
	res.Stats.EventsProcessed = len(events)

	subjects := make([]*EventSubject, len(events))
	for i := range events {
		subjects[i] = &EventSubject{Event: &events[i]}
	}

	excluded := runExclusionPhase(res, subjects, exclusion)
	runMappingPhase(res, subjects, excluded, mapping, opts.TaxYear)
	runSubtotalPhase(res)
	runCalculationPhase(res, calculation)
	runDerivedPhase(res)
	runFlagPhase(res, flag)
	runAutoFlagPhase(res)

	return res, nil
}

// runExclusionPhase marks events matched by an exclusion rule; the first
// matching rule wins per event
func runExclusionPhase(res *Result, subjects []*EventSubject, rules []CompiledRule) map[uuid.UUID]bool {
	excluded := make(map[uuid.UUID]bool)
	for _, s := range subjects {
		for _, rule := range rules {
			if !rule.Condition.Match(s) {
				continue
			}
			res.Stats.RulesMatched++
			excluded[s.Event.ID] = true
			res.ExcludedEventIDs = append(res.ExcludedEventIDs, s.Event.ID)
			break
		}
	}
	res.Stats.EventsExcluded = len(excluded)
	return excluded
}

// runMappingPhase folds the surviving events into logical fields
func runMappingPhase(res *Result, subjects []*EventSubject, excluded map[uuid.UUID]bool, rules []CompiledRule, taxYear int) {
	for _, s := range subjects {
		if excluded[s.Event.ID] {
			continue
		}
		for _, rule := range rules {
			if !rule.Condition.Match(s) {
				continue
			}
			res.Stats.RulesMatched++
			for _, action := range rule.Actions {
				switch a := action.(type) {
				case MapAction:
					amount, err := resolveMapAmount(s, a)
					if err != nil {
						res.recordError(rule, s.Event.ID, err)
						continue
					}
					res.FieldValues[a.Target] = res.FieldValues[a.Target].Add(amount)
					res.Mappings = append(res.Mappings, Mapping{
						TaxEventID:   s.Event.ID,
						TaxYear:      taxYear,
						LogicalField: a.Target,
						Amount:       amount,
						RuleID:       rule.ID,
					})
					res.Stats.MappingsCreated++
				case FlagAction:
					for name, v := range a.Set {
						res.Flags[name] = v
					}
				case ExcludeAction:
					// exclusion is phase 1 business; ignore here
				case CalcAction:
					res.recordError(rule, s.Event.ID, fmt.Errorf("calc action in mapping rule"))
				}
			}
		}
	}
}

func resolveMapAmount(s *EventSubject, a MapAction) (decimal.Decimal, error) {
	var amount decimal.Decimal

	switch {
	case a.AmountSource == "" || a.AmountSource == "amount" || a.AmountSource == "event.amount":
		if s.Event.Amount != nil {
			amount = *s.Event.Amount
		} else if a.Fixed != nil {
			amount = *a.Fixed
		} else {
			return decimal.Zero, fmt.Errorf("event has no amount")
		}
	default:
		raw, found := s.Resolve(a.AmountSource)
		if found {
			d, ok := toDecimal(raw)
			if !ok {
				return decimal.Zero, fmt.Errorf("amount source %s is not numeric", a.AmountSource)
			}
			amount = d
		} else if a.Fixed != nil {
			amount = *a.Fixed
		} else {
			return decimal.Zero, fmt.Errorf("amount source %s not present", a.AmountSource)
		}
	}

	if a.Multiplier != nil {
		amount = amount.Mul(*a.Multiplier)
	}
	if a.Round != nil {
		amount = amount.Round(*a.Round)
	}
	return amount, nil
}

// runSubtotalPhase fills the closed set of subtotal fields that rule authors
// may omit. A subtotal is only written when it is absent and its freshly
// computed value is positive.
func runSubtotalPhase(res *Result) {
	subtotal(res.FieldValues, models.FieldIncomePropertyTotal, models.PropertyIncomeFields)
	subtotal(res.FieldValues, models.FieldIncomeForeignTotal, models.ForeignIncomeFields)
	subtotal(res.FieldValues, models.FieldDeductionTotal, models.DeductionFields)
	subtotal(res.FieldValues, models.FieldAdjustmentTotal, models.AdjustmentFields)
	subtotal(res.FieldValues, models.FieldIncomeTotal, models.PrimaryIncomeFields)
}

func subtotal(fields map[string]decimal.Decimal, target string, components []string) {
	if _, ok := fields[target]; ok {
		return
	}
	total := decimal.Zero
	for _, c := range components {
		total = total.Add(fields[c])
	}
	if total.GreaterThan(decimal.Zero) {
		fields[target] = total
	}
}

// runCalculationPhase executes calc rules in order; each calc action reads
// the current field values and overwrites its target
func runCalculationPhase(res *Result, rules []CompiledRule) {
	subject := FieldSubject(res.FieldValues)
	for _, rule := range rules {
		if !rule.Condition.Match(subject) {
			continue
		}
		res.Stats.RulesMatched++
		for _, action := range rule.Actions {
			switch a := action.(type) {
			case CalcAction:
				v := a.Formula.Eval(res.FieldValues)
				if a.Round != nil {
					v = v.Round(*a.Round)
				}
				if a.Min != nil && v.LessThan(*a.Min) {
					v = *a.Min
				}
				if a.Max != nil && v.GreaterThan(*a.Max) {
					v = *a.Max
				}
				res.FieldValues[a.Target] = v
				res.Calculations = append(res.Calculations, Calculation{
					LogicalField: a.Target,
					Value:        v,
					RuleID:       rule.ID,
				})
			case FlagAction:
				for name, v := range a.Set {
					res.Flags[name] = v
				}
			default:
				res.recordError(rule, uuid.Nil, fmt.Errorf("unsupported action in calculation rule"))
			}
		}
	}
}

var ipnRate = decimal.NewFromFloat(0.10)

// runDerivedPhase computes the tax bottom line for fields still missing or
// zero, so a rule set without explicit calculation rules yields a filing
func runDerivedPhase(res *Result) {
	fields := res.FieldValues

	if fields[models.FieldTaxableIncome].IsZero() {
		taxable := fields[models.FieldIncomeTotal].
			Sub(fields[models.FieldAdjustmentTotal]).
			Sub(fields[models.FieldDeductionTotal])
		if taxable.IsNegative() {
			taxable = decimal.Zero
		}
		fields[models.FieldTaxableIncome] = taxable
	}

	if fields[models.FieldIPNCalculated].IsZero() {
		fields[models.FieldIPNCalculated] = fields[models.FieldTaxableIncome].Mul(ipnRate).Round(0)
	}

	if fields[models.FieldIPNPayable].IsZero() {
		payable := fields[models.FieldIPNCalculated].
			Sub(fields[models.FieldForeignTaxCreditGeneral]).
			Sub(fields[models.FieldForeignTaxCreditCFC])
		if payable.IsNegative() {
			payable = decimal.Zero
		}
		fields[models.FieldIPNPayable] = payable
	}
}

// runFlagPhase applies flag rules against the settled field values
func runFlagPhase(res *Result, rules []CompiledRule) {
	subject := FieldSubject(res.FieldValues)
	for _, rule := range rules {
		if !rule.Condition.Match(subject) {
			continue
		}
		res.Stats.RulesMatched++
		for _, action := range rule.Actions {
			if a, ok := action.(FlagAction); ok {
				for name, v := range a.Set {
					res.Flags[name] = v
				}
			}
		}
	}
}

// runAutoFlagPhase derives the presentation flags the form renderer needs
func runAutoFlagPhase(res *Result) {
	fields := res.FieldValues
	positive := func(code string) bool {
		return fields[code].GreaterThan(decimal.Zero)
	}

	res.Flags["has_income"] = positive(models.FieldIncomeTotal)
	res.Flags["has_deductions"] = positive(models.FieldDeductionTotal)

	res.Flags["has_foreign_income"] = positive(models.FieldIncomeForeignTotal)
	if res.Flags["has_foreign_income"] {
		res.Flags["pril_2"] = true
	}

	res.Flags["has_cfc"] = positive(models.FieldIncomeCFCProfit)
	if res.Flags["has_cfc"] {
		res.Flags["pril_3"] = true
	}

	if positive(models.FieldIncomePropertyTotal) ||
		positive(models.FieldIncomeRentNonAgent) ||
		positive(models.FieldIncomeOtherNonAgent) {
		res.Flags["pril_1"] = true
	}
}

func (r *Result) recordError(rule CompiledRule, eventID uuid.UUID, err error) {
	re := RuleError{RuleID: rule.ID, RuleCode: rule.Code, Message: err.Error()}
	if eventID != uuid.Nil {
		id := eventID
		re.EventID = &id
	}
	r.Errors = append(r.Errors, re)
}
