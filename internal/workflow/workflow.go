package workflow

import (
	"github.com/shopspring/decimal"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
)

// transitions is the declaration state graph. Absent keys are terminal.
var transitions = map[models.DeclarationStatus][]models.DeclarationStatus{
	models.StatusDraft:           {models.StatusValidated},
	models.StatusValidated:       {models.StatusDraft, models.StatusAwaitingConsent},
	models.StatusAwaitingConsent: {models.StatusValidated, models.StatusSigned},
	models.StatusSigned:          {models.StatusSubmitted},
	models.StatusSubmitted:       {models.StatusAccepted, models.StatusRejected},
	models.StatusRejected:        {models.StatusDraft},
}

// CanTransition reports whether the graph has an edge from -> to
func CanTransition(from, to models.DeclarationStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns a Conflict error when the edge is not in the graph
func CheckTransition(from, to models.DeclarationStatus) error {
	if !CanTransition(from, to) {
		return apperr.Conflict("cannot transition declaration from %s to %s", from, to)
	}
	return nil
}

// EnsureMutable rejects edits to declarations that left the editable states.
// Submitted and accepted declarations never change again.
func EnsureMutable(status models.DeclarationStatus) error {
	switch status {
	case models.StatusSubmitted, models.StatusAccepted:
		return apperr.Conflict("declaration is %s and can no longer be modified", status)
	case models.StatusSigned, models.StatusAwaitingConsent:
		return apperr.Conflict("declaration is %s; return it to draft before editing", status)
	}
	return nil
}

// CanRegenerate reports whether the engine may rewrite the declaration's
// items in its current status
func CanRegenerate(status models.DeclarationStatus) bool {
	return status == models.StatusDraft || status == models.StatusValidated
}

// DropsToDraft reports whether a mutation in this status knocks the
// declaration back to draft
func DropsToDraft(status models.DeclarationStatus) bool {
	return status == models.StatusValidated
}

// CheckExportable rejects XML projection for declarations that have not
// passed validation yet; every status past draft has.
func CheckExportable(status models.DeclarationStatus) error {
	if status == models.StatusDraft {
		return apperr.Conflict("declaration is draft; validate it before projecting XML")
	}
	return nil
}

// requiredFields must be present before a declaration can pass validation
var requiredFields = []string{
	models.FieldIncomeTotal,
	models.FieldTaxableIncome,
	models.FieldIPNCalculated,
}

// Check is one business validation probe
type Check struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// GateResult is the outcome of the draft -> validated gate
type GateResult struct {
	Valid  bool    `json:"valid"`
	Checks []Check `json:"checks"`
}

// ValidateGate runs the business checks required to promote a draft: the
// declaration must carry at least one item and the bottom-line fields.
func ValidateGate(items []models.DeclarationItem) *GateResult {
	res := &GateResult{Valid: true}

	fail := func(name, message string) {
		res.Valid = false
		res.Checks = append(res.Checks, Check{Name: name, OK: false, Message: message})
	}
	pass := func(name string) {
		res.Checks = append(res.Checks, Check{Name: name, OK: true})
	}

	if len(items) == 0 {
		fail("has_items", "declaration has no items")
	} else {
		pass("has_items")
	}

	present := make(map[string]decimal.Decimal, len(items))
	for _, it := range items {
		present[it.LogicalField] = it.Value
	}
	for _, code := range requiredFields {
		if _, ok := present[code]; !ok {
			fail("field_present:"+code, "missing "+code)
		} else {
			pass("field_present:" + code)
		}
	}

	if taxable, ok := present[models.FieldTaxableIncome]; ok && taxable.IsNegative() {
		fail("taxable_non_negative", "taxable income is negative")
	}

	return res
}
