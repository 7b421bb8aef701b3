package seed

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/salyq-kz/declaration-service/internal/models"
)

// eventFieldPairs drives the 1:1 mapping rule set: every event type adds its
// amount to exactly one logical field.
var eventFieldPairs = []struct {
	event string
	field string
}{
	{models.EventPropertySaleKZ, models.FieldIncomePropertyKZ},
	{models.EventPropertySaleAbroad, models.FieldIncomePropertyAbroad},
	{models.EventPropertySaleOther, models.FieldIncomePropertyOther},
	{models.EventForeignDividends, models.FieldIncomeForeignDividends},
	{models.EventForeignInterest, models.FieldIncomeForeignInterest},
	{models.EventForeignRoyalty, models.FieldIncomeForeignRoyalty},
	{models.EventForeignEmployment, models.FieldIncomeForeignEmployment},
	{models.EventForeignBusiness, models.FieldIncomeForeignBusiness},
	{models.EventForeignCapitalGains, models.FieldIncomeForeignCapitalGains},
	{models.EventForeignRent, models.FieldIncomeForeignRent},
	{models.EventForeignPension, models.FieldIncomeForeignPension},
	{models.EventForeignOther, models.FieldIncomeForeignOther},
	{models.EventRentNonAgent, models.FieldIncomeRentNonAgent},
	{models.EventAssignmentIncome, models.FieldIncomeAssignment},
	{models.EventIPOtherAssetsSale, models.FieldIncomeIPOtherAssets},
	{models.EventEmploymentNonAgent, models.FieldIncomeEmploymentNonAgent},
	{models.EventCivilContractNonAgent, models.FieldIncomeCivilContractNonAgent},
	{models.EventDomesticWorker, models.FieldIncomeDomesticWorker},
	{models.EventMigrantLabor, models.FieldIncomeMigrantLabor},
	{models.EventMediationIncome, models.FieldIncomeMediation},
	{models.EventOtherNonAgent, models.FieldIncomeOtherNonAgent},
	{models.EventCFCProfit, models.FieldIncomeCFCProfit},
	{models.EventDeductionStandard, models.FieldDeductionStandard},
	{models.EventDeductionOther, models.FieldDeductionOther},
	{models.EventAdjustmentExempt, models.FieldAdjustmentExempt},
	{models.EventAdjustmentSocial, models.FieldAdjustmentSocial},
	{models.EventAdjustmentPension, models.FieldAdjustmentPension},
	{models.EventAdjustmentOther, models.FieldAdjustmentOther},
	{models.EventForeignTaxPaidGeneral, models.FieldForeignTaxCreditGeneral},
	{models.EventForeignTaxPaidCFC, models.FieldForeignTaxCreditCFC},
	{models.EventAssetDeclared, models.FieldAssetsDeclaredTotal},
	{models.EventDebtReceivable, models.FieldDebtsReceivableTotal},
	{models.EventDebtPayable, models.FieldDebtsPayableTotal},
}

func seedRules(ctx context.Context, db *gorm.DB) error {
	rules := catalogRules()
	return insertIgnoring(ctx, db, &rules)
}

func catalogRules() []models.TaxRule {
	rules := make([]models.TaxRule, 0, len(eventFieldPairs)+8)

	for _, pair := range eventFieldPairs {
		rules = append(rules, models.TaxRule{
			RuleCode:   "MAP_" + strings.TrimPrefix(pair.event, "EV_"),
			RuleType:   models.RuleKindMapping,
			Conditions: models.JSONB(fmt.Sprintf(`{"event_type": %q}`, pair.event)),
			Actions:    models.JSONB(fmt.Sprintf(`[{"type": "map", "target": %q}]`, pair.field)),
			Priority:   100,
			Active:     true,
		})
	}

	// Property sales flagged tax-exempt at the source (for example a
	// residence held past the exemption period) never reach the mapping
	// phase.
	rules = append(rules, models.TaxRule{
		RuleCode: "EXCLUDE_PROPERTY_SALE_EXEMPT",
		RuleType: models.RuleKindExclusion,
		Conditions: models.JSONB(`{
			"all": [
				{"field": "event_type", "op": "in", "value": ["EV_PROPERTY_SALE_KZ", "EV_PROPERTY_SALE_ABROAD", "EV_PROPERTY_SALE_OTHER"]},
				{"field": "metadata.tax_exempt", "op": "eq", "value": true}
			]
		}`),
		Actions:  models.JSONB(`[{"type": "exclude"}]`),
		Priority: 10,
		Active:   true,
	})

	// Appendix checkboxes for the property and debts blocks follow the
	// accumulated totals.
	flagRules := []struct {
		code  string
		field string
		flag  string
	}{
		{"FLAG_ASSETS_DECLARED", models.FieldAssetsDeclaredTotal, "pril_4"},
		{"FLAG_DEBTS_RECEIVABLE", models.FieldDebtsReceivableTotal, "pril_5"},
		{"FLAG_DEBTS_PAYABLE", models.FieldDebtsPayableTotal, "pril_6"},
	}
	for _, fr := range flagRules {
		rules = append(rules, models.TaxRule{
			RuleCode:   fr.code,
			RuleType:   models.RuleKindFlag,
			Conditions: models.JSONB(fmt.Sprintf(`{"field": %q, "op": "gt", "value": 0}`, fr.field)),
			Actions:    models.JSONB(fmt.Sprintf(`[{"type": "flag", "set": {%q: true}}]`, fr.flag)),
			Priority:   100,
			Active:     true,
		})
	}

	// Carried over from the 2025 rule book in its original textual form;
	// the formula parser accepts both notations.
	year2025 := 2025
	rules = append(rules, models.TaxRule{
		RuleCode: "CALC_INCOME_TOTAL_2025",
		TaxYear:  &year2025,
		RuleType: models.RuleKindCalculation,
		Conditions: models.JSONB(`{"always": true}`),
		Actions: models.JSONB(`[{
			"type": "calc",
			"target": "LF_INCOME_TOTAL",
			"formula": "SUM(LF_INCOME_PROPERTY_TOTAL, LF_INCOME_RENT_NON_AGENT, LF_INCOME_ASSIGNMENT, LF_INCOME_IP_OTHER_ASSETS, LF_INCOME_FOREIGN_TOTAL, LF_INCOME_EMPLOYMENT_NON_AGENT, LF_INCOME_CIVIL_CONTRACT_NON_AGENT, LF_INCOME_DOMESTIC_WORKER, LF_INCOME_MIGRANT_LABOR, LF_INCOME_MEDIATION, LF_INCOME_OTHER_NON_AGENT, LF_INCOME_CFC_PROFIT)",
			"round": 2
		}]`),
		Priority: 200,
		Active:   true,
	})

	return rules
}
