// Package seed loads the reference catalog the service ships with: the
// event-type vocabulary, the logical fields of form 270.00, the rule set
// that wires one to the other, and the XML field map. Every insert is an
// upsert-if-absent so the command can run on every deploy.
package seed

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/salyq-kz/declaration-service/internal/models"
)

// Run loads the full catalog. Existing rows are left untouched, so local
// edits to rules or field maps survive a re-run.
func Run(ctx context.Context, db *gorm.DB) error {
	if err := seedEventTypes(ctx, db); err != nil {
		return fmt.Errorf("event types: %w", err)
	}
	if err := seedLogicalFields(ctx, db); err != nil {
		return fmt.Errorf("logical fields: %w", err)
	}
	if err := seedRules(ctx, db); err != nil {
		return fmt.Errorf("rules: %w", err)
	}
	if err := seedFieldMaps(ctx, db); err != nil {
		return fmt.Errorf("field maps: %w", err)
	}
	log.Info("Catalog seed completed")
	return nil
}

func insertIgnoring(ctx context.Context, db *gorm.DB, rows interface{}) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rows).Error
}

func seedEventTypes(ctx context.Context, db *gorm.DB) error {
	types := catalogEventTypes()
	return insertIgnoring(ctx, db, &types)
}

func catalogEventTypes() []models.TaxEventType {
	return []models.TaxEventType{
		{Code: models.EventPropertySaleKZ, Description: "Sale of property located in Kazakhstan"},
		{Code: models.EventPropertySaleAbroad, Description: "Sale of property located abroad"},
		{Code: models.EventPropertySaleOther, Description: "Sale of other property subject to declaration"},
		{Code: models.EventForeignDividends, Description: "Dividends from foreign sources"},
		{Code: models.EventForeignInterest, Description: "Interest from foreign sources"},
		{Code: models.EventForeignRoyalty, Description: "Royalties from foreign sources"},
		{Code: models.EventForeignEmployment, Description: "Employment income from foreign sources"},
		{Code: models.EventForeignBusiness, Description: "Business income from foreign sources"},
		{Code: models.EventForeignCapitalGains, Description: "Capital gains from foreign sources"},
		{Code: models.EventForeignRent, Description: "Rental income from foreign sources"},
		{Code: models.EventForeignPension, Description: "Pension income from foreign sources"},
		{Code: models.EventForeignOther, Description: "Other income from foreign sources"},
		{Code: models.EventRentNonAgent, Description: "Rental income received outside a tax agent"},
		{Code: models.EventAssignmentIncome, Description: "Income from assignment of claim rights"},
		{Code: models.EventIPOtherAssetsSale, Description: "Sale of other assets by an individual entrepreneur"},
		{Code: models.EventEmploymentNonAgent, Description: "Employment income received outside a tax agent"},
		{Code: models.EventCivilContractNonAgent, Description: "Civil-contract income received outside a tax agent"},
		{Code: models.EventDomesticWorker, Description: "Income of a domestic worker"},
		{Code: models.EventMigrantLabor, Description: "Income of a labor migrant"},
		{Code: models.EventMediationIncome, Description: "Income from mediation services"},
		{Code: models.EventOtherNonAgent, Description: "Other income received outside a tax agent"},
		{Code: models.EventCFCProfit, Description: "Profit of a controlled foreign company"},
		{Code: models.EventDeductionStandard, Description: "Standard deduction"},
		{Code: models.EventDeductionOther, Description: "Other deduction"},
		{Code: models.EventAdjustmentExempt, Description: "Income adjustment: exempt income"},
		{Code: models.EventAdjustmentSocial, Description: "Income adjustment: social payments"},
		{Code: models.EventAdjustmentPension, Description: "Income adjustment: pension contributions"},
		{Code: models.EventAdjustmentOther, Description: "Income adjustment: other"},
		{Code: models.EventForeignTaxPaidGeneral, Description: "Foreign income tax paid, creditable"},
		{Code: models.EventForeignTaxPaidCFC, Description: "Foreign tax paid on CFC profit, creditable"},
		{Code: models.EventAssetDeclared, Description: "Asset declared in the assets appendix"},
		{Code: models.EventDebtReceivable, Description: "Receivable declared in the debts appendix"},
		{Code: models.EventDebtPayable, Description: "Payable declared in the debts appendix"},
	}
}

func seedLogicalFields(ctx context.Context, db *gorm.DB) error {
	fields := catalogLogicalFields()
	return insertIgnoring(ctx, db, &fields)
}

func catalogLogicalFields() []models.LogicalField {
	return []models.LogicalField{
		{Code: models.FieldIncomePropertyKZ, Description: "Income from property sales in Kazakhstan"},
		{Code: models.FieldIncomePropertyAbroad, Description: "Income from property sales abroad"},
		{Code: models.FieldIncomePropertyOther, Description: "Income from other property sales"},
		{Code: models.FieldIncomePropertyTotal, Description: "Property income subtotal"},
		{Code: models.FieldIncomeForeignDividends, Description: "Foreign dividend income"},
		{Code: models.FieldIncomeForeignInterest, Description: "Foreign interest income"},
		{Code: models.FieldIncomeForeignRoyalty, Description: "Foreign royalty income"},
		{Code: models.FieldIncomeForeignEmployment, Description: "Foreign employment income"},
		{Code: models.FieldIncomeForeignBusiness, Description: "Foreign business income"},
		{Code: models.FieldIncomeForeignCapitalGains, Description: "Foreign capital gains"},
		{Code: models.FieldIncomeForeignRent, Description: "Foreign rental income"},
		{Code: models.FieldIncomeForeignPension, Description: "Foreign pension income"},
		{Code: models.FieldIncomeForeignOther, Description: "Other foreign income"},
		{Code: models.FieldIncomeForeignTotal, Description: "Foreign income subtotal"},
		{Code: models.FieldIncomeRentNonAgent, Description: "Rental income outside a tax agent"},
		{Code: models.FieldIncomeAssignment, Description: "Income from assignment of claim rights"},
		{Code: models.FieldIncomeIPOtherAssets, Description: "IE sale of other assets"},
		{Code: models.FieldIncomeEmploymentNonAgent, Description: "Employment income outside a tax agent"},
		{Code: models.FieldIncomeCivilContractNonAgent, Description: "Civil-contract income outside a tax agent"},
		{Code: models.FieldIncomeDomesticWorker, Description: "Domestic worker income"},
		{Code: models.FieldIncomeMigrantLabor, Description: "Labor migrant income"},
		{Code: models.FieldIncomeMediation, Description: "Mediation income"},
		{Code: models.FieldIncomeOtherNonAgent, Description: "Other income outside a tax agent"},
		{Code: models.FieldIncomeCFCProfit, Description: "CFC profit attributed to the taxpayer"},
		{Code: models.FieldIncomeTotal, Description: "Total declared income"},
		{Code: models.FieldDeductionStandard, Description: "Standard deduction"},
		{Code: models.FieldDeductionOther, Description: "Other deductions"},
		{Code: models.FieldDeductionTotal, Description: "Deductions subtotal"},
		{Code: models.FieldAdjustmentExempt, Description: "Adjustment: exempt income"},
		{Code: models.FieldAdjustmentSocial, Description: "Adjustment: social payments"},
		{Code: models.FieldAdjustmentPension, Description: "Adjustment: pension contributions"},
		{Code: models.FieldAdjustmentOther, Description: "Adjustment: other"},
		{Code: models.FieldAdjustmentTotal, Description: "Adjustments subtotal"},
		{Code: models.FieldTaxableIncome, Description: "Taxable income"},
		{Code: models.FieldIPNCalculated, Description: "Individual income tax calculated"},
		{Code: models.FieldIPNPayable, Description: "Individual income tax payable"},
		{Code: models.FieldForeignTaxCreditGeneral, Description: "Foreign tax credit, general"},
		{Code: models.FieldForeignTaxCreditCFC, Description: "Foreign tax credit, CFC"},
		{Code: models.FieldAssetsDeclaredTotal, Description: "Declared assets total"},
		{Code: models.FieldDebtsReceivableTotal, Description: "Declared receivables total"},
		{Code: models.FieldDebtsPayableTotal, Description: "Declared payables total"},
	}
}
