package models

// Logical field codes of form 270.00. The engine's subtotal phases and the
// XML field map reference these; the seed loads them into the catalog.
const (
	FieldIncomePropertyKZ     = "LF_INCOME_PROPERTY_KZ"
	FieldIncomePropertyAbroad = "LF_INCOME_PROPERTY_ABROAD"
	FieldIncomePropertyOther  = "LF_INCOME_PROPERTY_OTHER"
	FieldIncomePropertyTotal  = "LF_INCOME_PROPERTY_TOTAL"

	FieldIncomeForeignDividends    = "LF_INCOME_FOREIGN_DIVIDENDS"
	FieldIncomeForeignInterest     = "LF_INCOME_FOREIGN_INTEREST"
	FieldIncomeForeignRoyalty      = "LF_INCOME_FOREIGN_ROYALTY"
	FieldIncomeForeignEmployment   = "LF_INCOME_FOREIGN_EMPLOYMENT"
	FieldIncomeForeignBusiness     = "LF_INCOME_FOREIGN_BUSINESS"
	FieldIncomeForeignCapitalGains = "LF_INCOME_FOREIGN_CAPITAL_GAINS"
	FieldIncomeForeignRent         = "LF_INCOME_FOREIGN_RENT"
	FieldIncomeForeignPension      = "LF_INCOME_FOREIGN_PENSION"
	FieldIncomeForeignOther        = "LF_INCOME_FOREIGN_OTHER"
	FieldIncomeForeignTotal        = "LF_INCOME_FOREIGN_TOTAL"

	FieldIncomeRentNonAgent          = "LF_INCOME_RENT_NON_AGENT"
	FieldIncomeAssignment            = "LF_INCOME_ASSIGNMENT"
	FieldIncomeIPOtherAssets         = "LF_INCOME_IP_OTHER_ASSETS"
	FieldIncomeEmploymentNonAgent    = "LF_INCOME_EMPLOYMENT_NON_AGENT"
	FieldIncomeCivilContractNonAgent = "LF_INCOME_CIVIL_CONTRACT_NON_AGENT"
	FieldIncomeDomesticWorker        = "LF_INCOME_DOMESTIC_WORKER"
	FieldIncomeMigrantLabor          = "LF_INCOME_MIGRANT_LABOR"
	FieldIncomeMediation             = "LF_INCOME_MEDIATION"
	FieldIncomeOtherNonAgent         = "LF_INCOME_OTHER_NON_AGENT"
	FieldIncomeCFCProfit             = "LF_INCOME_CFC_PROFIT"
	FieldIncomeTotal                 = "LF_INCOME_TOTAL"

	FieldDeductionStandard = "LF_DEDUCTION_STANDARD"
	FieldDeductionOther    = "LF_DEDUCTION_OTHER"
	FieldDeductionTotal    = "LF_DEDUCTION_TOTAL"

	FieldAdjustmentExempt  = "LF_ADJUSTMENT_EXEMPT"
	FieldAdjustmentSocial  = "LF_ADJUSTMENT_SOCIAL"
	FieldAdjustmentPension = "LF_ADJUSTMENT_PENSION"
	FieldAdjustmentOther   = "LF_ADJUSTMENT_OTHER"
	FieldAdjustmentTotal   = "LF_ADJUSTMENT_TOTAL"

	FieldTaxableIncome = "LF_TAXABLE_INCOME"
	FieldIPNCalculated = "LF_IPN_CALCULATED"
	FieldIPNPayable    = "LF_IPN_PAYABLE"

	FieldForeignTaxCreditGeneral = "LF_FOREIGN_TAX_CREDIT_GENERAL"
	FieldForeignTaxCreditCFC     = "LF_FOREIGN_TAX_CREDIT_CFC"

	FieldAssetsDeclaredTotal  = "LF_ASSETS_DECLARED_TOTAL"
	FieldDebtsReceivableTotal = "LF_DEBTS_RECEIVABLE_TOTAL"
	FieldDebtsPayableTotal    = "LF_DEBTS_PAYABLE_TOTAL"
)

// PropertyIncomeFields are the components of the property-sale subtotal
var PropertyIncomeFields = []string{
	FieldIncomePropertyKZ,
	FieldIncomePropertyAbroad,
	FieldIncomePropertyOther,
}

// ForeignIncomeFields are the components of the foreign-income subtotal
var ForeignIncomeFields = []string{
	FieldIncomeForeignDividends,
	FieldIncomeForeignInterest,
	FieldIncomeForeignRoyalty,
	FieldIncomeForeignEmployment,
	FieldIncomeForeignBusiness,
	FieldIncomeForeignCapitalGains,
	FieldIncomeForeignRent,
	FieldIncomeForeignPension,
	FieldIncomeForeignOther,
}

// DeductionFields are the components of the deduction subtotal
var DeductionFields = []string{
	FieldDeductionStandard,
	FieldDeductionOther,
}

// AdjustmentFields are the components of the adjustment subtotal
var AdjustmentFields = []string{
	FieldAdjustmentExempt,
	FieldAdjustmentSocial,
	FieldAdjustmentPension,
	FieldAdjustmentOther,
}

// PrimaryIncomeFields are the categories summed into the income total
var PrimaryIncomeFields = []string{
	FieldIncomePropertyTotal,
	FieldIncomeRentNonAgent,
	FieldIncomeAssignment,
	FieldIncomeIPOtherAssets,
	FieldIncomeForeignTotal,
	FieldIncomeEmploymentNonAgent,
	FieldIncomeCivilContractNonAgent,
	FieldIncomeDomesticWorker,
	FieldIncomeMigrantLabor,
	FieldIncomeMediation,
	FieldIncomeOtherNonAgent,
	FieldIncomeCFCProfit,
}

// Event type codes understood by the shipped rule set
const (
	EventPropertySaleKZ     = "EV_PROPERTY_SALE_KZ"
	EventPropertySaleAbroad = "EV_PROPERTY_SALE_ABROAD"
	EventPropertySaleOther  = "EV_PROPERTY_SALE_OTHER"

	EventForeignDividends    = "EV_FOREIGN_DIVIDENDS"
	EventForeignInterest     = "EV_FOREIGN_INTEREST"
	EventForeignRoyalty      = "EV_FOREIGN_ROYALTY"
	EventForeignEmployment   = "EV_FOREIGN_EMPLOYMENT"
	EventForeignBusiness     = "EV_FOREIGN_BUSINESS"
	EventForeignCapitalGains = "EV_FOREIGN_CAPITAL_GAINS"
	EventForeignRent         = "EV_FOREIGN_RENT"
	EventForeignPension      = "EV_FOREIGN_PENSION"
	EventForeignOther        = "EV_FOREIGN_OTHER"

	EventRentNonAgent          = "EV_RENT_NON_AGENT"
	EventAssignmentIncome      = "EV_ASSIGNMENT_INCOME"
	EventIPOtherAssetsSale     = "EV_IP_OTHER_ASSETS_SALE"
	EventEmploymentNonAgent    = "EV_EMPLOYMENT_NON_AGENT"
	EventCivilContractNonAgent = "EV_CIVIL_CONTRACT_NON_AGENT"
	EventDomesticWorker        = "EV_DOMESTIC_WORKER"
	EventMigrantLabor          = "EV_MIGRANT_LABOR"
	EventMediationIncome       = "EV_MEDIATION_INCOME"
	EventOtherNonAgent         = "EV_OTHER_NON_AGENT"
	EventCFCProfit             = "EV_CFC_PROFIT"

	EventDeductionStandard = "EV_DEDUCTION_STANDARD"
	EventDeductionOther    = "EV_DEDUCTION_OTHER"

	EventAdjustmentExempt  = "EV_ADJUSTMENT_EXEMPT"
	EventAdjustmentSocial  = "EV_ADJUSTMENT_SOCIAL"
	EventAdjustmentPension = "EV_ADJUSTMENT_PENSION"
	EventAdjustmentOther   = "EV_ADJUSTMENT_OTHER"

	EventForeignTaxPaidGeneral = "EV_FOREIGN_TAX_PAID_GENERAL"
	EventForeignTaxPaidCFC     = "EV_FOREIGN_TAX_PAID_CFC"

	EventAssetDeclared  = "EV_ASSET_DECLARED"
	EventDebtReceivable = "EV_DEBT_RECEIVABLE"
	EventDebtPayable    = "EV_DEBT_PAYABLE"
)
