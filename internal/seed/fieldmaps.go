package seed

import (
	"context"

	"gorm.io/gorm"

	"github.com/salyq-kz/declaration-service/internal/models"
)

// fieldMapRow keeps the inventory table readable; lf == "" means the field
// is filled from the declaration header, not a computed item.
type fieldMapRow struct {
	form string
	app  string
	lf   string
	name string
	pos  int
}

// fieldMapRows is the complete 270.00 XML layout. Positions are global per
// form so the projector's ordering is total.
var fieldMapRows = []fieldMapRow{
	// title page
	{"270.00", "page_270_00_01", "", "iin", 1},
	{"270.00", "page_270_00_01", "", "period_year", 2},
	{"270.00", "page_270_00_01", "", "fio1", 3},
	{"270.00", "page_270_00_01", "", "fio2", 4},
	{"270.00", "page_270_00_01", "", "fio3", 5},
	{"270.00", "page_270_00_01", "", "payer_phone_number", 6},
	{"270.00", "page_270_00_01", "", "email", 7},
	{"270.00", "page_270_00_01", "", "dt_main", 8},
	{"270.00", "page_270_00_01", "", "dt_regular", 9},
	{"270.00", "page_270_00_01", "", "dt_additional", 10},
	{"270.00", "page_270_00_01", "", "dt_notice", 11},
	{"270.00", "page_270_00_01", "", "spouse_iin", 12},
	{"270.00", "page_270_00_01", "", "legal_rep_iin", 13},
	{"270.00", "page_270_00_01", "", "pril_1", 14},
	{"270.00", "page_270_00_01", "", "pril_2", 15},
	{"270.00", "page_270_00_01", "", "pril_3", 16},
	{"270.00", "page_270_00_01", "", "pril_4", 17},
	{"270.00", "page_270_00_01", "", "pril_5", 18},
	{"270.00", "page_270_00_01", "", "pril_6", 19},
	{"270.00", "page_270_00_01", "", "pril_7", 20},

	// adjustment and deduction breakdown
	{"270.00", "page_270_00_02", models.FieldAdjustmentExempt, "field_270_00_001", 21},
	{"270.00", "page_270_00_02", models.FieldAdjustmentSocial, "field_270_00_002", 22},
	{"270.00", "page_270_00_02", models.FieldAdjustmentPension, "field_270_00_003", 23},
	{"270.00", "page_270_00_02", models.FieldAdjustmentOther, "field_270_00_004", 24},
	{"270.00", "page_270_00_02", models.FieldDeductionStandard, "field_270_00_005", 25},
	{"270.00", "page_270_00_02", models.FieldDeductionOther, "field_270_00_006", 26},

	// appendix 1: tax computation. D sums the twelve income categories,
	// G = D - E - F, K = max(0, H - I - J).
	{"270.01", "page_270_01_01", models.FieldIncomePropertyTotal, "field_270_01_A", 1},
	{"270.01", "page_270_01_01", models.FieldIncomeForeignTotal, "field_270_01_B", 2},
	{"270.01", "page_270_01_01", models.FieldIncomeCFCProfit, "field_270_01_C", 3},
	{"270.01", "page_270_01_01", models.FieldIncomeTotal, "field_270_01_D", 4},
	{"270.01", "page_270_01_01", models.FieldAdjustmentTotal, "field_270_01_E", 5},
	{"270.01", "page_270_01_01", models.FieldDeductionTotal, "field_270_01_F", 6},
	{"270.01", "page_270_01_01", models.FieldTaxableIncome, "field_270_01_G", 7},
	{"270.01", "page_270_01_01", models.FieldIPNCalculated, "field_270_01_H", 8},
	{"270.01", "page_270_01_01", models.FieldForeignTaxCreditGeneral, "field_270_01_I", 9},
	{"270.01", "page_270_01_01", models.FieldForeignTaxCreditCFC, "field_270_01_J", 10},
	{"270.01", "page_270_01_01", models.FieldIPNPayable, "field_270_01_K", 11},

	// appendix 1, page 2: domestic income detail
	{"270.01", "page_270_01_02", models.FieldIncomePropertyKZ, "field_270_01_L", 12},
	{"270.01", "page_270_01_02", models.FieldIncomePropertyAbroad, "field_270_01_M", 13},
	{"270.01", "page_270_01_02", models.FieldIncomePropertyOther, "field_270_01_N", 14},
	{"270.01", "page_270_01_02", models.FieldIncomeRentNonAgent, "field_270_01_O", 15},
	{"270.01", "page_270_01_02", models.FieldIncomeAssignment, "field_270_01_P", 16},
	{"270.01", "page_270_01_02", models.FieldIncomeIPOtherAssets, "field_270_01_Q", 17},
	{"270.01", "page_270_01_02", models.FieldIncomeEmploymentNonAgent, "field_270_01_R", 18},
	{"270.01", "page_270_01_02", models.FieldIncomeCivilContractNonAgent, "field_270_01_S", 19},
	{"270.01", "page_270_01_02", models.FieldIncomeDomesticWorker, "field_270_01_T", 20},
	{"270.01", "page_270_01_02", models.FieldIncomeMigrantLabor, "field_270_01_U", 21},
	{"270.01", "page_270_01_02", models.FieldIncomeMediation, "field_270_01_V", 22},
	{"270.01", "page_270_01_02", models.FieldIncomeOtherNonAgent, "field_270_01_W", 23},

	// appendix 2: foreign income
	{"270.02", "page_270_02_01", models.FieldIncomeForeignDividends, "field_270_02_A", 1},
	{"270.02", "page_270_02_01", models.FieldIncomeForeignInterest, "field_270_02_B", 2},
	{"270.02", "page_270_02_01", models.FieldIncomeForeignRoyalty, "field_270_02_C", 3},
	{"270.02", "page_270_02_01", models.FieldIncomeForeignEmployment, "field_270_02_D", 4},
	{"270.02", "page_270_02_01", models.FieldIncomeForeignBusiness, "field_270_02_E", 5},
	{"270.02", "page_270_02_01", models.FieldIncomeForeignCapitalGains, "field_270_02_F", 6},
	{"270.02", "page_270_02_01", models.FieldIncomeForeignRent, "field_270_02_G", 7},
	{"270.02", "page_270_02_01", models.FieldIncomeForeignPension, "field_270_02_H", 8},
	{"270.02", "page_270_02_01", models.FieldIncomeForeignOther, "field_270_02_I", 9},
	{"270.02", "page_270_02_01", models.FieldIncomeForeignTotal, "field_270_02_J", 10},
	{"270.02", "page_270_02_01", models.FieldForeignTaxCreditGeneral, "field_270_02_K", 11},

	// appendix 3: controlled foreign companies
	{"270.03", "page_270_03_01", models.FieldIncomeCFCProfit, "field_270_03_A", 1},
	{"270.03", "page_270_03_01", models.FieldForeignTaxCreditCFC, "field_270_03_B", 2},

	// appendices 4-6: declared assets and debts
	{"270.04", "page_270_04_01", models.FieldAssetsDeclaredTotal, "field_270_04_A", 1},
	{"270.05", "page_270_05_01", models.FieldDebtsReceivableTotal, "field_270_05_A", 1},
	{"270.06", "page_270_06_01", models.FieldDebtsPayableTotal, "field_270_06_A", 1},
}

// 270.07 carries no seeded fields; the projector renders its empty grid.

func seedFieldMaps(ctx context.Context, db *gorm.DB) error {
	maps := make([]models.XmlFieldMap, 0, len(fieldMapRows))
	for _, row := range fieldMapRows {
		m := models.XmlFieldMap{
			FormCode:        row.form,
			ApplicationCode: row.app,
			XmlFieldName:    row.name,
			Position:        row.pos,
		}
		if row.lf != "" {
			lf := row.lf
			m.LogicalField = &lf
		}
		maps = append(maps, m)
	}
	return insertIgnoring(ctx, db, &maps)
}
