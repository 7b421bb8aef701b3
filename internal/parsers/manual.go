package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
)

// legacyIncomeTypes maps the income_type spellings of the pre-catalog intake
// form onto event-type codes
var legacyIncomeTypes = map[string]string{
	"property_sale":        "EV_PROPERTY_SALE_KZ",
	"property_sale_abroad": "EV_PROPERTY_SALE_ABROAD",
	"dividends_foreign":    "EV_FOREIGN_DIVIDENDS",
	"foreign_dividends":    "EV_FOREIGN_DIVIDENDS",
	"interest_foreign":     "EV_FOREIGN_INTEREST",
	"royalty":              "EV_FOREIGN_ROYALTY",
	"rent":                 "EV_RENT_NON_AGENT",
	"salary":               "EV_EMPLOYMENT_NON_AGENT",
	"employment":           "EV_EMPLOYMENT_NON_AGENT",
	"salary_foreign":       "EV_FOREIGN_EMPLOYMENT",
	"gph":                  "EV_CIVIL_CONTRACT_NON_AGENT",
	"civil_contract":       "EV_CIVIL_CONTRACT_NON_AGENT",
	"domestic_worker":      "EV_DOMESTIC_WORKER",
	"migrant":              "EV_MIGRANT_LABOR",
	"mediation":            "EV_MEDIATION_INCOME",
	"cfc":                  "EV_CFC_PROFIT",
	"cfc_profit":           "EV_CFC_PROFIT",
	"other":                "EV_OTHER_NON_AGENT",
	"deduction_standard":   "EV_DEDUCTION_STANDARD",
	"deduction":            "EV_DEDUCTION_OTHER",
	"adjustment":           "EV_ADJUSTMENT_OTHER",
	"foreign_tax_paid":     "EV_FOREIGN_TAX_PAID_GENERAL",
	"asset":                "EV_ASSET_DECLARED",
	"debt_receivable":      "EV_DEBT_RECEIVABLE",
	"debt_payable":         "EV_DEBT_PAYABLE",

	// the INCOME_* code family of the pre-catalog export feeds
	"income_property_sale": "EV_PROPERTY_SALE_KZ",
	"income_dividends":     "EV_FOREIGN_DIVIDENDS",
	"income_interest":      "EV_FOREIGN_INTEREST",
	"income_rent":          "EV_RENT_NON_AGENT",
	"income_employment":    "EV_EMPLOYMENT_NON_AGENT",
	"income_cfc":           "EV_CFC_PROFIT",
	"income_other":         "EV_OTHER_NON_AGENT",
}

// ManualParser handles events entered by hand in the declaration UI. The
// payload is a single event object, a bare array of them, or {"events": [...]}.
type ManualParser struct{}

func (p *ManualParser) Kind() models.SourceKind { return models.SourceManual }

func (p *ManualParser) Parse(rec *models.SourceRecord) ([]models.TaxEventInput, error) {
	rows, err := manualRows(rec.RawPayload)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindParse, err, "manual payload")
	}

	out := make([]models.TaxEventInput, 0, len(rows))
	for i, row := range rows {
		ev, err := manualEvent(rec, row)
		if err != nil {
			return nil, parseErr(i, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func manualRows(raw []byte) ([]map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	switch v := generic.(type) {
	case []interface{}:
		return toRowMaps(v)
	case map[string]interface{}:
		if list, ok := v["events"].([]interface{}); ok {
			return toRowMaps(list)
		}
		return []map[string]interface{}{v}, nil
	default:
		return nil, fmt.Errorf("payload must be an object or an array")
	}
}

func toRowMaps(list []interface{}) ([]map[string]interface{}, error) {
	rows := make([]map[string]interface{}, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("record %d: expected an object", i)
		}
		rows = append(rows, m)
	}
	return rows, nil
}

func manualEvent(rec *models.SourceRecord, m map[string]interface{}) (models.TaxEventInput, error) {
	var ev models.TaxEventInput

	code := stringField(m, "event_type", "eventType", "type", "code")
	if code == "" {
		if legacy := stringField(m, "income_type", "incomeType"); legacy != "" {
			mapped, ok := legacyIncomeTypes[strings.ToLower(legacy)]
			if !ok {
				return ev, fmt.Errorf("unknown income type %q", legacy)
			}
			code = mapped
		}
	}
	if code == "" {
		return ev, fmt.Errorf("missing event type")
	}

	dateStr := stringField(m, "event_date", "eventDate", "date")
	date, err := ParseDate(dateStr)
	if err != nil {
		return ev, err
	}

	var amount *decimal.Decimal
	if raw, ok := anyField(m, "amount", "sum", "value"); ok {
		d, err := ParseAmount(raw)
		if err != nil {
			return ev, err
		}
		amount = &d
	}

	currency, err := NormalizeCurrency(stringField(m, "currency", "ccy"))
	if err != nil {
		return ev, err
	}

	metadata, _ := m["metadata"].(map[string]interface{})

	taxYear := 0
	if raw, ok := anyField(m, "tax_year", "taxYear"); ok {
		n, err := ParseAmount(raw)
		if err != nil {
			return ev, fmt.Errorf("invalid tax year: %w", err)
		}
		taxYear = int(n.IntPart())
	}

	return models.TaxEventInput{
		TaxpayerID:     rec.TaxpayerID,
		SourceRecordID: rec.ID,
		EventTypeCode:  code,
		EventDate:      date,
		Amount:         amount,
		Currency:       currency,
		Metadata:       metadata,
		TaxYear:        taxYear,
	}, nil
}
