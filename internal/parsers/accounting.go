package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
)

// accountingCategories maps bookkeeping category labels to event types
var accountingCategories = map[string]string{
	"property_sale":  "EV_PROPERTY_SALE_KZ",
	"rent":           "EV_RENT_NON_AGENT",
	"services":       "EV_CIVIL_CONTRACT_NON_AGENT",
	"civil_contract": "EV_CIVIL_CONTRACT_NON_AGENT",
	"mediation":      "EV_MEDIATION_INCOME",
	"assignment":     "EV_ASSIGNMENT_INCOME",
	"salary":         "EV_EMPLOYMENT_NON_AGENT",
	"other":          "EV_OTHER_NON_AGENT",
}

// AccountingParser handles exports from bookkeeping systems: a list of
// documents with line items, or a flat list of operations. Expense documents
// are not income and are skipped whole.
type AccountingParser struct{}

func (p *AccountingParser) Kind() models.SourceKind { return models.SourceAccounting }

func (p *AccountingParser) Parse(rec *models.SourceRecord) ([]models.TaxEventInput, error) {
	dec := json.NewDecoder(bytes.NewReader(rec.RawPayload))
	dec.UseNumber()

	var payload struct {
		Documents  []map[string]interface{} `json:"documents"`
		Operations []map[string]interface{} `json:"operations"`
	}
	if err := dec.Decode(&payload); err != nil {
		return nil, apperr.Wrap(apperr.KindParse, err, "accounting payload")
	}

	if payload.Documents == nil && payload.Operations == nil {
		return nil, apperr.Parse(`accounting payload must carry "documents" or "operations"`)
	}

	var out []models.TaxEventInput
	for i, doc := range payload.Documents {
		events, err := accountingDocument(rec, doc)
		if err != nil {
			return nil, parseErr(i, err)
		}
		out = append(out, events...)
	}
	for i, op := range payload.Operations {
		ev, skip, err := accountingOperation(rec, op)
		if err != nil {
			return nil, parseErr(i, err)
		}
		if !skip {
			out = append(out, ev)
		}
	}
	return out, nil
}

func accountingDocument(rec *models.SourceRecord, doc map[string]interface{}) ([]models.TaxEventInput, error) {
	docType := strings.ToLower(stringField(doc, "doc_type", "type"))
	if docType == "expense" || docType == "purchase" {
		return nil, nil
	}

	date, err := ParseDate(stringField(doc, "date", "doc_date"))
	if err != nil {
		return nil, err
	}
	currency, err := NormalizeCurrency(stringField(doc, "currency", "ccy"))
	if err != nil {
		return nil, err
	}
	docNumber := stringField(doc, "number", "doc_number")

	lines, _ := doc["line_items"].([]interface{})
	if lines == nil {
		lines, _ = doc["lines"].([]interface{})
	}
	if lines == nil {
		return nil, fmt.Errorf("document has no line items")
	}

	out := make([]models.TaxEventInput, 0, len(lines))
	for j, raw := range lines {
		line, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("line %d: expected an object", j)
		}

		rawAmount, ok := anyField(line, "amount", "sum", "total")
		if !ok {
			return nil, fmt.Errorf("line %d: missing amount", j)
		}
		amount, err := ParseAmount(rawAmount)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", j, err)
		}

		code, err := accountingEventType(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", j, err)
		}

		metadata := map[string]interface{}{
			"channel": "accounting",
		}
		if docNumber != "" {
			metadata["document"] = docNumber
		}
		if desc := stringField(line, "description", "name"); desc != "" {
			metadata["description"] = desc
		}

		out = append(out, models.TaxEventInput{
			TaxpayerID:     rec.TaxpayerID,
			SourceRecordID: rec.ID,
			EventTypeCode:  code,
			EventDate:      date,
			Amount:         &amount,
			Currency:       currency,
			Metadata:       metadata,
		})
	}
	return out, nil
}

func accountingOperation(rec *models.SourceRecord, op map[string]interface{}) (models.TaxEventInput, bool, error) {
	var ev models.TaxEventInput

	kind := strings.ToLower(stringField(op, "kind", "type"))
	if kind == "expense" {
		return ev, true, nil
	}

	date, err := ParseDate(stringField(op, "date"))
	if err != nil {
		return ev, false, err
	}

	rawAmount, ok := anyField(op, "amount", "sum")
	if !ok {
		return ev, false, fmt.Errorf("missing amount")
	}
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return ev, false, err
	}

	currency, err := NormalizeCurrency(stringField(op, "currency", "ccy"))
	if err != nil {
		return ev, false, err
	}

	code, err := accountingEventType(op)
	if err != nil {
		return ev, false, err
	}

	metadata := map[string]interface{}{
		"channel": "accounting",
	}
	if desc := stringField(op, "description"); desc != "" {
		metadata["description"] = desc
	}

	return models.TaxEventInput{
		TaxpayerID:     rec.TaxpayerID,
		SourceRecordID: rec.ID,
		EventTypeCode:  code,
		EventDate:      date,
		Amount:         &amount,
		Currency:       currency,
		Metadata:       metadata,
	}, false, nil
}

func accountingEventType(m map[string]interface{}) (string, error) {
	if code := stringField(m, "event_type"); code != "" {
		return code, nil
	}
	category := strings.ToLower(stringField(m, "category"))
	if category == "" {
		return "EV_OTHER_NON_AGENT", nil
	}
	if code, ok := accountingCategories[category]; ok {
		return code, nil
	}
	return "", fmt.Errorf("unknown category %q", category)
}
