package parsers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
)

// columnSynonyms folds the header spellings seen in uploaded files onto
// canonical column names
var columnSynonyms = map[string]string{
	"type":       "event_type",
	"code":       "event_type",
	"category":   "event_type",
	"тип":        "event_type",
	"вид":        "event_type",
	"категория":  "event_type",
	"date":       "event_date",
	"дата":       "event_date",
	"sum":        "amount",
	"value":      "amount",
	"сумма":      "amount",
	"ccy":        "currency",
	"валюта":     "currency",
	"описание":   "description",
	"назначение": "description",
}

func canonicalColumn(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, " ", "_")
	if mapped, ok := columnSynonyms[key]; ok {
		return mapped
	}
	return key
}

// CSVParser handles comma-separated uploads. The payload carries either the
// raw text under "content", a pre-split {"headers": [...], "rows": [[...]]}
// grid, or already-keyed row objects.
type CSVParser struct{}

func (p *CSVParser) Kind() models.SourceKind { return models.SourceCSV }

func (p *CSVParser) Parse(rec *models.SourceRecord) ([]models.TaxEventInput, error) {
	rows, err := csvRows(rec.RawPayload)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindParse, err, "csv payload")
	}
	return tabularEvents(rec, rows)
}

func csvRows(raw []byte) ([]map[string]interface{}, error) {
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
		if content, ok := v["content"].(string); ok {
			return rowsFromCSVText(content)
		}
		if rows, ok := v["rows"].([]interface{}); ok {
			if headers, ok := v["headers"].([]interface{}); ok {
				return rowsFromGrid(headers, rows)
			}
			return toRowMaps(rows)
		}
		return nil, fmt.Errorf(`payload must carry "content", "rows" or be an array`)
	default:
		return nil, fmt.Errorf("payload must be an object or an array")
	}
}

func rowsFromCSVText(content string) ([]map[string]interface{}, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("malformed CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := make([]interface{}, len(records[0]))
	for i, h := range records[0] {
		headers[i] = h
	}
	rows := make([]interface{}, 0, len(records)-1)
	for _, rec := range records[1:] {
		cells := make([]interface{}, len(rec))
		for i, c := range rec {
			cells[i] = c
		}
		rows = append(rows, cells)
	}
	return rowsFromGrid(headers, rows)
}

// rowsFromGrid zips a header row with data rows into keyed maps
func rowsFromGrid(headers []interface{}, rows []interface{}) ([]map[string]interface{}, error) {
	names := make([]string, len(headers))
	for i, h := range headers {
		s, ok := h.(string)
		if !ok {
			return nil, fmt.Errorf("header %d is not a string", i)
		}
		names[i] = canonicalColumn(s)
	}

	out := make([]map[string]interface{}, 0, len(rows))
	for i, row := range rows {
		cells, ok := row.([]interface{})
		if !ok {
			return nil, fmt.Errorf("row %d: expected an array of cells", i)
		}
		m := make(map[string]interface{}, len(names))
		for j, name := range names {
			if j < len(cells) {
				m[name] = cells[j]
			}
		}
		out = append(out, m)
	}
	return out, nil
}

// tabularEvents builds events from keyed rows; columns beyond the canonical
// ones are kept as event metadata
func tabularEvents(rec *models.SourceRecord, rows []map[string]interface{}) ([]models.TaxEventInput, error) {
	out := make([]models.TaxEventInput, 0, len(rows))
	for i, row := range rows {
		ev, err := tabularEvent(rec, row)
		if err != nil {
			return nil, parseErr(i, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func tabularEvent(rec *models.SourceRecord, m map[string]interface{}) (models.TaxEventInput, error) {
	var ev models.TaxEventInput

	canon := make(map[string]interface{}, len(m))
	for k, v := range m {
		canon[canonicalColumn(k)] = v
	}

	code := stringField(canon, "event_type")
	if code == "" {
		return ev, fmt.Errorf("missing event type")
	}
	if !strings.HasPrefix(code, "EV_") {
		mapped, ok := legacyIncomeTypes[strings.ToLower(code)]
		if !ok {
			return ev, fmt.Errorf("unknown event type %q", code)
		}
		code = mapped
	}

	date, err := ParseDate(stringField(canon, "event_date"))
	if err != nil {
		return ev, err
	}

	var amount *decimal.Decimal
	if raw, ok := anyField(canon, "amount"); ok {
		d, err := ParseAmount(raw)
		if err != nil {
			return ev, err
		}
		amount = &d
	}

	currency, err := NormalizeCurrency(stringField(canon, "currency"))
	if err != nil {
		return ev, err
	}

	metadata := make(map[string]interface{})
	for k, v := range canon {
		switch k {
		case "event_type", "event_date", "amount", "currency", "tax_year":
		default:
			if s, ok := v.(string); !ok || strings.TrimSpace(s) != "" {
				metadata[k] = v
			}
		}
	}
	if len(metadata) == 0 {
		metadata = nil
	}

	taxYear := 0
	if raw, ok := anyField(canon, "tax_year"); ok {
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
