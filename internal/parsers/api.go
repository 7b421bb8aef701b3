package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
)

// APIParser handles feeds pushed by integrated systems (government registries,
// partner platforms). A payload may combine income rows with asset and debt
// registries.
type APIParser struct{}

func (p *APIParser) Kind() models.SourceKind { return models.SourceAPI }

func (p *APIParser) Parse(rec *models.SourceRecord) ([]models.TaxEventInput, error) {
	dec := json.NewDecoder(bytes.NewReader(rec.RawPayload))
	dec.UseNumber()

	var payload struct {
		Incomes []map[string]interface{} `json:"incomes"`
		Items   []map[string]interface{} `json:"items"`
		Records []map[string]interface{} `json:"records"`
		Events  []map[string]interface{} `json:"events"`
		Assets  []map[string]interface{} `json:"assets"`
		Debts   []map[string]interface{} `json:"debts"`
	}
	if err := dec.Decode(&payload); err != nil {
		return nil, apperr.Wrap(apperr.KindParse, err, "api payload")
	}

	var rows []map[string]interface{}
	rows = append(rows, payload.Incomes...)
	rows = append(rows, payload.Items...)
	rows = append(rows, payload.Records...)
	rows = append(rows, payload.Events...)

	if rows == nil && payload.Assets == nil && payload.Debts == nil {
		return nil, apperr.Parse("api payload carries no recognized collection")
	}

	var out []models.TaxEventInput
	for i, row := range rows {
		ev, err := tabularEvent(rec, row)
		if err != nil {
			return nil, parseErr(i, err)
		}
		out = append(out, ev)
	}
	for i, asset := range payload.Assets {
		ev, err := apiAsset(rec, asset)
		if err != nil {
			return nil, parseErr(len(rows)+i, err)
		}
		out = append(out, ev)
	}
	for i, debt := range payload.Debts {
		ev, err := apiDebt(rec, debt)
		if err != nil {
			return nil, parseErr(len(rows)+len(payload.Assets)+i, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func apiAsset(rec *models.SourceRecord, m map[string]interface{}) (models.TaxEventInput, error) {
	var ev models.TaxEventInput

	date, err := registryDate(m)
	if err != nil {
		return ev, err
	}

	rawValue, ok := anyField(m, "value", "cost", "amount")
	if !ok {
		return ev, fmt.Errorf("missing asset value")
	}
	amount, err := ParseAmount(rawValue)
	if err != nil {
		return ev, err
	}

	currency, err := NormalizeCurrency(stringField(m, "currency", "ccy"))
	if err != nil {
		return ev, err
	}

	metadata := map[string]interface{}{
		"channel": "registry",
	}
	if kind := stringField(m, "kind", "asset_type"); kind != "" {
		metadata["asset_kind"] = kind
	}
	if country := stringField(m, "country"); country != "" {
		metadata["country"] = country
	}
	if id := stringField(m, "identifier", "cadastral_number", "vin"); id != "" {
		metadata["identifier"] = id
	}

	return models.TaxEventInput{
		TaxpayerID:     rec.TaxpayerID,
		SourceRecordID: rec.ID,
		EventTypeCode:  "EV_ASSET_DECLARED",
		EventDate:      date,
		Amount:         &amount,
		Currency:       currency,
		Metadata:       metadata,
	}, nil
}

func apiDebt(rec *models.SourceRecord, m map[string]interface{}) (models.TaxEventInput, error) {
	var ev models.TaxEventInput

	var code string
	switch strings.ToLower(stringField(m, "direction", "side")) {
	case "receivable", "owed_to_me":
		code = "EV_DEBT_RECEIVABLE"
	case "payable", "owed_by_me":
		code = "EV_DEBT_PAYABLE"
	default:
		return ev, fmt.Errorf("debt direction must be receivable or payable")
	}

	date, err := registryDate(m)
	if err != nil {
		return ev, err
	}

	rawAmount, ok := anyField(m, "amount", "value", "sum")
	if !ok {
		return ev, fmt.Errorf("missing debt amount")
	}
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return ev, err
	}

	currency, err := NormalizeCurrency(stringField(m, "currency", "ccy"))
	if err != nil {
		return ev, err
	}

	metadata := map[string]interface{}{
		"channel": "registry",
	}
	if cp := stringField(m, "counterparty", "debtor", "creditor"); cp != "" {
		metadata["counterparty"] = cp
	}
	if basis := stringField(m, "basis", "contract"); basis != "" {
		metadata["basis"] = basis
	}

	return models.TaxEventInput{
		TaxpayerID:     rec.TaxpayerID,
		SourceRecordID: rec.ID,
		EventTypeCode:  code,
		EventDate:      date,
		Amount:         &amount,
		Currency:       currency,
		Metadata:       metadata,
	}, nil
}

// registryDate reads an explicit date, falling back to December 31 of a bare
// "year" field the way registry snapshots report balances
func registryDate(m map[string]interface{}) (time.Time, error) {
	if s := stringField(m, "date", "as_of", "acquired_at"); s != "" {
		return ParseDate(s)
	}
	if raw, ok := anyField(m, "year"); ok {
		n, err := ParseAmount(raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid year: %w", err)
		}
		return time.Date(int(n.IntPart()), time.December, 31, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("missing date")
}
