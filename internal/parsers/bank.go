package parsers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
)

// bankKeywords maps statement wording to an event type. First match wins;
// anything unmatched lands in the catch-all income bucket.
var bankKeywords = []struct {
	needle string
	code   string
}{
	{"dividend", "EV_FOREIGN_DIVIDENDS"},
	{"дивиденд", "EV_FOREIGN_DIVIDENDS"},
	{"royalty", "EV_FOREIGN_ROYALTY"},
	{"роялти", "EV_FOREIGN_ROYALTY"},
	{"interest", "EV_FOREIGN_INTEREST"},
	{"процент", "EV_FOREIGN_INTEREST"},
	{"купон", "EV_FOREIGN_INTEREST"},
	{"rent", "EV_RENT_NON_AGENT"},
	{"аренда", "EV_RENT_NON_AGENT"},
	{"salary", "EV_EMPLOYMENT_NON_AGENT"},
	{"wage", "EV_EMPLOYMENT_NON_AGENT"},
	{"зарплата", "EV_EMPLOYMENT_NON_AGENT"},
	{"pension", "EV_FOREIGN_PENSION"},
	{"пенси", "EV_FOREIGN_PENSION"},
}

// BankParser handles bank statement feeds. Only credit transactions become
// events; debits are spending, not income.
type BankParser struct{}

func (p *BankParser) Kind() models.SourceKind { return models.SourceBank }

func (p *BankParser) Parse(rec *models.SourceRecord) ([]models.TaxEventInput, error) {
	dec := json.NewDecoder(bytes.NewReader(rec.RawPayload))
	dec.UseNumber()

	var payload struct {
		Transactions []map[string]interface{} `json:"transactions"`
		Statement    *struct {
			Transactions []map[string]interface{} `json:"transactions"`
		} `json:"statement"`
	}
	if err := dec.Decode(&payload); err != nil {
		return nil, apperr.Wrap(apperr.KindParse, err, "bank payload")
	}

	txns := payload.Transactions
	if txns == nil && payload.Statement != nil {
		txns = payload.Statement.Transactions
	}
	if txns == nil {
		return nil, apperr.Parse(`bank payload must carry "transactions"`)
	}

	out := make([]models.TaxEventInput, 0, len(txns))
	for i, txn := range txns {
		direction := strings.ToLower(stringField(txn, "direction", "dc", "side"))
		if direction == "debit" || direction == "d" || direction == "out" {
			continue
		}
		if direction != "" && direction != "credit" && direction != "c" && direction != "in" {
			return nil, parseErr(i, fmt.Errorf("unknown direction %q", direction))
		}

		ev, err := bankEvent(rec, txn)
		if err != nil {
			return nil, parseErr(i, err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func bankEvent(rec *models.SourceRecord, txn map[string]interface{}) (models.TaxEventInput, error) {
	var ev models.TaxEventInput

	date, err := ParseDate(stringField(txn, "date", "event_date", "value_date"))
	if err != nil {
		return ev, err
	}

	raw, ok := anyField(txn, "amount", "sum", "value")
	if !ok {
		return ev, fmt.Errorf("missing amount")
	}
	amount, err := ParseAmount(raw)
	if err != nil {
		return ev, err
	}
	amount = amount.Abs()

	currency, err := NormalizeCurrency(stringField(txn, "currency", "ccy"))
	if err != nil {
		return ev, err
	}

	description := stringField(txn, "description", "purpose", "narrative")

	code := stringField(txn, "event_type", "category")
	if code != "" && !strings.HasPrefix(code, "EV_") {
		code = legacyIncomeTypes[strings.ToLower(code)]
	}
	if code == "" {
		code = inferBankEventType(stringField(txn, "category") + " " + description)
	}

	metadata := map[string]interface{}{
		"channel": "bank_statement",
	}
	if description != "" {
		metadata["description"] = description
	}
	if cp := stringField(txn, "counterparty", "payer", "sender"); cp != "" {
		metadata["counterparty"] = cp
	}
	if acct := stringField(txn, "account", "iban"); acct != "" {
		metadata["account"] = acct
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

func inferBankEventType(description string) string {
	desc := strings.ToLower(description)
	for _, kw := range bankKeywords {
		if strings.Contains(desc, kw.needle) {
			return kw.code
		}
	}
	return "EV_OTHER_NON_AGENT"
}
