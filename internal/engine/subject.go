package engine

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/salyq-kz/declaration-service/internal/models"
)

// EventSubject exposes one tax event to the condition evaluator. Bare names
// are treated as event.<name>; metadata supports dotted paths.
type EventSubject struct {
	Event *models.TaxEvent

	metadata map[string]interface{}
	decoded  bool
}

func (s *EventSubject) Resolve(name string) (interface{}, bool) {
	name = strings.TrimPrefix(name, "event.")

	switch name {
	case "event_type", "type":
		return s.Event.EventType, true
	case "amount":
		if s.Event.Amount == nil {
			return nil, false
		}
		return *s.Event.Amount, true
	case "currency":
		return s.Event.Currency, true
	case "event_date", "date":
		return s.Event.EventDate.Format("2006-01-02"), true
	case "tax_year":
		return decimal.NewFromInt(int64(s.Event.TaxYear)), true
	case "id":
		return s.Event.ID.String(), true
	case "source_record_id":
		if s.Event.SourceRecordID == nil {
			return nil, false
		}
		return s.Event.SourceRecordID.String(), true
	}

	if strings.HasPrefix(name, "metadata.") {
		return s.metadataPath(strings.TrimPrefix(name, "metadata."))
	}
	return nil, false
}

func (s *EventSubject) metadataPath(path string) (interface{}, bool) {
	if !s.decoded {
		s.decoded = true
		if len(s.Event.Metadata) > 0 {
			dec := json.NewDecoder(strings.NewReader(string(s.Event.Metadata)))
			dec.UseNumber()
			_ = dec.Decode(&s.metadata)
		}
	}

	var current interface{} = s.metadata
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

// FieldSubject exposes the accumulated logical-field values to flag and
// calculation rule conditions
type FieldSubject map[string]decimal.Decimal

func (s FieldSubject) Resolve(name string) (interface{}, bool) {
	name = strings.TrimPrefix(name, "event.")
	if v, ok := s[name]; ok {
		return v, true
	}
	return nil, false
}
