package parsers

import (
	"github.com/salyq-kz/declaration-service/internal/apperr"
	"github.com/salyq-kz/declaration-service/internal/models"
)

// Parser turns one source record's raw payload into normalized tax events.
// Parsing is all-or-nothing: the first bad record aborts with an error naming
// its position.
type Parser interface {
	Kind() models.SourceKind
	Parse(rec *models.SourceRecord) ([]models.TaxEventInput, error)
}

// Registry holds one parser per source kind
type Registry struct {
	parsers map[models.SourceKind]Parser
}

// NewRegistry builds a registry with every built-in parser registered
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[models.SourceKind]Parser)}
	r.Register(&ManualParser{})
	r.Register(&CSVParser{})
	r.Register(&ExcelParser{})
	r.Register(&BankParser{})
	r.Register(&AccountingParser{})
	r.Register(&APIParser{})
	return r
}

// Register adds or replaces the parser for its kind
func (r *Registry) Register(p Parser) {
	r.parsers[p.Kind()] = p
}

// ForKind returns the parser registered for the source kind
func (r *Registry) ForKind(kind models.SourceKind) (Parser, error) {
	p, ok := r.parsers[kind]
	if !ok {
		return nil, apperr.Parse("no parser registered for source kind %s", kind)
	}
	return p, nil
}

// parseErr wraps a record-level failure with its position in the payload
func parseErr(index int, err error) error {
	return apperr.Wrap(apperr.KindParse, err, "record %d", index)
}
