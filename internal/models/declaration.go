package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeclarationKind is the regulator's declaration kind; exactly one of the
// four dt_* booleans is set in the XML header.
type DeclarationKind string

const (
	DeclarationKindMain       DeclarationKind = "MAIN"
	DeclarationKindRegular    DeclarationKind = "REGULAR"
	DeclarationKindAdditional DeclarationKind = "ADDITIONAL"
	DeclarationKindNotice     DeclarationKind = "NOTICE"
)

// ValidDeclarationKind reports whether k is one of the four kinds.
func ValidDeclarationKind(k DeclarationKind) bool {
	switch k {
	case DeclarationKindMain, DeclarationKindRegular, DeclarationKindAdditional, DeclarationKindNotice:
		return true
	}
	return false
}

// DeclarationStatus is a node of the workflow graph
type DeclarationStatus string

const (
	StatusDraft           DeclarationStatus = "DRAFT"
	StatusValidated       DeclarationStatus = "VALIDATED"
	StatusAwaitingConsent DeclarationStatus = "AWAITING_CONSENT"
	StatusSigned          DeclarationStatus = "SIGNED"
	StatusSubmitted       DeclarationStatus = "SUBMITTED"
	StatusAccepted        DeclarationStatus = "ACCEPTED"
	StatusRejected        DeclarationStatus = "REJECTED"
)

// ItemSource tells whether an item value came from the engine or a human
type ItemSource string

const (
	ItemSourceRuleEngine ItemSource = "RULE_ENGINE"
	ItemSourceManual     ItemSource = "MANUAL"
)

// ReportKind classifies validation reports
type ReportKind string

const (
	ReportKindSchema   ReportKind = "SCHEMA"
	ReportKindBusiness ReportKind = "BUSINESS"
)

// Declaration is one filing of form 270.00 for a taxpayer and year. The
// header block is snapshot-copied from the taxpayer at first generation and
// refreshed on regeneration.
type Declaration struct {
	ID         uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TaxpayerID uuid.UUID         `json:"taxpayerId" gorm:"type:uuid;not null;uniqueIndex:idx_declaration_unique,priority:1"`
	TaxYear    int               `json:"taxYear" gorm:"not null;uniqueIndex:idx_declaration_unique,priority:2"`
	FormCode   string            `json:"formCode" gorm:"type:varchar(16);not null;uniqueIndex:idx_declaration_unique,priority:3"`
	Kind       DeclarationKind   `json:"kind" gorm:"type:varchar(20);not null;default:'MAIN'"`
	Status     DeclarationStatus `json:"status" gorm:"type:varchar(20);not null;default:'DRAFT'"`

	// Snapshot header (copied from the taxpayer, manually overridable).
	// Once HeaderOverridden is set, regeneration stops refreshing it.
	IIN              string `json:"iin" gorm:"type:varchar(12)"`
	LastName         string `json:"lastName" gorm:"type:varchar(255)"`
	FirstName        string `json:"firstName" gorm:"type:varchar(255)"`
	MiddleName       string `json:"middleName" gorm:"type:varchar(255)"`
	Phone            string `json:"phone" gorm:"type:varchar(32)"`
	Email            string `json:"email" gorm:"type:varchar(255)"`
	SpouseIIN        string `json:"spouseIin" gorm:"type:varchar(12)"`
	LegalRepIIN      string `json:"legalRepIin" gorm:"type:varchar(12)"`
	HeaderOverridden bool   `json:"headerOverridden" gorm:"default:false"`

	Flags       JSONB      `json:"flags" gorm:"type:jsonb"`
	ValidatedAt *time.Time `json:"validatedAt"`
	ExportedAt  *time.Time `json:"exportedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Items   []DeclarationItem  `json:"items,omitempty" gorm:"foreignKey:DeclarationID"`
	Reports []ValidationReport `json:"reports,omitempty" gorm:"foreignKey:DeclarationID"`
}

func (Declaration) TableName() string { return "declarations" }

// SnapshotHeader copies the taxpayer's identity block into the declaration.
// Spouse and legal-representative IINs have no taxpayer counterpart and are
// only ever set by hand.
func (d *Declaration) SnapshotHeader(t *Taxpayer) {
	d.IIN = t.IIN
	d.LastName = t.LastName
	d.FirstName = t.FirstName
	d.MiddleName = t.MiddleName
	d.Phone = t.Phone
	d.Email = t.Email
}

// FlagMap decodes the flags column; a missing column reads as no flags
func (d *Declaration) FlagMap() (map[string]bool, error) {
	out := make(map[string]bool)
	if len(d.Flags) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(d.Flags, &out); err != nil {
		return nil, fmt.Errorf("malformed flags: %w", err)
	}
	return out, nil
}

// SetFlagMap replaces the flags column
func (d *Declaration) SetFlagMap(flags map[string]bool) error {
	raw, err := json.Marshal(flags)
	if err != nil {
		return fmt.Errorf("failed to encode flags: %w", err)
	}
	d.Flags = JSONB(raw)
	return nil
}

// MergeFlags shallow-merges flags into the existing set
func (d *Declaration) MergeFlags(flags map[string]bool) error {
	current, err := d.FlagMap()
	if err != nil {
		return err
	}
	for name, v := range flags {
		current[name] = v
	}
	return d.SetFlagMap(current)
}

// DeclarationItem is one computed (or manually entered) logical-field value.
type DeclarationItem struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	DeclarationID uuid.UUID       `json:"declarationId" gorm:"type:uuid;not null;uniqueIndex:idx_item_unique,priority:1"`
	LogicalField  string          `json:"logicalField" gorm:"type:varchar(64);not null;uniqueIndex:idx_item_unique,priority:2"`
	Value         decimal.Decimal `json:"value" gorm:"type:decimal(20,2);not null"`
	Source        ItemSource      `json:"source" gorm:"type:varchar(20);not null;default:'RULE_ENGINE'"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (DeclarationItem) TableName() string { return "declaration_items" }

// ValidationReport stores the outcome of a schema or business validation.
type ValidationReport struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	DeclarationID uuid.UUID  `json:"declarationId" gorm:"type:uuid;not null;index"`
	Kind          ReportKind `json:"kind" gorm:"type:varchar(20);not null"`
	IsValid       bool       `json:"isValid" gorm:"not null"`
	Report        JSONB      `json:"report" gorm:"type:jsonb"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func (ValidationReport) TableName() string { return "validation_reports" }

// XmlExport is one rendered XML version; append-only, schema_version is
// monotonic per declaration starting at 1.
type XmlExport struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	DeclarationID uuid.UUID `json:"declarationId" gorm:"type:uuid;not null;index"`
	Payload       string    `json:"payload" gorm:"type:text;not null"`
	SchemaVersion int       `json:"schemaVersion" gorm:"not null"`
	ContentHash   string    `json:"contentHash" gorm:"type:varchar(64);not null"`
	Signed        bool      `json:"signed" gorm:"default:false"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (XmlExport) TableName() string { return "xml_exports" }
