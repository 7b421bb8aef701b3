package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateTaxpayerRequest registers a taxpayer
type CreateTaxpayerRequest struct {
	IIN        string       `json:"iin" binding:"required"`
	Kind       TaxpayerKind `json:"kind"`
	LastName   string       `json:"lastName"`
	FirstName  string       `json:"firstName"`
	MiddleName string       `json:"middleName"`
	Phone      string       `json:"phone"`
	Email      string       `json:"email"`
	Resident   *bool        `json:"resident"`
}

// IngestRequest submits one raw payload for a taxpayer
type IngestRequest struct {
	TaxpayerID uuid.UUID       `json:"taxpayerId" binding:"required"`
	SourceKind SourceKind      `json:"sourceKind" binding:"required"`
	ExternalID string          `json:"externalId"`
	Payload    json.RawMessage `json:"payload" binding:"required"`
}

// IngestResponse reports the (possibly pre-existing) source record
type IngestResponse struct {
	SourceRecord SourceRecord `json:"sourceRecord"`
	Created      bool         `json:"created"`
}

// ParseResponse reports the outcome of parsing a source record
type ParseResponse struct {
	Created bool       `json:"created"`
	Skipped bool       `json:"skipped"`
	Events  []TaxEvent `json:"events"`
}

// RunEngineRequest triggers a dry engine run (no persistence)
type RunEngineRequest struct {
	TaxpayerID uuid.UUID `json:"taxpayerId" binding:"required"`
	TaxYear    int       `json:"taxYear" binding:"required"`
	AllowEmpty bool      `json:"allowEmpty"`
}

// GenerateDeclarationRequest runs the engine and persists the result
type GenerateDeclarationRequest struct {
	TaxpayerID uuid.UUID       `json:"taxpayerId" binding:"required"`
	TaxYear    int             `json:"taxYear" binding:"required"`
	Kind       DeclarationKind `json:"kind"`
	AllowEmpty bool            `json:"allowEmpty"`
}

// TransitionRequest moves a declaration to a target status
type TransitionRequest struct {
	Target DeclarationStatus `json:"target" binding:"required"`
}

// UpdateHeaderRequest overrides snapshot header fields; nil fields are left
// untouched
type UpdateHeaderRequest struct {
	LastName    *string `json:"lastName"`
	FirstName   *string `json:"firstName"`
	MiddleName  *string `json:"middleName"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	SpouseIIN   *string `json:"spouseIin"`
	LegalRepIIN *string `json:"legalRepIin"`
}

// UpsertItemRequest writes one manual item value
type UpsertItemRequest struct {
	LogicalField string          `json:"logicalField" binding:"required"`
	Value        decimal.Decimal `json:"value" binding:"required"`
}

// CreateRuleRequest inserts a catalog rule
type CreateRuleRequest struct {
	RuleCode   string          `json:"ruleCode" binding:"required"`
	TaxYear    *int            `json:"taxYear"`
	RuleType   RuleKind        `json:"ruleType" binding:"required"`
	Conditions json.RawMessage `json:"conditions" binding:"required"`
	Actions    json.RawMessage `json:"actions" binding:"required"`
	Priority   int             `json:"priority"`
	Active     *bool           `json:"active"`
}

// UpdateRuleRequest replaces a rule's mutable attributes; the rule code is
// immutable. A nil taxYear makes the rule year-agnostic.
type UpdateRuleRequest struct {
	TaxYear    *int            `json:"taxYear"`
	RuleType   RuleKind        `json:"ruleType" binding:"required"`
	Conditions json.RawMessage `json:"conditions" binding:"required"`
	Actions    json.RawMessage `json:"actions" binding:"required"`
	Priority   int             `json:"priority"`
	Active     *bool           `json:"active"`
}

// CreateEventTypeRequest inserts an event-type code
type CreateEventTypeRequest struct {
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
}

// CreateLogicalFieldRequest inserts a logical field
type CreateLogicalFieldRequest struct {
	Code        string `json:"code" binding:"required"`
	Description string `json:"description"`
}

// CreateFieldMapRequest inserts one XML field mapping
type CreateFieldMapRequest struct {
	FormCode        string  `json:"formCode" binding:"required"`
	ApplicationCode string  `json:"applicationCode" binding:"required"`
	LogicalField    *string `json:"logicalField"`
	XmlFieldName    string  `json:"xmlFieldName" binding:"required"`
	Position        int     `json:"position"`
}
