package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// TaxEventType is one entry of the closed event-type vocabulary (EV_*).
type TaxEventType struct {
	Code        string    `json:"code" gorm:"type:varchar(64);primaryKey"`
	Description string    `json:"description" gorm:"type:varchar(255)"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (TaxEventType) TableName() string { return "tax_event_types" }

// LogicalField is a named computable slot in the declaration (LF_*).
type LogicalField struct {
	Code        string    `json:"code" gorm:"type:varchar(64);primaryKey"`
	Description string    `json:"description" gorm:"type:varchar(255)"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (LogicalField) TableName() string { return "logical_fields" }

var (
	logicalFieldPattern = regexp.MustCompile(`^LF_[A-Z_]+$`)
	eventTypePattern    = regexp.MustCompile(`^EV_[A-Z_]+$`)
)

// ValidLogicalFieldCode reports whether code matches LF_[A-Z_]+.
func ValidLogicalFieldCode(code string) bool { return logicalFieldPattern.MatchString(code) }

// ValidEventTypeCode reports whether code matches EV_[A-Z_]+.
func ValidEventTypeCode(code string) bool { return eventTypePattern.MatchString(code) }

// RuleKind selects which engine phase a rule runs in
type RuleKind string

const (
	RuleKindMapping     RuleKind = "MAPPING"
	RuleKindExclusion   RuleKind = "EXCLUSION"
	RuleKindCalculation RuleKind = "CALCULATION"
	RuleKindFlag        RuleKind = "FLAG"
)

// ValidRuleKind reports whether k is one of the four rule kinds.
func ValidRuleKind(k RuleKind) bool {
	switch k {
	case RuleKindMapping, RuleKindExclusion, RuleKindCalculation, RuleKindFlag:
		return true
	}
	return false
}

// TaxRule is one data-driven rule. Conditions and Actions are JSON and are
// decoded into typed variants at engine load; tax_year NULL means the rule
// applies to every year. Lower priority runs first.
type TaxRule struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RuleCode   string    `json:"ruleCode" gorm:"type:varchar(128);not null;uniqueIndex"`
	TaxYear    *int      `json:"taxYear" gorm:"index"`
	RuleType   RuleKind  `json:"ruleType" gorm:"type:varchar(20);not null"`
	Conditions JSONB     `json:"conditions" gorm:"type:jsonb;not null"`
	Actions    JSONB     `json:"actions" gorm:"type:jsonb;not null"`
	Priority   int       `json:"priority" gorm:"not null;default:100"`
	Active     bool      `json:"active" gorm:"default:true"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (TaxRule) TableName() string { return "tax_rules" }

// XmlFieldMap binds a logical field (or a header attribute when
// LogicalField is nil) to one XML element of a form application. Position
// is the declared grid order the projector emits fields in.
type XmlFieldMap struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	FormCode        string    `json:"formCode" gorm:"type:varchar(16);not null;uniqueIndex:idx_xml_field_unique,priority:1"`
	ApplicationCode string    `json:"applicationCode" gorm:"type:varchar(16);not null;uniqueIndex:idx_xml_field_unique,priority:2"`
	LogicalField    *string   `json:"logicalField" gorm:"type:varchar(64)"`
	XmlFieldName    string    `json:"xmlFieldName" gorm:"type:varchar(128);not null;uniqueIndex:idx_xml_field_unique,priority:3"`
	Position        int       `json:"position" gorm:"not null;default:0"`
}

func (XmlFieldMap) TableName() string { return "xml_field_map" }
