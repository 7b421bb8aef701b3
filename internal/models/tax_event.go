package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxEvent is an atomic, dated, typed financial fact attributed to a
// taxpayer. Rows are append-only; corrections deactivate the source record
// and re-ingest.
type TaxEvent struct {
	ID             uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TaxpayerID     uuid.UUID        `json:"taxpayerId" gorm:"type:uuid;not null;index:idx_events_taxpayer_year,priority:1"`
	SourceRecordID *uuid.UUID       `json:"sourceRecordId" gorm:"type:uuid;index"`
	EventType      string           `json:"eventType" gorm:"type:varchar(64);not null"`
	EventDate      time.Time        `json:"eventDate" gorm:"type:date;not null"`
	Amount         *decimal.Decimal `json:"amount" gorm:"type:decimal(20,2)"`
	Currency       string           `json:"currency" gorm:"type:varchar(3)"`
	Metadata       JSONB            `json:"metadata" gorm:"type:jsonb"`
	TaxYear        int              `json:"taxYear" gorm:"not null;index:idx_events_taxpayer_year,priority:2"`
	CreatedAt      time.Time        `json:"createdAt"`

	SourceRecord *SourceRecord `json:"sourceRecord,omitempty" gorm:"foreignKey:SourceRecordID"`
}

func (TaxEvent) TableName() string { return "tax_events" }

// TaxEventInput is a parser's output row: a normalized event candidate that
// has not been persisted yet. Taxpayer and source-record ids are copied from
// the SourceRecord, never trusted from the payload.
type TaxEventInput struct {
	TaxpayerID     uuid.UUID
	SourceRecordID uuid.UUID
	EventTypeCode  string
	EventDate      time.Time
	Amount         *decimal.Decimal
	Currency       string
	Metadata       map[string]interface{}
	TaxYear        int // zero means "year of EventDate"
}

// TaxMapping records one map-action firing during an engine run; persisted
// for auditability of how each logical field was assembled.
type TaxMapping struct {
	ID           uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TaxEventID   uuid.UUID       `json:"taxEventId" gorm:"type:uuid;not null"`
	TaxYear      int             `json:"taxYear" gorm:"not null;index"`
	LogicalField string          `json:"logicalField" gorm:"type:varchar(64);not null"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:decimal(20,2);not null"`
	RuleID       uuid.UUID       `json:"ruleId" gorm:"type:uuid;not null"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (TaxMapping) TableName() string { return "tax_mappings" }
