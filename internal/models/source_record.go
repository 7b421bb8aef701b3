package models

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SourceKind identifies where a raw payload came from
type SourceKind string

const (
	SourceManual     SourceKind = "MANUAL"
	SourceCSV        SourceKind = "CSV"
	SourceExcel      SourceKind = "EXCEL"
	SourceBank       SourceKind = "BANK"
	SourceAccounting SourceKind = "ACCOUNTING"
	SourceAPI        SourceKind = "API"
)

// ValidSourceKind reports whether k names a registered source kind.
func ValidSourceKind(k SourceKind) bool {
	switch k {
	case SourceManual, SourceCSV, SourceExcel,
		SourceBank, SourceAccounting, SourceAPI:
		return true
	}
	return false
}

// SourceRecord is one ingested raw payload. Immutable except for the active
// flag; (taxpayer, checksum) is unique so the same input cannot be ingested
// twice.
type SourceRecord struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TaxpayerID uuid.UUID  `json:"taxpayerId" gorm:"type:uuid;not null;uniqueIndex:idx_source_checksum,priority:1"`
	SourceKind SourceKind `json:"sourceKind" gorm:"type:varchar(20);not null"`
	ExternalID string     `json:"externalId" gorm:"type:varchar(255)"`
	Checksum   string     `json:"checksum" gorm:"type:varchar(64);not null;uniqueIndex:idx_source_checksum,priority:2"`
	RawPayload JSONB      `json:"rawPayload" gorm:"type:jsonb;not null"`
	ImportedAt time.Time  `json:"importedAt" gorm:"autoCreateTime"`
	Active     bool       `json:"active" gorm:"default:true"`

	Taxpayer *Taxpayer `json:"taxpayer,omitempty" gorm:"foreignKey:TaxpayerID"`
}

func (SourceRecord) TableName() string { return "source_records" }

// PayloadChecksum computes the SHA-256 of the canonical JSON form of the
// payload: object keys recursively sorted, no insignificant whitespace,
// number literals preserved. Equal payloads hash equal regardless of key
// order in the incoming document.
func PayloadChecksum(raw json.RawMessage) (string, error) {
	canonical, err := CanonicalJSON(raw)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// CanonicalJSON re-encodes raw JSON with sorted object keys. encoding/json
// sorts map keys on marshal; UseNumber keeps numeric literals byte-stable.
func CanonicalJSON(raw json.RawMessage) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
