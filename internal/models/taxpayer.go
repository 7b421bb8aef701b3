package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// TaxpayerKind distinguishes natural persons from registered businesses
type TaxpayerKind string

const (
	TaxpayerKindIndividual TaxpayerKind = "INDIVIDUAL"
	TaxpayerKindBusiness   TaxpayerKind = "BUSINESS"
)

var iinPattern = regexp.MustCompile(`^\d{12}$`)

// ValidIIN reports whether s is a well-formed 12-digit identification number.
func ValidIIN(s string) bool {
	return iinPattern.MatchString(s)
}

// Taxpayer is the subject of every declaration. Identity fields are
// immutable once created; descriptive attributes may be updated.
type Taxpayer struct {
	ID         uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	IIN        string       `json:"iin" gorm:"type:varchar(12);not null;uniqueIndex"`
	Kind       TaxpayerKind `json:"kind" gorm:"type:varchar(20);not null;default:'INDIVIDUAL'"`
	LastName   string       `json:"lastName" gorm:"type:varchar(255)"`
	FirstName  string       `json:"firstName" gorm:"type:varchar(255)"`
	MiddleName string       `json:"middleName" gorm:"type:varchar(255)"`
	Phone      string       `json:"phone" gorm:"type:varchar(32)"`
	Email      string       `json:"email" gorm:"type:varchar(255)"`
	Resident   bool         `json:"resident" gorm:"default:true"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

func (Taxpayer) TableName() string { return "taxpayers" }
