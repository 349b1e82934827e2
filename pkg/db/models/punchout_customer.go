package models

import (
	"time"

	"github.com/google/uuid"
)

// PunchoutCustomer is the storefront account provisioned for a dealer
// location, shared across every session that lands on the same location.
type PunchoutCustomer struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email         string    `gorm:"column:email;not null;uniqueIndex:ux_punchout_customers_email"`
	DealerCode    string    `gorm:"column:dealer_code;not null"`
	CorpAddressID string    `gorm:"column:corp_address_id;not null;default:''"`
	FirstName     string    `gorm:"column:first_name;not null;default:''"`
	LastName      string    `gorm:"column:last_name;not null;default:''"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName implements the gorm naming override.
func (PunchoutCustomer) TableName() string { return "punchout_customers" }
