package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tirehub/punchout-backend/pkg/enums"
)

// PunchoutItem is a SKU requested up-front through the quick item entry,
// parked until shopping activation pulls it into the cart.
type PunchoutItem struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	BuyerCookie     string           `gorm:"column:buyer_cookie;not null;index"`
	PartnerIdentity string           `gorm:"column:partner_identity;not null;default:''"`
	DealerCode      string           `gorm:"column:dealer_code;not null;default:''"`
	SKU             string           `gorm:"column:sku;not null"`
	Quantity        int              `gorm:"column:quantity;not null;default:1"`
	Status          enums.ItemStatus `gorm:"column:status;not null;default:'pending';index"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName implements the gorm naming override.
func (PunchoutItem) TableName() string { return "punchout_items" }
