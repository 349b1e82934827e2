package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PunchoutCart holds the lines a punchout customer has staged for return
// to the procurement system.
type PunchoutCart struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID          `gorm:"column:customer_id;type:uuid;not null;index"`
	Status     string             `gorm:"column:status;not null;default:'active'"`
	Lines      []PunchoutCartLine `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName implements the gorm naming override.
func (PunchoutCart) TableName() string { return "punchout_carts" }

// PunchoutCartLine is one SKU/location allocation inside a cart.
type PunchoutCartLine struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	CartID      uuid.UUID       `gorm:"column:cart_id;type:uuid;not null;index"`
	SKU         string          `gorm:"column:sku;not null"`
	LocationID  string          `gorm:"column:location_id;not null;default:''"`
	Quantity    int             `gorm:"column:quantity;not null;default:1"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,4);not null;default:0"`
	Description string          `gorm:"column:description;not null;default:''"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName implements the gorm naming override.
func (PunchoutCartLine) TableName() string { return "punchout_cart_lines" }
