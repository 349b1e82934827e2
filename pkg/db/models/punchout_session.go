package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tirehub/punchout-backend/pkg/enums"
)

// PunchoutSession tracks one partner shopping session keyed by buyer cookie.
type PunchoutSession struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	BuyerCookie        string              `gorm:"column:buyer_cookie;not null;uniqueIndex:ux_punchout_sessions_buyer_cookie"`
	PartnerIdentity    string              `gorm:"column:partner_identity;not null;index"`
	ClientType         enums.ClientType    `gorm:"column:client_type;not null;default:'cxml'"`
	Status             enums.SessionStatus `gorm:"column:status;not null;default:'new';index"`
	CorpAddressID      string              `gorm:"column:corp_address_id;not null;default:''"`
	AddressID          string              `gorm:"column:address_id;not null;default:''"`
	FullName           string              `gorm:"column:full_name;not null;default:''"`
	FirstName          string              `gorm:"column:first_name;not null;default:''"`
	LastName           string              `gorm:"column:last_name;not null;default:''"`
	Email              string              `gorm:"column:email;not null;default:''"`
	Phone              string              `gorm:"column:phone;not null;default:''"`
	BrowserFormPostURL string              `gorm:"column:browser_form_post_url;not null;default:''"`
	CXMLRequest        string              `gorm:"column:cxml_request;not null;default:''"`
	CustomerID         *uuid.UUID          `gorm:"column:customer_id;type:uuid"`
	TempPO             string              `gorm:"column:temppo;not null;default:''"`
	ERPOrderNumber     string              `gorm:"column:erp_order_number;not null;default:''"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName implements the gorm naming override.
func (PunchoutSession) TableName() string { return "punchout_sessions" }
