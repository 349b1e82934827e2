package cxml

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// SupplierDomain and SupplierIdentity identify TireHub on outbound
	// order messages.
	SupplierDomain   = "DUNS"
	SupplierIdentity = "08-125-4817"

	supplierUserAgent = "TireHub Transactional Middleware"
	deploymentMode    = "production"

	unitOfMeasure      = "EA"
	tireClassification = "25172504"
)

// OrderLine is one cart line returned to the procurement system.
type OrderLine struct {
	SKU                string
	Quantity           int
	UnitPrice          decimal.Decimal
	Description        string
	ManufacturerPartID string
	ManufacturerName   string
}

// Order carries everything the order message needs from a completed session.
type Order struct {
	BuyerCookie string
	TempPO      string
	Currency    string
	Total       decimal.Decimal
	Lines       []OrderLine
}

type wireMoney struct {
	Currency string `xml:"currency,attr"`
	Amount   string `xml:",chardata"`
}

type wireClassification struct {
	Domain string `xml:"domain,attr"`
	Value  string `xml:",chardata"`
}

type wireItemID struct {
	SupplierPartID          string `xml:"SupplierPartID"`
	SupplierPartAuxiliaryID string `xml:"SupplierPartAuxiliaryID"`
}

type wireItemDetail struct {
	UnitPrice struct {
		Money wireMoney `xml:"Money"`
	} `xml:"UnitPrice"`
	Description        string             `xml:"Description"`
	UnitOfMeasure      string             `xml:"UnitOfMeasure"`
	ManufacturerPartID string             `xml:"ManufacturerPartID"`
	ManufacturerName   string             `xml:"ManufacturerName,omitempty"`
	Classification     wireClassification `xml:"Classification"`
}

type wireItemIn struct {
	Quantity   int            `xml:"quantity,attr"`
	LineNumber int            `xml:"lineNumber,attr"`
	ItemID     wireItemID     `xml:"ItemID"`
	ItemDetail wireItemDetail `xml:"ItemDetail"`
}

type wireOrderMessageHeader struct {
	OperationAllowed string `xml:"operationAllowed,attr"`
	Total            struct {
		Money wireMoney `xml:"Money"`
	} `xml:"Total"`
}

type wireOrderMessage struct {
	BuyerCookie string                 `xml:"BuyerCookie"`
	Header      wireOrderMessageHeader `xml:"PunchOutOrderMessageHeader"`
	Items       []wireItemIn           `xml:"ItemIn"`
}

type wireMessage struct {
	DeploymentMode string           `xml:"deploymentMode,attr"`
	OrderMessage   wireOrderMessage `xml:"PunchOutOrderMessage"`
}

type wireHeaderParty struct {
	Credential wireCredentialOut `xml:"Credential"`
}

type wireCredentialOut struct {
	Domain       string `xml:"domain,attr"`
	Identity     string `xml:"Identity"`
	SharedSecret string `xml:"SharedSecret,omitempty"`
}

type wireSender struct {
	Credential wireCredentialOut `xml:"Credential"`
	UserAgent  string            `xml:"UserAgent"`
}

type wireOrderHeader struct {
	From   wireHeaderParty `xml:"From"`
	To     wireHeaderParty `xml:"To"`
	Sender wireSender      `xml:"Sender"`
}

type wireOrderEnvelope struct {
	XMLName   xml.Name        `xml:"cXML"`
	PayloadID string          `xml:"payloadID,attr"`
	Timestamp string          `xml:"timestamp,attr"`
	Header    wireOrderHeader `xml:"Header"`
	Message   wireMessage     `xml:"Message"`
}

// BuildOrderMessage renders the PunchOutOrderMessage document posted back
// to the partner's procurement system when checkout completes.
func BuildOrderMessage(order Order, partner Credential) (string, error) {
	if order.BuyerCookie == "" {
		return "", fmt.Errorf("order message requires a buyer cookie")
	}

	currency := order.Currency
	if currency == "" {
		currency = "USD"
	}

	items := make([]wireItemIn, 0, len(order.Lines))
	for i, line := range order.Lines {
		item := wireItemIn{
			Quantity:   line.Quantity,
			LineNumber: i + 1,
			ItemID: wireItemID{
				SupplierPartID:          line.SKU,
				SupplierPartAuxiliaryID: order.TempPO,
			},
		}
		item.ItemDetail.UnitPrice.Money = wireMoney{
			Currency: currency,
			Amount:   line.UnitPrice.StringFixed(2),
		}
		item.ItemDetail.Description = line.Description
		item.ItemDetail.UnitOfMeasure = unitOfMeasure
		mfgPartID := line.ManufacturerPartID
		if mfgPartID == "" {
			mfgPartID = line.SKU
		}
		item.ItemDetail.ManufacturerPartID = mfgPartID
		item.ItemDetail.ManufacturerName = strings.ToUpper(line.ManufacturerName)
		item.ItemDetail.Classification = wireClassification{
			Domain: "UNSPSC",
			Value:  tireClassification,
		}
		items = append(items, item)
	}

	envelope := wireOrderEnvelope{
		PayloadID: newPayloadID(),
		Timestamp: formatTimestamp(time.Now()),
		Header: wireOrderHeader{
			From: wireHeaderParty{Credential: wireCredentialOut{
				Domain:   SupplierDomain,
				Identity: SupplierIdentity,
			}},
			To: wireHeaderParty{Credential: wireCredentialOut{
				Domain:   SupplierDomain,
				Identity: partner.Identity,
			}},
			Sender: wireSender{
				Credential: wireCredentialOut{
					Domain:       SupplierDomain,
					Identity:     SupplierIdentity,
					SharedSecret: partner.SharedSecret,
				},
				UserAgent: supplierUserAgent,
			},
		},
		Message: wireMessage{
			DeploymentMode: deploymentMode,
			OrderMessage: wireOrderMessage{
				BuyerCookie: order.BuyerCookie,
				Header: wireOrderMessageHeader{
					OperationAllowed: "create",
				},
				Items: items,
			},
		},
	}
	envelope.Message.OrderMessage.Header.Total.Money = wireMoney{
		Currency: currency,
		Amount:   order.Total.StringFixed(2),
	}

	body, err := xml.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("encoding order message: %w", err)
	}
	return xmlDeclaration + Doctype + string(body), nil
}
