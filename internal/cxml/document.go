package cxml

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

const (
	// Doctype carried on every outbound document. Partners validate
	// against this exact DTD revision.
	Doctype = `<!DOCTYPE cXML SYSTEM "http://xml.cXML.org/schemas/cXML/1.2.041/cXML.dtd">`

	xmlDeclaration = `<?xml version="1.0" encoding="utf-8"?>`

	payloadSuffix   = "@tirehub"
	timestampLayout = "2006-01-02T15:04:05.000000-07:00"
)

// Credential identifies one party on the cXML header.
type Credential struct {
	Domain       string
	Identity     string
	SharedSecret string
}

// SetupRequest is the parsed payload of an inbound PunchOutSetupRequest.
type SetupRequest struct {
	PayloadID          string
	From               Credential
	To                 Credential
	Sender             Credential
	Operation          string
	BuyerCookie        string
	BrowserFormPostURL string
	AddressID          string
	Extrinsics         map[string]string
}

// Extrinsic returns the named extrinsic value, empty when absent.
func (r *SetupRequest) Extrinsic(name string) string {
	if r == nil || r.Extrinsics == nil {
		return ""
	}
	return r.Extrinsics[name]
}

type wireCredential struct {
	Domain       string `xml:"domain,attr"`
	Identity     string `xml:"Identity"`
	SharedSecret string `xml:"SharedSecret"`
}

type wireExtrinsic struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type wireSetupRequest struct {
	Operation       string          `xml:"operation,attr"`
	BuyerCookie     string          `xml:"BuyerCookie"`
	Extrinsics      []wireExtrinsic `xml:"Extrinsic"`
	BrowserFormPost struct {
		URL string `xml:"URL"`
	} `xml:"BrowserFormPost"`
	ShipTo struct {
		Address struct {
			AddressID string `xml:"addressID,attr"`
		} `xml:"Address"`
	} `xml:"ShipTo"`
}

type wireDocument struct {
	XMLName   xml.Name `xml:"cXML"`
	PayloadID string   `xml:"payloadID,attr"`
	Header    struct {
		From struct {
			Credential wireCredential `xml:"Credential"`
		} `xml:"From"`
		To struct {
			Credential wireCredential `xml:"Credential"`
		} `xml:"To"`
		Sender struct {
			Credential wireCredential `xml:"Credential"`
		} `xml:"Sender"`
	} `xml:"Header"`
	Request struct {
		Setup *wireSetupRequest `xml:"PunchOutSetupRequest"`
	} `xml:"Request"`
}

// ParseSetupRequest decodes and validates the structural shape of an
// inbound setup document. Credential and dealer checks happen upstream;
// this only guarantees the envelope carries what the protocol requires.
func ParseSetupRequest(raw []byte) (*SetupRequest, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty request content")
	}

	clean := Sanitize(raw)

	var doc wireDocument
	if err := xml.Unmarshal(clean, &doc); err != nil {
		return nil, fmt.Errorf("decoding cXML: %w", err)
	}

	if doc.Header.From.Credential.Identity == "" ||
		doc.Header.To.Credential.Identity == "" ||
		doc.Header.Sender.Credential.Identity == "" {
		return nil, fmt.Errorf("missing credentials")
	}
	// Partner lookup keys on the Sender domain, so a credential
	// without one can never authenticate. From/To domains are left
	// alone because buyers are loose about those in practice.
	if strings.TrimSpace(doc.Header.Sender.Credential.Domain) == "" {
		return nil, fmt.Errorf("missing Sender credential domain")
	}

	setup := doc.Request.Setup
	if setup == nil {
		return nil, fmt.Errorf("missing PunchOutSetupRequest")
	}
	if strings.TrimSpace(setup.BuyerCookie) == "" {
		return nil, fmt.Errorf("missing BuyerCookie")
	}

	extrinsics := make(map[string]string, len(setup.Extrinsics))
	for _, e := range setup.Extrinsics {
		extrinsics[e.Name] = strings.TrimSpace(e.Value)
	}

	return &SetupRequest{
		PayloadID: doc.PayloadID,
		From: Credential{
			Domain:   doc.Header.From.Credential.Domain,
			Identity: doc.Header.From.Credential.Identity,
		},
		To: Credential{
			Domain:   doc.Header.To.Credential.Domain,
			Identity: doc.Header.To.Credential.Identity,
		},
		Sender: Credential{
			Domain:       doc.Header.Sender.Credential.Domain,
			Identity:     doc.Header.Sender.Credential.Identity,
			SharedSecret: doc.Header.Sender.Credential.SharedSecret,
		},
		Operation:          setup.Operation,
		BuyerCookie:        strings.TrimSpace(setup.BuyerCookie),
		BrowserFormPostURL: strings.TrimSpace(setup.BrowserFormPost.URL),
		AddressID:          strings.TrimSpace(setup.ShipTo.Address.AddressID),
		Extrinsics:         extrinsics,
	}, nil
}

func newPayloadID() string {
	entropy := make([]byte, 6)
	_, _ = rand.Read(entropy)
	return fmt.Sprintf("%x%s%s", time.Now().UnixMicro(), hex.EncodeToString(entropy), payloadSuffix)
}

func formatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}
