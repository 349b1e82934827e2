package cxml

import (
	"encoding/xml"
	"fmt"
	"time"
)

type wireStatus struct {
	Code string `xml:"code,attr"`
	Text string `xml:"text,attr"`
}

type wireStartPage struct {
	URL string `xml:"URL"`
}

type wireSetupResponse struct {
	StartPage wireStartPage `xml:"StartPage"`
}

type wireResponse struct {
	Status wireStatus         `xml:"Status"`
	Setup  *wireSetupResponse `xml:"PunchOutSetupResponse,omitempty"`
}

type wireResponseEnvelope struct {
	XMLName   xml.Name      `xml:"cXML"`
	PayloadID string        `xml:"payloadID,attr"`
	Timestamp string        `xml:"timestamp,attr"`
	Response  *wireResponse `xml:"Response"`
}

// SuccessResponse renders the 200 setup response carrying the StartPage URL.
func SuccessResponse(startPageURL string) (string, error) {
	return renderResponse(&wireResponse{
		Status: wireStatus{Code: "200", Text: "success"},
		Setup:  &wireSetupResponse{StartPage: wireStartPage{URL: startPageURL}},
	})
}

// ErrorResponse renders a status-only response with the given code and text.
func ErrorResponse(code int, text string) (string, error) {
	return renderResponse(&wireResponse{
		Status: wireStatus{Code: fmt.Sprintf("%d", code), Text: text},
	})
}

func renderResponse(resp *wireResponse) (string, error) {
	envelope := wireResponseEnvelope{
		PayloadID: newPayloadID(),
		Timestamp: formatTimestamp(time.Now()),
		Response:  resp,
	}
	body, err := xml.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("encoding cXML response: %w", err)
	}
	return xmlDeclaration + Doctype + string(body), nil
}
