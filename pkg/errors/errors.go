package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	// Partner-visible punchout failures. Each one maps to a fixed cXML
	// status text that partners match on, so the wording is frozen.
	CodeInvalidIdentity     Code = "INVALID_IDENTITY"
	CodeInvalidSharedSecret Code = "INVALID_SHARED_SECRET"
	CodeBuyerCookieReuse    Code = "BUYER_COOKIE_REUSE"
	CodeDealerNotFound      Code = "DEALER_NOT_FOUND"
	CodeDealerUnauthorized  Code = "DEALER_UNAUTHORIZED"
	CodeMalformedXML        Code = "MALFORMED_XML"

	// Generic service failures for the JSON surfaces.
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeProvisioning Code = "PROVISIONING_ERROR"
	CodeRateLimit    Code = "RATE_LIMITED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	PublicMessage  string
	CXMLStatusText string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeInvalidIdentity: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "unknown trading partner",
		CXMLStatusText: "Unable to find identity match!",
	},
	CodeInvalidSharedSecret: {
		HTTPStatus:     http.StatusUnauthorized,
		PublicMessage:  "shared secret mismatch",
		CXMLStatusText: "Invalid shared secret!",
	},
	CodeBuyerCookieReuse: {
		HTTPStatus:     http.StatusForbidden,
		PublicMessage:  "buyer cookie already used",
		CXMLStatusText: "Security violation: This buyer cookie is already associated with a different partner",
	},
	CodeDealerNotFound: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "ship-to address not recognized",
		CXMLStatusText: "Unable to match requested address id %s to TireHub Ship To! Please contact your administrator",
	},
	CodeDealerUnauthorized: {
		HTTPStatus:     http.StatusUnauthorized,
		PublicMessage:  "ship-to address not authorized",
		CXMLStatusText: "This location %s Is not currently authorized to use TireHub punchout! Please contact your administrator",
	},
	CodeMalformedXML: {
		HTTPStatus:     http.StatusInternalServerError,
		PublicMessage:  "unreadable cXML payload",
		CXMLStatusText: "The incoming cXml is not in a known format or is missing required attributes",
	},
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
	},
	CodeProvisioning: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicMessage: "customer provisioning failed",
	},
	CodeRateLimit: {
		HTTPStatus:    http.StatusTooManyRequests,
		PublicMessage: "too many requests",
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	wireArg string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

// WithWireArg sets the value interpolated into templated cXML status texts,
// such as the offending address code on dealer lookup failures.
func (e *Error) WithWireArg(arg string) *Error {
	if e == nil {
		return nil
	}
	e.wireArg = arg
	return e
}

// CXMLStatus returns the HTTP status and status text for the outbound cXML
// error response. Codes with no fixed wire text fall back to the generic
// malformed-request response.
func (e *Error) CXMLStatus() (int, string) {
	meta := MetadataFor(e.Code())
	if meta.CXMLStatusText == "" {
		meta = MetadataFor(CodeMalformedXML)
		return meta.HTTPStatus, meta.CXMLStatusText
	}
	text := meta.CXMLStatusText
	if e != nil && e.wireArg != "" {
		text = fmt.Sprintf(text, e.wireArg)
	}
	return meta.HTTPStatus, text
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// CodeOf extracts the typed code from an error chain, defaulting to
// CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
