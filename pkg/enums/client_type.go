package enums

import "fmt"

// ClientType distinguishes which procurement integration opened a session.
type ClientType string

const (
	ClientTypeCXML  ClientType = "cxml"
	ClientTypeQuick ClientType = "quick"
)

var validClientTypes = []ClientType{
	ClientTypeCXML,
	ClientTypeQuick,
}

// String implements fmt.Stringer.
func (c ClientType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ClientType.
func (c ClientType) IsValid() bool {
	for _, candidate := range validClientTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseClientType converts raw input into a ClientType.
func ParseClientType(value string) (ClientType, error) {
	for _, candidate := range validClientTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid client type %q", value)
}
