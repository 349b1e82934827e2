package enums

import "fmt"

// ItemStatus tracks whether a pending quick-punchout item has been pulled
// into a cart yet.
type ItemStatus string

const (
	ItemStatusPending ItemStatus = "pending"
	ItemStatusAdded   ItemStatus = "added"
	ItemStatusError   ItemStatus = "error"
)

var validItemStatuses = []ItemStatus{
	ItemStatusPending,
	ItemStatusAdded,
	ItemStatusError,
}

// String implements fmt.Stringer.
func (i ItemStatus) String() string {
	return string(i)
}

// IsValid reports whether the value is a known ItemStatus.
func (i ItemStatus) IsValid() bool {
	for _, candidate := range validItemStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseItemStatus converts raw input into an ItemStatus.
func ParseItemStatus(value string) (ItemStatus, error) {
	for _, candidate := range validItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item status %q", value)
}
