package inventory

// Allocation assigns part of a requested quantity to one stocking
// location.
type Allocation struct {
	Location Location
	Quantity int
}

// Distribute spreads the requested quantity across locations in lookup
// order, draining each location before moving to the next. Locations
// without stock are skipped. The remainder is whatever could not be
// placed.
func Distribute(locations []Location, totalQty int) (allocations []Allocation, remainder int) {
	if totalQty < 1 {
		totalQty = 1
	}
	remaining := totalQty

	for _, location := range locations {
		if location.QuantityAvailable <= 0 {
			continue
		}
		qty := location.QuantityAvailable
		if qty > remaining {
			qty = remaining
		}
		allocations = append(allocations, Allocation{Location: location, Quantity: qty})
		remaining -= qty
		if remaining <= 0 {
			break
		}
	}

	return allocations, remaining
}
