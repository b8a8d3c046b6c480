package booking

import "travelstay/internal/domain/shared/daterange"

// IsAvailable reports whether dr is free of pending or confirmed stays.
func IsAvailable(existing []*Booking, dr daterange.DateRange) bool {
	for _, b := range existing {
		if b == nil || !b.Status.BlocksCalendar() {
			continue
		}
		if b.Range.Overlaps(dr) {
			return false
		}
	}
	return true
}
