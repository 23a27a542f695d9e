package domain

import "time"

// KeyboxDisclosable reports whether the keybox code may be shown to a guest
// at the given instant. The window opens 24 hours before check-in, to the
// hour, and closes at the end of the checkout calendar day. Both boundaries
// are inclusive.
func KeyboxDisclosable(checkIn, checkOut, now time.Time) bool {
	windowStart := checkIn.Add(-24 * time.Hour)
	windowEnd := Date(checkOut).Add(24*time.Hour - time.Nanosecond)
	return !now.Before(windowStart) && !now.After(windowEnd)
}
