package domain

import "time"

// NextStatus computes the automatic lifecycle transition for a reservation
// given "today" as a UTC date. Completed and Cancelled are terminal. A stay
// whose checkout has passed completes even if it was never observed Active,
// and a stale Active row still completes.
func NextStatus(status StayStatus, checkIn, checkOut, today time.Time) StayStatus {
	if status == StatusCompleted || status == StatusCancelled {
		return status
	}
	if checkOut.Before(today) {
		return StatusCompleted
	}
	if status == StatusUpcoming && !today.Before(checkIn) && !today.After(checkOut) {
		return StatusActive
	}
	return status
}
