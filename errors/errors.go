package errors

import "errors"

var (
	ErrInvalidAccessCode       = errors.New("Invalid access code")
	ErrStayCancelled           = errors.New("This stay has been cancelled")
	ErrInvalidSession          = errors.New("Invalid or expired session")
	ErrDuplicateAccessCode     = errors.New("Access code already exists")
	ErrCodeGenerationExhausted = errors.New("Could not generate a unique access code")
	ErrReservationNotFound     = errors.New("Reservation not found")
	ErrCompletedStay           = errors.New("Cannot cancel a completed stay")
	ErrInvalidGalleryCode      = errors.New("Invalid gallery code")
	ErrGalleryCodeNotSet       = errors.New("Gallery code is not configured")
)

type ValidationError struct {
	Message string `json:"message"`
}

func (v *ValidationError) Error() string {
	return v.Message
}
