package domain

import (
	"encoding/json"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StayStatus string

const (
	StatusUpcoming  StayStatus = "Upcoming"
	StatusActive    StayStatus = "Active"
	StatusCompleted StayStatus = "Completed"
	StatusCancelled StayStatus = "Cancelled"
)

type Reservation struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	GuestName    string             `bson:"guestName" json:"guestName"`
	GuestEmail   string             `bson:"guestEmail" json:"guestEmail"`
	CheckIn      time.Time          `bson:"checkIn" json:"checkIn"`
	CheckOut     time.Time          `bson:"checkOut" json:"checkOut"`
	Status       StayStatus         `bson:"status" json:"status"`
	AccessCode   string             `bson:"accessCode" json:"accessCode"`
	KeyboxCode   string             `bson:"keyboxCode,omitempty" json:"keyboxCode,omitempty"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	PackingNotes string             `bson:"packingNotes,omitempty" json:"packingNotes,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type Reservations []*Reservation

// CreateReservationRequest carries the admin create payload. Dates are
// calendar dates without a time component.
type CreateReservationRequest struct {
	GuestName    string `json:"guestName" validate:"required,max=100"`
	GuestEmail   string `json:"guestEmail" validate:"required,email"`
	CheckIn      string `json:"checkIn" validate:"required,datetime=2006-01-02"`
	CheckOut     string `json:"checkOut" validate:"required,datetime=2006-01-02"`
	KeyboxCode   string `json:"keyboxCode" validate:"max=30"`
	Notes        string `json:"notes"`
	PackingNotes string `json:"packingNotes"`
}

func (request *CreateReservationRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(request)
}

// ReservationUpdate is a typed partial update: nil fields are left untouched.
type ReservationUpdate struct {
	GuestName    *string     `json:"guestName"`
	GuestEmail   *string     `json:"guestEmail"`
	CheckIn      *time.Time  `json:"checkIn"`
	CheckOut     *time.Time  `json:"checkOut"`
	Status       *StayStatus `json:"status"`
	KeyboxCode   *string     `json:"keyboxCode"`
	Notes        *string     `json:"notes"`
	PackingNotes *string     `json:"packingNotes"`
}

// StaySummary is the non-secret response to a successful code redemption.
// It never carries the access code, keybox code, or internal id.
type StaySummary struct {
	GuestName string    `json:"guestName"`
	CheckIn   time.Time `json:"checkIn"`
	CheckOut  time.Time `json:"checkOut"`
}

// GuestStayView is the guest-facing reservation read. KeyboxCode is null
// whenever the disclosure window is closed or no code is configured, so
// clients always have a stable shape to branch on.
type GuestStayView struct {
	GuestName    string     `json:"guestName"`
	CheckIn      time.Time  `json:"checkIn"`
	CheckOut     time.Time  `json:"checkOut"`
	Status       StayStatus `json:"status"`
	Notes        string     `json:"notes"`
	PackingNotes string     `json:"packingNotes"`
	KeyboxCode   *string    `json:"keyboxCode"`
}

// Date truncates a timestamp to UTC midnight. All calendar comparisons in
// the service are done on UTC dates.
func Date(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a 2006-01-02 calendar date as UTC midnight.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, time.UTC)
}

func (o *Reservation) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(o)
}

func (o *Reservation) FromJSON(r io.Reader) error {
	d := json.NewDecoder(r)
	return d.Decode(o)
}

func (o *Reservations) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(o)
}
