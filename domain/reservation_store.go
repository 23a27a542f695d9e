package domain

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReservationStore interface {
	Insert(ctx context.Context, reservation *Reservation) (*Reservation, error)
	GetAll(ctx context.Context) (Reservations, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*Reservation, error)
	GetByAccessCode(ctx context.Context, code string) (*Reservation, error)
	ExistsByAccessCode(ctx context.Context, code string) (bool, error)
	Update(ctx context.Context, id primitive.ObjectID, update *ReservationUpdate) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status StayStatus) error
	AdvanceStatuses(ctx context.Context, today time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type SettingsStore interface {
	GetGalleryCodeHash(ctx context.Context) (string, error)
	SetGalleryCodeHash(ctx context.Context, hash string) error
}

type GalleryAccessCache interface {
	PostAccessMarker(ctx context.Context, marker string, ttl time.Duration) error
	HasAccessMarker(ctx context.Context, marker string) (bool, error)
	DelAccessMarker(ctx context.Context, marker string) error
}
