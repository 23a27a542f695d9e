package application

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"stay_service/domain"
	errs "stay_service/errors"
)

// ReservationService carries the admin-facing operations: creating stays
// with a fresh access code, listing with opportunistic status advancement,
// partial edits, cancellation, and the site-wide gallery code.
type ReservationService struct {
	store    domain.ReservationStore
	settings domain.SettingsStore
	codes    *CodeGenerator
	tracer   trace.Tracer
}

func NewReservationService(store domain.ReservationStore, settings domain.SettingsStore, codes *CodeGenerator, tracer trace.Tracer) *ReservationService {
	return &ReservationService{
		store:    store,
		settings: settings,
		codes:    codes,
		tracer:   tracer,
	}
}

func (service *ReservationService) CreateReservation(ctx context.Context, request *domain.CreateReservationRequest) (*domain.Reservation, error) {
	ctx, span := service.tracer.Start(ctx, "ReservationService.CreateReservation")
	defer span.End()

	if err := request.Validate(); err != nil {
		return nil, &errs.ValidationError{Message: err.Error()}
	}

	checkIn, err := domain.ParseDate(request.CheckIn)
	if err != nil {
		return nil, &errs.ValidationError{Message: "Invalid checkIn date"}
	}
	checkOut, err := domain.ParseDate(request.CheckOut)
	if err != nil {
		return nil, &errs.ValidationError{Message: "Invalid checkOut date"}
	}
	if !checkIn.Before(checkOut) {
		return nil, &errs.ValidationError{Message: "checkOut must be after checkIn"}
	}

	reservation := &domain.Reservation{
		GuestName:    request.GuestName,
		GuestEmail:   request.GuestEmail,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Status:       domain.StatusUpcoming,
		KeyboxCode:   request.KeyboxCode,
		Notes:        request.Notes,
		PackingNotes: request.PackingNotes,
	}

	// The existence pre-check inside the generator is not atomic with the
	// insert, so a duplicate-key conflict from the unique index is retried
	// under the same bound instead of being escalated right away.
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := service.codes.GenerateUniqueCode(ctx)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		reservation.AccessCode = code

		created, err := service.store.Insert(ctx, reservation)
		if errors.Is(err, errs.ErrDuplicateAccessCode) {
			continue
		}
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		return created, nil
	}

	span.SetStatus(codes.Error, errs.ErrCodeGenerationExhausted.Error())
	return nil, errs.ErrCodeGenerationExhausted
}

// AdvanceStatuses applies the calendar-driven transitions as a set-based
// correction. Callers invoke it before reservation reads and decide whether
// a failure degrades the read to stale statuses or fails it.
func (service *ReservationService) AdvanceStatuses(ctx context.Context) error {
	ctx, span := service.tracer.Start(ctx, "ReservationService.AdvanceStatuses")
	defer span.End()

	err := service.store.AdvanceStatuses(ctx, domain.Date(time.Now()))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (service *ReservationService) GetAll(ctx context.Context) (domain.Reservations, error) {
	ctx, span := service.tracer.Start(ctx, "ReservationService.GetAll")
	defer span.End()

	return service.store.GetAll(ctx)
}

func (service *ReservationService) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Reservation, error) {
	ctx, span := service.tracer.Start(ctx, "ReservationService.GetByID")
	defer span.End()

	return service.store.GetByID(ctx, id)
}

func (service *ReservationService) UpdateReservation(ctx context.Context, id primitive.ObjectID, update *domain.ReservationUpdate) (*domain.Reservation, error) {
	ctx, span := service.tracer.Start(ctx, "ReservationService.UpdateReservation")
	defer span.End()

	if err := validateUpdate(update); err != nil {
		return nil, err
	}

	existing, err := service.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	checkIn := existing.CheckIn
	checkOut := existing.CheckOut
	if update.CheckIn != nil {
		checkIn = domain.Date(*update.CheckIn)
		update.CheckIn = &checkIn
	}
	if update.CheckOut != nil {
		checkOut = domain.Date(*update.CheckOut)
		update.CheckOut = &checkOut
	}
	if !checkIn.Before(checkOut) {
		return nil, &errs.ValidationError{Message: "checkOut must be after checkIn"}
	}

	if err := service.store.Update(ctx, id, update); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return service.store.GetByID(ctx, id)
}

func validateUpdate(update *domain.ReservationUpdate) error {
	if update.GuestName != nil && *update.GuestName == "" {
		return &errs.ValidationError{Message: "guestName cannot be empty"}
	}
	if update.GuestEmail != nil && *update.GuestEmail == "" {
		return &errs.ValidationError{Message: "guestEmail cannot be empty"}
	}
	if update.Status != nil {
		switch *update.Status {
		case domain.StatusUpcoming, domain.StatusActive, domain.StatusCompleted, domain.StatusCancelled:
		default:
			return &errs.ValidationError{Message: "Unknown status"}
		}
	}
	return nil
}

// CancelReservation is idempotent: cancelling an already-cancelled stay is
// a no-op success. Cancelling a completed stay is rejected.
func (service *ReservationService) CancelReservation(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := service.tracer.Start(ctx, "ReservationService.CancelReservation")
	defer span.End()

	reservation, err := service.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	switch reservation.Status {
	case domain.StatusCancelled:
		return nil
	case domain.StatusCompleted:
		return errs.ErrCompletedStay
	}

	err = service.store.UpdateStatus(ctx, id, domain.StatusCancelled)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (service *ReservationService) DeleteReservation(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := service.tracer.Start(ctx, "ReservationService.DeleteReservation")
	defer span.End()

	return service.store.Delete(ctx, id)
}

// SetGalleryCode stores the site-wide gallery code as a bcrypt hash; the
// raw value is never persisted.
func (service *ReservationService) SetGalleryCode(ctx context.Context, code string) error {
	ctx, span := service.tracer.Start(ctx, "ReservationService.SetGalleryCode")
	defer span.End()

	if code == "" {
		return &errs.ValidationError{Message: "Gallery code cannot be empty"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return service.settings.SetGalleryCodeHash(ctx, string(hash))
}
