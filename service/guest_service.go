package application

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"stay_service/authorization"
	"stay_service/domain"
	errs "stay_service/errors"
)

// Gallery markers live this long in the cache; the cookie carries the same
// expiry but the cache entry is authoritative.
const GalleryAccessTTL = 30 * 24 * time.Hour

// GuestService is the guest-facing side of the portal: access-code
// redemption, the gated stay view, and the coarser gallery unlock.
type GuestService struct {
	store    domain.ReservationStore
	settings domain.SettingsStore
	cache    domain.GalleryAccessCache
	sessions *authorization.GuestSessionManager
	cb       *gobreaker.CircuitBreaker
	tracer   trace.Tracer
}

func NewGuestService(store domain.ReservationStore, settings domain.SettingsStore, cache domain.GalleryAccessCache, sessions *authorization.GuestSessionManager, tracer trace.Tracer) *GuestService {
	return &GuestService{
		store:    store,
		settings: settings,
		cache:    cache,
		sessions: sessions,
		cb:       CircuitBreaker("galleryCache"),
		tracer:   tracer,
	}
}

// RedeemCode exchanges a raw access code for a guest session. Unknown and
// malformed codes are indistinguishable to the caller, and a cancelled
// stay's code never grants a session even though the row still exists.
func (service *GuestService) RedeemCode(ctx context.Context, rawCode string) (*domain.StaySummary, string, time.Time, error) {
	ctx, span := service.tracer.Start(ctx, "GuestService.RedeemCode")
	defer span.End()

	code := NormalizeAccessCode(rawCode)
	if code == "" {
		return nil, "", time.Time{}, errs.ErrInvalidAccessCode
	}

	reservation, err := service.store.GetByAccessCode(ctx, code)
	if err == errs.ErrReservationNotFound {
		return nil, "", time.Time{}, errs.ErrInvalidAccessCode
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", time.Time{}, err
	}

	if reservation.Status == domain.StatusCancelled {
		return nil, "", time.Time{}, errs.ErrStayCancelled
	}

	token, expiresAt, err := service.sessions.Issue(reservation.ID.Hex(), reservation.GuestName, reservation.CheckOut)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, "", time.Time{}, err
	}

	summary := &domain.StaySummary{
		GuestName: reservation.GuestName,
		CheckIn:   reservation.CheckIn,
		CheckOut:  reservation.CheckOut,
	}
	return summary, token, expiresAt, nil
}

// GetStay returns the reservation view for an authenticated guest. Statuses
// are advanced opportunistically first; if that fails the read proceeds
// with slightly-stale statuses rather than failing the request.
func (service *GuestService) GetStay(ctx context.Context, reservationID string) (*domain.GuestStayView, error) {
	ctx, span := service.tracer.Start(ctx, "GuestService.GetStay")
	defer span.End()

	id, err := primitive.ObjectIDFromHex(reservationID)
	if err != nil {
		return nil, errs.ErrInvalidSession
	}

	if err := service.store.AdvanceStatuses(ctx, domain.Date(time.Now())); err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Printf("status advance failed, serving stale statuses: %s", err)
	}

	reservation, err := service.store.GetByID(ctx, id)
	if err == errs.ErrReservationNotFound {
		return nil, errs.ErrInvalidSession
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	view := &domain.GuestStayView{
		GuestName:    reservation.GuestName,
		CheckIn:      reservation.CheckIn,
		CheckOut:     reservation.CheckOut,
		Status:       reservation.Status,
		Notes:        reservation.Notes,
		PackingNotes: reservation.PackingNotes,
	}

	if reservation.KeyboxCode != "" && domain.KeyboxDisclosable(reservation.CheckIn, reservation.CheckOut, time.Now()) {
		keybox := reservation.KeyboxCode
		view.KeyboxCode = &keybox
	}

	return view, nil
}

// UnlockGallery verifies the site-wide code and mints a 30-day access
// marker for the gallery cookie.
func (service *GuestService) UnlockGallery(ctx context.Context, rawCode string) (string, time.Time, error) {
	ctx, span := service.tracer.Start(ctx, "GuestService.UnlockGallery")
	defer span.End()

	hash, err := service.settings.GetGalleryCodeHash(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", time.Time{}, err
	}
	if hash == "" {
		return "", time.Time{}, errs.ErrGalleryCodeNotSet
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawCode)) != nil {
		return "", time.Time{}, errs.ErrInvalidGalleryCode
	}

	marker := uuid.New().String()
	expiresAt := time.Now().Add(GalleryAccessTTL)

	_, err = service.cb.Execute(func() (interface{}, error) {
		return nil, service.cache.PostAccessMarker(ctx, marker, GalleryAccessTTL)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", time.Time{}, err
	}

	return marker, expiresAt, nil
}

// HasGalleryAccess checks a marker from the gallery cookie. Cache lookups
// run behind the circuit breaker so a stalled cache fails fast instead of
// hanging every gallery request.
func (service *GuestService) HasGalleryAccess(ctx context.Context, marker string) (bool, error) {
	ctx, span := service.tracer.Start(ctx, "GuestService.HasGalleryAccess")
	defer span.End()

	if marker == "" {
		return false, nil
	}

	result, err := service.cb.Execute(func() (interface{}, error) {
		return service.cache.HasAccessMarker(ctx, marker)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	granted, ok := result.(bool)
	return ok && granted, nil
}

// RevokeGalleryAccess drops a marker, typically on logout.
func (service *GuestService) RevokeGalleryAccess(ctx context.Context, marker string) error {
	ctx, span := service.tracer.Start(ctx, "GuestService.RevokeGalleryAccess")
	defer span.End()

	if marker == "" {
		return nil
	}
	return service.cache.DelAccessMarker(ctx, marker)
}

func CircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(
		gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     10 * time.Second,
			Interval:    0,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 2
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				log.Printf("Circuit Breaker '%s' changed from '%s' to '%s'\n", name, from, to)
			},
		},
	)
}
