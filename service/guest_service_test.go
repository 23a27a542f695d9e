package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stay_service/authorization"
	"stay_service/domain"
	errs "stay_service/errors"
	"stay_service/store"
)

type guestServiceFixture struct {
	guests       *GuestService
	admin        *ReservationService
	reservations *store.ReservationInMemoryStore
	cache        *store.GalleryInMemoryCache
}

func newGuestServiceFixture(t *testing.T) *guestServiceFixture {
	t.Helper()

	reservations := store.NewReservationInMemoryStore()
	settings := store.NewSettingsInMemoryStore()
	cache := store.NewGalleryInMemoryCache()

	sessions, err := authorization.NewGuestSessionManager([]byte("test-secret"))
	require.NoError(t, err)

	generator := NewCodeGenerator(reservations, testTracer())
	return &guestServiceFixture{
		guests:       NewGuestService(reservations, settings, cache, sessions, testTracer()),
		admin:        NewReservationService(reservations, settings, generator, testTracer()),
		reservations: reservations,
		cache:        cache,
	}
}

func (f *guestServiceFixture) createStay(t *testing.T, checkIn, checkOut time.Time) *domain.Reservation {
	t.Helper()

	created, err := f.admin.CreateReservation(context.Background(), &domain.CreateReservationRequest{
		GuestName:  "Anna Berg",
		GuestEmail: "anna@example.com",
		CheckIn:    checkIn.Format("2006-01-02"),
		CheckOut:   checkOut.Format("2006-01-02"),
		KeyboxCode: "4711",
		Notes:      "Park behind the house",
	})
	require.NoError(t, err)
	return created
}

func TestRedeemCode(t *testing.T) {
	fixture := newGuestServiceFixture(t)
	created := fixture.createStay(t,
		time.Date(2030, 6, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2030, 6, 14, 0, 0, 0, 0, time.UTC))

	summary, token, expiresAt, err := fixture.guests.RedeemCode(context.Background(), created.AccessCode)
	require.NoError(t, err)

	assert.Equal(t, "Anna Berg", summary.GuestName)
	assert.Equal(t, created.CheckIn, summary.CheckIn)
	assert.Equal(t, created.CheckOut, summary.CheckOut)
	assert.NotEmpty(t, token)
	assert.Equal(t, created.CheckOut.Add(authorization.SessionGraceAfterCheckout), expiresAt)
}

func TestRedeemCode_NormalizesInput(t *testing.T) {
	fixture := newGuestServiceFixture(t)
	created := fixture.createStay(t,
		time.Date(2030, 6, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2030, 6, 14, 0, 0, 0, 0, time.UTC))

	raw := "  " + strings.ToLower(created.AccessCode) + " "
	_, _, _, err := fixture.guests.RedeemCode(context.Background(), raw)
	assert.NoError(t, err)
}

func TestRedeemCode_Rejections(t *testing.T) {
	fixture := newGuestServiceFixture(t)
	created := fixture.createStay(t,
		time.Date(2030, 6, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2030, 6, 14, 0, 0, 0, 0, time.UTC))

	_, _, _, err := fixture.guests.RedeemCode(context.Background(), "WRONGC0D")
	assert.ErrorIs(t, err, errs.ErrInvalidAccessCode)

	_, _, _, err = fixture.guests.RedeemCode(context.Background(), "   ")
	assert.ErrorIs(t, err, errs.ErrInvalidAccessCode)

	require.NoError(t, fixture.admin.CancelReservation(context.Background(), created.ID))
	_, _, _, err = fixture.guests.RedeemCode(context.Background(), created.AccessCode)
	assert.ErrorIs(t, err, errs.ErrStayCancelled)
}

func TestGetStay_DiscloseKeyboxDuringWindow(t *testing.T) {
	fixture := newGuestServiceFixture(t)
	today := domain.Date(time.Now())
	created := fixture.createStay(t, today.AddDate(0, 0, -1), today.AddDate(0, 0, 2))

	view, err := fixture.guests.GetStay(context.Background(), created.ID.Hex())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusActive, view.Status)
	require.NotNil(t, view.KeyboxCode)
	assert.Equal(t, "4711", *view.KeyboxCode)
	assert.Equal(t, "Park behind the house", view.Notes)
}

func TestGetStay_KeyboxHiddenFarBeforeCheckIn(t *testing.T) {
	fixture := newGuestServiceFixture(t)
	today := domain.Date(time.Now())
	created := fixture.createStay(t, today.AddDate(0, 0, 10), today.AddDate(0, 0, 14))

	view, err := fixture.guests.GetStay(context.Background(), created.ID.Hex())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusUpcoming, view.Status)
	assert.Nil(t, view.KeyboxCode)
}

func TestGetStay_KeyboxHiddenAfterCheckoutDay(t *testing.T) {
	fixture := newGuestServiceFixture(t)
	today := domain.Date(time.Now())
	created := fixture.createStay(t, today.AddDate(0, 0, -10), today.AddDate(0, 0, -5))

	view, err := fixture.guests.GetStay(context.Background(), created.ID.Hex())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, view.Status)
	assert.Nil(t, view.KeyboxCode)
}

func TestGetStay_InvalidReservationID(t *testing.T) {
	fixture := newGuestServiceFixture(t)

	_, err := fixture.guests.GetStay(context.Background(), "not-an-object-id")
	assert.ErrorIs(t, err, errs.ErrInvalidSession)

	_, err = fixture.guests.GetStay(context.Background(), "65b000000000000000000000")
	assert.ErrorIs(t, err, errs.ErrInvalidSession)
}

func TestGallery_UnlockAndAccess(t *testing.T) {
	fixture := newGuestServiceFixture(t)

	_, _, err := fixture.guests.UnlockGallery(context.Background(), "sunset2030")
	assert.ErrorIs(t, err, errs.ErrGalleryCodeNotSet)

	require.NoError(t, fixture.admin.SetGalleryCode(context.Background(), "sunset2030"))

	_, _, err = fixture.guests.UnlockGallery(context.Background(), "wrong-code")
	assert.ErrorIs(t, err, errs.ErrInvalidGalleryCode)

	marker, expiresAt, err := fixture.guests.UnlockGallery(context.Background(), "sunset2030")
	require.NoError(t, err)
	assert.NotEmpty(t, marker)
	assert.WithinDuration(t, time.Now().Add(GalleryAccessTTL), expiresAt, time.Minute)

	granted, err := fixture.guests.HasGalleryAccess(context.Background(), marker)
	require.NoError(t, err)
	assert.True(t, granted)

	granted, err = fixture.guests.HasGalleryAccess(context.Background(), "forged-marker")
	require.NoError(t, err)
	assert.False(t, granted)

	granted, err = fixture.guests.HasGalleryAccess(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, granted)

	require.NoError(t, fixture.guests.RevokeGalleryAccess(context.Background(), marker))
	granted, err = fixture.guests.HasGalleryAccess(context.Background(), marker)
	require.NoError(t, err)
	assert.False(t, granted)
}
