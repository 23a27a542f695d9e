package authorization

import (
	"log"
	"time"

	"github.com/cristalhq/jwt/v4"

	errs "stay_service/errors"
)

// Guests keep portal access for a week after checkout, long enough to leave
// a review but not indefinitely.
const SessionGraceAfterCheckout = 7 * 24 * time.Hour

type GuestClaims struct {
	jwt.RegisteredClaims
	ReservationID string `json:"reservationId"`
	DisplayName   string `json:"displayName"`
}

// GuestSession is the verified identity recovered from a session token.
type GuestSession struct {
	ReservationID string
	DisplayName   string
}

// GuestSessionManager issues and verifies the signed tokens that bind a
// guest to exactly one reservation. It is independent of the admin auth
// mechanism; rotating the key invalidates all outstanding sessions.
type GuestSessionManager struct {
	signer   jwt.Signer
	verifier jwt.Verifier
}

func NewGuestSessionManager(key []byte) (*GuestSessionManager, error) {
	signer, err := jwt.NewSignerHS(jwt.HS256, key)
	if err != nil {
		return nil, err
	}
	verifier, err := jwt.NewVerifierHS(jwt.HS256, key)
	if err != nil {
		return nil, err
	}
	return &GuestSessionManager{
		signer:   signer,
		verifier: verifier,
	}, nil
}

// Issue mints a session token for the reservation, expiring seven days
// after the checkout date. The returned expiry is also used for the cookie
// so the cookie never outlives the token.
func (manager *GuestSessionManager) Issue(reservationID, displayName string, checkOut time.Time) (string, time.Time, error) {
	expiresAt := checkOut.Add(SessionGraceAfterCheckout)

	claims := &GuestClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		ReservationID: reservationID,
		DisplayName:   displayName,
	}

	token, err := jwt.NewBuilder(manager.signer).Build(claims)
	if err != nil {
		return "", time.Time{}, err
	}

	return token.String(), expiresAt, nil
}

// Verify validates signature and expiry. Every failure collapses to the
// same invalid-session error so callers cannot tell a forged token from an
// expired one; the distinction only reaches the log.
func (manager *GuestSessionManager) Verify(raw string) (*GuestSession, error) {
	return manager.VerifyAt(raw, time.Now())
}

func (manager *GuestSessionManager) VerifyAt(raw string, now time.Time) (*GuestSession, error) {
	var claims GuestClaims
	err := jwt.ParseClaims([]byte(raw), manager.verifier, &claims)
	if err != nil {
		log.Printf("guest session rejected: %s", err)
		return nil, errs.ErrInvalidSession
	}

	if !claims.IsValidExpiresAt(now) {
		log.Printf("guest session rejected: expired for reservation %s", claims.ReservationID)
		return nil, errs.ErrInvalidSession
	}

	if claims.ReservationID == "" {
		return nil, errs.ErrInvalidSession
	}

	return &GuestSession{
		ReservationID: claims.ReservationID,
		DisplayName:   claims.DisplayName,
	}, nil
}
