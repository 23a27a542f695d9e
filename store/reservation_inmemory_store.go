package store

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"stay_service/domain"
	errs "stay_service/errors"
)

// ReservationInMemoryStore is a map-backed ReservationStore used by tests
// and local development. It mirrors the Mongo store's semantics, including
// the duplicate access-code conflict on insert.
type ReservationInMemoryStore struct {
	mu           sync.RWMutex
	reservations map[primitive.ObjectID]*domain.Reservation
}

func NewReservationInMemoryStore() *ReservationInMemoryStore {
	return &ReservationInMemoryStore{
		reservations: make(map[primitive.ObjectID]*domain.Reservation),
	}
}

func (store *ReservationInMemoryStore) Insert(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, existing := range store.reservations {
		if existing.AccessCode == reservation.AccessCode {
			return nil, errs.ErrDuplicateAccessCode
		}
	}

	now := time.Now()
	stored := *reservation
	stored.ID = primitive.NewObjectID()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	store.reservations[stored.ID] = &stored

	clone := stored
	return &clone, nil
}

func (store *ReservationInMemoryStore) GetAll(ctx context.Context) (domain.Reservations, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	all := make(domain.Reservations, 0, len(store.reservations))
	for _, reservation := range store.reservations {
		clone := *reservation
		all = append(all, &clone)
	}
	return all, nil
}

func (store *ReservationInMemoryStore) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Reservation, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	reservation, ok := store.reservations[id]
	if !ok {
		return nil, errs.ErrReservationNotFound
	}
	clone := *reservation
	return &clone, nil
}

func (store *ReservationInMemoryStore) GetByAccessCode(ctx context.Context, code string) (*domain.Reservation, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	for _, reservation := range store.reservations {
		if reservation.AccessCode == code {
			clone := *reservation
			return &clone, nil
		}
	}
	return nil, errs.ErrReservationNotFound
}

func (store *ReservationInMemoryStore) ExistsByAccessCode(ctx context.Context, code string) (bool, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	for _, reservation := range store.reservations {
		if reservation.AccessCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (store *ReservationInMemoryStore) Update(ctx context.Context, id primitive.ObjectID, update *domain.ReservationUpdate) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	reservation, ok := store.reservations[id]
	if !ok {
		return errs.ErrReservationNotFound
	}

	if update.GuestName != nil {
		reservation.GuestName = *update.GuestName
	}
	if update.GuestEmail != nil {
		reservation.GuestEmail = *update.GuestEmail
	}
	if update.CheckIn != nil {
		reservation.CheckIn = *update.CheckIn
	}
	if update.CheckOut != nil {
		reservation.CheckOut = *update.CheckOut
	}
	if update.Status != nil {
		reservation.Status = *update.Status
	}
	if update.KeyboxCode != nil {
		reservation.KeyboxCode = *update.KeyboxCode
	}
	if update.Notes != nil {
		reservation.Notes = *update.Notes
	}
	if update.PackingNotes != nil {
		reservation.PackingNotes = *update.PackingNotes
	}
	reservation.UpdatedAt = time.Now()
	return nil
}

func (store *ReservationInMemoryStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.StayStatus) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	reservation, ok := store.reservations[id]
	if !ok {
		return errs.ErrReservationNotFound
	}
	reservation.Status = status
	reservation.UpdatedAt = time.Now()
	return nil
}

func (store *ReservationInMemoryStore) AdvanceStatuses(ctx context.Context, today time.Time) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	now := time.Now()
	for _, reservation := range store.reservations {
		next := domain.NextStatus(reservation.Status, reservation.CheckIn, reservation.CheckOut, today)
		if next != reservation.Status {
			reservation.Status = next
			reservation.UpdatedAt = now
		}
	}
	return nil
}

func (store *ReservationInMemoryStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.reservations[id]; !ok {
		return errs.ErrReservationNotFound
	}
	delete(store.reservations, id)
	return nil
}

// SettingsInMemoryStore backs tests for the gallery code path.
type SettingsInMemoryStore struct {
	mu   sync.RWMutex
	hash string
}

func NewSettingsInMemoryStore() *SettingsInMemoryStore {
	return &SettingsInMemoryStore{}
}

func (store *SettingsInMemoryStore) GetGalleryCodeHash(ctx context.Context) (string, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.hash, nil
}

func (store *SettingsInMemoryStore) SetGalleryCodeHash(ctx context.Context, hash string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.hash = hash
	return nil
}

// GalleryInMemoryCache is a TTL-aware marker cache for tests.
type GalleryInMemoryCache struct {
	mu      sync.RWMutex
	markers map[string]time.Time
}

func NewGalleryInMemoryCache() *GalleryInMemoryCache {
	return &GalleryInMemoryCache{
		markers: make(map[string]time.Time),
	}
}

func (cache *GalleryInMemoryCache) PostAccessMarker(ctx context.Context, marker string, ttl time.Duration) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.markers[marker] = time.Now().Add(ttl)
	return nil
}

func (cache *GalleryInMemoryCache) HasAccessMarker(ctx context.Context, marker string) (bool, error) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	deadline, ok := cache.markers[marker]
	return ok && time.Now().Before(deadline), nil
}

func (cache *GalleryInMemoryCache) DelAccessMarker(ctx context.Context, marker string) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	delete(cache.markers, marker)
	return nil
}
