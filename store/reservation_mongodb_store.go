package store

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stay_service/domain"
	errs "stay_service/errors"
)

const (
	DATABASE   = "stay"
	COLLECTION = "reservations"
)

type ReservationMongoDBStore struct {
	reservations *mongo.Collection
	tracer       trace.Tracer
}

func NewReservationMongoDBStore(client *mongo.Client, tracer trace.Tracer) domain.ReservationStore {
	reservations := client.Database(DATABASE).Collection(COLLECTION)

	// The unique index is the last word on access-code uniqueness: the
	// generator's existence pre-check is not atomic with the insert.
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "accessCode", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err := reservations.Indexes().CreateOne(context.TODO(), indexModel)
	if err != nil {
		log.Println("Error creating accessCode index:", err)
	}

	return &ReservationMongoDBStore{
		reservations: reservations,
		tracer:       tracer,
	}
}

func (store *ReservationMongoDBStore) Insert(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	ctx, span := store.tracer.Start(ctx, "ReservationStore.Insert")
	defer span.End()

	now := time.Now()
	reservation.ID = primitive.NewObjectID()
	reservation.CreatedAt = now
	reservation.UpdatedAt = now

	result, err := store.reservations.InsertOne(ctx, reservation)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if mongo.IsDuplicateKeyError(err) {
			return nil, errs.ErrDuplicateAccessCode
		}
		return nil, err
	}

	reservation.ID = result.InsertedID.(primitive.ObjectID)
	return reservation, nil
}

func (store *ReservationMongoDBStore) GetAll(ctx context.Context) (domain.Reservations, error) {
	ctx, span := store.tracer.Start(ctx, "ReservationStore.GetAll")
	defer span.End()

	return store.filter(ctx, bson.M{})
}

func (store *ReservationMongoDBStore) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Reservation, error) {
	ctx, span := store.tracer.Start(ctx, "ReservationStore.GetByID")
	defer span.End()

	return store.filterOne(ctx, bson.M{"_id": id})
}

func (store *ReservationMongoDBStore) GetByAccessCode(ctx context.Context, code string) (*domain.Reservation, error) {
	ctx, span := store.tracer.Start(ctx, "ReservationStore.GetByAccessCode")
	defer span.End()

	return store.filterOne(ctx, bson.M{"accessCode": code})
}

func (store *ReservationMongoDBStore) ExistsByAccessCode(ctx context.Context, code string) (bool, error) {
	ctx, span := store.tracer.Start(ctx, "ReservationStore.ExistsByAccessCode")
	defer span.End()

	count, err := store.reservations.CountDocuments(ctx, bson.M{"accessCode": code})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	return count > 0, nil
}

func (store *ReservationMongoDBStore) Update(ctx context.Context, id primitive.ObjectID, update *domain.ReservationUpdate) error {
	ctx, span := store.tracer.Start(ctx, "ReservationStore.Update")
	defer span.End()

	fields := bson.M{"updatedAt": time.Now()}
	if update.GuestName != nil {
		fields["guestName"] = *update.GuestName
	}
	if update.GuestEmail != nil {
		fields["guestEmail"] = *update.GuestEmail
	}
	if update.CheckIn != nil {
		fields["checkIn"] = *update.CheckIn
	}
	if update.CheckOut != nil {
		fields["checkOut"] = *update.CheckOut
	}
	if update.Status != nil {
		fields["status"] = *update.Status
	}
	if update.KeyboxCode != nil {
		fields["keyboxCode"] = *update.KeyboxCode
	}
	if update.Notes != nil {
		fields["notes"] = *update.Notes
	}
	if update.PackingNotes != nil {
		fields["packingNotes"] = *update.PackingNotes
	}

	result, err := store.reservations.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if result.MatchedCount == 0 {
		return errs.ErrReservationNotFound
	}
	return nil
}

func (store *ReservationMongoDBStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.StayStatus) error {
	ctx, span := store.tracer.Start(ctx, "ReservationStore.UpdateStatus")
	defer span.End()

	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}}
	result, err := store.reservations.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if result.MatchedCount == 0 {
		return errs.ErrReservationNotFound
	}
	return nil
}

// AdvanceStatuses applies the calendar transitions as two set-based
// conditional updates, so concurrent readers never observe a torn state
// beyond a single statement. The completed rule runs first and its filter
// includes Active rows, so a stay whose checkout has passed completes even
// if it was never observed Active.
func (store *ReservationMongoDBStore) AdvanceStatuses(ctx context.Context, today time.Time) error {
	ctx, span := store.tracer.Start(ctx, "ReservationStore.AdvanceStatuses")
	defer span.End()

	now := time.Now()

	completedFilter := bson.M{
		"status":   bson.M{"$in": []domain.StayStatus{domain.StatusUpcoming, domain.StatusActive}},
		"checkOut": bson.M{"$lt": today},
	}
	_, err := store.reservations.UpdateMany(ctx, completedFilter,
		bson.M{"$set": bson.M{"status": domain.StatusCompleted, "updatedAt": now}})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	activeFilter := bson.M{
		"status":   domain.StatusUpcoming,
		"checkIn":  bson.M{"$lte": today},
		"checkOut": bson.M{"$gte": today},
	}
	_, err = store.reservations.UpdateMany(ctx, activeFilter,
		bson.M{"$set": bson.M{"status": domain.StatusActive, "updatedAt": now}})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (store *ReservationMongoDBStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "ReservationStore.Delete")
	defer span.End()

	result, err := store.reservations.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if result.DeletedCount == 0 {
		return errs.ErrReservationNotFound
	}
	return nil
}

func (store *ReservationMongoDBStore) filter(ctx context.Context, filter interface{}) (domain.Reservations, error) {
	cursor, err := store.reservations.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decode(ctx, cursor)
}

func (store *ReservationMongoDBStore) filterOne(ctx context.Context, filter interface{}) (*domain.Reservation, error) {
	result := store.reservations.FindOne(ctx, filter)

	var reservation domain.Reservation
	if err := result.Decode(&reservation); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errs.ErrReservationNotFound
		}
		log.Println("Error decoding reservation:", err)
		return nil, err
	}

	return &reservation, nil
}

func decode(ctx context.Context, cursor *mongo.Cursor) (reservations domain.Reservations, err error) {
	for cursor.Next(ctx) {
		var reservation domain.Reservation
		err = cursor.Decode(&reservation)
		if err != nil {
			return
		}
		reservations = append(reservations, &reservation)
	}
	err = cursor.Err()
	return
}
