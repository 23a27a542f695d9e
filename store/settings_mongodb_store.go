package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stay_service/domain"
)

const SETTINGS_COLLECTION = "settings"

const galleryCodeKey = "galleryCode"

type settingsDocument struct {
	Key  string `bson:"key"`
	Hash string `bson:"hash"`
}

// SettingsMongoDBStore keeps singleton site settings, currently just the
// bcrypt hash of the site-wide gallery code.
type SettingsMongoDBStore struct {
	settings *mongo.Collection
	tracer   trace.Tracer
}

func NewSettingsMongoDBStore(client *mongo.Client, tracer trace.Tracer) domain.SettingsStore {
	settings := client.Database(DATABASE).Collection(SETTINGS_COLLECTION)
	return &SettingsMongoDBStore{
		settings: settings,
		tracer:   tracer,
	}
}

func (store *SettingsMongoDBStore) GetGalleryCodeHash(ctx context.Context) (string, error) {
	ctx, span := store.tracer.Start(ctx, "SettingsStore.GetGalleryCodeHash")
	defer span.End()

	result := store.settings.FindOne(ctx, bson.M{"key": galleryCodeKey})

	var document settingsDocument
	if err := result.Decode(&document); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", nil
		}
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return document.Hash, nil
}

func (store *SettingsMongoDBStore) SetGalleryCodeHash(ctx context.Context, hash string) error {
	ctx, span := store.tracer.Start(ctx, "SettingsStore.SetGalleryCodeHash")
	defer span.End()

	filter := bson.M{"key": galleryCodeKey}
	update := bson.M{"$set": bson.M{"key": galleryCodeKey, "hash": hash}}
	_, err := store.settings.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
