package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetClient connects to MongoDB with conservative timeouts so a stalled
// store cannot hang request handling indefinitely.
func GetClient(ctx context.Context, host, port string) (*mongo.Client, error) {
	uri := fmt.Sprintf("mongodb://%s:%s/", host, port)
	optionsClient := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)
	return mongo.Connect(ctx, optionsClient)
}

func GetRedisClient(host, port string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", host, port),
		DialTimeout: 5 * time.Second,
		ReadTimeout: 3 * time.Second,
	})

	if err := client.Ping().Err(); err != nil {
		return nil, err
	}
	return client, nil
}
