package store

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stay_service/domain"
)

const markerPrefix = "gallery:"

// GalleryRedisCache holds the site-wide gallery access markers. The TTL on
// the cache entry, not the cookie, decides when access lapses.
type GalleryRedisCache struct {
	client *redis.Client
	tracer trace.Tracer
}

func NewGalleryRedisCache(client *redis.Client, tracer trace.Tracer) domain.GalleryAccessCache {
	return &GalleryRedisCache{
		client: client,
		tracer: tracer,
	}
}

func (cache *GalleryRedisCache) PostAccessMarker(ctx context.Context, marker string, ttl time.Duration) error {
	ctx, span := cache.tracer.Start(ctx, "GalleryRedisCache.PostAccessMarker")
	defer span.End()

	result := cache.client.Set(markerPrefix+marker, "1", ttl)
	if result.Err() != nil {
		span.SetStatus(codes.Error, "Error posting access marker")
		log.Printf("redis set error: %s", result.Err())
		return result.Err()
	}
	return nil
}

func (cache *GalleryRedisCache) HasAccessMarker(ctx context.Context, marker string) (bool, error) {
	ctx, span := cache.tracer.Start(ctx, "GalleryRedisCache.HasAccessMarker")
	defer span.End()

	_, err := cache.client.Get(markerPrefix + marker).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		span.SetStatus(codes.Error, "Error getting access marker")
		log.Println(err)
		return false, err
	}
	return true, nil
}

func (cache *GalleryRedisCache) DelAccessMarker(ctx context.Context, marker string) error {
	ctx, span := cache.tracer.Start(ctx, "GalleryRedisCache.DelAccessMarker")
	defer span.End()

	result := cache.client.Del(markerPrefix + marker)
	if result.Err() != nil {
		span.SetStatus(codes.Error, "Error deleting access marker")
		log.Println(result.Err())
		return result.Err()
	}
	return nil
}
