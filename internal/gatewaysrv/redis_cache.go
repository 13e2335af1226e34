package gatewaysrv

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"study-dashboard/internal/gateway"
)

// CachedRepository decorates a Repository with a Redis cache for the zone and
// adherence lookups, the two endpoints the dashboard hits repeatedly with
// identical parameters. Sample queries are never cached. Cache failures fall
// through to the inner repository.
type CachedRepository struct {
	Repository

	client *redis.Client
	ttl    time.Duration
}

// NewCachedRepository wraps inner with a Redis cache.
func NewCachedRepository(inner Repository, client *redis.Client, ttl time.Duration) *CachedRepository {
	return &CachedRepository{
		Repository: inner,
		client:     client,
		ttl:        ttl,
	}
}

func zonesKey(date, participantID string) string {
	return fmt.Sprintf("gateway:zones:%s:%s", participantID, date)
}

const adherenceKey = "gateway:adherence"

func (r *CachedRepository) Zones(ctx context.Context, date string, participantID string) (gateway.Zones, error) {
	key := zonesKey(date, participantID)

	if data, err := r.client.Get(ctx, key).Result(); err == nil {
		var zones gateway.Zones
		if err := json.Unmarshal([]byte(data), &zones); err == nil {
			return zones, nil
		}
		log.Printf("[WARN] Dropping unreadable cache entry %s", key)
	} else if err != redis.Nil {
		log.Printf("[WARN] Zone cache read failed: %v", err)
	}

	zones, err := r.Repository.Zones(ctx, date, participantID)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, zones)
	return zones, nil
}

func (r *CachedRepository) Adherence(ctx context.Context) (gateway.AdherenceReport, error) {
	if data, err := r.client.Get(ctx, adherenceKey).Result(); err == nil {
		var report gateway.AdherenceReport
		if err := json.Unmarshal([]byte(data), &report); err == nil {
			return report, nil
		}
		log.Printf("[WARN] Dropping unreadable cache entry %s", adherenceKey)
	} else if err != redis.Nil {
		log.Printf("[WARN] Adherence cache read failed: %v", err)
	}

	report, err := r.Repository.Adherence(ctx)
	if err != nil {
		return nil, err
	}
	r.store(ctx, adherenceKey, report)
	return report, nil
}

func (r *CachedRepository) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("[WARN] Failed to marshal cache entry %s: %v", key, err)
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		log.Printf("[WARN] Failed to write cache entry %s: %v", key, err)
	}
}
