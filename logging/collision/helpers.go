package collision

import (
	"context"

	"broadphase/server/logging"
)

const (
	// EventQuery is emitted after each collision query completes.
	EventQuery logging.EventType = "collision.query"
	// EventCacheInvalidated is emitted when a stationary mutation discards the pair cache.
	EventCacheInvalidated logging.EventType = "collision.cache_invalidated"
	// EventCacheRebuilt is emitted when a full query pass repopulates the pair cache.
	EventCacheRebuilt logging.EventType = "collision.cache_rebuilt"
)

// QueryPayload summarizes one collision query.
type QueryPayload struct {
	Boxes      int  `json:"boxes"`
	Stationary int  `json:"stationary"`
	Pairs      int  `json:"pairs"`
	CacheHit   bool `json:"cacheHit"`
}

// CacheRebuiltPayload records the size of a freshly built pair cache.
type CacheRebuiltPayload struct {
	CachedPairs int `json:"cachedPairs"`
}

// Query publishes a per-query summary event.
func Query(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload QueryPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventQuery,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCollision,
		Payload:  payload,
	})
}

// CacheInvalidated publishes the reason a stationary cache was discarded.
func CacheInvalidated(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, reason string) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventCacheInvalidated,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCollision,
	}
	pub.Publish(ctx, event.WithExtra("reason", reason))
}

// CacheRebuilt publishes a cache rebuild completion event.
func CacheRebuilt(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload CacheRebuiltPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCacheRebuilt,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCollision,
		Payload:  payload,
	})
}
