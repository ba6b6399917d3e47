package handlers

import (
	"context"
	"log"
	"time"

	"ecopulse-analytics-api/models"
	"ecopulse-analytics-api/services"
)

// notifier drops cached forecasts that depend on a collection and announces
// the change to websocket subscribers.
type notifier struct {
	cache    *services.CacheService
	prefixes []string
}

func (n notifier) changed(collection, eventType, key string) {
	if n.cache == nil || !n.cache.Available() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, prefix := range n.prefixes {
		if err := n.cache.InvalidatePrefix(ctx, prefix); err != nil {
			log.Printf("cache invalidate %s failed: %v", prefix, err)
		}
	}
	event := models.RecordEvent{Type: eventType, Collection: collection, Key: key}
	if err := n.cache.Publish(ctx, services.RecordsChannel, event); err != nil {
		log.Printf("publish %s event failed: %v", eventType, err)
	}
}
