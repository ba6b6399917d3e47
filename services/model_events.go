package services

import (
	"context"
	"encoding/json"
	"log"

	"ecopulse-analytics-api/models"
)

// ModelInvalidator drops a cached model so the next load reads the backend.
type ModelInvalidator interface {
	Invalidate(target string)
}

// ModelEventTarget returns the target of a retrained-model event. Any
// other payload reports false.
func ModelEventTarget(payload []byte) (string, bool) {
	var event models.RecordEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return "", false
	}
	if event.Type != models.EventRetrained || event.Collection != models.ModelsCollection || event.Key == "" {
		return "", false
	}
	return event.Key, true
}

// WatchModelEvents invalidates cached parameters and national forecast
// responses whenever another process publishes a retrained model. It
// returns when ctx is done or the subscription closes.
func (s *CacheService) WatchModelEvents(ctx context.Context, params ModelInvalidator) {
	if s.client == nil {
		return
	}
	pubsub := s.client.Subscribe(ctx, RecordsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.applyModelEvent(ctx, params, []byte(msg.Payload))
		}
	}
}

func (s *CacheService) applyModelEvent(ctx context.Context, params ModelInvalidator, payload []byte) bool {
	target, ok := ModelEventTarget(payload)
	if !ok {
		return false
	}
	params.Invalidate(target)
	if err := s.InvalidatePrefix(ctx, NationalForecastPrefix); err != nil {
		log.Printf("cache invalidate after %s retrain failed: %v", target, err)
	}
	log.Printf("model %s retrained, cached parameters dropped", target)
	return true
}
