package redisClient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis"

	"github.com/AVVKavvk/plivo-ivr/models"
)

const keyPrefix = "ivr:events:"

// Journal keeps the ordered list of events of every call, one redis list per
// call, expiring ttl after the last append.
type Journal struct {
	rc  *redis.Client
	ttl time.Duration
}

func NewJournal(rc *redis.Client, ttl time.Duration) *Journal {
	return &Journal{rc: rc, ttl: ttl}
}

func eventsKey(callUUID string) string {
	return keyPrefix + callUUID
}

// Publish appends the event to its call's list.
func (j *Journal) Publish(ctx context.Context, event models.CallEvent) error {
	return j.AppendEvent(ctx, event)
}

func (j *Journal) AppendEvent(ctx context.Context, event models.CallEvent) error {
	key := eventsKey(event.CallUUID)

	pipe := j.rc.WithContext(ctx).TxPipeline()
	pipe.RPush(key, &event)
	if j.ttl > 0 {
		pipe.Expire(key, j.ttl)
	}
	if _, err := pipe.Exec(); err != nil {
		return fmt.Errorf("appending event for call %s: %w", event.CallUUID, err)
	}
	return nil
}

// GetAllEvents returns the events of a call in the order they were appended.
// An unknown call yields an empty slice.
func (j *Journal) GetAllEvents(ctx context.Context, callUUID string) ([]models.CallEvent, error) {
	raw, err := j.rc.WithContext(ctx).LRange(eventsKey(callUUID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading events for call %s: %w", callUUID, err)
	}

	events := make([]models.CallEvent, 0, len(raw))
	for _, v := range raw {
		var event models.CallEvent
		if err := json.Unmarshal([]byte(v), &event); err != nil {
			return nil, fmt.Errorf("decoding event for call %s: %w", callUUID, err)
		}
		events = append(events, event)
	}
	return events, nil
}

func (j *Journal) Close() error {
	return j.rc.Close()
}
