// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mildmongrel/thicket/internal/room"
	"github.com/redis/go-redis/v9"
)

// DraftEventRecord is the queued form of a room event, read by the historian.
type DraftEventRecord struct {
	RoomID     uuid.UUID              `json:"room_id"`
	EventIndex int                    `json:"event_index"`
	Chair      int                    `json:"chair"`
	EventType  string                 `json:"event_type"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	Timestamp  int64                  `json:"timestamp"`
}

// RecordFromEvent converts a room event for the queue. Timestamps are epoch
// milliseconds.
func RecordFromEvent(ev room.Event) DraftEventRecord {
	return DraftEventRecord{
		RoomID:     ev.RoomID,
		EventIndex: ev.Index,
		Chair:      ev.Chair,
		EventType:  ev.Type,
		Payload:    ev.Payload,
		Timestamp:  ev.Timestamp.UnixMilli(),
	}
}

// Connect opens a Redis client and checks it with a ping.
func Connect(addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Publisher pushes room events onto a Redis list.
type Publisher struct {
	rdb   redis.Cmdable
	queue string
}

func NewPublisher(rdb redis.Cmdable, queue string) *Publisher {
	return &Publisher{rdb: rdb, queue: queue}
}

// Publish serializes the event to JSON, then pushes it to the queue.
func (p *Publisher) Publish(ctx context.Context, ev room.Event) error {
	data, err := json.Marshal(RecordFromEvent(ev))
	if err != nil {
		return fmt.Errorf("failed to marshal DraftEventRecord: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}
