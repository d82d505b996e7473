package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sportlog/backend/internal/models"
)

const feedChannel = "feed:public"

// FeedEvent is broadcast over Redis and WebSocket when a public activity is
// created.
type FeedEvent struct {
	Type      string           `json:"type"` // "activity_created"
	Activity  *models.Activity `json:"activity,omitempty"`
	OwnerName string           `json:"ownerName,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// FeedConn is the minimal interface the WebSocket implementation must
// satisfy.
type FeedConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// FeedLive fans newly created public activities out to connected clients.
// Events go through Redis pub/sub so every instance sees them. Delivery is
// best-effort; a dropped event just means the client refreshes.
type FeedLive struct {
	redis *redis.Client

	mu          sync.RWMutex
	connections map[uuid.UUID]FeedConn
	started     sync.Once
}

func NewFeedLive(client *redis.Client) *FeedLive {
	return &FeedLive{
		redis:       client,
		connections: make(map[uuid.UUID]FeedConn),
	}
}

// Register adds or replaces a user's connection.
func (f *FeedLive) Register(userID uuid.UUID, conn FeedConn) {
	f.mu.Lock()
	f.connections[userID] = conn
	f.mu.Unlock()
}

// Unregister removes a user's connection.
func (f *FeedLive) Unregister(userID uuid.UUID) {
	f.mu.Lock()
	delete(f.connections, userID)
	f.mu.Unlock()
}

// Publish announces a new public activity. Private activities are the
// caller's responsibility to filter out before calling.
func (f *FeedLive) Publish(ctx context.Context, activity *models.Activity) error {
	event := FeedEvent{
		Type:      "activity_created",
		Activity:  activity,
		OwnerName: activity.OwnerName,
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return f.redis.Publish(ctx, feedChannel, data).Err()
}

// Start launches the shared Redis subscriber for this instance. Safe to call
// more than once.
func (f *FeedLive) Start(ctx context.Context) {
	f.started.Do(func() {
		go f.runSubscriber(ctx)
	})
}

func (f *FeedLive) runSubscriber(ctx context.Context) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := f.redis.Subscribe(ctx, feedChannel)
			defer pubsub.Close()

			log.Printf("✅ Live feed subscriber started (channel: %s)", feedChannel)

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("live feed subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event FeedEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal feed event: %v", err)
					continue
				}
				f.fanOut(event)
			}
		}()
	}
}

func (f *FeedLive) fanOut(event FeedEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, conn := range f.connections {
		// Non-blocking best-effort send.
		go func(c FeedConn) {
			if err := c.WriteJSON(event); err != nil {
				log.Printf("error writing feed event to websocket: %v", err)
			}
		}(conn)
	}
}
