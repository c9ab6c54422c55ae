package common

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	// EventMetadataClear asks every gateway to clear its metadata caches.
	EventMetadataClear EventType = "metadata.clear"
	// EventUserInvalidate drops one user's view; Data["user_id"] names the user.
	EventUserInvalidate EventType = "metadata.user.invalidate"
)

const eventBusResubscribeDelay = time.Second

type Event struct {
	Type   EventType      `json:"type"`
	Origin string         `json:"origin,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// EventBus fans events out to every gateway through Redis pub/sub. Without
// Redis, events are dispatched in-process.
type EventBus struct {
	rdb      *RedisClient
	channel  string
	origin   string
	handlers map[EventType][]func(Event)
	mu       sync.RWMutex
	ctx      context.Context
}

func NewEventBus(ctx context.Context, rdb *RedisClient, origin string) *EventBus {
	return &EventBus{
		rdb:      rdb,
		channel:  Keys.MetadataEvents(),
		origin:   origin,
		handlers: make(map[EventType][]func(Event)),
		ctx:      ctx,
	}
}

func (eb *EventBus) Channel() string {
	return eb.channel
}

func (eb *EventBus) On(t EventType, fn func(Event)) {
	eb.mu.Lock()
	eb.handlers[t] = append(eb.handlers[t], fn)
	eb.mu.Unlock()
}

// Emit publishes e. The emitting gateway receives its own event back through
// the subscription, like every other gateway.
func (eb *EventBus) Emit(e Event) error {
	if e.Origin == "" {
		e.Origin = eb.origin
	}
	if eb.rdb == nil {
		eb.dispatch(e)
		return nil
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return eb.rdb.Publish(eb.ctx, eb.channel, data).Err()
}

func (eb *EventBus) dispatch(e Event) {
	eb.mu.RLock()
	handlers := eb.handlers[e.Type]
	eb.mu.RUnlock()

	log.Debug().Str("type", string(e.Type)).Str("origin", e.Origin).Int("handlers", len(handlers)).Msg("dispatching event")
	for _, fn := range handlers {
		fn(e)
	}
}

// Start blocks until the bus context is done.
func (eb *EventBus) Start() {
	if eb.rdb == nil {
		<-eb.ctx.Done()
		return
	}
	log.Info().Str("channel", eb.channel).Msg("eventbus started")
	eb.listen()
}

func (eb *EventBus) listen() {
	for {
		if eb.ctx.Err() != nil {
			return
		}

		msgs, errs := eb.rdb.Subscribe(eb.ctx, eb.channel)
		if err := eb.recv(msgs, errs); err != nil {
			log.Warn().Err(err).Str("channel", eb.channel).Msg("eventbus subscription lost, resubscribing")
		}

		select {
		case <-eb.ctx.Done():
			return
		case <-time.After(eventBusResubscribeDelay):
		}
	}
}

func (eb *EventBus) recv(msgs <-chan *redis.Message, errs <-chan error) error {
	for {
		select {
		case <-eb.ctx.Done():
			return nil
		case err, ok := <-errs:
			if ok {
				return err
			}
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				log.Warn().Err(err).Msg("dropping malformed event")
				continue
			}
			eb.dispatch(e)
		}
	}
}
