package events

import (
	"github.com/asaskevich/EventBus"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// Handler receives a change event: the topic it was published on and
// the row payload (at least "op" and "id").
type Handler func(topic string, payload map[string]interface{})

// Bus fans row-change events out to subscribers through a worker pool.
// Publication is fire-and-forget: a slow or failing subscriber never
// blocks the mutation path.
type Bus struct {
	bus  EventBus.Bus
	pool *ants.Pool
}

// NewBus creates a bus with the given number of dispatch workers.
func NewBus(workers int) (*Bus, error) {
	if workers <= 0 {
		workers = 8
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	return &Bus{bus: EventBus.New(), pool: pool}, nil
}

// Publish dispatches the event asynchronously.
func (b *Bus) Publish(topic string, payload map[string]interface{}) {
	err := b.pool.Submit(func() {
		b.bus.Publish(topic, topic, payload)
	})
	if err != nil {
		zap.L().Warn("event dispatch rejected",
			zap.String("topic", topic), zap.Error(err))
	}
}

// Subscribe registers a handler for one topic.
func (b *Bus) Subscribe(topic string, handler Handler) error {
	return b.bus.Subscribe(topic, func(t string, payload map[string]interface{}) {
		handler(t, payload)
	})
}

// SubscribeTopics registers the same handler on several topics.
func (b *Bus) SubscribeTopics(handler Handler, topics ...string) error {
	for _, topic := range topics {
		if err := b.Subscribe(topic, handler); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the dispatch workers.
func (b *Bus) Close() {
	b.pool.Release()
}
