package stream

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/quicktab/quicktab/pkg/event"
)

// Bridge consumes order status events off the bus and fans them out to
// SSE subscribers keyed by tracking id. One wildcard subscription
// covers every order; subscribers only see events for the tracking id
// they registered with.
type Bridge struct {
	subscriber events.Subscriber
	logger     apt.Logger

	mu          sync.RWMutex
	subscribers map[string]map[string]chan *event.StatusMessage
}

func NewBridge(subscriber events.Subscriber, logger apt.Logger) *Bridge {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Bridge{
		subscriber:  subscriber,
		logger:      logger,
		subscribers: make(map[string]map[string]chan *event.StatusMessage),
	}
}

func (b *Bridge) Start(ctx context.Context) error {
	b.logger.Info("starting order status bridge", "topic", event.OrderStatusTopicWildcard)
	return b.subscriber.Subscribe(ctx, event.OrderStatusTopicWildcard, b.handleMessage)
}

func (b *Bridge) Stop(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for trackingID, subs := range b.subscribers {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(b.subscribers, trackingID)
	}
	b.logger.Info("order status bridge stopped")
	return nil
}

func (b *Bridge) handleMessage(ctx context.Context, data []byte) error {
	// Routing needs only the envelope fields; the payload is forwarded
	// untouched so order-level and item-level events both pass through.
	var probe struct {
		EventType  string `json:"event_type"`
		TrackingID string `json:"tracking_id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		b.logger.Error("cannot decode status event", "error", err)
		// A malformed payload is dropped, not redelivered.
		return nil
	}

	trackingID := strings.TrimSpace(probe.TrackingID)
	if trackingID == "" {
		return nil
	}

	msg := &event.StatusMessage{
		EventType:  probe.EventType,
		TrackingID: trackingID,
		Payload:    append([]byte(nil), data...),
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for subscriberID, ch := range b.subscribers[trackingID] {
		select {
		case ch <- msg:
		default:
			// Channel full, subscriber too slow - skip this event
			b.logger.Info("subscriber channel full, dropping event",
				"subscriber_id", subscriberID, "tracking_id", trackingID)
		}
	}
	return nil
}

// Subscribe registers an SSE subscriber for one order and returns its
// event channel.
func (b *Bridge) Subscribe(trackingID, subscriberID string) <-chan *event.StatusMessage {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[trackingID]
	if !ok {
		subs = make(map[string]chan *event.StatusMessage)
		b.subscribers[trackingID] = subs
	}

	ch := make(chan *event.StatusMessage, 100)
	subs[subscriberID] = ch

	b.logger.Info("new order status subscriber",
		"subscriber_id", subscriberID, "tracking_id", trackingID)

	return ch
}

// Unsubscribe removes an SSE subscriber and closes its channel.
func (b *Bridge) Unsubscribe(trackingID, subscriberID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[trackingID]
	if !ok {
		return
	}
	if ch, found := subs[subscriberID]; found {
		close(ch)
		delete(subs, subscriberID)
		b.logger.Info("order status subscriber disconnected",
			"subscriber_id", subscriberID, "tracking_id", trackingID)
	}
	if len(subs) == 0 {
		delete(b.subscribers, trackingID)
	}
}
