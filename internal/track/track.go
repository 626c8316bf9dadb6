package track

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/appetiteclub/apt"

	"github.com/quicktab/quicktab/internal/client"
	"github.com/quicktab/quicktab/pkg/enums/orderstatus"
	"github.com/quicktab/quicktab/pkg/event"
)

// Channel is a live status subscription for one order. The stream
// bridge satisfies it on the server side; tests use plain channels.
type Channel interface {
	Subscribe(trackingID, subscriberID string) <-chan *event.StatusMessage
	Unsubscribe(trackingID, subscriberID string)
}

// API is the slice of the ordering client the tracker polls with.
type API interface {
	OrderByTrackingID(ctx context.Context, trackingID string) (*client.OrderView, error)
}

// Decide reports whether a status means the tab is settled and the
// tracker should fire its completion callback. Keeping this a pure
// function lets push and poll paths share one definition of done.
func Decide(status orderstatus.Status) bool {
	return status.Settled()
}

// Tracker watches a single order until it settles. Push events and
// poll results feed the same decision; the settled callback fires
// exactly once no matter how many times a settled status is observed.
type Tracker struct {
	trackingID   string
	subscriberID string
	channel      Channel
	api          API
	logger       apt.Logger

	once      sync.Once
	onSettled func(status orderstatus.Status)

	mu     sync.Mutex
	onItem func(*event.OrderItemStatusEvent)
	status orderstatus.Status
	cancel context.CancelFunc
}

func New(trackingID string, channel Channel, api API, onSettled func(orderstatus.Status), logger apt.Logger) *Tracker {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Tracker{
		trackingID:   trackingID,
		subscriberID: apt.GenerateNewID().String(),
		channel:      channel,
		api:          api,
		onSettled:    onSettled,
		logger:       logger,
	}
}

// OnItemUpdate registers a callback for line-level kitchen progress
// pushed alongside order-level changes. Item moves never settle the
// tab; they only feed the view.
func (t *Tracker) OnItemUpdate(fn func(*event.OrderItemStatusEvent)) {
	t.mu.Lock()
	t.onItem = fn
	t.mu.Unlock()
}

// Status returns the last status observed from either path.
func (t *Tracker) Status() orderstatus.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Start subscribes to the order's push channel and consumes events
// until the context ends or Stop is called.
func (t *Tracker) Start(ctx context.Context) error {
	if t.channel == nil {
		return fmt.Errorf("tracker has no channel")
	}

	ctx, cancel := context.WithCancel(ctx)
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	ch := t.channel.Subscribe(t.trackingID, t.subscriberID)

	go func() {
		defer t.channel.Unsubscribe(t.trackingID, t.subscriberID)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				t.dispatch(msg)
			}
		}
	}()

	return nil
}

// Poll fetches the order once and feeds the result through the same
// decision as push events. It backstops missed events after a
// reconnect.
func (t *Tracker) Poll(ctx context.Context) error {
	view, err := t.api.OrderByTrackingID(ctx, t.trackingID)
	if err != nil {
		return fmt.Errorf("cannot poll order: %w", err)
	}
	t.apply(orderstatus.Status(view.Status))
	return nil
}

func (t *Tracker) Stop() {
	t.mu.Lock()
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (t *Tracker) dispatch(msg *event.StatusMessage) {
	switch msg.EventType {
	case event.EventOrderItemStatusChanged:
		t.mu.Lock()
		onItem := t.onItem
		t.mu.Unlock()
		if onItem == nil {
			return
		}
		var evt event.OrderItemStatusEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			t.logger.Debug("cannot decode item event", "error", err, "tracking_id", t.trackingID)
			return
		}
		onItem(&evt)

	default:
		var evt event.OrderStatusEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			t.logger.Debug("cannot decode status event", "error", err, "tracking_id", t.trackingID)
			return
		}
		t.apply(orderstatus.Status(evt.Status))
	}
}

func (t *Tracker) apply(status orderstatus.Status) {
	if !orderstatus.Valid(status) {
		t.logger.Debug("ignoring unknown status", "status", status, "tracking_id", t.trackingID)
		return
	}

	t.mu.Lock()
	t.status = status
	t.mu.Unlock()

	if Decide(status) {
		t.once.Do(func() {
			if t.onSettled != nil {
				t.onSettled(status)
			}
		})
	}
}
