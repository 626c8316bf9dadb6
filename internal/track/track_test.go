package track

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/quicktab/quicktab/internal/client"
	"github.com/quicktab/quicktab/pkg/enums/orderstatus"
	"github.com/quicktab/quicktab/pkg/event"
)

// fakeChannel is an in-memory Channel for one tracking id.
type fakeChannel struct {
	mu   sync.Mutex
	subs map[string]chan *event.StatusMessage
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{subs: make(map[string]chan *event.StatusMessage)}
}

func (f *fakeChannel) Subscribe(trackingID, subscriberID string) <-chan *event.StatusMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan *event.StatusMessage, 10)
	f.subs[subscriberID] = ch
	return ch
}

func (f *fakeChannel) Unsubscribe(trackingID, subscriberID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch, ok := f.subs[subscriberID]; ok {
		close(ch)
		delete(f.subs, subscriberID)
	}
}

func (f *fakeChannel) send(t *testing.T, eventType string, evt interface{}) {
	t.Helper()
	payload, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("cannot marshal event: %v", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		ch <- &event.StatusMessage{EventType: eventType, TrackingID: "trk-1", Payload: payload}
	}
}

func (f *fakeChannel) push(t *testing.T, status orderstatus.Status) {
	f.send(t, event.EventOrderStatusChanged, event.OrderStatusEvent{
		EventType:  event.EventOrderStatusChanged,
		TrackingID: "trk-1",
		Status:     string(status),
	})
}

type fakeAPI struct {
	mu     sync.Mutex
	status orderstatus.Status
}

func (f *fakeAPI) OrderByTrackingID(ctx context.Context, trackingID string) (*client.OrderView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &client.OrderView{Order: client.Order{TrackingID: trackingID, Status: string(f.status)}}, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestDecide(t *testing.T) {
	tests := []struct {
		status orderstatus.Status
		want   bool
	}{
		{orderstatus.Pending, false},
		{orderstatus.Processing, false},
		{orderstatus.Ready, false},
		{orderstatus.Paid, true},
		{orderstatus.Completed, true},
		{orderstatus.Cancelled, false},
		{orderstatus.PaymentFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := Decide(tt.status); got != tt.want {
				t.Errorf("Decide(%s) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestTrackerFiresOnceOnPush(t *testing.T) {
	channel := newFakeChannel()

	var mu sync.Mutex
	fired := 0
	tracker := New("trk-1", channel, &fakeAPI{}, func(orderstatus.Status) {
		mu.Lock()
		fired++
		mu.Unlock()
	}, apt.NewNoopLogger())

	if err := tracker.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer tracker.Stop()

	channel.push(t, orderstatus.Processing)
	channel.push(t, orderstatus.Paid)
	// Duplicate terminal deliveries happen on reconnects.
	channel.push(t, orderstatus.Paid)
	channel.push(t, orderstatus.Completed)

	waitFor(t, func() bool {
		return tracker.Status() == orderstatus.Completed
	})

	mu.Lock()
	defer mu.Unlock()
	if fired != 1 {
		t.Errorf("settled callback fired %d times, want exactly 1", fired)
	}
}

func TestTrackerPollFeedsSameDecision(t *testing.T) {
	api := &fakeAPI{status: orderstatus.Paid}

	var mu sync.Mutex
	fired := 0
	tracker := New("trk-1", newFakeChannel(), api, func(orderstatus.Status) {
		mu.Lock()
		fired++
		mu.Unlock()
	}, apt.NewNoopLogger())

	if err := tracker.Poll(context.Background()); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	// A second poll observing the same settled status must not refire.
	if err := tracker.Poll(context.Background()); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if fired != 1 {
		t.Errorf("settled callback fired %d times, want exactly 1", fired)
	}
	if tracker.Status() != orderstatus.Paid {
		t.Errorf("tracker status = %q, want %q", tracker.Status(), orderstatus.Paid)
	}
}

func TestTrackerPushAndPollDeduplicate(t *testing.T) {
	channel := newFakeChannel()
	api := &fakeAPI{status: orderstatus.Paid}

	var mu sync.Mutex
	fired := 0
	tracker := New("trk-1", channel, api, func(orderstatus.Status) {
		mu.Lock()
		fired++
		mu.Unlock()
	}, apt.NewNoopLogger())

	if err := tracker.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer tracker.Stop()

	channel.push(t, orderstatus.Paid)
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return fired == 1
	})

	// The poll backstop sees the same settled state.
	if err := tracker.Poll(context.Background()); err != nil {
		t.Fatalf("Poll() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if fired != 1 {
		t.Errorf("settled callback fired %d times, want exactly 1", fired)
	}
}

func TestTrackerSurfacesItemProgress(t *testing.T) {
	channel := newFakeChannel()

	var mu sync.Mutex
	settled := 0
	var items []string
	tracker := New("trk-1", channel, &fakeAPI{}, func(orderstatus.Status) {
		mu.Lock()
		settled++
		mu.Unlock()
	}, apt.NewNoopLogger())
	tracker.OnItemUpdate(func(evt *event.OrderItemStatusEvent) {
		mu.Lock()
		items = append(items, evt.ItemStatus)
		mu.Unlock()
	})

	if err := tracker.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer tracker.Stop()

	channel.send(t, event.EventOrderItemStatusChanged, event.OrderItemStatusEvent{
		EventType:  event.EventOrderItemStatusChanged,
		TrackingID: "trk-1",
		DishName:   "Veg Biryani",
		ItemStatus: "READY",
	})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(items) == 1
	})

	mu.Lock()
	defer mu.Unlock()
	if items[0] != "READY" {
		t.Errorf("item status = %q, want READY", items[0])
	}
	// Kitchen progress never settles the tab.
	if settled != 0 {
		t.Errorf("settled callback fired %d times, want 0", settled)
	}
	if tracker.Status() != orderstatus.Status("") {
		t.Errorf("item events must not change the order status, got %q", tracker.Status())
	}
}

func TestTrackerIgnoresUnknownStatus(t *testing.T) {
	tracker := New("trk-1", newFakeChannel(), &fakeAPI{}, nil, apt.NewNoopLogger())

	tracker.apply(orderstatus.Status("SHIPPED"))

	if tracker.Status() != orderstatus.Status("") {
		t.Errorf("unknown status should be ignored, got %q", tracker.Status())
	}
}
