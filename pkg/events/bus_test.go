package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/dd0wney/hivegraph/pkg/logging"
	"github.com/dd0wney/hivegraph/pkg/metrics"
)

func TestBus_SubscriptionReceivesTopic(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Shutdown()

	ctx := context.Background()
	networks, err := bus.Subscribe(ctx, string(KindNetwork))
	if err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}
	devices, _ := bus.Subscribe(ctx, string(KindDevice))

	bus.Publish(New(KindNetwork, OpCreated, Deleted{ID: 1}))

	select {
	case ev := <-networks.Channel():
		if ev.Entity != KindNetwork || ev.Op != OpCreated {
			t.Errorf("Unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for network event")
	}

	select {
	case ev := <-devices.Channel():
		t.Errorf("Device subscription received %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_ListenersSeeEventsInOrder(t *testing.T) {
	bus := NewBus(nil, nil)

	var mu sync.Mutex
	var got []Op
	bus.AddListener(ListenerFunc(func(ev Event) {
		mu.Lock()
		got = append(got, ev.Op)
		mu.Unlock()
	}))

	ops := []Op{OpCreated, OpUpdated, OpAssigned, OpUnassigned, OpDeleted}
	for _, op := range ops {
		bus.Publish(New(KindUser, op, nil))
	}

	// Shutdown drains the listener queue
	bus.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != len(ops) {
		t.Fatalf("Expected %d events, got %v", len(ops), got)
	}
	for i := range ops {
		if got[i] != ops[i] {
			t.Errorf("Event %d: got %s, want %s", i, got[i], ops[i])
		}
	}
}

func TestBus_ListenerPanicDoesNotStopDispatch(t *testing.T) {
	bus := NewBus(nil, nil)

	delivered := make(chan Event, 2)
	bus.AddListener(ListenerFunc(func(ev Event) {
		if ev.Op == OpCreated {
			panic("boom")
		}
	}))
	bus.AddListener(ListenerFunc(func(ev Event) { delivered <- ev }))

	bus.Publish(New(KindDevice, OpCreated, nil))
	bus.Publish(New(KindDevice, OpDeleted, nil))
	bus.Shutdown()

	if len(delivered) != 2 {
		t.Errorf("Expected both events delivered to the second listener, got %d", len(delivered))
	}
}

func TestBus_ContextCancellationClosesSubscription(t *testing.T) {
	bus := NewBus(nil, nil)
	defer bus.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	sub, _ := bus.Subscribe(ctx, string(KindUser))
	cancel()

	select {
	case _, ok := <-sub.Channel():
		if ok {
			t.Fatal("Expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("Subscription channel did not close on context cancellation")
	}

	deadline := time.Now().Add(time.Second)
	for bus.GetSubscriberCount(string(KindUser)) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("Subscription was not removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBus_ShutdownRejectsSubscribeAndPublish(t *testing.T) {
	bus := NewBus(nil, nil)
	sub, _ := bus.Subscribe(context.Background(), string(KindUser))
	bus.Shutdown()
	bus.Shutdown()

	if _, ok := <-sub.Channel(); ok {
		t.Error("Subscription should be closed by Shutdown")
	}
	if _, err := bus.Subscribe(context.Background(), string(KindUser)); !errors.Is(err, ErrBusShutdown) {
		t.Errorf("Expected ErrBusShutdown, got %v", err)
	}

	// Must not panic
	bus.Publish(New(KindUser, OpCreated, nil))
}

func TestBus_FullSubscriptionDropsAndCounts(t *testing.T) {
	reg := metrics.NewRegistry()
	bus := NewBus(logging.NewNopLogger(), reg)
	defer bus.Shutdown()

	sub, _ := bus.Subscribe(context.Background(), string(KindNetwork))
	defer sub.Unsubscribe()

	for i := 0; i < subscriptionBuffer+5; i++ {
		bus.Publish(New(KindNetwork, OpUpdated, nil))
	}

	var m dto.Metric
	if err := reg.EventsFailedTotal.WithLabelValues("subscription").Write(&m); err != nil {
		t.Fatalf("Failed to read metric: %v", err)
	}
	if got := m.GetCounter().GetValue(); got != 5 {
		t.Errorf("Expected 5 drops, got %v", got)
	}

	m.Reset()
	reg.EventsPublishedTotal.WithLabelValues("network", "updated").Write(&m)
	if got := m.GetCounter().GetValue(); got != subscriptionBuffer+5 {
		t.Errorf("Expected %d published, got %v", subscriptionBuffer+5, got)
	}
}

func TestLoggingListener_SwallowsFailure(t *testing.T) {
	reg := metrics.NewRegistry()
	calls := 0
	l := NewLoggingListener("test", func(Event) error {
		calls++
		return errors.New("downstream unavailable")
	}, nil, reg)

	l.OnEvent(New(KindUser, OpCreated, nil))
	l.OnEvent(New(KindUser, OpDeleted, nil))

	if calls != 2 {
		t.Errorf("Expected 2 notifications, got %d", calls)
	}
	var m dto.Metric
	reg.EventsFailedTotal.WithLabelValues("test").Write(&m)
	if got := m.GetCounter().GetValue(); got != 2 {
		t.Errorf("Expected 2 failures counted, got %v", got)
	}
}
