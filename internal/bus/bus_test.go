package bus

import (
	"testing"
	"time"

	"github.com/towerclash/battlesync/internal/testutil"
)

type record struct {
	PlayerID string
	Value    int
}

func recvEvent(t *testing.T, sub *Subscription[record]) Event[record] {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if !ok {
			t.Fatal("subscription channel closed unexpectedly")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event[record]{}
}

func assertNoEvent(t *testing.T, sub *Subscription[record]) {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		if ok {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
	}
}

func TestBus_PublishReachesSubscriber(t *testing.T) {
	b := New[record]("test", testutil.NopLogger())
	defer b.Close()

	sub := b.Subscribe(nil)
	defer sub.Close()

	b.Publish(Event[record]{Kind: KindInsert, New: record{PlayerID: "p1", Value: 1}})

	ev := recvEvent(t, sub)
	if ev.Kind != KindInsert {
		t.Errorf("got kind %q, want %q", ev.Kind, KindInsert)
	}
	if ev.New.PlayerID != "p1" {
		t.Errorf("got player %q, want %q", ev.New.PlayerID, "p1")
	}
}

func TestBus_FilterExcludesNonMatching(t *testing.T) {
	b := New[record]("test", testutil.NopLogger())
	defer b.Close()

	sub := b.Subscribe(func(ev Event[record]) bool {
		return ev.New.PlayerID == "p2"
	})
	defer sub.Close()

	b.Publish(Event[record]{Kind: KindInsert, New: record{PlayerID: "p1"}})
	b.Publish(Event[record]{Kind: KindUpdate, New: record{PlayerID: "p2"}})

	ev := recvEvent(t, sub)
	if ev.New.PlayerID != "p2" {
		t.Errorf("got player %q, want %q", ev.New.PlayerID, "p2")
	}
	assertNoEvent(t, sub)
}

func TestBus_UpdateCarriesOldValue(t *testing.T) {
	b := New[record]("test", testutil.NopLogger())
	defer b.Close()

	sub := b.Subscribe(nil)
	defer sub.Close()

	b.Publish(Event[record]{
		Kind: KindUpdate,
		New:  record{PlayerID: "p1", Value: 2},
		Old:  record{PlayerID: "p1", Value: 1},
	})

	ev := recvEvent(t, sub)
	if ev.Old.Value != 1 || ev.New.Value != 2 {
		t.Errorf("got old=%d new=%d, want old=1 new=2", ev.Old.Value, ev.New.Value)
	}
}

func TestBus_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	b := New[record]("test", testutil.NopLogger())
	defer b.Close()

	sub := b.Subscribe(nil)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			b.Publish(Event[record]{Kind: KindInsert, New: record{Value: i}})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a full subscriber buffer")
	}

	if got := len(sub.ch); got != subscriberBuffer {
		t.Errorf("buffered %d events, want %d", got, subscriberBuffer)
	}
}

func TestBus_SubscriptionCloseRemovesSubscriber(t *testing.T) {
	b := New[record]("test", testutil.NopLogger())
	defer b.Close()

	sub := b.Subscribe(nil)
	if got := b.SubscriberCount(); got != 1 {
		t.Fatalf("got %d subscribers, want 1", got)
	}

	sub.Close()
	if got := b.SubscriberCount(); got != 0 {
		t.Errorf("got %d subscribers after close, want 0", got)
	}

	// Channel must be closed so range loops over it terminate
	if _, ok := <-sub.Events(); ok {
		t.Error("expected closed channel after subscription close")
	}
}

func TestBus_CloseShutsDownAllSubscriptions(t *testing.T) {
	b := New[record]("test", testutil.NopLogger())

	sub1 := b.Subscribe(nil)
	sub2 := b.Subscribe(nil)

	b.Close()

	if _, ok := <-sub1.Events(); ok {
		t.Error("sub1 channel still open after bus close")
	}
	if _, ok := <-sub2.Events(); ok {
		t.Error("sub2 channel still open after bus close")
	}

	// Publishing and double-close after shutdown are no-ops
	b.Publish(Event[record]{Kind: KindInsert})
	b.Close()
	sub1.Close()
}

func TestBus_SubscribeAfterCloseReturnsClosedSubscription(t *testing.T) {
	b := New[record]("test", testutil.NopLogger())
	b.Close()

	sub := b.Subscribe(nil)
	if _, ok := <-sub.Events(); ok {
		t.Error("expected closed channel from subscription on a closed bus")
	}
}
