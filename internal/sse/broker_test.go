package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100*time.Millisecond, 0)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100*time.Millisecond, 0)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeCaseCreated, Data: map[string]string{"slug": "alpha"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: case.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"slug":"alpha"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishCaseEvent_ListingThrottle(t *testing.T) {
	b := NewBroker(500*time.Millisecond, 0)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishCaseEvent("created", "alpha")
	b.PublishCaseEvent("updated", "beta")

	time.Sleep(50 * time.Millisecond)
	listingCount := 0
	caseCount := 0
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, TypeListingUpdated) {
				listingCount++
			} else {
				caseCount++
			}
		default:
			break loop
		}
	}

	if caseCount != 2 {
		t.Errorf("case events = %d, want 2", caseCount)
	}
	if listingCount != 1 {
		t.Errorf("listing events = %d, want 1 (throttled)", listingCount)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100*time.Millisecond, 0)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: TypeCaseUpdated, Data: map[string]string{"slug": "x"}})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: case.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second, 0)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100*time.Millisecond, 0)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: TypeCaseUpdated, Data: map[string]string{"slug": "x"}})
	b.PublishCaseEvent("updated", "x")
}

func TestPublishCaseEvent_UnknownKindIgnored(t *testing.T) {
	b := NewBroker(time.Millisecond, 0)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishCaseEvent("renamed", "x")
	b.Publish(Event{Type: "marker", Data: map[string]string{}})

	select {
	case msg := <-ch:
		if !strings.Contains(string(msg), "event: marker") {
			t.Errorf("unknown kind produced output: %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for marker")
	}
}

func TestEventIDsIncrease(t *testing.T) {
	b := NewBroker(time.Second, 0)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "a", Data: 1})
	b.Publish(Event{Type: "b", Data: 2})

	first, second := string(<-ch), string(<-ch)
	if !strings.HasPrefix(first, "id: 1\n") || !strings.HasPrefix(second, "id: 2\n") {
		t.Errorf("ids not sequential: %q %q", first, second)
	}
}

func TestSSEHandler_Heartbeat(t *testing.T) {
	b := NewBroker(time.Second, 10*time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if !strings.Contains(w.Body.String(), ": ping") {
		t.Errorf("expected heartbeat comment, got %q", w.Body.String())
	}
}

func TestSubscribeAfterCloseIsClosed(t *testing.T) {
	b := NewBroker(time.Second, 0)
	b.Close()
	b.Close()

	ch := b.Subscribe()
	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel from Subscribe after Close")
	}
	b.Unsubscribe(ch)
}
