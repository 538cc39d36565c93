package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		case <-time.After(50 * time.Millisecond):
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe("u1")
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe("u1")
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "item.created", Data: map[string]string{"id": "i1"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: item.created") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"id":"i1"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishItemEvent_OwnerFiltering(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	mine := b.Subscribe("u1")
	theirs := b.Subscribe("u2")
	defer b.Unsubscribe(mine)
	defer b.Unsubscribe(theirs)

	b.PublishItemEvent("created", "private", "u1")
	b.PublishItemEvent("created", "shared", "")

	got := drain(mine)
	if len(got) != 2 {
		t.Fatalf("owner received %d events, want 2: %q", len(got), got)
	}
	other := drain(theirs)
	if len(other) != 1 || !strings.Contains(other[0], `"id":"shared"`) {
		t.Errorf("other owner received %q, want only the public item", other)
	}
}

func TestPublishItemEvent_TagsThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe("u1")
	defer b.Unsubscribe(ch)

	b.PublishItemEvent("tagged", "a", "u1")
	b.PublishItemEvent("tagged", "b", "u1")
	b.PublishItemEvent("updated", "c", "u1")

	tagsCount, itemCount := 0, 0
	for _, s := range drain(ch) {
		if strings.Contains(s, "tags.updated") {
			tagsCount++
		} else {
			itemCount++
		}
	}
	if itemCount != 3 {
		t.Errorf("item events = %d, want 3", itemCount)
	}
	if tagsCount != 1 {
		t.Errorf("tags events = %d, want 1 (throttled)", tagsCount)
	}
}

// flushRecorder guards the recorder body so the test can read it while the
// handler goroutine writes.
type flushRecorder struct {
	mu sync.Mutex
	*httptest.ResponseRecorder
}

func (f *flushRecorder) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ResponseRecorder.Write(p)
}

func (f *flushRecorder) body() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ResponseRecorder.Body.String()
}

func TestHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := &flushRecorder{ResponseRecorder: httptest.NewRecorder()}

	done := make(chan struct{})
	go func() {
		b.Handler("u1").ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for b.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("handler never subscribed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	b.PublishItemEvent("updated", "x", "u1")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	if body := w.body(); !strings.Contains(body, "event: item.updated") {
		t.Errorf("handler output missing event: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe("")
	defer b.Unsubscribe(ch)

	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe("u1")
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

	b.Publish(Event{Type: "item.updated", Data: map[string]string{"id": "x"}})
	b.PublishItemEvent("updated", "x", "u1")
}
