// Package sse streams case change notifications to browsers as
// Server-Sent Events on GET /api/events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Stream event names.
const (
	TypeCaseCreated    = "case.created"
	TypeCaseUpdated    = "case.updated"
	TypeCaseDeleted    = "case.deleted"
	TypeListingUpdated = "listing.updated"
)

// caseEventTypes maps index change kinds to stream event names.
var caseEventTypes = map[string]string{
	"created": TypeCaseCreated,
	"updated": TypeCaseUpdated,
	"deleted": TypeCaseDeleted,
}

// streamBuffer is the per-connection backlog; frames beyond it are dropped.
const streamBuffer = 64

// Event is one message on the stream. Data is encoded as JSON.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type queued struct {
	ev Event
	// touchesListing asks for a listing.updated after ev, subject to the gap.
	touchesListing bool
}

// Broker fans events out to every open stream.
//
// All mutable state sits in a fanout owned by one goroutine. Callers hand it
// closures through ops for subscriptions and queries, and events through
// queue.
type Broker struct {
	listingGap time.Duration
	heartbeat  time.Duration

	ops    chan func(*fanout)
	queue  chan queued
	done   chan struct{}
	exited chan struct{}
	shut   atomic.Bool
}

type fanout struct {
	streams     map[chan []byte]struct{}
	seq         uint64
	lastListing time.Time
}

// send frames ev with the next id and offers it to every stream without
// blocking.
func (f *fanout) send(ev Event) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return
	}
	f.seq++
	frame := fmt.Appendf(nil, "id: %d\nevent: %s\ndata: %s\n\n", f.seq, ev.Type, payload)
	for s := range f.streams {
		select {
		case s <- frame:
		default:
		}
	}
}

// NewBroker starts a broker. listingThrottle bounds how often
// listing.updated may follow case events (2s when not positive); heartbeat
// is the ": ping" period on open streams, zero for none.
func NewBroker(listingThrottle, heartbeat time.Duration) *Broker {
	if listingThrottle <= 0 {
		listingThrottle = 2 * time.Second
	}
	b := &Broker{
		listingGap: listingThrottle,
		heartbeat:  heartbeat,
		ops:        make(chan func(*fanout)),
		queue:      make(chan queued, 256),
		done:       make(chan struct{}),
		exited:     make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Broker) loop() {
	defer close(b.exited)
	f := &fanout{streams: make(map[chan []byte]struct{})}
	for {
		select {
		case <-b.done:
			for s := range f.streams {
				close(s)
			}
			return
		case op := <-b.ops:
			op(f)
		case q := <-b.queue:
			f.send(q.ev)
			if !q.touchesListing {
				continue
			}
			if now := time.Now(); now.Sub(f.lastListing) >= b.listingGap {
				f.lastListing = now
				f.send(Event{Type: TypeListingUpdated, Data: map[string]string{}})
			}
		}
	}
}

// do runs op on the broker goroutine. It reports false once the broker
// has shut down.
func (b *Broker) do(op func(*fanout)) bool {
	if b.shut.Load() {
		return false
	}
	select {
	case b.ops <- op:
		return true
	case <-b.exited:
		return false
	}
}

func (b *Broker) enqueue(q queued) {
	if b.shut.Load() {
		return
	}
	select {
	case b.queue <- q:
	case <-b.exited:
	}
}

// Close shuts the broker down and closes every subscriber channel. It is
// safe to call more than once.
func (b *Broker) Close() {
	if b.shut.CompareAndSwap(false, true) {
		close(b.done)
	}
	<-b.exited
}

// Subscribe registers a new stream. After Close the returned channel is
// already closed.
func (b *Broker) Subscribe() chan []byte {
	s := make(chan []byte, streamBuffer)
	if !b.do(func(f *fanout) { f.streams[s] = struct{}{} }) {
		close(s)
	}
	return s
}

// Unsubscribe drops s and closes it. Unknown channels are ignored.
func (b *Broker) Unsubscribe(s chan []byte) {
	b.do(func(f *fanout) {
		if _, ok := f.streams[s]; ok {
			delete(f.streams, s)
			close(s)
		}
	})
}

// ClientCount reports how many streams are open.
func (b *Broker) ClientCount() int {
	n := make(chan int, 1)
	if !b.do(func(f *fanout) { n <- len(f.streams) }) {
		return 0
	}
	return <-n
}

// Publish broadcasts event as is.
func (b *Broker) Publish(event Event) {
	b.enqueue(queued{ev: event})
}

// PublishCaseEvent broadcasts a case.* event for kind ("created",
// "updated" or "deleted"), then listing.updated if the last one is older
// than the throttle. Other kinds are dropped.
func (b *Broker) PublishCaseEvent(kind, slug string) {
	typ, ok := caseEventTypes[kind]
	if !ok {
		return
	}
	b.enqueue(queued{
		ev:             Event{Type: typ, Data: map[string]string{"slug": slug}},
		touchesListing: true,
	})
}

// ServeHTTP holds the request open and writes each broadcast frame until
// the client goes away or the broker closes.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	frames := b.Subscribe()
	defer b.Unsubscribe(frames)

	var ping <-chan time.Time
	if b.heartbeat > 0 {
		t := time.NewTicker(b.heartbeat)
		defer t.Stop()
		ping = t.C
	}

	for {
		var chunk []byte
		select {
		case <-r.Context().Done():
			return
		case <-ping:
			chunk = []byte(": ping\n\n")
		case frame, open := <-frames:
			if !open {
				return
			}
			chunk = frame
		}
		_, _ = w.Write(chunk)
		flusher.Flush()
	}
}
