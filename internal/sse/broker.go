// Package sse broadcasts document change events to Server-Sent Events clients.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// Event is one SSE message.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Change kinds carried by DocumentEvent.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// DocumentEvent describes a stored document change.
type DocumentEvent struct {
	Collection string `json:"collection"`
	Kind       string `json:"-"`
	ID         string `json:"id"`
	Handle     string `json:"handle,omitempty"`
}

// Type returns the SSE event name, e.g. "post.updated".
func (e DocumentEvent) Type() string {
	return singular(e.Collection) + "." + e.Kind
}

func singular(collection string) string {
	switch {
	case collection == "media":
		return "media"
	case strings.HasSuffix(collection, "ies"):
		return strings.TrimSuffix(collection, "ies") + "y"
	default:
		return strings.TrimSuffix(collection, "s")
	}
}

// FeedCollection is the collection whose changes also emit feed.updated.
const FeedCollection = "posts"

// Broker fans events out to SSE clients.
//
// A single event loop owns the client set and the feed throttle timestamp.
// Public methods talk to it through channels.
type Broker struct {
	feedMin   time.Duration
	keepAlive time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	docEventCh    chan DocumentEvent
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker starts a broker whose feed.updated events are emitted at most
// once per feedThrottle.
func NewBroker(feedThrottle time.Duration) *Broker {
	if feedThrottle <= 0 {
		feedThrottle = 2 * time.Second
	}

	b := &Broker{
		feedMin:       feedThrottle,
		keepAlive:     25 * time.Second,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		docEventCh:    make(chan DocumentEvent, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func encode(event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload)), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastFeed time.Time

	broadcast := func(event Event) {
		raw, err := encode(event)
		if err != nil {
			return
		}
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// slow client, drop
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case ev := <-b.docEventCh:
			switch ev.Kind {
			case Created, Updated, Deleted:
				broadcast(Event{Type: ev.Type(), Data: ev})
			default:
				continue
			}
			if ev.Collection != FeedCollection {
				continue
			}
			now := time.Now()
			if now.Sub(lastFeed) >= b.feedMin {
				lastFeed = now
				broadcast(Event{Type: "feed.updated", Data: map[string]string{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the event loop and closes every client channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishDocument broadcasts a document change. Post changes are followed by
// a throttled feed.updated event.
func (b *Broker) PublishDocument(ev DocumentEvent) {
	if b.closed.Load() {
		return
	}
	select {
	case b.docEventCh <- ev:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("retry: 3000\n\n"))
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ping := time.NewTicker(b.keepAlive)
	defer ping.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
