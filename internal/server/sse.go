package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// streamBacklog is how many recent events are kept for Last-Event-ID replay.
	streamBacklog = 256

	streamKeepalive = 15 * time.Second
)

// streamEvent is one lookup event as delivered on GET /v1/events.
type streamEvent struct {
	ID    uint64
	Topic string
	Data  []byte
}

// eventStream fans published events out to connected SSE clients and keeps
// a short backlog for clients that reconnect.
type eventStream struct {
	mu      sync.Mutex
	lastID  uint64
	backlog []streamEvent
	subs    map[*streamSub]struct{}
}

type streamSub struct {
	filters []string
	ch      chan streamEvent
}

func newEventStream() *eventStream {
	return &eventStream{subs: make(map[*streamSub]struct{})}
}

// send records the event and delivers it to every matching subscriber.
// Slow subscribers miss events rather than block the lookup path.
func (e *eventStream) send(topic string, data []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastID++
	ev := streamEvent{ID: e.lastID, Topic: topic, Data: data}
	if len(e.backlog) == streamBacklog {
		e.backlog = append(e.backlog[:0], e.backlog[1:]...)
	}
	e.backlog = append(e.backlog, ev)

	for sub := range e.subs {
		if !sub.wants(topic) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// subscribe registers a subscriber and returns the backlog entries after
// lastID that it should replay first.
func (e *eventStream) subscribe(filters []string, lastID uint64) (*streamSub, []streamEvent) {
	sub := &streamSub{filters: filters, ch: make(chan streamEvent, 64)}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs[sub] = struct{}{}

	var replay []streamEvent
	if lastID > 0 {
		for _, ev := range e.backlog {
			if ev.ID > lastID && sub.wants(ev.Topic) {
				replay = append(replay, ev)
			}
		}
	}
	return sub, replay
}

func (e *eventStream) unsubscribe(sub *streamSub) {
	e.mu.Lock()
	delete(e.subs, sub)
	e.mu.Unlock()
}

func (s *streamSub) wants(topic string) bool {
	if len(s.filters) == 0 {
		return true
	}
	for _, f := range s.filters {
		if topicMatches(f, topic) {
			return true
		}
	}
	return false
}

// topicMatches applies NATS subject rules: "*" matches one token and a
// trailing ">" matches one or more.
func topicMatches(pattern, topic string) bool {
	pat := strings.Split(pattern, ".")
	tok := strings.Split(topic, ".")
	for i, p := range pat {
		if p == ">" && i == len(pat)-1 {
			return len(tok) > i
		}
		if i >= len(tok) || (p != "*" && p != tok[i]) {
			return false
		}
	}
	return len(pat) == len(tok)
}

// broadcast marshals an event for SSE clients of this instance.
func (s *ConfigServer) broadcast(topic string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to encode stream event", "topic", topic, "err", err)
		return
	}
	s.stream.send(topic, data)
}

// handleEventStream handles GET /v1/events. The optional "topics" query
// parameter is a comma-separated list of subject patterns.
func (s *ConfigServer) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	var filters []string
	for _, f := range strings.Split(r.URL.Query().Get("topics"), ",") {
		if f = strings.TrimSpace(f); f != "" {
			filters = append(filters, f)
		}
	}
	lastID, _ := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)

	sub, replay := s.stream.subscribe(filters, lastID)
	defer s.stream.unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	for _, ev := range replay {
		writeStreamEvent(w, ev)
	}
	flusher.Flush()

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-sub.ch:
			writeStreamEvent(w, ev)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeStreamEvent(w http.ResponseWriter, ev streamEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", ev.ID, ev.Topic, ev.Data)
}
