// Package events fans pipeline state changes out to per-site subscribers.
package events

import (
	"sync"
	"time"
)

type Type string

const (
	TypeState  Type = "state"
	TypeResult Type = "result"
)

// Event is one pipeline observation for a site.
type Event struct {
	BuildID  string    `json:"build_id"`
	Site     string    `json:"site"`
	Pipeline string    `json:"pipeline"`
	File     string    `json:"file,omitempty"`
	Type     Type      `json:"type"`
	State    string    `json:"state"`
	Kind     string    `json:"kind,omitempty"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher is the write side of a Hub.
type Publisher interface {
	Publish(ev Event)
}

// Hub delivers events to the subscribers of the event's site. Slow
// subscribers lose events rather than blocking the pipeline.
type Hub struct {
	buffer int

	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{buffer: buffer, subs: make(map[string]map[*Subscription]struct{})}
}

// Subscription receives the events of one site until Close.
type Subscription struct {
	hub  *Hub
	site string
	ch   chan Event
	once sync.Once
}

// Events returns the delivery channel. It is closed by Close.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close unsubscribes and closes the delivery channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[s.site]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, s.site)
			}
		}
		close(s.ch)
	})
}

// Subscribe registers a subscriber for site.
func (h *Hub) Subscribe(site string) *Subscription {
	sub := &Subscription{hub: h, site: site, ch: make(chan Event, h.buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[site]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[site] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Publish delivers ev to every subscriber of ev.Site.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[ev.Site] {
		// Non-blocking send; drop if buffer is full.
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// Subscribers reports how many subscribers site has.
func (h *Hub) Subscribers(site string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[site])
}

// Discard is a Publisher that drops every event.
type Discard struct{}

func (Discard) Publish(Event) {}
