package controllers

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"cycleroute/internal/models"
)

// Subscriber is anything the hub can push JSON to; *websocket.Conn fits.
type Subscriber interface {
	WriteJSON(v interface{}) error
}

// TripUpdate is broadcast to followers whenever a trip point is saved.
type TripUpdate struct {
	TripID string           `json:"trip_id"`
	Point  models.TripPoint `json:"point"`
}

// TripHub fans saved trip points out to everyone following that trip.
type TripHub struct {
	subscribers map[string]map[Subscriber]bool
	broadcast   chan TripUpdate
	done        chan struct{}
	closed      bool
	mu          sync.RWMutex
}

// NewTripHub creates a hub and starts its broadcast loop. Call Close to stop it.
func NewTripHub() *TripHub {
	hub := &TripHub{
		subscribers: make(map[string]map[Subscriber]bool),
		broadcast:   make(chan TripUpdate, 100),
		done:        make(chan struct{}),
	}
	go hub.run()
	return hub
}

func (h *TripHub) run() {
	defer close(h.done)
	for msg := range h.broadcast {
		h.mu.RLock()
		subs := make([]Subscriber, 0, len(h.subscribers[msg.TripID]))
		for s := range h.subscribers[msg.TripID] {
			subs = append(subs, s)
		}
		h.mu.RUnlock()

		for _, s := range subs {
			if err := s.WriteJSON(msg); err != nil {
				logrus.WithError(err).WithFields(logrus.Fields{
					"trip_id":  msg.TripID,
					"conn_ptr": fmt.Sprintf("%p", s),
				}).Info("Follower write failed, unregistering.")
				h.Unsubscribe(msg.TripID, s)
			}
		}
	}
}

func (h *TripHub) Subscribe(tripID string, s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[tripID]; !ok {
		h.subscribers[tripID] = make(map[Subscriber]bool)
	}
	h.subscribers[tripID][s] = true
	logrus.WithFields(logrus.Fields{
		"trip_id":  tripID,
		"conn_ptr": fmt.Sprintf("%p", s),
	}).Info("Follower registered with TripHub.")
}

func (h *TripHub) Unsubscribe(tripID string, s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.subscribers[tripID]; ok {
		delete(subs, s)
		if len(subs) == 0 {
			delete(h.subscribers, tripID)
		}
	}
}

// Followers reports how many subscribers a trip currently has.
func (h *TripHub) Followers(tripID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[tripID])
}

// Publish queues an update without blocking; it is dropped when the
// buffer is full or the hub is closed.
func (h *TripHub) Publish(update TripUpdate) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return false
	}
	select {
	case h.broadcast <- update:
		return true
	default:
		logrus.WithField("trip_id", update.TripID).Warn("Trip broadcast channel full, dropping update.")
		return false
	}
}

// Close stops the broadcast loop after draining queued updates.
func (h *TripHub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.broadcast)
	h.mu.Unlock()
	<-h.done
}
