// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ranker

import (
	"log/slog"
	"sync"
)

// Event types broadcast to realtime subscribers.
const (
	EventTaskAdded       = "task_added"
	EventTaskDeleted     = "task_deleted"
	EventTaskCompleted   = "task_completed"
	EventComparisonAdded = "comparison_added"
)

// Event is one realtime notification, scoped to a list. Data is a
// JSON-serialisable payload specific to the type.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub fans list mutation events out to WebSocket subscribers.
//
// Delivery is best-effort and advisory: when a subscriber's channel is
// full, the event is dropped for that subscriber rather than
// back-pressuring mutation handlers; the subscriber stays registered.
// Subscribers are scoped to one list id and never see another list's
// events.
//
// Thread Safety: safe for concurrent use.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{} // list id → subscriber set

	logger *slog.Logger
}

// subscriberBuffer is per-subscriber queue depth. A UI that falls this
// far behind is better off reconnecting and refetching.
const subscriberBuffer = 16

// NewHub constructs an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[string]map[chan Event]struct{}),
		logger: logger,
	}
}

// Subscribe registers a subscriber for one list. The returned channel
// receives that list's events until cancel is called; cancel closes
// the channel.
func (h *Hub) Subscribe(listID string) (events <-chan Event, cancel func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	set := h.subs[listID]
	if set == nil {
		set = make(map[chan Event]struct{})
		h.subs[listID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[listID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, listID)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Broadcast delivers an event to every subscriber of the list.
// Subscribers whose channel is full do not receive this event.
func (h *Hub) Broadcast(listID string, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[listID] {
		select {
		case ch <- ev:
		default:
			h.logger.Warn("dropping realtime event for slow subscriber",
				"list_id", listID, "type", ev.Type)
		}
	}
}

// Subscribers returns the subscriber count for a list.
func (h *Hub) Subscribers(listID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[listID])
}
