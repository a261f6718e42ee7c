package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/CrestNiraj12/realinsta/app"
)

// Hub implements app.Realtime for writes made through a Store.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]hubSub
}

type hubSub struct {
	key     string
	filter  app.EventFilter
	onEvent func(app.ChangeEvent)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]hubSub)}
}

func (h *Hub) Subscribe(_ context.Context, channelKey string, filter app.EventFilter, onEvent func(app.ChangeEvent)) (app.Subscription, error) {
	if filter.Table == "" {
		return nil, fmt.Errorf("subscribe %s: table is required", channelKey)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	h.subs[id] = hubSub{key: channelKey, filter: filter, onEvent: onEvent}
	return &hubSubscription{hub: h, id: id}, nil
}

// Live counts open subscriptions.
func (h *Hub) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) publish(table string, typ app.ChangeType, r row) {
	h.mu.Lock()
	var targets []hubSub
	for _, s := range h.subs {
		if s.filter.Table != table {
			continue
		}
		if s.filter.Event != app.ChangeAll && s.filter.Event != typ {
			continue
		}
		if !filterMatches(s.filter.Filter, r) {
			continue
		}
		targets = append(targets, s)
	}
	h.mu.Unlock()
	if len(targets) == 0 {
		return
	}
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	for _, s := range targets {
		s.onEvent(app.ChangeEvent{Channel: s.key, Type: typ, Table: table, Record: data})
	}
}

// filterMatches understands the "column=eq.value" form.
func filterMatches(expr string, r row) bool {
	if expr == "" {
		return true
	}
	col, rest, ok := strings.Cut(expr, "=")
	if !ok {
		return false
	}
	op, val, ok := strings.Cut(rest, ".")
	if !ok || op != "eq" {
		return false
	}
	return fmt.Sprint(r[col]) == val
}

type hubSubscription struct {
	hub  *Hub
	id   int
	once sync.Once
}

func (s *hubSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.id)
		s.hub.mu.Unlock()
	})
}
