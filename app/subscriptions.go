package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/CrestNiraj12/realinsta/domain"
)

// SubscriptionKind tells thread and global deliveries apart.
type SubscriptionKind int

const (
	ThreadSubscription SubscriptionKind = iota
	GlobalSubscription
)

// MessageEvent is an incoming direct message delivered by realtime.
type MessageEvent struct {
	Kind    SubscriptionKind
	Message domain.Message
}

// Subscriptions owns at most one per-thread subscription and one global
// subscription. Deliveries are queued on Events so that the UI loop applies
// them; handlers never run UI code.
type Subscriptions struct {
	rt     Realtime
	events chan MessageEvent

	mu           sync.Mutex
	thread       Subscription
	threadConvID string
	global       Subscription
	closed       bool
}

// NewSubscriptions creates a manager over rt.
func NewSubscriptions(rt Realtime) *Subscriptions {
	return &Subscriptions{
		rt:     rt,
		events: make(chan MessageEvent, 64),
	}
}

// Events delivers decoded message events.
func (s *Subscriptions) Events() <-chan MessageEvent { return s.events }

// StartGlobal subscribes to every message the user can see. Calling it again
// is a no-op.
func (s *Subscriptions) StartGlobal(ctx context.Context, userID string) error {
	s.mu.Lock()
	if s.global != nil || s.closed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	sub, err := s.rt.Subscribe(ctx, "inbox:"+userID, EventFilter{Event: ChangeInsert, Table: Messages}, s.handler(GlobalSubscription))
	if err != nil {
		return fmt.Errorf("subscribing to inbox: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.global != nil || s.closed {
		sub.Unsubscribe()
		return nil
	}
	s.global = sub
	glog.V(1).Infof("realtime: global subscription for %s", userID)
	return nil
}

// OpenThread replaces any thread subscription with one for conversationID.
func (s *Subscriptions) OpenThread(ctx context.Context, conversationID string) error {
	s.CloseThread()

	sub, err := s.rt.Subscribe(ctx, "thread:"+conversationID, EventFilter{
		Event:  ChangeInsert,
		Table:  Messages,
		Filter: "conversation_id=eq." + conversationID,
	}, s.handler(ThreadSubscription))
	if err != nil {
		return fmt.Errorf("subscribing to thread: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		sub.Unsubscribe()
		return nil
	}
	// Another OpenThread may have raced in while we were subscribing.
	if s.thread != nil {
		s.thread.Unsubscribe()
	}
	s.thread = sub
	s.threadConvID = conversationID
	glog.V(1).Infof("realtime: thread subscription for %s", conversationID)
	return nil
}

// CloseThread drops the thread subscription. Safe to call with none open.
func (s *Subscriptions) CloseThread() {
	s.mu.Lock()
	sub := s.thread
	s.thread = nil
	s.threadConvID = ""
	s.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

// ThreadConversation returns the conversation with an open subscription, or "".
func (s *Subscriptions) ThreadConversation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threadConvID
}

// Active counts live subscriptions.
func (s *Subscriptions) Active() (thread, global int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.thread != nil {
		thread = 1
	}
	if s.global != nil {
		global = 1
	}
	return thread, global
}

// Close tears everything down; later Open/Start calls are no-ops.
func (s *Subscriptions) Close() {
	s.mu.Lock()
	thread, global := s.thread, s.global
	s.thread, s.global = nil, nil
	s.threadConvID = ""
	s.closed = true
	s.mu.Unlock()
	if thread != nil {
		thread.Unsubscribe()
	}
	if global != nil {
		global.Unsubscribe()
	}
}

func (s *Subscriptions) handler(kind SubscriptionKind) func(ChangeEvent) {
	return func(ev ChangeEvent) {
		if ev.Type != ChangeInsert {
			return
		}
		var msg domain.Message
		if err := json.Unmarshal(ev.Record, &msg); err != nil {
			glog.Warningf("realtime: decoding message on %s: %v", ev.Channel, err)
			return
		}
		select {
		case s.events <- MessageEvent{Kind: kind, Message: msg}:
		default:
			glog.Warningf("realtime: event queue full, dropping message %s", msg.ID)
		}
	}
}
