package app

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/CrestNiraj12/realinsta/domain"
)

// Conversations returns the user's inbox, most recently active first.
func (s *Social) Conversations(ctx context.Context) ([]domain.ConversationView, error) {
	var mine []domain.ConversationMember
	if err := s.store.Select(ctx, ConversationMembers, Query{
		Filters: []Filter{Eq("user_id", s.userID)},
	}, &mine); err != nil {
		return nil, fmt.Errorf("fetching memberships: %w", err)
	}
	if len(mine) == 0 {
		return nil, nil
	}
	convIDs := make([]string, 0, len(mine))
	lastRead := make(map[string]*time.Time, len(mine))
	for _, m := range mine {
		convIDs = append(convIDs, m.ConversationID)
		lastRead[m.ConversationID] = m.LastReadAt
	}

	var others []domain.ConversationMember
	if err := s.store.Select(ctx, ConversationMembers, Query{
		Filters: []Filter{In("conversation_id", convIDs), {Column: "user_id", Op: OpNeq, Value: s.userID}},
	}, &others); err != nil {
		return nil, fmt.Errorf("fetching conversation members: %w", err)
	}
	peerOf := make(map[string]string, len(others))
	peerIDs := make([]string, 0, len(others))
	for _, m := range others {
		peerOf[m.ConversationID] = m.UserID
		peerIDs = append(peerIDs, m.UserID)
	}
	peers, err := s.profilesByID(ctx, peerIDs)
	if err != nil {
		return nil, err
	}

	var recent []domain.Message
	if err := s.store.Select(ctx, Messages, Query{
		Filters: []Filter{In("conversation_id", convIDs)},
		Order:   newestFirst,
		Range:   Limit(200),
	}, &recent); err != nil {
		return nil, fmt.Errorf("fetching recent messages: %w", err)
	}

	views := make(map[string]*domain.ConversationView, len(convIDs))
	for _, id := range convIDs {
		views[id] = &domain.ConversationView{
			Conversation: domain.Conversation{ID: id},
			Peer:         peers[peerOf[id]],
		}
	}
	for i := range recent {
		msg := recent[i]
		v, ok := views[msg.ConversationID]
		if !ok {
			continue
		}
		if v.LastMessage == nil {
			v.LastMessage = &msg
			v.UpdatedAt = msg.CreatedAt
		}
		if msg.SenderID != s.userID {
			if lr := lastRead[msg.ConversationID]; lr == nil || msg.CreatedAt.After(*lr) {
				v.Unread++
			}
		}
	}

	out := make([]domain.ConversationView, 0, len(views))
	for _, id := range convIDs {
		out = append(out, *views[id])
	}
	slices.SortStableFunc(out, func(a, b domain.ConversationView) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out, nil
}

// UnreadMessages sums unread messages across the inbox.
func (s *Social) UnreadMessages(ctx context.Context) (int, error) {
	convs, err := s.Conversations(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, c := range convs {
		total += c.Unread
	}
	return total, nil
}

// ConversationWith returns the one-to-one conversation with peerID, creating it if needed.
func (s *Social) ConversationWith(ctx context.Context, peerID string) (string, error) {
	var mine []domain.ConversationMember
	if err := s.store.Select(ctx, ConversationMembers, Query{
		Columns: []string{"conversation_id", "user_id"},
		Filters: []Filter{Eq("user_id", s.userID)},
	}, &mine); err != nil {
		return "", fmt.Errorf("fetching memberships: %w", err)
	}
	if len(mine) > 0 {
		ids := make([]string, 0, len(mine))
		for _, m := range mine {
			ids = append(ids, m.ConversationID)
		}
		var shared []domain.ConversationMember
		if err := s.store.Select(ctx, ConversationMembers, Query{
			Columns: []string{"conversation_id", "user_id"},
			Filters: []Filter{In("conversation_id", ids), Eq("user_id", peerID)},
			Range:   Limit(1),
		}, &shared); err != nil {
			return "", fmt.Errorf("looking up conversation: %w", err)
		}
		if len(shared) > 0 {
			return shared[0].ConversationID, nil
		}
	}

	var conv domain.Conversation
	if err := s.store.Insert(ctx, Conversations, map[string]any{}, &conv); err != nil {
		return "", fmt.Errorf("creating conversation: %w", err)
	}
	for _, uid := range []string{s.userID, peerID} {
		m := domain.ConversationMember{ConversationID: conv.ID, UserID: uid}
		if err := s.store.Insert(ctx, ConversationMembers, m, nil); err != nil && !domain.IsConflict(err) {
			return "", fmt.Errorf("adding conversation member: %w", err)
		}
	}
	return conv.ID, nil
}

// Peer returns the other member of a one-to-one conversation.
func (s *Social) Peer(ctx context.Context, conversationID string) (domain.Profile, error) {
	var rows []domain.ConversationMember
	if err := s.store.Select(ctx, ConversationMembers, Query{
		Filters: []Filter{Eq("conversation_id", conversationID), {Column: "user_id", Op: OpNeq, Value: s.userID}},
		Range:   Limit(1),
	}, &rows); err != nil {
		return domain.Profile{}, fmt.Errorf("fetching conversation peer: %w", err)
	}
	if len(rows) == 0 {
		return domain.Profile{}, fmt.Errorf("conversation %s: %w", conversationID, domain.ErrNotFound)
	}
	return s.Profile(ctx, rows[0].UserID)
}

// MessagesPage returns page n of a conversation counted from the newest
// message, in chronological order.
func (s *Social) MessagesPage(ctx context.Context, conversationID string, page int) ([]domain.Message, error) {
	var rows []domain.Message
	if err := s.store.Select(ctx, Messages, Query{
		Filters: []Filter{Eq("conversation_id", conversationID)},
		Order:   newestFirst,
		Range:   Page(page, ThreadPageSize),
	}, &rows); err != nil {
		return nil, fmt.Errorf("fetching messages: %w", err)
	}
	slices.Reverse(rows)
	return rows, nil
}

// SendMessage validates and sends body to the conversation.
func (s *Social) SendMessage(ctx context.Context, conversationID, peerID, body string) (domain.Message, error) {
	body, err := domain.ValidateMessage(body)
	if err != nil {
		return domain.Message{}, err
	}
	var created domain.Message
	rec := domain.Message{ConversationID: conversationID, SenderID: s.userID, Body: body}
	if err := s.store.Insert(ctx, Messages, rec, &created); err != nil {
		return domain.Message{}, fmt.Errorf("sending message: %w", err)
	}
	now := s.now().UTC()
	if err := s.store.Update(ctx, Conversations, map[string]any{"updated_at": now}, []Filter{Eq("id", conversationID)}); err != nil {
		return created, fmt.Errorf("touching conversation: %w", err)
	}
	s.notify(ctx, peerID, domain.NotifyMessage, nil)
	return created, s.MarkRead(ctx, conversationID)
}

// MarkRead moves the user's read marker in the conversation to now.
func (s *Social) MarkRead(ctx context.Context, conversationID string) error {
	err := s.store.Update(ctx, ConversationMembers,
		map[string]any{"last_read_at": s.now().UTC()},
		[]Filter{Eq("conversation_id", conversationID), Eq("user_id", s.userID)})
	if err != nil {
		return fmt.Errorf("marking conversation read: %w", err)
	}
	return nil
}
