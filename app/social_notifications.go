package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/CrestNiraj12/realinsta/domain"
)

// Notifications returns the newest notifications addressed to the user.
func (s *Social) Notifications(ctx context.Context) ([]domain.NotificationView, error) {
	var rows []domain.Notification
	if err := s.store.Select(ctx, Notifications, Query{
		Filters: []Filter{Eq("user_id", s.userID)},
		Order:   newestFirst,
		Range:   Limit(NotificationsLimit),
	}, &rows); err != nil {
		return nil, fmt.Errorf("fetching notifications: %w", err)
	}
	ids := make([]string, 0, len(rows))
	for _, n := range rows {
		ids = append(ids, n.ActorID)
	}
	actors, err := s.profilesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.NotificationView, 0, len(rows))
	for _, n := range rows {
		out = append(out, domain.NotificationView{Notification: n, Actor: actors[n.ActorID]})
	}
	return out, nil
}

// UnreadNotifications counts unread notifications.
func (s *Social) UnreadNotifications(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx, Notifications, []Filter{Eq("user_id", s.userID), {Column: "read", Op: OpIs, Value: false}})
	if err != nil {
		return 0, fmt.Errorf("counting notifications: %w", err)
	}
	return n, nil
}

// MarkNotificationsRead marks every unread notification read.
func (s *Social) MarkNotificationsRead(ctx context.Context) error {
	err := s.store.Update(ctx, Notifications, map[string]any{"read": true},
		[]Filter{Eq("user_id", s.userID), {Column: "read", Op: OpIs, Value: false}})
	if err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}

// SearchProfiles finds profiles whose username or display name contains
// query, best fuzzy match first.
func (s *Social) SearchProfiles(ctx context.Context, query string) ([]domain.Profile, error) {
	query = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(query), "@"))
	if query == "" {
		return nil, nil
	}
	pattern := "%" + escapeLike(query) + "%"
	var byUsername, byName []domain.Profile
	if err := s.store.Select(ctx, Profiles, Query{
		Filters: []Filter{{Column: "username", Op: OpILike, Value: pattern}},
		Range:   Limit(SearchLimit),
	}, &byUsername); err != nil {
		return nil, fmt.Errorf("searching usernames: %w", err)
	}
	if err := s.store.Select(ctx, Profiles, Query{
		Filters: []Filter{{Column: "display_name", Op: OpILike, Value: pattern}},
		Range:   Limit(SearchLimit),
	}, &byName); err != nil {
		return nil, fmt.Errorf("searching names: %w", err)
	}

	byID := make(map[string]domain.Profile, len(byUsername)+len(byName))
	targets := make([]string, 0, len(byUsername)+len(byName))
	keyOwner := make(map[string]string, len(byUsername)+len(byName))
	for _, p := range append(byUsername, byName...) {
		if _, ok := byID[p.ID]; ok {
			continue
		}
		byID[p.ID] = p
		key := p.Username + " " + p.Name()
		targets = append(targets, key)
		keyOwner[key] = p.ID
	}

	ranks := fuzzy.RankFindNormalizedFold(query, targets)
	sort.Sort(ranks)
	out := make([]domain.Profile, 0, len(byID))
	placed := make(map[string]struct{}, len(byID))
	for _, r := range ranks {
		id := keyOwner[r.Target]
		if _, ok := placed[id]; ok {
			continue
		}
		placed[id] = struct{}{}
		out = append(out, byID[id])
	}
	// Substring hits that are not subsequence matches keep store order.
	for _, key := range targets {
		id := keyOwner[key]
		if _, ok := placed[id]; ok {
			continue
		}
		placed[id] = struct{}{}
		out = append(out, byID[id])
	}
	if len(out) > SearchLimit {
		out = out[:SearchLimit]
	}
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
