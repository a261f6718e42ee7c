package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/CrestNiraj12/realinsta/domain"
)

const (
	FeedPageSize       = 10
	ThreadPageSize     = 30
	NotificationsLimit = 50
	SearchLimit        = 20
	PreviewComments    = 3
)

// Collection names.
const (
	Profiles            = "profiles"
	Posts               = "posts"
	Comments            = "comments"
	Likes               = "likes"
	Follows             = "follows"
	Notifications       = "notifications"
	Conversations       = "conversations"
	ConversationMembers = "conversation_members"
	Messages            = "messages"
)

// Social is the typed query layer the screens use. Each method is one query
// shape; validation happens before any remote call.
type Social struct {
	store   DataStore
	storage ObjectStorage
	userID  string
	now     func() time.Time
}

// NewSocial creates a Social bound to the signed-in user.
func NewSocial(store DataStore, storage ObjectStorage, userID string) *Social {
	return &Social{
		store:   store,
		storage: storage,
		userID:  userID,
		now:     time.Now,
	}
}

// UserID returns the signed-in user's id.
func (s *Social) UserID() string { return s.userID }

// Profile returns one profile.
func (s *Social) Profile(ctx context.Context, id string) (domain.Profile, error) {
	var rows []domain.Profile
	err := s.store.Select(ctx, Profiles, Query{
		Filters: []Filter{Eq("id", id)},
		Range:   Limit(1),
	}, &rows)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("fetching profile: %w", err)
	}
	if len(rows) == 0 {
		return domain.Profile{}, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	return rows[0], nil
}

// EnsureProfile returns the signed-in user's profile, creating one on first
// login with a username derived from the session.
func (s *Social) EnsureProfile(ctx context.Context, sess Session) (domain.Profile, error) {
	p, err := s.Profile(ctx, s.userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Profile{}, err
	}

	username := suggestUsername(sess.Email, s.userID)
	rec := map[string]any{"id": s.userID, "username": username}
	if name := strings.TrimSpace(sess.DisplayName); name != "" {
		rec["display_name"] = name
	}
	var created domain.Profile
	if err := s.store.Insert(ctx, Profiles, rec, &created); err != nil {
		if domain.IsConflict(err) {
			// A concurrent first login won; read it back.
			return s.Profile(ctx, s.userID)
		}
		return domain.Profile{}, fmt.Errorf("creating profile: %w", err)
	}
	glog.Infof("created profile %s for %s", created.Username, s.userID)
	return created, nil
}

func suggestUsername(email, userID string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, r := range strings.ToLower(local) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '+':
			b.WriteRune('_')
		}
	}
	base := strings.Trim(b.String(), "_")
	if len(base) < 3 {
		base = "user"
	}
	if len(base) > 21 {
		base = base[:21]
	}
	suffix := strings.ReplaceAll(userID, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return base + "_" + strings.ToLower(suffix)
}

// UpdateProfile validates and saves the signed-in user's profile.
func (s *Social) UpdateProfile(ctx context.Context, username, displayName, bio string) error {
	username = domain.NormalizeUsername(username)
	if err := domain.ValidateUsername(username); err != nil {
		return err
	}
	patch := map[string]any{
		"username":     username,
		"display_name": nullable(displayName),
		"bio":          nullable(bio),
	}
	if err := s.store.Update(ctx, Profiles, patch, []Filter{Eq("id", s.userID)}); err != nil {
		if domain.IsConflict(err) {
			return domain.ErrUsernameTaken
		}
		return fmt.Errorf("updating profile: %w", err)
	}
	return nil
}

func nullable(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

func (s *Social) profilesByID(ctx context.Context, ids []string) (map[string]domain.Profile, error) {
	out := make(map[string]domain.Profile, len(ids))
	ids = uniq(ids)
	if len(ids) == 0 {
		return out, nil
	}
	var rows []domain.Profile
	if err := s.store.Select(ctx, Profiles, Query{Filters: []Filter{In("id", ids)}}, &rows); err != nil {
		return nil, fmt.Errorf("fetching profiles: %w", err)
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

// ProfileStats are the counters on a profile header.
type ProfileStats struct {
	Posts     int
	Followers int
	Following int
}

// Stats counts posts, followers and following for userID.
func (s *Social) Stats(ctx context.Context, userID string) (ProfileStats, error) {
	var st ProfileStats
	var err error
	if st.Posts, err = s.store.Count(ctx, Posts, []Filter{Eq("user_id", userID)}); err != nil {
		return st, fmt.Errorf("counting posts: %w", err)
	}
	if st.Followers, err = s.store.Count(ctx, Follows, []Filter{Eq("following_id", userID)}); err != nil {
		return st, fmt.Errorf("counting followers: %w", err)
	}
	if st.Following, err = s.store.Count(ctx, Follows, []Filter{Eq("follower_id", userID)}); err != nil {
		return st, fmt.Errorf("counting following: %w", err)
	}
	return st, nil
}

// IsFollowing reports whether the signed-in user follows userID.
func (s *Social) IsFollowing(ctx context.Context, userID string) (bool, error) {
	n, err := s.store.Count(ctx, Follows, []Filter{Eq("follower_id", s.userID), Eq("following_id", userID)})
	if err != nil {
		return false, fmt.Errorf("checking follow: %w", err)
	}
	return n > 0, nil
}

// Follow follows userID. Following twice is not an error.
func (s *Social) Follow(ctx context.Context, userID string) error {
	if userID == s.userID {
		return nil
	}
	err := s.store.Insert(ctx, Follows, domain.Follow{FollowerID: s.userID, FollowingID: userID}, nil)
	if err != nil && !domain.IsConflict(err) {
		return fmt.Errorf("following: %w", err)
	}
	if err == nil {
		s.notify(ctx, userID, domain.NotifyFollow, nil)
	}
	return nil
}

// Unfollow removes the follow edge to userID.
func (s *Social) Unfollow(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, Follows, []Filter{Eq("follower_id", s.userID), Eq("following_id", userID)}); err != nil {
		return fmt.Errorf("unfollowing: %w", err)
	}
	return nil
}

func (s *Social) followingIDs(ctx context.Context) ([]string, error) {
	var rows []domain.Follow
	err := s.store.Select(ctx, Follows, Query{
		Columns: []string{"follower_id", "following_id"},
		Filters: []Filter{Eq("follower_id", s.userID)},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("fetching follows: %w", err)
	}
	ids := make([]string, 0, len(rows))
	for _, f := range rows {
		ids = append(ids, f.FollowingID)
	}
	return ids, nil
}

// notify writes a notification for userID. Failures are logged only.
func (s *Social) notify(ctx context.Context, userID string, typ domain.NotificationType, postID *string) {
	if userID == "" || userID == s.userID {
		return
	}
	n := domain.Notification{UserID: userID, ActorID: s.userID, Type: typ, PostID: postID}
	if err := s.store.Insert(ctx, Notifications, n, nil); err != nil {
		glog.Warningf("writing %s notification for %s: %v", typ, userID, err)
	}
}

func uniq(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
