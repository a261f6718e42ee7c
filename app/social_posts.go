package app

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/CrestNiraj12/realinsta/domain"
)

var newestFirst = []Order{{Column: "created_at", Desc: true}}

// FeedPage returns page n of posts by followed users and the user, newest first.
func (s *Social) FeedPage(ctx context.Context, page int) ([]domain.FeedPost, error) {
	ids, err := s.followingIDs(ctx)
	if err != nil {
		return nil, err
	}
	ids = append(ids, s.userID)
	return s.postsPage(ctx, []Filter{In("user_id", uniq(ids))}, page)
}

// ExplorePage returns page n of everyone's posts, newest first.
func (s *Social) ExplorePage(ctx context.Context, page int) ([]domain.FeedPost, error) {
	return s.postsPage(ctx, nil, page)
}

// HashtagPage returns page n of posts whose caption carries #tag, and the
// number of rows the page scanned. Captions whose tag only starts with tag
// (#ramenlover for #ramen) are dropped after the fetch, so a page may hold
// fewer posts than it scanned.
func (s *Social) HashtagPage(ctx context.Context, tag string, page int) ([]domain.FeedPost, int, error) {
	tag = domain.NormalizeHashtag(tag)
	if tag == "" {
		return nil, 0, nil
	}
	var posts []domain.Post
	err := s.store.Select(ctx, Posts, Query{
		Filters: []Filter{{Column: "caption", Op: OpILike, Value: "%#" + escapeLike(tag) + "%"}},
		Order:   newestFirst,
		Range:   Page(page, FeedPageSize),
	}, &posts)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching #%s posts: %w", tag, err)
	}
	scanned := len(posts)
	tagged := make([]domain.Post, 0, scanned)
	for _, p := range posts {
		if slices.Contains(domain.Hashtags(p.CaptionText()), tag) {
			tagged = append(tagged, p)
		}
	}
	out, err := s.decorate(ctx, tagged)
	return out, scanned, err
}

// UserPostsPage returns page n of userID's posts, newest first.
func (s *Social) UserPostsPage(ctx context.Context, userID string, page int) ([]domain.FeedPost, error) {
	return s.postsPage(ctx, []Filter{Eq("user_id", userID)}, page)
}

func (s *Social) postsPage(ctx context.Context, filters []Filter, page int) ([]domain.FeedPost, error) {
	var posts []domain.Post
	err := s.store.Select(ctx, Posts, Query{
		Filters: filters,
		Order:   newestFirst,
		Range:   Page(page, FeedPageSize),
	}, &posts)
	if err != nil {
		return nil, fmt.Errorf("fetching posts: %w", err)
	}
	return s.decorate(ctx, posts)
}

// Post returns one post with its counters.
func (s *Social) Post(ctx context.Context, id string) (domain.FeedPost, error) {
	var posts []domain.Post
	if err := s.store.Select(ctx, Posts, Query{Filters: []Filter{Eq("id", id)}, Range: Limit(1)}, &posts); err != nil {
		return domain.FeedPost{}, fmt.Errorf("fetching post: %w", err)
	}
	if len(posts) == 0 {
		return domain.FeedPost{}, fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
	}
	out, err := s.decorate(ctx, posts)
	if err != nil {
		return domain.FeedPost{}, err
	}
	return out[0], nil
}

// decorate resolves authors, like and comment counters for posts.
func (s *Social) decorate(ctx context.Context, posts []domain.Post) ([]domain.FeedPost, error) {
	if len(posts) == 0 {
		return nil, nil
	}
	postIDs := make([]string, 0, len(posts))
	authorIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		authorIDs = append(authorIDs, p.UserID)
	}

	authors, err := s.profilesByID(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	var mine []domain.Like
	if err := s.store.Select(ctx, Likes, Query{
		Columns: []string{"post_id"},
		Filters: []Filter{In("post_id", postIDs), Eq("user_id", s.userID)},
	}, &mine); err != nil {
		return nil, fmt.Errorf("fetching likes: %w", err)
	}
	liked := make(map[string]bool, len(mine))
	for _, l := range mine {
		liked[l.PostID] = true
	}

	likeCount := make(map[string]int, len(posts))
	commentCount := make(map[string]int, len(posts))
	for _, id := range postIDs {
		n, err := s.store.Count(ctx, Likes, []Filter{Eq("post_id", id)})
		if err != nil {
			return nil, fmt.Errorf("counting likes: %w", err)
		}
		likeCount[id] = n
		if n, err = s.store.Count(ctx, Comments, []Filter{Eq("post_id", id)}); err != nil {
			return nil, fmt.Errorf("counting comments: %w", err)
		}
		commentCount[id] = n
	}

	out := make([]domain.FeedPost, 0, len(posts))
	for _, p := range posts {
		author, ok := authors[p.UserID]
		if !ok {
			author = domain.Profile{ID: p.UserID, Username: "unknown"}
		}
		out = append(out, domain.FeedPost{
			Post:          p,
			Author:        author,
			LikesCount:    likeCount[p.ID],
			CommentsCount: commentCount[p.ID],
			Liked:         liked[p.ID],
			IsOwn:         p.UserID == s.userID,
		})
	}
	return out, nil
}

// Like likes postID. An existing like counts as success so repeated taps
// never create a second record.
func (s *Social) Like(ctx context.Context, postID, ownerID string) error {
	err := s.store.Insert(ctx, Likes, domain.Like{PostID: postID, UserID: s.userID}, nil)
	if err != nil {
		if domain.IsConflict(err) {
			return nil
		}
		return fmt.Errorf("liking post: %w", err)
	}
	s.notify(ctx, ownerID, domain.NotifyLike, &postID)
	return nil
}

// Unlike removes the user's like on postID.
func (s *Social) Unlike(ctx context.Context, postID string) error {
	if err := s.store.Delete(ctx, Likes, []Filter{Eq("post_id", postID), Eq("user_id", s.userID)}); err != nil {
		return fmt.Errorf("unliking post: %w", err)
	}
	return nil
}

// Comments returns up to limit comments on postID, oldest first. limit <= 0
// returns all of them.
func (s *Social) Comments(ctx context.Context, postID string, limit int) ([]domain.CommentView, error) {
	q := Query{
		Filters: []Filter{Eq("post_id", postID)},
		Order:   []Order{{Column: "created_at"}},
	}
	if limit > 0 {
		q.Range = Limit(limit)
	}
	var rows []domain.Comment
	if err := s.store.Select(ctx, Comments, q, &rows); err != nil {
		return nil, fmt.Errorf("fetching comments: %w", err)
	}
	ids := make([]string, 0, len(rows))
	for _, c := range rows {
		ids = append(ids, c.UserID)
	}
	authors, err := s.profilesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CommentView, 0, len(rows))
	for _, c := range rows {
		out = append(out, domain.CommentView{Comment: c, Author: authors[c.UserID]})
	}
	return out, nil
}

// AddComment validates and posts a comment. Blank bodies never reach the store.
func (s *Social) AddComment(ctx context.Context, postID, ownerID, body string) (domain.CommentView, error) {
	body, err := domain.ValidateComment(body)
	if err != nil {
		return domain.CommentView{}, err
	}
	var created domain.Comment
	rec := map[string]any{"post_id": postID, "user_id": s.userID, "body": body}
	if err := s.store.Insert(ctx, Comments, rec, &created); err != nil {
		return domain.CommentView{}, fmt.Errorf("posting comment: %w", err)
	}
	s.notify(ctx, ownerID, domain.NotifyComment, &postID)
	me, err := s.Profile(ctx, s.userID)
	if err != nil {
		glog.Warningf("loading own profile for comment %s: %v", created.ID, err)
		me = domain.Profile{ID: s.userID}
	}
	return domain.CommentView{Comment: created, Author: me}, nil
}

// DeletePost removes one of the user's own posts.
func (s *Social) DeletePost(ctx context.Context, postID string) error {
	if err := s.store.Delete(ctx, Posts, []Filter{Eq("id", postID), Eq("user_id", s.userID)}); err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	return nil
}

// CreatePost uploads the frame and inserts the post row.
func (s *Social) CreatePost(ctx context.Context, frame Frame, caption, location string) (domain.Post, error) {
	if len(frame.Data) == 0 {
		return domain.Post{}, domain.ErrNoImage
	}
	caption, err := domain.ValidateCaption(caption)
	if err != nil {
		return domain.Post{}, err
	}
	contentType := frame.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	objectPath := path.Join(s.userID, strings.ToLower(ulid.Make().String())+extFor(contentType))
	if err := s.storage.Upload(ctx, domain.PostsBucket, objectPath, frame.Data, contentType); err != nil {
		return domain.Post{}, fmt.Errorf("uploading image: %w", err)
	}

	rec := map[string]any{
		"id":        uuid.NewString(),
		"user_id":   s.userID,
		"image_url": s.storage.PublicURL(domain.PostsBucket, objectPath),
		"caption":   nullable(caption),
		"location":  nullable(location),
	}
	var created domain.Post
	if err := s.store.Insert(ctx, Posts, rec, &created); err != nil {
		return domain.Post{}, fmt.Errorf("creating post: %w", err)
	}
	return created, nil
}

func extFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
