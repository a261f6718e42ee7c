package domain

import "time"

// Profile is a row of the profiles collection.
type Profile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName *string   `json:"display_name"`
	Bio         *string   `json:"bio"`
	AvatarURL   *string   `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Name returns the display name, falling back to the username.
func (p Profile) Name() string {
	if p.DisplayName != nil && *p.DisplayName != "" {
		return *p.DisplayName
	}
	return p.Username
}

// Post is a row of the posts collection.
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ImageURL  string    `json:"image_url"`
	Caption   *string   `json:"caption"`
	Location  *string   `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

// CaptionText returns the caption or "".
func (p Post) CaptionText() string {
	if p.Caption == nil {
		return ""
	}
	return *p.Caption
}

// FeedPost is a post joined with what the feed and detail views show.
type FeedPost struct {
	Post
	Author        Profile
	LikesCount    int
	CommentsCount int
	Liked         bool
	IsOwn         bool
}

// Comment is a row of the comments collection.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentView is a comment with its author resolved.
type CommentView struct {
	Comment
	Author Profile
}

// Like is a row of the likes collection.
type Like struct {
	ID        string    `json:"id,omitempty"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Follow is a row of the follows collection.
type Follow struct {
	FollowerID  string    `json:"follower_id"`
	FollowingID string    `json:"following_id"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

// NotificationType enumerates notification kinds.
type NotificationType string

const (
	NotifyLike    NotificationType = "like"
	NotifyComment NotificationType = "comment"
	NotifyFollow  NotificationType = "follow"
	NotifyMessage NotificationType = "message"
)

// Notification is a row of the notifications collection.
type Notification struct {
	ID        string           `json:"id,omitempty"`
	UserID    string           `json:"user_id"`
	ActorID   string           `json:"actor_id"`
	Type      NotificationType `json:"type"`
	PostID    *string          `json:"post_id"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at,omitzero"`
}

// NotificationView is a notification with its actor resolved.
type NotificationView struct {
	Notification
	Actor Profile
}

// Conversation is a row of the conversations collection.
type Conversation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// ConversationMember is a row of the conversation_members collection.
type ConversationMember struct {
	ConversationID string     `json:"conversation_id"`
	UserID         string     `json:"user_id"`
	LastReadAt     *time.Time `json:"last_read_at"`
}

// ConversationView is an inbox row.
type ConversationView struct {
	Conversation
	Peer        Profile
	LastMessage *Message
	Unread      int
}

// Message is a row of the messages collection.
type Message struct {
	ID             string    `json:"id,omitempty"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
}

// Location is a one-shot device position.
type Location struct {
	Latitude  float64
	Longitude float64
	Label     string // e.g. "Osaka, JP"; may be empty
}

// String renders the label or the coordinates.
func (l Location) String() string {
	if l.Label != "" {
		return l.Label
	}
	return formatCoords(l.Latitude, l.Longitude)
}
