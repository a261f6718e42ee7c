package memory

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/domain"
)

// DemoUserID is the signed-in user in demo mode.
const DemoUserID = "00000000-0000-4000-8000-000000000001"

// DemoSession is the session demo mode runs with.
func DemoSession() app.Session {
	return app.Session{UserID: DemoUserID, Email: "you@example.com", DisplayName: "You"}
}

type demoUser struct {
	id, username, name, bio string
	hue                     color.RGBA
}

var demoUsers = []demoUser{
	{id: DemoUserID, username: "you", name: "You", bio: "Trying out realinsta", hue: color.RGBA{R: 0xFF, G: 0x66, B: 0x00, A: 0xFF}},
	{id: "00000000-0000-4000-8000-000000000002", username: "sakura.t", name: "Sakura", bio: "Film & ramen", hue: color.RGBA{R: 0xF5, G: 0xA9, B: 0xB8, A: 0xFF}},
	{id: "00000000-0000-4000-8000-000000000003", username: "kenji_walks", name: "Kenji", bio: "Street photography, Osaka", hue: color.RGBA{R: 0x7D, G: 0xC4, B: 0xE4, A: 0xFF}},
	{id: "00000000-0000-4000-8000-000000000004", username: "mika.cooks", name: "Mika", bio: "Home kitchen experiments", hue: color.RGBA{R: 0xA6, G: 0xDA, B: 0x95, A: 0xFF}},
	{id: "00000000-0000-4000-8000-000000000005", username: "hiro", name: "", bio: "", hue: color.RGBA{R: 0xC6, G: 0xA0, B: 0xF6, A: 0xFF}},
}

var demoCaptions = []string{
	"Morning light over the river #osaka #sunrise",
	"Made tonkotsu from scratch, 14 hours #ramen #food",
	"Rainy alley, neon everywhere #streetphotography",
	"First try at melon pan #baking #food",
	"Temple cats #cats",
	"Late train home #nightshots #osaka",
}

// Seed fills the store with a small social graph around DemoUserID.
func Seed(ctx context.Context, store *Store, storage *Storage) error {
	for _, u := range demoUsers {
		rec := map[string]any{"id": u.id, "username": u.username}
		if u.name != "" {
			rec["display_name"] = u.name
		}
		if u.bio != "" {
			rec["bio"] = u.bio
		}
		if err := store.Insert(ctx, app.Profiles, rec, nil); err != nil {
			return fmt.Errorf("seeding profile %s: %w", u.username, err)
		}
	}
	for _, u := range demoUsers[1:4] {
		if err := store.Insert(ctx, app.Follows, domain.Follow{FollowerID: DemoUserID, FollowingID: u.id}, nil); err != nil {
			return err
		}
	}
	if err := store.Insert(ctx, app.Follows, domain.Follow{FollowerID: demoUsers[1].id, FollowingID: DemoUserID}, nil); err != nil {
		return err
	}

	var postIDs []string
	for i, caption := range demoCaptions {
		author := demoUsers[1+i%(len(demoUsers)-1)]
		data, err := demoImage(author.hue, i)
		if err != nil {
			return err
		}
		objectPath := fmt.Sprintf("%s/demo-%d.png", author.id, i)
		if err := storage.Upload(ctx, domain.PostsBucket, objectPath, data, "image/png"); err != nil {
			return err
		}
		var p domain.Post
		rec := map[string]any{
			"user_id":   author.id,
			"image_url": storage.PublicURL(domain.PostsBucket, objectPath),
			"caption":   caption,
		}
		if err := store.Insert(ctx, app.Posts, rec, &p); err != nil {
			return fmt.Errorf("seeding post: %w", err)
		}
		postIDs = append(postIDs, p.ID)
	}

	comments := []struct {
		post int
		user int
		body string
	}{
		{0, 2, "That light!"},
		{0, 3, "Where is this?"},
		{1, 4, "Recipe please"},
		{2, 1, "Love the colours"},
	}
	for _, c := range comments {
		rec := map[string]any{"post_id": postIDs[c.post], "user_id": demoUsers[c.user].id, "body": c.body}
		if err := store.Insert(ctx, app.Comments, rec, nil); err != nil {
			return err
		}
	}
	for i, id := range postIDs {
		for _, u := range demoUsers[1 : 2+i%3] {
			if err := store.Insert(ctx, app.Likes, domain.Like{PostID: id, UserID: u.id}, nil); err != nil && !domain.IsConflict(err) {
				return err
			}
		}
	}

	var conv domain.Conversation
	if err := store.Insert(ctx, app.Conversations, map[string]any{}, &conv); err != nil {
		return err
	}
	for _, uid := range []string{DemoUserID, demoUsers[1].id} {
		if err := store.Insert(ctx, app.ConversationMembers, domain.ConversationMember{ConversationID: conv.ID, UserID: uid}, nil); err != nil {
			return err
		}
	}
	for _, body := range []string{"Are you coming to the photo walk?", "Saturday 10am at the station"} {
		m := domain.Message{ConversationID: conv.ID, SenderID: demoUsers[1].id, Body: body}
		if err := store.Insert(ctx, app.Messages, m, nil); err != nil {
			return err
		}
	}

	first := postIDs[0]
	notes := []domain.Notification{
		{UserID: DemoUserID, ActorID: demoUsers[1].id, Type: domain.NotifyFollow},
		{UserID: DemoUserID, ActorID: demoUsers[2].id, Type: domain.NotifyLike, PostID: &first},
	}
	for _, n := range notes {
		if err := store.Insert(ctx, app.Notifications, n, nil); err != nil {
			return err
		}
	}
	return nil
}

// demoImage draws a small diagonal gradient tinted by hue.
func demoImage(hue color.RGBA, variant int) ([]byte, error) {
	const w, h = 48, 48
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := float64((x+y+variant*7)%(w+h)) / float64(w+h)
			img.Set(x, y, color.RGBA{
				R: uint8(float64(hue.R) * (0.4 + 0.6*t)),
				G: uint8(float64(hue.G) * (1 - 0.5*t)),
				B: uint8(float64(hue.B) * (0.5 + 0.5*t)),
				A: 0xFF,
			})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding demo image: %w", err)
	}
	return buf.Bytes(), nil
}
