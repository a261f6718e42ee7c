package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/infra/auth"
	"github.com/CrestNiraj12/realinsta/domain"
)

type handlerRoundTripper struct {
	h http.Handler
}

func (rt handlerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rec := newResponseRecorder()
	rt.h.ServeHTTP(rec, req)
	return rec.response(req), nil
}

type responseRecorder struct {
	header http.Header
	body   strings.Builder
	code   int
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{header: make(http.Header), code: http.StatusOK}
}

func (r *responseRecorder) Header() http.Header         { return r.header }
func (r *responseRecorder) Write(p []byte) (int, error) { return r.body.Write(p) }
func (r *responseRecorder) WriteHeader(statusCode int)  { r.code = statusCode }

func (r *responseRecorder) response(req *http.Request) *http.Response {
	return &http.Response{
		StatusCode: r.code,
		Header:     r.header.Clone(),
		Body:       io.NopCloser(strings.NewReader(r.body.String())),
		Request:    req,
	}
}

func newTestClient(h http.Handler) *Client {
	return &Client{
		baseURL:       "http://example.test",
		anonKey:       "anon",
		tokenProvider: auth.StaticToken("tok"),
		http:          &http.Client{Transport: handlerRoundTripper{h: h}},
	}
}

func TestEncodeQuery_PostgRESTOperators(t *testing.T) {
	q := app.Query{
		Columns: []string{"id", "post_id"},
		Filters: []app.Filter{
			app.In("post_id", []string{"a", `b,"c"`}),
			app.Eq("user_id", "u1"),
			{Column: "read", Op: app.OpIs, Value: false},
			{Column: "caption", Op: app.OpILike, Value: "%#ramen%"},
			{Column: "user_id", Op: app.OpNeq, Value: "me"},
		},
		Order: []app.Order{{Column: "created_at", Desc: true}, {Column: "id"}},
	}
	v, err := encodeQuery(q)
	assert.Equal(t, err, nil)
	assert.Equal(t, v.Get("select"), "id,post_id")
	assert.Equal(t, v.Get("post_id"), `in.("a","b,\"c\"")`)
	assert.Equal(t, v["user_id"], []string{"eq.u1", "neq.me"})
	assert.Equal(t, v.Get("read"), "is.false")
	assert.Equal(t, v.Get("caption"), "ilike.%#ramen%")
	assert.Equal(t, v.Get("order"), "created_at.desc,id.asc")
}

func TestEncodeFilter_RejectsBadValues(t *testing.T) {
	_, err := encodeFilter(app.Filter{Column: "x", Op: app.OpIn, Value: "nope"})
	assert.NotEqual(t, err, nil)
	_, err = encodeFilter(app.Filter{Column: "x", Op: app.OpIs, Value: "maybe"})
	assert.NotEqual(t, err, nil)
	_, err = encodeFilter(app.Filter{Column: "x", Op: "like"})
	assert.NotEqual(t, err, nil)
}

func TestStore_Select_SendsRangeAndHeaders(t *testing.T) {
	var gotQuery url.Values
	var gotRange, gotAPIKey, gotAuth string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/rest/v1/posts" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotQuery = r.URL.Query()
		gotRange = r.Header.Get("Range")
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": "p1", "user_id": "u1", "image_url": "https://img/1"}})
	})
	s := NewStore(newTestClient(h))

	var posts []domain.Post
	err := s.Select(context.Background(), app.Posts, app.Query{
		Filters: []app.Filter{app.Eq("user_id", "u1")},
		Order:   []app.Order{{Column: "created_at", Desc: true}},
		Range:   app.Page(2, 10),
	}, &posts)
	assert.Equal(t, err, nil)
	assert.Equal(t, len(posts), 1)
	assert.Equal(t, posts[0].ID, "p1")
	assert.Equal(t, gotRange, "20-29")
	assert.Equal(t, gotAPIKey, "anon")
	assert.Equal(t, gotAuth, "Bearer tok")
	assert.Equal(t, gotQuery.Get("select"), "*")
	assert.Equal(t, gotQuery.Get("user_id"), "eq.u1")
}

func TestStore_Insert_ReturnsRepresentation(t *testing.T) {
	var prefer string
	var body map[string]any
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		prefer = r.Header.Get("Prefer")
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[{"id":"c1","post_id":"p1","user_id":"u1","body":"hi","created_at":"2026-01-02T03:04:05Z"}]`)
	})
	s := NewStore(newTestClient(h))

	var c domain.Comment
	err := s.Insert(context.Background(), app.Comments, map[string]any{"post_id": "p1", "user_id": "u1", "body": "hi"}, &c)
	assert.Equal(t, err, nil)
	assert.Equal(t, prefer, "return=representation")
	assert.Equal(t, body["body"], "hi")
	assert.Equal(t, c.ID, "c1")
	assert.Equal(t, c.CreatedAt.Year(), 2026)

	err = s.Insert(context.Background(), app.Comments, map[string]any{"body": "x"}, nil)
	assert.Equal(t, err, nil)
	assert.Equal(t, prefer, "return=minimal")
}

func TestStore_Insert_ConflictIsRemoteError(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"code":"23505","message":"duplicate key value violates unique constraint \"likes_pkey\"","details":"Key exists.","hint":null}`)
	})
	s := NewStore(newTestClient(h))

	err := s.Insert(context.Background(), app.Likes, domain.Like{PostID: "p", UserID: "u"}, nil)
	assert.Equal(t, domain.IsConflict(err), true)
	var re *domain.RemoteError
	assert.Equal(t, errors.As(err, &re), true)
	assert.Equal(t, re.Code, domain.CodeUniqueViolation)
	assert.Equal(t, re.Details, "Key exists.")
}

func TestStore_Unauthorized(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"code":"PGRST301","message":"JWT expired"}`)
	})
	s := NewStore(newTestClient(h))
	var rows []domain.Profile
	err := s.Select(context.Background(), app.Profiles, app.Query{}, &rows)
	assert.Equal(t, errors.Is(err, domain.ErrUnauthorized), true)
}

func TestStore_UpdateDeleteCount(t *testing.T) {
	var calls []string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.RawQuery)
		switch r.Method {
		case http.MethodPatch:
			var patch map[string]any
			_ = json.NewDecoder(r.Body).Decode(&patch)
			if patch["read"] != true {
				t.Fatalf("unexpected patch: %v", patch)
			}
			w.WriteHeader(http.StatusNoContent)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodHead:
			if r.Header.Get("Prefer") != "count=exact" {
				t.Fatalf("missing count preference")
			}
			w.Header().Set("Content-Range", "0-0/42")
			w.WriteHeader(http.StatusPartialContent)
		}
	})
	s := NewStore(newTestClient(h))
	ctx := context.Background()
	filters := []app.Filter{app.Eq("user_id", "u1")}

	assert.Equal(t, s.Update(ctx, app.Notifications, map[string]any{"read": true}, filters), nil)
	assert.Equal(t, s.Delete(ctx, app.Likes, filters), nil)
	n, err := s.Count(ctx, app.Follows, filters)
	assert.Equal(t, err, nil)
	assert.Equal(t, n, 42)
	assert.Equal(t, len(calls), 3)
	assert.Equal(t, calls[0], "PATCH user_id=eq.u1")
}

func TestParseContentRange(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"0-9/120", 120, true},
		{"*/0", 0, true},
		{"0-9/*", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, err := parseContentRange(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Fatalf("parseContentRange(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestDecodeError_FallsBackToBody(t *testing.T) {
	err := decodeError(http.MethodGet, "/rest/v1/x", http.StatusBadGateway, []byte("upstream down"))
	if !strings.Contains(err.Error(), "GET /rest/v1/x returned 502") {
		t.Fatalf("expected method, path and status in error: %v", err)
	}
	err = decodeError(http.MethodPost, "/auth/v1/token", http.StatusBadRequest, []byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	var re *domain.RemoteError
	if !errors.As(err, &re) || re.Code != "invalid_grant" || re.Message != "Invalid login credentials" {
		t.Fatalf("unexpected auth error mapping: %#v", err)
	}
}

func TestStorage_UploadAndPublicURL(t *testing.T) {
	var gotPath, gotType, upsert string
	var gotBody []byte
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotType = r.Header.Get("Content-Type")
		upsert = r.Header.Get("X-Upsert")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, `{"Key":"posts/u1/a.png"}`)
	})
	st := NewStorage(newTestClient(h))
	err := st.Upload(context.Background(), "posts", "u1/a b.png", []byte("png"), "image/png")
	assert.Equal(t, err, nil)
	assert.Equal(t, gotPath, "/storage/v1/object/posts/u1/a%20b.png")
	assert.Equal(t, gotType, "image/png")
	assert.Equal(t, upsert, "false")
	assert.Equal(t, string(gotBody), "png")
	assert.Equal(t, st.PublicURL("posts", "u1/a.png"), "http://example.test/storage/v1/object/public/posts/u1/a.png")
}

func TestClient_AnonKeyWithoutTokenProvider(t *testing.T) {
	var gotAuth string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, "[]")
	})
	c := newTestClient(h)
	c.tokenProvider = nil
	var rows []domain.Profile
	assert.Equal(t, NewStore(c).Select(context.Background(), app.Profiles, app.Query{}, &rows), nil)
	assert.Equal(t, gotAuth, "Bearer anon")
}
