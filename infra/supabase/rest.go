package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/CrestNiraj12/realinsta/app"
)

// Store implements app.DataStore over PostgREST.
type Store struct {
	client *Client
}

// NewStore creates a PostgREST-backed data store.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

var _ app.DataStore = (*Store)(nil)

func restPath(collection string) string {
	return "/rest/v1/" + url.PathEscape(collection)
}

func (s *Store) Select(ctx context.Context, collection string, q app.Query, dest any) error {
	query, err := encodeQuery(q)
	if err != nil {
		return err
	}
	header := http.Header{}
	if q.Range != nil {
		header.Set("Range-Unit", "items")
		header.Set("Range", fmt.Sprintf("%d-%d", q.Range.From, q.Range.To))
	}
	resp, err := s.client.do(ctx, request{method: http.MethodGet, path: restPath(collection), query: query, header: header})
	if err != nil {
		return fmt.Errorf("select %s: %w", collection, err)
	}
	if err := json.Unmarshal(resp.data, dest); err != nil {
		return fmt.Errorf("parsing %s rows: %w", collection, err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, collection string, record any, dest any) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding %s record: %w", collection, err)
	}
	header := http.Header{}
	if dest != nil {
		header.Set("Prefer", "return=representation")
	} else {
		header.Set("Prefer", "return=minimal")
	}
	resp, err := s.client.do(ctx, request{method: http.MethodPost, path: restPath(collection), header: header, body: bytes.NewReader(body)})
	if err != nil {
		return fmt.Errorf("insert %s: %w", collection, err)
	}
	if dest == nil {
		return nil
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(resp.data, &rows); err != nil {
		return fmt.Errorf("parsing inserted %s: %w", collection, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("insert %s returned no row", collection)
	}
	return json.Unmarshal(rows[0], dest)
}

func (s *Store) Update(ctx context.Context, collection string, patch map[string]any, filters []app.Filter) error {
	query, err := encodeFilters(filters)
	if err != nil {
		return err
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encoding %s patch: %w", collection, err)
	}
	header := http.Header{"Prefer": {"return=minimal"}}
	if _, err := s.client.do(ctx, request{method: http.MethodPatch, path: restPath(collection), query: query, header: header, body: bytes.NewReader(body)}); err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection string, filters []app.Filter) error {
	query, err := encodeFilters(filters)
	if err != nil {
		return err
	}
	if _, err := s.client.do(ctx, request{method: http.MethodDelete, path: restPath(collection), query: query}); err != nil {
		return fmt.Errorf("delete %s: %w", collection, err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context, collection string, filters []app.Filter) (int, error) {
	query, err := encodeFilters(filters)
	if err != nil {
		return 0, err
	}
	query.Set("select", "*")
	header := http.Header{
		"Prefer":     {"count=exact"},
		"Range-Unit": {"items"},
		"Range":      {"0-0"},
	}
	resp, err := s.client.do(ctx, request{method: http.MethodHead, path: restPath(collection), query: query, header: header})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return parseContentRange(resp.header.Get("Content-Range"))
}

// parseContentRange reads the total from "0-9/42" or "*/0".
func parseContentRange(v string) (int, error) {
	_, total, ok := strings.Cut(v, "/")
	if !ok {
		return 0, fmt.Errorf("missing count in Content-Range %q", v)
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("invalid count in Content-Range %q", v)
	}
	return n, nil
}

func encodeQuery(q app.Query) (url.Values, error) {
	v, err := encodeFilters(q.Filters)
	if err != nil {
		return nil, err
	}
	if len(q.Columns) > 0 {
		v.Set("select", strings.Join(q.Columns, ","))
	} else {
		v.Set("select", "*")
	}
	if len(q.Order) > 0 {
		parts := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			parts = append(parts, o.Column+"."+dir)
		}
		v.Set("order", strings.Join(parts, ","))
	}
	return v, nil
}

func encodeFilters(filters []app.Filter) (url.Values, error) {
	v := url.Values{}
	for _, f := range filters {
		expr, err := encodeFilter(f)
		if err != nil {
			return nil, err
		}
		v.Add(f.Column, expr)
	}
	return v, nil
}

func encodeFilter(f app.Filter) (string, error) {
	switch f.Op {
	case app.OpIn:
		values, ok := f.Value.([]string)
		if !ok {
			return "", fmt.Errorf("in filter on %s needs []string", f.Column)
		}
		quoted := make([]string, 0, len(values))
		for _, s := range values {
			quoted = append(quoted, quoteListValue(s))
		}
		return "in.(" + strings.Join(quoted, ",") + ")", nil
	case app.OpIs:
		switch f.Value {
		case nil:
			return "is.null", nil
		case true:
			return "is.true", nil
		case false:
			return "is.false", nil
		}
		return "", fmt.Errorf("is filter on %s needs nil or bool", f.Column)
	case app.OpEq, app.OpNeq, app.OpGt, app.OpGte, app.OpLt, app.OpLte, app.OpILike:
		return string(f.Op) + "." + scalar(f.Value), nil
	}
	return "", fmt.Errorf("unsupported operator %q", f.Op)
}

func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case *time.Time:
		if x == nil {
			return "null"
		}
		return x.UTC().Format(time.RFC3339Nano)
	case nil:
		return "null"
	}
	return fmt.Sprint(v)
}

// quoteListValue wraps an in() member in double quotes, escaping quotes and
// backslashes so commas and parentheses survive.
func quoteListValue(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
