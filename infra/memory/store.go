// Package memory is an in-process backend: data store, object storage,
// realtime and auth. It backs demo mode and the package tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/domain"
)

type row = map[string]any

// Store implements app.DataStore over maps.
type Store struct {
	mu     sync.Mutex
	tables map[string][]row
	unique map[string][][]string
	now    func() time.Time
	lastTS time.Time
	hub    *Hub

	// Calls counts every DataStore call, for tests.
	Calls int
}

// NewStore creates an empty store with the backend's unique constraints.
func NewStore() *Store {
	return &Store{
		tables: make(map[string][]row),
		unique: map[string][][]string{
			app.Profiles:            {{"id"}, {"username"}},
			app.Posts:               {{"id"}},
			app.Comments:            {{"id"}},
			app.Likes:               {{"post_id", "user_id"}},
			app.Follows:             {{"follower_id", "following_id"}},
			app.Conversations:       {{"id"}},
			app.ConversationMembers: {{"conversation_id", "user_id"}},
			app.Messages:            {{"id"}},
			app.Notifications:       {{"id"}},
		},
		now: time.Now,
		hub: NewHub(),
	}
}

// Hub returns the realtime hub fed by this store's writes.
func (s *Store) Hub() *Hub { return s.hub }

// SetClock replaces the time source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Rows returns a copy of a collection, for tests.
func (s *Store) Rows(collection string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.tables[collection]))
	for _, r := range s.tables[collection] {
		out = append(out, clone(r))
	}
	return out
}

func (s *Store) Select(_ context.Context, collection string, q app.Query, dest any) error {
	s.mu.Lock()
	s.Calls++
	matched, err := s.match(collection, q.Filters)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	for i := len(q.Order) - 1; i >= 0; i-- {
		o := q.Order[i]
		slices.SortStableFunc(matched, func(a, b row) int {
			c := compare(a[o.Column], b[o.Column])
			if o.Desc {
				return -c
			}
			return c
		})
	}
	if q.Range != nil {
		from, to := q.Range.From, q.Range.To+1
		if from > len(matched) {
			from = len(matched)
		}
		if to > len(matched) {
			to = len(matched)
		}
		if to < from {
			to = from
		}
		matched = matched[from:to]
	}
	out := make([]row, 0, len(matched))
	for _, r := range matched {
		out = append(out, project(r, q.Columns))
	}
	s.mu.Unlock()
	return decode(out, dest)
}

func (s *Store) Insert(_ context.Context, collection string, record any, dest any) error {
	r, err := toRow(record)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.Calls++
	if id, _ := r["id"].(string); id == "" && collection != app.ConversationMembers && collection != app.Follows {
		r["id"] = uuid.NewString()
	}
	if _, ok := r["created_at"]; !ok && collection != app.ConversationMembers {
		r["created_at"] = s.stamp()
	}
	if collection == app.Conversations {
		if _, ok := r["updated_at"]; !ok {
			r["updated_at"] = r["created_at"]
		}
	}
	if collection == app.Notifications {
		if _, ok := r["read"]; !ok {
			r["read"] = false
		}
	}
	if err := s.checkUnique(collection, r, -1); err != nil {
		s.mu.Unlock()
		return err
	}
	s.tables[collection] = append(s.tables[collection], r)
	snapshot := clone(r)
	s.mu.Unlock()

	s.hub.publish(collection, app.ChangeInsert, snapshot)
	if dest == nil {
		return nil
	}
	return decode(snapshot, dest)
}

func (s *Store) Update(_ context.Context, collection string, patch map[string]any, filters []app.Filter) error {
	p, err := toRow(patch)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.Calls++
	var changed []row
	for i, r := range s.tables[collection] {
		ok, err := matches(r, filters)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		if !ok {
			continue
		}
		next := clone(r)
		for k, v := range p {
			next[k] = v
		}
		if err := s.checkUnique(collection, next, i); err != nil {
			s.mu.Unlock()
			return err
		}
		s.tables[collection][i] = next
		changed = append(changed, clone(next))
	}
	s.mu.Unlock()
	for _, r := range changed {
		s.hub.publish(collection, app.ChangeUpdate, r)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, collection string, filters []app.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	kept := s.tables[collection][:0:0]
	for _, r := range s.tables[collection] {
		ok, err := matches(r, filters)
		if err != nil {
			return err
		}
		if !ok {
			kept = append(kept, r)
		}
	}
	s.tables[collection] = kept
	return nil
}

func (s *Store) Count(_ context.Context, collection string, filters []app.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	matched, err := s.match(collection, filters)
	return len(matched), err
}

// stamp returns a strictly increasing creation time.
func (s *Store) stamp() string {
	t := s.now().UTC()
	if !t.After(s.lastTS) {
		t = s.lastTS.Add(time.Microsecond)
	}
	s.lastTS = t
	return t.Format(time.RFC3339Nano)
}

func (s *Store) match(collection string, filters []app.Filter) ([]row, error) {
	var out []row
	for _, r := range s.tables[collection] {
		ok, err := matches(r, filters)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) checkUnique(collection string, r row, skip int) error {
	for _, cols := range s.unique[collection] {
		for i, other := range s.tables[collection] {
			if i == skip {
				continue
			}
			same := true
			for _, c := range cols {
				if r[c] == nil || fmt.Sprint(r[c]) != fmt.Sprint(other[c]) {
					same = false
					break
				}
			}
			if same {
				return &domain.RemoteError{
					Status:  409,
					Code:    domain.CodeUniqueViolation,
					Message: fmt.Sprintf("duplicate key value violates unique constraint on %s(%s)", collection, strings.Join(cols, ", ")),
				}
			}
		}
	}
	return nil
}

func matches(r row, filters []app.Filter) (bool, error) {
	for _, f := range filters {
		ok, err := matchOne(r[f.Column], f)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchOne(v any, f app.Filter) (bool, error) {
	switch f.Op {
	case app.OpIs:
		if f.Value == nil {
			return v == nil, nil
		}
		b, ok := f.Value.(bool)
		if !ok {
			return false, fmt.Errorf("is filter on %s needs nil or bool", f.Column)
		}
		vb, _ := v.(bool)
		return v != nil && vb == b, nil
	case app.OpIn:
		values, ok := f.Value.([]string)
		if !ok {
			return false, fmt.Errorf("in filter on %s needs []string", f.Column)
		}
		return slices.Contains(values, fmt.Sprint(v)), nil
	case app.OpILike:
		pattern, _ := f.Value.(string)
		s, ok := v.(string)
		if !ok {
			return false, nil
		}
		return likeRegexp(pattern).MatchString(s), nil
	}

	want, err := normalize(f.Value)
	if err != nil {
		return false, err
	}
	if v == nil {
		return f.Op == app.OpNeq && want != nil, nil
	}
	c := compare(v, want)
	switch f.Op {
	case app.OpEq:
		return c == 0, nil
	case app.OpNeq:
		return c != 0, nil
	case app.OpGt:
		return c > 0, nil
	case app.OpGte:
		return c >= 0, nil
	case app.OpLt:
		return c < 0, nil
	case app.OpLte:
		return c <= 0, nil
	}
	return false, fmt.Errorf("unsupported operator %q", f.Op)
}

func likeRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("(?is)^")
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString(".*")
		case r == '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

// compare orders JSON scalars; RFC 3339 strings compare as times.
func compare(a, b any) int {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case string:
		if bv, ok := b.(string); ok {
			at, aerr := time.Parse(time.RFC3339Nano, av)
			bt, berr := time.Parse(time.RFC3339Nano, bv)
			if aerr == nil && berr == nil {
				return at.Compare(bt)
			}
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			}
			return 1
		}
	case nil:
		if b == nil {
			return 0
		}
		return -1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func project(r row, columns []string) row {
	if len(columns) == 0 {
		return clone(r)
	}
	out := make(row, len(columns))
	for _, c := range columns {
		if v, ok := r[c]; ok {
			out[c] = v
		}
	}
	return out
}

func clone(r row) row {
	out := make(row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func toRow(v any) (row, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	var r row
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("record must be an object: %w", err)
	}
	if r == nil {
		r = row{}
	}
	return r, nil
}

func decode(v any, dest any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decoding rows: %w", err)
	}
	return nil
}
