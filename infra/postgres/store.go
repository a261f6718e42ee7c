// Package postgres is a DataStore that talks to the project database
// directly. It runs as the connecting role, so row level policies keyed on
// auth.uid() do not apply; use it for local stacks and trusted tooling.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/lib/pq"

	"github.com/CrestNiraj12/realinsta/app"
	"github.com/CrestNiraj12/realinsta/domain"
)

// Store implements app.DataStore over database/sql and lib/pq.
type Store struct {
	db     *sql.DB
	schema string
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	glog.Infof("connected to postgres")
	return &Store{db: db, schema: "public"}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ app.DataStore = (*Store)(nil)

func (s *Store) table(collection string) string {
	return pq.QuoteIdentifier(s.schema) + "." + pq.QuoteIdentifier(collection)
}

func (s *Store) Select(ctx context.Context, collection string, q app.Query, dest any) error {
	query, args, err := buildSelect(s.table(collection), q)
	if err != nil {
		return err
	}
	var raw []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		return mapError(fmt.Errorf("select %s", collection), err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("parsing %s rows: %w", collection, err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, collection string, record any, dest any) error {
	row, err := toRow(record)
	if err != nil {
		return err
	}
	query, args := buildInsert(s.table(collection), row)
	var raw []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		return mapError(fmt.Errorf("insert %s", collection), err)
	}
	if dest == nil {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func (s *Store) Update(ctx context.Context, collection string, patch map[string]any, filters []app.Filter) error {
	query, args, err := buildUpdate(s.table(collection), patch, filters)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return mapError(fmt.Errorf("update %s", collection), err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection string, filters []app.Filter) error {
	var b builder
	where, err := b.where(filters)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+s.table(collection)+where, b.args...); err != nil {
		return mapError(fmt.Errorf("delete %s", collection), err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context, collection string, filters []app.Filter) (int, error) {
	var b builder
	where, err := b.where(filters)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM "+s.table(collection)+where, b.args...).Scan(&n); err != nil {
		return 0, mapError(fmt.Errorf("count %s", collection), err)
	}
	return n, nil
}

// mapError turns driver errors into *domain.RemoteError so callers see the
// same codes as the REST backend.
func mapError(op error, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		re := &domain.RemoteError{Code: string(pqErr.Code), Message: pqErr.Message, Details: pqErr.Detail}
		if pqErr.Code == domain.CodeUniqueViolation {
			re.Status = 409
		}
		return fmt.Errorf("%v: %w", op, re)
	}
	return fmt.Errorf("%v: %w", op, err)
}

type builder struct {
	args []any
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *builder) where(filters []app.Filter) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		cond, err := b.condition(f)
		if err != nil {
			return "", err
		}
		parts = append(parts, cond)
	}
	return " WHERE " + strings.Join(parts, " AND "), nil
}

var comparisons = map[app.Op]string{
	app.OpEq:  "=",
	app.OpNeq: "<>",
	app.OpGt:  ">",
	app.OpGte: ">=",
	app.OpLt:  "<",
	app.OpLte: "<=",
}

func (b *builder) condition(f app.Filter) (string, error) {
	col := pq.QuoteIdentifier(f.Column)
	switch f.Op {
	case app.OpIn:
		values, ok := f.Value.([]string)
		if !ok {
			return "", fmt.Errorf("in filter on %s needs []string", f.Column)
		}
		return col + "::text = ANY(" + b.arg(pq.Array(values)) + ")", nil
	case app.OpIs:
		switch f.Value {
		case nil:
			return col + " IS NULL", nil
		case true:
			return col + " IS TRUE", nil
		case false:
			return col + " IS FALSE", nil
		}
		return "", fmt.Errorf("is filter on %s needs nil or bool", f.Column)
	case app.OpILike:
		return col + " ILIKE " + b.arg(f.Value), nil
	}
	if op, ok := comparisons[f.Op]; ok {
		return col + " " + op + " " + b.arg(f.Value), nil
	}
	return "", fmt.Errorf("unsupported operator %q", f.Op)
}

func buildSelect(table string, q app.Query) (string, []any, error) {
	var b builder
	cols := "*"
	if len(q.Columns) > 0 {
		quoted := make([]string, 0, len(q.Columns))
		for _, c := range q.Columns {
			quoted = append(quoted, pq.QuoteIdentifier(c))
		}
		cols = strings.Join(quoted, ", ")
	}
	where, err := b.where(q.Filters)
	if err != nil {
		return "", nil, err
	}
	inner := "SELECT " + cols + " FROM " + table + where
	if len(q.Order) > 0 {
		parts := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts = append(parts, pq.QuoteIdentifier(o.Column)+" "+dir)
		}
		inner += " ORDER BY " + strings.Join(parts, ", ")
	}
	if q.Range != nil {
		limit := max(q.Range.To-q.Range.From+1, 0)
		inner += " LIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(q.Range.From)
	}
	return "SELECT coalesce(json_agg(t), '[]'::json) FROM (" + inner + ") t", b.args, nil
}

func buildInsert(table string, row map[string]any) (string, []any) {
	var b builder
	cols := sortedKeys(row)
	if len(cols) == 0 {
		return "INSERT INTO " + table + " AS t DEFAULT VALUES RETURNING to_json(t.*)", nil
	}
	quoted := make([]string, 0, len(cols))
	params := make([]string, 0, len(cols))
	for _, c := range cols {
		quoted = append(quoted, pq.QuoteIdentifier(c))
		params = append(params, b.arg(sqlValue(row[c])))
	}
	query := "INSERT INTO " + table + " AS t (" + strings.Join(quoted, ", ") + ") VALUES (" +
		strings.Join(params, ", ") + ") RETURNING to_json(t.*)"
	return query, b.args
}

func buildUpdate(table string, patch map[string]any, filters []app.Filter) (string, []any, error) {
	if len(patch) == 0 {
		return "", nil, errors.New("update needs at least one column")
	}
	var b builder
	sets := make([]string, 0, len(patch))
	for _, c := range sortedKeys(patch) {
		sets = append(sets, pq.QuoteIdentifier(c)+" = "+b.arg(sqlValue(patch[c])))
	}
	where, err := b.where(filters)
	if err != nil {
		return "", nil, err
	}
	return "UPDATE " + table + " SET " + strings.Join(sets, ", ") + where, b.args, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// sqlValue passes scalars through and encodes nested values as JSON.
func sqlValue(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return string(data)
	}
	return v
}

func toRow(record any) (map[string]any, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	var row map[string]any
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("record must be an object: %w", err)
	}
	return row, nil
}
