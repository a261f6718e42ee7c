package app

import "context"

// Op is a filter operator understood by every DataStore.
type Op string

const (
	OpEq    Op = "eq"
	OpNeq   Op = "neq"
	OpGt    Op = "gt"
	OpGte   Op = "gte"
	OpLt    Op = "lt"
	OpLte   Op = "lte"
	OpIn    Op = "in"
	OpILike Op = "ilike"
	OpIs    Op = "is" // Value must be nil, true or false.
)

// Filter restricts a query to rows where Column Op Value.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Eq is shorthand for an equality filter.
func Eq(column string, value any) Filter { return Filter{Column: column, Op: OpEq, Value: value} }

// In is shorthand for a membership filter.
func In(column string, values []string) Filter {
	return Filter{Column: column, Op: OpIn, Value: values}
}

// Order sorts results by Column.
type Order struct {
	Column string
	Desc   bool
}

// Range selects rows From..To inclusive (zero-based), like PostgREST's Range header.
type Range struct {
	From int
	To   int
}

// Page returns the range for zero-based page n of size k.
func Page(n, k int) *Range {
	return &Range{From: n * k, To: n*k + k - 1}
}

// Limit returns the first n rows.
func Limit(n int) *Range {
	return &Range{From: 0, To: n - 1}
}

// Query describes a select.
type Query struct {
	Columns []string // empty means all
	Filters []Filter
	Order   []Order
	Range   *Range
}

// DataStore is the data access facade over the remote collections.
// Select and Insert decode rows into dest, which must be a pointer to a slice
// of structs (Select) or a pointer to a struct (Insert; nil skips decoding).
// Errors from the backend are *domain.RemoteError.
type DataStore interface {
	Select(ctx context.Context, collection string, q Query, dest any) error
	Insert(ctx context.Context, collection string, record any, dest any) error
	Update(ctx context.Context, collection string, patch map[string]any, filters []Filter) error
	Delete(ctx context.Context, collection string, filters []Filter) error
	Count(ctx context.Context, collection string, filters []Filter) (int, error)
}
