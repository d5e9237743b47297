// Package recordstore is a small query surface over the business database:
// find one record, find many records, and full-text search, addressed by
// table name and filter.
package recordstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	ErrNotFound          = errors.New("RECORD_NOT_FOUND")
	ErrQueryFailed       = errors.New("QUERY_EXECUTION_FAILED")
	ErrSearchFailed      = errors.New("SEARCH_QUERY_FAILED")
	ErrIndexNotFound     = errors.New("INDEX_NOT_FOUND")
	ErrInvalidIdentifier = errors.New("INVALID_IDENTIFIER")
)

// Record is a row keyed by column name.
type Record map[string]interface{}

// String returns the column as text; numbers are formatted, nil is "".
func (r Record) String(column string) string {
	switch v := r[column].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Float returns the column as a number. Postgres numerics arrive as text.
func (r Record) Float(column string) float64 {
	switch v := r[column].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	case []byte:
		f, _ := strconv.ParseFloat(string(v), 64)
		return f
	}
	return 0
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"}

// Time returns the column as a time; unparseable values yield the zero time.
func (r Record) Time(column string) time.Time {
	switch v := r[column].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// Op is a comparison operator in a filter condition.
type Op string

const (
	OpEq       Op = "eq"
	OpEqFold   Op = "eq_fold"  // case-insensitive exact match
	OpContains Op = "contains" // case-insensitive substring
)

type Condition struct {
	Column string
	Op     Op
	Value  interface{}
}

// Filter is a conjunction of conditions.
type Filter []Condition

func Eq(column string, value interface{}) Condition {
	return Condition{Column: column, Op: OpEq, Value: value}
}

func EqFold(column, value string) Condition {
	return Condition{Column: column, Op: OpEqFold, Value: value}
}

func Contains(column, value string) Condition {
	return Condition{Column: column, Op: OpContains, Value: value}
}

type Order struct {
	Column string
	Desc   bool
}

type Options struct {
	OrderBy []Order
	Limit   int
}

// Finder answers exact and substring queries.
type Finder interface {
	FindOne(ctx context.Context, table string, filter Filter) (Record, error)
	FindMany(ctx context.Context, table string, filter Filter, opts Options) ([]Record, error)
}

// Searcher answers full-text queries over a single column.
type Searcher interface {
	TextSearch(ctx context.Context, table, column, query string, limit int) ([]Record, error)
}

// Store combines a Finder with a Searcher, which may live on different
// backends (postgres finder, elasticsearch searcher).
type Store struct {
	Finder
	Searcher
}

func New(finder Finder, searcher Searcher) *Store {
	return &Store{Finder: finder, Searcher: searcher}
}
