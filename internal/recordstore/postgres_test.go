package recordstore

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(db), mock
}

func TestBuildSelect(t *testing.T) {
	tests := []struct {
		name      string
		table     string
		filter    Filter
		opts      Options
		wantQuery string
		wantArgs  []interface{}
	}{
		{
			name:      "no filter",
			table:     "categories",
			wantQuery: `SELECT * FROM "categories"`,
			wantArgs:  []interface{}{},
		},
		{
			name:      "case-insensitive exact",
			table:     "items",
			filter:    Filter{EqFold("item_name", "Rice")},
			opts:      Options{Limit: 1},
			wantQuery: `SELECT * FROM "items" WHERE lower("item_name") = lower($1) LIMIT $2`,
			wantArgs:  []interface{}{"Rice", 1},
		},
		{
			name:      "contains escapes wildcards",
			table:     "items",
			filter:    Filter{Contains("item_name", "50%_off")},
			opts:      Options{Limit: 5},
			wantQuery: `SELECT * FROM "items" WHERE "item_name" ILIKE $1 LIMIT $2`,
			wantArgs:  []interface{}{`%50\%\_off%`, 5},
		},
		{
			name:   "eq with ordering",
			table:  "purchase_history",
			filter: Filter{Eq("item_id", "7")},
			opts: Options{
				OrderBy: []Order{{Column: "purchase_date", Desc: true}},
				Limit:   10,
			},
			wantQuery: `SELECT * FROM "purchase_history" WHERE "item_id" = $1 ORDER BY "purchase_date" DESC LIMIT $2`,
			wantArgs:  []interface{}{"7", 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := buildSelect(tt.table, tt.filter, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuildSelect_RejectsBadIdentifiers(t *testing.T) {
	_, _, err := buildSelect("items; drop table items", nil, Options{})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)

	_, _, err = buildSelect("items", Filter{Eq(`name"`, "x")}, Options{})
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestPostgres_FindOne(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "item_name", "current_stock", "storage_location"}).
		AddRow(int64(3), "Basmati Rice", []byte("12.50"), []byte("Shelf A"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "items" WHERE lower("item_name") = lower($1) LIMIT $2`)).
		WithArgs("basmati rice", 1).
		WillReturnRows(rows)

	rec, err := store.FindOne(context.Background(), "items", Filter{EqFold("item_name", "basmati rice")})
	require.NoError(t, err)
	assert.Equal(t, "3", rec.String("id"))
	assert.Equal(t, "Basmati Rice", rec.String("item_name"))
	assert.Equal(t, 12.5, rec.Float("current_stock"))
	assert.Equal(t, "Shelf A", rec.String("storage_location"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindOne_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "items"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.FindOne(context.Background(), "items", Filter{EqFold("item_name", "ghost")})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindMany_QueryError(t *testing.T) {
	store, mock := newMockStore(t)

	cause := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "items"`)).WillReturnError(cause)

	_, err := store.FindMany(context.Background(), "items", Filter{Contains("item_name", "rice")}, Options{Limit: 5})
	assert.ErrorIs(t, err, ErrQueryFailed)
	assert.ErrorIs(t, err, cause)
}

func TestPostgres_TextSearch(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "item_name"}).
		AddRow(int64(1), "Red Rice").
		AddRow(int64(2), "Rice Flour")
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM "items" WHERE to_tsvector('simple', "item_name") @@ to_tsquery('simple', $1) `+
			`ORDER BY ts_rank(to_tsvector('simple', "item_name"), to_tsquery('simple', $1)) DESC LIMIT $2`)).
		WithArgs("red:* | rice:*", 5).
		WillReturnRows(rows)

	recs, err := store.TextSearch(context.Background(), "items", "item_name", "red rice!", 5)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Red Rice", recs[0].String("item_name"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_TextSearch_EmptyQuery(t *testing.T) {
	store, mock := newMockStore(t)

	recs, err := store.TextSearch(context.Background(), "items", "item_name", " ?! ", 5)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_Time(t *testing.T) {
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want, Record{"d": want}.Time("d"))
	assert.Equal(t, want, Record{"d": "2024-03-01"}.Time("d"))
	assert.True(t, Record{"d": "yesterday"}.Time("d").IsZero())
}
