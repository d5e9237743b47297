package recordstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/lib/pq"
)

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func quoteIdent(name string) (string, error) {
	if !identifierPattern.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return pq.QuoteIdentifier(name), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Postgres implements Finder and Searcher over database/sql with lib/pq.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) FindOne(ctx context.Context, table string, filter Filter) (Record, error) {
	records, err := p.FindMany(ctx, table, filter, Options{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, table)
	}
	return records[0], nil
}

func (p *Postgres) FindMany(ctx context.Context, table string, filter Filter, opts Options) ([]Record, error) {
	query, args, err := buildSelect(table, filter, opts)
	if err != nil {
		return nil, err
	}
	return p.query(ctx, table, query, args)
}

// TextSearch matches any word of query as a prefix, ranked by ts_rank.
func (p *Postgres) TextSearch(ctx context.Context, table, column, query string, limit int) ([]Record, error) {
	tsQuery := prefixTSQuery(query)
	if tsQuery == "" {
		return nil, nil
	}

	tbl, err := quoteIdent(table)
	if err != nil {
		return nil, err
	}
	col, err := quoteIdent(column)
	if err != nil {
		return nil, err
	}

	vector := fmt.Sprintf("to_tsvector('simple', %s)", col)
	sqlText := fmt.Sprintf(
		"SELECT * FROM %s WHERE %s @@ to_tsquery('simple', $1) ORDER BY ts_rank(%s, to_tsquery('simple', $1)) DESC",
		tbl, vector, vector,
	)
	args := []interface{}{tsQuery}
	if limit > 0 {
		sqlText += " LIMIT $2"
		args = append(args, limit)
	}

	return p.query(ctx, table, sqlText, args)
}

func (p *Postgres) query(ctx context.Context, table, query string, args []interface{}) ([]Record, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrQueryFailed, table, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrQueryFailed, table, err)
	}
	return records, nil
}

func buildSelect(table string, filter Filter, opts Options) (string, []interface{}, error) {
	tbl, err := quoteIdent(table)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(tbl)

	args := make([]interface{}, 0, len(filter)+1)
	where := make([]string, 0, len(filter))
	for _, c := range filter {
		col, err := quoteIdent(c.Column)
		if err != nil {
			return "", nil, err
		}
		placeholder := "$" + strconv.Itoa(len(args)+1)

		switch c.Op {
		case OpEq:
			where = append(where, col+" = "+placeholder)
			args = append(args, c.Value)
		case OpEqFold:
			where = append(where, "lower("+col+") = lower("+placeholder+")")
			args = append(args, c.Value)
		case OpContains:
			where = append(where, col+" ILIKE "+placeholder)
			args = append(args, "%"+likeEscaper.Replace(fmt.Sprint(c.Value))+"%")
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", c.Op)
		}
	}
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}

	if len(opts.OrderBy) > 0 {
		orders := make([]string, 0, len(opts.OrderBy))
		for _, o := range opts.OrderBy {
			col, err := quoteIdent(o.Column)
			if err != nil {
				return "", nil, err
			}
			if o.Desc {
				col += " DESC"
			}
			orders = append(orders, col)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(orders, ", "))
	}

	if opts.Limit > 0 {
		b.WriteString(" LIMIT $" + strconv.Itoa(len(args)+1))
		args = append(args, opts.Limit)
	}

	return b.String(), args, nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []Record
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(Record, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
				continue
			}
			rec[col] = values[i]
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// prefixTSQuery turns free text into "w1:* | w2:*". Only letters and digits
// survive, so the result is always valid to_tsquery input.
func prefixTSQuery(text string) string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return ""
	}
	terms := make([]string, len(words))
	for i, w := range words {
		terms[i] = w + ":*"
	}
	return strings.Join(terms, " | ")
}
