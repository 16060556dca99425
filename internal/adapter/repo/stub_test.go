package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type execCall struct {
	query string
	args  []any
}

type stubExecutor struct {
	execs    []execCall
	execErr  error
	row      func(query string, args []any) pgx.Row
	rows     [][]any
	queryErr error
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.execs = append(s.execs, execCall{query: query, args: args})
	return pgconn.CommandTag{}, s.execErr
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.execs = append(s.execs, execCall{query: query, args: args})
	if s.row == nil {
		return stubRow{err: pgx.ErrNoRows}
	}
	return s.row(query, args)
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.execs = append(s.execs, execCall{query: query, args: args})
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return &stubRows{values: s.rows, pos: -1}, nil
}

type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type stubRows struct {
	values [][]any
	pos    int
	closed bool
}

func (r *stubRows) Close()                                       { r.closed = true }
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

func (r *stubRows) Values() ([]any, error) {
	return nil, errors.New("values not supported in test rows")
}

func (r *stubRows) Next() bool {
	r.pos++
	return r.pos < len(r.values)
}

func (r *stubRows) Scan(dest ...any) error {
	return assign(dest, r.values[r.pos])
}

// assign copies values into scan destinations by pointer type.
func assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, d := range dest {
		switch ptr := d.(type) {
		case *string:
			*ptr = values[i].(string)
		case *int:
			*ptr = values[i].(int)
		case *float64:
			*ptr = values[i].(float64)
		case **float64:
			if values[i] == nil {
				*ptr = nil
			} else {
				v := values[i].(float64)
				*ptr = &v
			}
		case *[]byte:
			*ptr = values[i].([]byte)
		default:
			if err := assignTime(d, values[i]); err != nil {
				return fmt.Errorf("scan: column %d: %w", i, err)
			}
		}
	}
	return nil
}
