package sqllog

import (
	"context"
	"database/sql/driver"
)

// Stmt wraps prepared statement of an underlying driver. The SQL text is
// fixed at creation, arguments are bound on every call. Successful Exec, Query,
// ExecContext and QueryContext calls are timed and reported to StmtLogger,
// everything else is passed to the wrapped statement as is.
//
// Stmt is not safe for concurrent use. database/sql never uses a statement
// from more than one goroutine at a time.
type Stmt struct {
	stmt driver.Stmt

	// conn holds the connection the statement was prepared on. It's nil
	// if Stmt was created by NewStmt.
	conn driver.Conn

	logger StmtLogger

	// text holds SQL statement text.
	text string
}

var (
	_ driver.Stmt              = (*Stmt)(nil)
	_ driver.StmtExecContext   = (*Stmt)(nil)
	_ driver.StmtQueryContext  = (*Stmt)(nil)
	_ driver.NamedValueChecker = (*Stmt)(nil)
)

// NewStmt wraps s prepared for query.
func NewStmt(s driver.Stmt, query string, l StmtLogger) *Stmt {
	return newStmt(s, nil, query, l)
}

func newStmt(s driver.Stmt, conn driver.Conn, query string, l StmtLogger) *Stmt {
	l = stmtLoggerOrNop(l)
	l.Created(query)
	return &Stmt{stmt: s, conn: conn, logger: l, text: query}
}

// SQL returns statement text.
func (s *Stmt) SQL() string {
	return s.text
}

// Unwrap returns the wrapped statement.
func (s *Stmt) Unwrap() driver.Stmt {
	return s.stmt
}

func (s *Stmt) Close() error {
	return s.stmt.Close()
}

func (s *Stmt) NumInput() int {
	return s.stmt.NumInput()
}

// Exec executes statement with positional arguments args.
//
// Deprecated: Drivers should implement StmtExecContext instead (or additionally).
func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	return timed(s.logger, OpExec, s.text, func() (driver.Result, error) {
		return s.stmt.Exec(args) //nolint:staticcheck
	})
}

// Query executes statement with positional arguments args.
//
// Deprecated: Drivers should implement StmtQueryContext instead (or additionally).
func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	return timed(s.logger, OpQuery, s.text, func() (driver.Rows, error) {
		return s.stmt.Query(args) //nolint:staticcheck
	})
}

func (s *Stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	return timed(s.logger, OpExecContext, s.text, func() (driver.Result, error) {
		if sec, ok := s.stmt.(driver.StmtExecContext); ok {
			return sec.ExecContext(ctx, args)
		}

		dargs, err := namedValueToValue(args)
		if err != nil {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		return s.stmt.Exec(dargs) //nolint:staticcheck
	})
}

func (s *Stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	return timed(s.logger, OpQueryContext, s.text, func() (driver.Rows, error) {
		if sqc, ok := s.stmt.(driver.StmtQueryContext); ok {
			return sqc.QueryContext(ctx, args)
		}

		dargs, err := namedValueToValue(args)
		if err != nil {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		return s.stmt.Query(dargs) //nolint:staticcheck
	})
}

// CheckNamedValue picks the checker the same way database/sql does for
// the wrapped statement: the statement's checker, the connection's checker,
// the statement's column converter. driver.ErrSkip falls back to default
// conversion.
func (s *Stmt) CheckNamedValue(nv *driver.NamedValue) error {
	nvc, ok := s.stmt.(driver.NamedValueChecker)
	if !ok {
		nvc, ok = s.conn.(driver.NamedValueChecker)
	}
	cc, hasCC := s.stmt.(driver.ColumnConverter) //nolint:staticcheck

	if ok {
		err := nvc.CheckNamedValue(nv)
		if err != driver.ErrSkip || !hasCC {
			return err
		}
	}

	if hasCC {
		return convertColumn(cc, s.stmt.NumInput(), nv)
	}

	return driver.ErrSkip
}
