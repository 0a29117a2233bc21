package sqllog

import (
	"context"
	"database/sql/driver"
)

// Conn wraps connection of an underlying driver. The SQL text comes with
// every Exec, Query, ExecContext and QueryContext call, these calls are
// timed and reported to StmtLogger when they succeed. Statements prepared
// on Conn are wrapped by Stmt.
//
// Conn is not safe for concurrent use, same as any driver.Conn.
type Conn struct {
	conn   driver.Conn
	logger StmtLogger

	// text holds SQL text of the last executed or prepared command.
	text string
}

var (
	_ driver.Conn               = (*Conn)(nil)
	_ driver.ConnPrepareContext = (*Conn)(nil)
	_ driver.ConnBeginTx        = (*Conn)(nil)
	_ driver.ExecerContext      = (*Conn)(nil)
	_ driver.QueryerContext     = (*Conn)(nil)
	_ driver.Execer             = (*Conn)(nil) //nolint:staticcheck
	_ driver.Queryer            = (*Conn)(nil) //nolint:staticcheck
	_ driver.Pinger             = (*Conn)(nil)
	_ driver.SessionResetter    = (*Conn)(nil)
	_ driver.Validator          = (*Conn)(nil)
	_ driver.NamedValueChecker  = (*Conn)(nil)
)

// NewConn wraps c.
func NewConn(c driver.Conn, l StmtLogger) *Conn {
	l = stmtLoggerOrNop(l)
	l.Created("")
	return &Conn{conn: c, logger: l}
}

// SQL returns SQL text of the last executed or prepared command.
// It returns empty string if there were no such calls.
func (c *Conn) SQL() string {
	return c.text
}

// Unwrap returns the wrapped connection.
func (c *Conn) Unwrap() driver.Conn {
	return c.conn
}

func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	c.text = query
	s, err := c.conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	return newStmt(s, c.conn, query, c.logger), nil
}

func (c *Conn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	c.text = query

	var (
		s   driver.Stmt
		err error
	)

	if cpc, ok := c.conn.(driver.ConnPrepareContext); ok {
		s, err = cpc.PrepareContext(ctx, query)
	} else {
		if s, err = c.conn.Prepare(query); err == nil {
			select {
			case <-ctx.Done():
				s.Close()
				return nil, ctx.Err()
			default:
			}
		}
	}

	if err != nil {
		return nil, err
	}
	return newStmt(s, c.conn, query, c.logger), nil
}

func (c *Conn) Close() error {
	return c.conn.Close()
}

// Begin starts a transaction.
//
// Deprecated: Drivers should implement ConnBeginTx instead (or additionally).
func (c *Conn) Begin() (driver.Tx, error) {
	return c.conn.Begin() //nolint:staticcheck
}

func (c *Conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if cbt, ok := c.conn.(driver.ConnBeginTx); ok {
		return cbt.BeginTx(ctx, opts)
	}

	if opts.Isolation != 0 {
		return nil, ErrIsolationLevel
	}
	if opts.ReadOnly {
		return nil, ErrReadOnly
	}

	tx, err := c.conn.Begin() //nolint:staticcheck
	if err == nil {
		select {
		case <-ctx.Done():
			tx.Rollback()
			return nil, ctx.Err()
		default:
		}
	}
	return tx, err
}

// Exec executes query without preparing it. It returns driver.ErrSkip if
// the wrapped connection can't do that.
//
// Deprecated: Drivers should implement ExecerContext instead.
func (c *Conn) Exec(query string, args []driver.Value) (driver.Result, error) {
	c.text = query
	return timed(c.logger, OpExecText, query, func() (driver.Result, error) {
		if e, ok := c.conn.(driver.Execer); ok { //nolint:staticcheck
			return e.Exec(query, args)
		}
		return nil, driver.ErrSkip
	})
}

// Query executes query without preparing it. It returns driver.ErrSkip if
// the wrapped connection can't do that.
//
// Deprecated: Drivers should implement QueryerContext instead.
func (c *Conn) Query(query string, args []driver.Value) (driver.Rows, error) {
	c.text = query
	return timed(c.logger, OpQueryText, query, func() (driver.Rows, error) {
		if q, ok := c.conn.(driver.Queryer); ok { //nolint:staticcheck
			return q.Query(query, args)
		}
		return nil, driver.ErrSkip
	})
}

// ExecContext executes query without preparing it. If the wrapped
// connection can't do that driver.ErrSkip is returned and database/sql
// prepares the query through PrepareContext.
func (c *Conn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.text = query
	return timed(c.logger, OpExecContextText, query, func() (driver.Result, error) {
		if ec, ok := c.conn.(driver.ExecerContext); ok {
			return ec.ExecContext(ctx, query, args)
		}

		e, ok := c.conn.(driver.Execer) //nolint:staticcheck
		if !ok {
			return nil, driver.ErrSkip
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
		return e.Exec(query, dargs)
	})
}

// QueryContext executes query without preparing it. If the wrapped
// connection can't do that driver.ErrSkip is returned and database/sql
// prepares the query through PrepareContext.
func (c *Conn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.text = query
	return timed(c.logger, OpQueryContextText, query, func() (driver.Rows, error) {
		if qc, ok := c.conn.(driver.QueryerContext); ok {
			return qc.QueryContext(ctx, query, args)
		}

		q, ok := c.conn.(driver.Queryer) //nolint:staticcheck
		if !ok {
			return nil, driver.ErrSkip
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
		return q.Query(query, dargs)
	})
}

func (c *Conn) Ping(ctx context.Context) error {
	if p, ok := c.conn.(driver.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *Conn) ResetSession(ctx context.Context) error {
	if sr, ok := c.conn.(driver.SessionResetter); ok {
		return sr.ResetSession(ctx)
	}
	return nil
}

func (c *Conn) IsValid() bool {
	if v, ok := c.conn.(driver.Validator); ok {
		return v.IsValid()
	}
	return true
}

func (c *Conn) CheckNamedValue(nv *driver.NamedValue) error {
	if nvc, ok := c.conn.(driver.NamedValueChecker); ok {
		return nvc.CheckNamedValue(nv)
	}
	return driver.ErrSkip
}
