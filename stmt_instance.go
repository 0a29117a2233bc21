package sqllog

import (
	"strconv"
	"time"
)

// Operation tags. A tag tells which method produced a record, methods
// taking the SQL text as an argument are marked with "(string)".
const (
	OpExec         = "exec"
	OpQuery        = "query"
	OpExecContext  = "execContext"
	OpQueryContext = "queryContext"

	OpExecText         = "exec(string)"
	OpQueryText        = "query(string)"
	OpExecContextText  = "execContext(string)"
	OpQueryContextText = "queryContext(string)"
)

// StmtInstance describes a single successful execution of SQL command.
type StmtInstance struct {
	// Op holds operation tag, one of Op* constants.
	Op string

	// SQL holds command text known to the wrapper at the moment of execution.
	SQL string

	// At holds time when the command was sent to the driver.
	At time.Time

	// RespondedIn holds duration between At and the moment the driver returned.
	RespondedIn time.Duration
}

// String returns the record in form "[12 ms] exec [DELETE FROM t]".
func (si *StmtInstance) String() string {
	return "[" + strconv.FormatInt(si.RespondedIn.Milliseconds(), 10) + " ms] " + si.Op + " [" + si.SQL + "]"
}

// timed calls f and reports it to l if f succeeded. The result and the error
// of f are returned as is.
func timed[T any](l StmtLogger, op, sql string, f func() (T, error)) (T, error) {
	at := time.Now()
	res, err := f()
	if err != nil {
		return res, err
	}

	l.Executed(&StmtInstance{Op: op, SQL: sql, At: at, RespondedIn: time.Since(at)})
	return res, nil
}
