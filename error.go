package sqllog

import (
	"database/sql/driver"
	"fmt"
	"reflect"

	"github.com/axkit/errors"
	"github.com/lib/pq"
)

// Errors returned instead of the wrapped driver when it lacks an optional
// interface. The messages are the ones database/sql uses for such drivers.
var (
	ErrIsolationLevel  = errors.New("sql: driver does not support non-default isolation level")
	ErrReadOnly        = errors.New("sql: driver does not support read-only transactions")
	ErrNamedParameters = errors.New("sql: driver does not support the use of Named Parameters")
)

var (
	ErrNilDriver     = errors.New("sqllog: driver is nil")
	ErrUnknownDriver = errors.New("sqllog: unknown driver")
)

// WrapError attaches SQL text and query parameters to err. PostgreSQL error
// code is attached too if err is *pq.Error. Conn and Stmt return errors of
// the underlying driver unchanged, WrapError is for their callers.
func WrapError(sql string, err error, params ...interface{}) error {
	if err == nil {
		return nil
	}

	// Catch returns *errors.CatchedError as is, it may be one of the
	// package level errors and must stay untouched.
	if c, ok := err.(*errors.CatchedError); ok {
		return errors.Wrap(c, annotate(errors.New(c.Error()), sql, err, params))
	}

	return annotate(errors.Catch(err), sql, err, params)
}

func annotate(ce *errors.CatchedError, sql string, err error, params []interface{}) *errors.CatchedError {
	ce.Severity(errors.Critical)
	ce.Set("sql", sql)

	if pgerr, ok := err.(*pq.Error); ok {
		ce.Set("code", string(pgerr.Code))
	}

	if len(params) > 0 {
		ce.SetVals("params", params...)
	}

	return ce
}

// namedValueToValue converts arguments for drivers without context
// support.
func namedValueToValue(named []driver.NamedValue) ([]driver.Value, error) {
	dargs := make([]driver.Value, len(named))
	for n, param := range named {
		if len(param.Name) > 0 {
			return nil, ErrNamedParameters
		}
		dargs[n] = param.Value
	}
	return dargs, nil
}

var valuerReflectType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()

// convertColumn converts nv using column converter cc the way database/sql
// does it. want holds NumInput() of the statement.
func convertColumn(cc driver.ColumnConverter, want int, nv *driver.NamedValue) error { //nolint:staticcheck
	index := nv.Ordinal - 1
	if want <= index {
		return nil
	}

	if vr, ok := nv.Value.(driver.Valuer); ok {
		sv, err := callValuerValue(vr)
		if err != nil {
			return err
		}
		if !driver.IsValue(sv) {
			return fmt.Errorf("non-subset type %T returned from Value", sv)
		}
		nv.Value = sv
	}

	arg := nv.Value
	v, err := cc.ColumnConverter(index).ConvertValue(arg)
	if err != nil {
		return err
	}
	if !driver.IsValue(v) {
		return fmt.Errorf("driver ColumnConverter error converted %T to unsupported type %T", arg, v)
	}
	nv.Value = v
	return nil
}

// callValuerValue returns vr.Value() treating nil pointer with value
// receiver Value method as NULL.
func callValuerValue(vr driver.Valuer) (driver.Value, error) {
	if rv := reflect.ValueOf(vr); rv.Kind() == reflect.Pointer &&
		rv.IsNil() &&
		rv.Type().Elem().Implements(valuerReflectType) {
		return nil, nil
	}
	return vr.Value()
}
