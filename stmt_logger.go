package sqllog

import (
	"github.com/rs/zerolog"
)

// StmtLogger receives records produced by Conn and Stmt.
type StmtLogger interface {
	// Created is called once per wrapper. sql is empty for a Conn.
	Created(sql string)

	// Executed is called after every successful timed call.
	Executed(si *StmtInstance)
}

// ZerologStmtLogger writes debug level records into zerolog.Logger.
type ZerologStmtLogger struct {
	logger zerolog.Logger
}

// NewZerologStmtLogger returns StmtLogger writing into l. If l is nil,
// the records are discarded.
func NewZerologStmtLogger(l *zerolog.Logger) *ZerologStmtLogger {
	zsl := &ZerologStmtLogger{}
	zsl.SetLogger(l)
	return zsl
}

func (zsl *ZerologStmtLogger) SetLogger(l *zerolog.Logger) {
	if l == nil {
		zsl.logger = zerolog.Nop()
		return
	}
	zsl.logger = l.With().Str("layer", "db").Logger()
}

func (zsl *ZerologStmtLogger) Logger() *zerolog.Logger {
	return &zsl.logger
}

// Created writes the record with field handle set to "conn" for a Conn,
// a pooled connection executing commands by text, and to "stmt" for a Stmt.
func (zsl *ZerologStmtLogger) Created(sql string) {
	if sql == "" {
		zsl.logger.Debug().Str("handle", "conn").Msg("statement created")
		return
	}
	zsl.logger.Debug().Str("handle", "stmt").Str("sql", sql).Msg("statement created with sql: " + sql)
}

func (zsl *ZerologStmtLogger) Executed(si *StmtInstance) {
	zsl.logger.Debug().
		Str("op", si.Op).
		Str("sql", si.SQL).
		Int64("elapsed_ms", si.RespondedIn.Milliseconds()).
		Msg(si.String())
}

// NopStmtLogger discards everything.
type NopStmtLogger struct{}

func (NopStmtLogger) Created(string) {}

func (NopStmtLogger) Executed(*StmtInstance) {}

func stmtLoggerOrNop(l StmtLogger) StmtLogger {
	if l == nil {
		return NopStmtLogger{}
	}
	return l
}
