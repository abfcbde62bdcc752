// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log is the logging facade of the ledger. It is backed by the go-ethereum slog
// logger so the whole process, libraries included, shares one handler and one verbosity.
package log

import (
	"io"
	"log/slog"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Logger writes leveled, key/value structured records.
type Logger interface {
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)
	With(ctx ...any) Logger
}

// contextLogger resolves the root logger on every call, so package level loggers
// created at init time follow a handler installed later by SetDefault or Init.
type contextLogger struct {
	ctx []any
}

// WithContext returns a logger which prepends ctx to every record.
func WithContext(ctx ...any) Logger {
	return &contextLogger{ctx: ctx}
}

// Root returns the root logger.
func Root() Logger {
	return &contextLogger{}
}

func (l *contextLogger) merge(ctx []any) []any {
	if len(l.ctx) == 0 {
		return ctx
	}
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	return append(merged, ctx...)
}

func (l *contextLogger) Trace(msg string, ctx ...any) { ethlog.Root().Trace(msg, l.merge(ctx)...) }
func (l *contextLogger) Debug(msg string, ctx ...any) { ethlog.Root().Debug(msg, l.merge(ctx)...) }
func (l *contextLogger) Info(msg string, ctx ...any)  { ethlog.Root().Info(msg, l.merge(ctx)...) }
func (l *contextLogger) Warn(msg string, ctx ...any)  { ethlog.Root().Warn(msg, l.merge(ctx)...) }
func (l *contextLogger) Error(msg string, ctx ...any) { ethlog.Root().Error(msg, l.merge(ctx)...) }
func (l *contextLogger) Crit(msg string, ctx ...any)  { ethlog.Root().Crit(msg, l.merge(ctx)...) }

func (l *contextLogger) With(ctx ...any) Logger {
	return &contextLogger{ctx: l.merge(ctx)}
}

// Trace logs at trace level on the root logger.
func Trace(msg string, ctx ...any) { ethlog.Root().Trace(msg, ctx...) }

// Debug logs at debug level on the root logger.
func Debug(msg string, ctx ...any) { ethlog.Root().Debug(msg, ctx...) }

// Info logs at info level on the root logger.
func Info(msg string, ctx ...any) { ethlog.Root().Info(msg, ctx...) }

// Warn logs at warn level on the root logger.
func Warn(msg string, ctx ...any) { ethlog.Root().Warn(msg, ctx...) }

// Error logs at error level on the root logger.
func Error(msg string, ctx ...any) { ethlog.Root().Error(msg, ctx...) }

// SetDefault installs h as the handler of the root logger.
func SetDefault(h slog.Handler) {
	ethlog.SetDefault(ethlog.NewLogger(h))
}

// Handler returns the handler of the root logger.
func Handler() slog.Handler {
	return ethlog.Root().Handler()
}

// Config selects the handler installed by Init.
type Config struct {
	Verbosity int // 0 (crit) .. 5 (trace), as used by the --verbosity flag
	JSON      bool
	Color     bool
}

// NewHandler builds the handler described by cfg writing to wr.
func NewHandler(wr io.Writer, cfg Config) slog.Handler {
	lvl := ethlog.FromLegacyLevel(cfg.Verbosity)
	if cfg.JSON {
		return ethlog.JSONHandlerWithLevel(wr, lvl)
	}
	return ethlog.NewTerminalHandlerWithLevel(wr, lvl, cfg.Color)
}

// Init installs the handler described by cfg as the process wide default.
func Init(wr io.Writer, cfg Config) {
	SetDefault(NewHandler(wr, cfg))
}
