package nir

import (
	"context"
	"log/slog"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip building the record entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// logger returns the configured logger, or a silent one.
//
// Log levels used by nir:
//   - [slog.LevelDebug]: pass progress and fixed-point iteration counts
func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return newNopLogger()
	}
	return o.Logger
}
