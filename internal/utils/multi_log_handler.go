// Package utils provides small shared helpers for the dashd daemon.
package utils

import (
	"context"
	"errors"
	"log/slog"
)

// MultiLogHandler fans slog records out to several handlers, typically the
// colored console handler and the intercepted log file.
type MultiLogHandler struct {
	targets []slog.Handler
}

func NewMultiLogHandler(targets ...slog.Handler) *MultiLogHandler {
	return &MultiLogHandler{targets: targets}
}

// Enabled reports true when any target would accept the level.
func (h *MultiLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, t := range h.targets {
		if t.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle delivers the record to every enabled target. A failing target does
// not stop delivery to the others.
func (h *MultiLogHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, t := range h.targets {
		if !t.Enabled(ctx, r.Level) {
			continue
		}
		if err := t.Handle(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *MultiLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	targets := make([]slog.Handler, len(h.targets))
	for i, t := range h.targets {
		targets[i] = t.WithAttrs(attrs)
	}
	return NewMultiLogHandler(targets...)
}

func (h *MultiLogHandler) WithGroup(name string) slog.Handler {
	targets := make([]slog.Handler, len(h.targets))
	for i, t := range h.targets {
		targets[i] = t.WithGroup(name)
	}
	return NewMultiLogHandler(targets...)
}
