package logging

import (
	"context"
	"errors"
	"log/slog"
)

// AttrsFunc yields attributes that are evaluated per record, such as the
// battle id and the battle clock. It may return nil while no battle runs.
type AttrsFunc func() []slog.Attr

// battleHandler stamps every record with the attributes of attrs.
type battleHandler struct {
	next  slog.Handler
	attrs AttrsFunc
}

func withBattleAttrs(next slog.Handler, attrs AttrsFunc) slog.Handler {
	if attrs == nil {
		return next
	}
	return &battleHandler{next: next, attrs: attrs}
}

func (h *battleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *battleHandler) Handle(ctx context.Context, r slog.Record) error {
	if extra := h.attrs(); len(extra) > 0 {
		r.AddAttrs(extra...)
	}
	return h.next.Handle(ctx, r)
}

func (h *battleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &battleHandler{next: h.next.WithAttrs(attrs), attrs: h.attrs}
}

func (h *battleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &battleHandler{next: h.next.WithGroup(name), attrs: h.attrs}
}

// tee hands each record to every sink that accepts its level. A failing sink
// does not stop the others; their errors are joined.
type tee []slog.Handler

func newTee(sinks ...slog.Handler) tee {
	t := make(tee, 0, len(sinks))
	for _, h := range sinks {
		if h != nil {
			t = append(t, h)
		}
	}
	return t
}

func (t tee) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t tee) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t tee) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t tee) WithGroup(name string) slog.Handler {
	if name == "" {
		return t
	}
	return t.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (t tee) each(fn func(slog.Handler) slog.Handler) tee {
	out := make(tee, len(t))
	for i, h := range t {
		out[i] = fn(h)
	}
	return out
}
