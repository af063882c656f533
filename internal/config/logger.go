package config

import (
	"io"
	"log/slog"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// NewLogger builds the service logger described by l, writing to w.
func NewLogger(w io.Writer, l Log, attrs ...slog.Attr) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.Level}

	var handler slog.Handler
	if l.Format == FormatText {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	return slog.New(handler)
}
