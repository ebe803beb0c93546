// Package logging writes one JSON object per line through log/slog. Every entry gets
// a "ts" in the configured location and a "level" derived from "status" unless the
// caller set one.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"
)

type Logger struct {
	sl *slog.Logger
}

// New returns a Logger writing to w. A nil loc means UTC.
func New(w io.Writer, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.String("ts", a.Value.Time().In(loc).Format(time.RFC3339Nano))
			case slog.LevelKey:
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					return slog.String(slog.LevelKey, strings.ToLower(lvl.String()))
				}
			case slog.MessageKey:
				// Event-style entries carry "event" instead of a message.
				if a.Value.String() == "" {
					return slog.Attr{}
				}
			}
			return a
		},
	})
	return &Logger{sl: slog.New(h)}
}

var std = New(os.Stdout, time.UTC)

// Default returns the process-wide stdout logger.
func Default() *Logger { return std }

// SetDefault replaces the process-wide logger; main calls it once after config is loaded.
func SetDefault(l *Logger) { std = l }

func levelOf(data map[string]any) slog.Level {
	lvl := slog.LevelInfo
	if data["status"] == "error" {
		lvl = slog.LevelError
	}
	if s, ok := data["level"].(string); ok {
		var parsed slog.Level
		if err := parsed.UnmarshalText([]byte(s)); err == nil {
			lvl = parsed
		}
	}
	return lvl
}

// Log writes data as a single line. "level" and "msg" are lifted out of data; every
// other key becomes a top-level field.
func (l *Logger) Log(data map[string]any) {
	msg, _ := data["msg"].(string)

	keys := make([]string, 0, len(data))
	for k := range data {
		if k != "level" && k != "msg" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, data[k]))
	}
	l.sl.LogAttrs(context.Background(), levelOf(data), msg, attrs...)
}

// Info logs msg with optional extra fields.
func (l *Logger) Info(msg string, fields map[string]any) {
	l.Log(with(fields, map[string]any{"level": "info", "msg": msg}))
}

// Error logs msg with err under "error_message".
func (l *Logger) Error(msg string, err error, fields map[string]any) {
	entry := map[string]any{"level": "error", "msg": msg}
	if err != nil {
		entry["error_message"] = err.Error()
	}
	l.Log(with(fields, entry))
}

func with(fields, base map[string]any) map[string]any {
	for k, v := range fields {
		base[k] = v
	}
	return base
}
