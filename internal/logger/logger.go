// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>
// SPDX-License-Identifier: EPL-2.0
// See LICENSE for full license text.

package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ParseLevel maps a configured level name to a slog.Level. Unknown names
// fall back to info and report ok=false.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// New builds a JSON logger writing to w with RFC3339 timestamps.
func New(w io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Init builds the logger on stderr, so stdout stays free for reports, and
// installs it as the slog default. Call it once at startup, after loading
// config.
func Init(levelName string) *slog.Logger {
	level, ok := ParseLevel(levelName)
	l := New(os.Stderr, level)
	slog.SetDefault(l)
	if !ok {
		l.Warn("invalid log level, defaulting to info", "configuredLevel", levelName)
	}
	l.Debug("logger initialized", "level", level.String())
	return l
}
