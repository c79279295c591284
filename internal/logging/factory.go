package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatZap  = "zap"
)

// New builds a Logger writing to w in the given format at the given level
// (debug, info, warn, error).
func New(format, level string, w io.Writer) (Logger, error) {
	switch strings.ToLower(format) {
	case "", FormatText, FormatJSON:
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(orDefault(level))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		opts := &slog.HandlerOptions{Level: lvl}
		var h slog.Handler = slog.NewTextHandler(w, opts)
		if strings.EqualFold(format, FormatJSON) {
			h = slog.NewJSONHandler(w, opts)
		}
		return NewSlogLogger(slog.New(h)), nil

	case FormatZap:
		lvl, err := zapcore.ParseLevel(orDefault(level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(w),
			lvl,
		)
		return NewZapLogger(zap.New(core)), nil

	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func orDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}
