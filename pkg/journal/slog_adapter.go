package journal

import (
	"context"
	"log/slog"
)

// SlogAdapter mirrors journal events to an slog.Logger at Debug level.
// Warnings and failures reach Info and Warn through the pipeline's own
// logger, so the mirror only shows up in debug traces.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("run_id", event.RunID),
		slog.String("step", event.Step),
		slog.String("kind", event.Kind.String()),
	}

	if event.Target != "" {
		attrs = append(attrs, slog.String("target", event.Target))
	}
	if event.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", event.Duration))
	}
	if event.Fingerprint != "" {
		attrs = append(attrs, slog.String("fingerprint", event.Fingerprint))
	}
	if len(event.Artifacts) > 0 {
		attrs = append(attrs, slog.Any("artifacts", event.Artifacts))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}

	msg := event.Message
	if msg == "" {
		msg = "journal"
	}
	a.logger.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
