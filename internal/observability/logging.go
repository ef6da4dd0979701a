package observability

import (
	"context"
	"log/slog"
)

// LogContext holds structured logging context information.
type LogContext struct {
	SessionID string
	ChatID    string
	MessageID string
	Stage     string
	RequestID string
}

// logContextKeyType is used for context values.
type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithSessionID adds a session ID to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	lc := extractLogContext(ctx)
	lc.SessionID = sessionID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithChatID adds a chat ID to the context.
func WithChatID(ctx context.Context, chatID string) context.Context {
	lc := extractLogContext(ctx)
	lc.ChatID = chatID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithMessageID adds a message ID to the context.
func WithMessageID(ctx context.Context, messageID string) context.Context {
	lc := extractLogContext(ctx)
	lc.MessageID = messageID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStage adds a pipeline stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	lc := extractLogContext(ctx)
	lc.Stage = stage
	return context.WithValue(ctx, logContextKey, lc)
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	lc := extractLogContext(ctx)
	lc.RequestID = requestID
	return context.WithValue(ctx, logContextKey, lc)
}

// extractLogContext retrieves or creates a LogContext from the context.
func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

// getLogAttrs returns slog attributes from the context's LogContext.
func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.SessionID != "" {
		attrs = append(attrs, slog.String("session.id", lc.SessionID))
	}
	if lc.ChatID != "" {
		attrs = append(attrs, slog.String("chat.id", lc.ChatID))
	}
	if lc.MessageID != "" {
		attrs = append(attrs, slog.String("message.id", lc.MessageID))
	}
	if lc.Stage != "" {
		attrs = append(attrs, slog.String("stage", lc.Stage))
	}
	if lc.RequestID != "" {
		attrs = append(attrs, slog.String("request.id", lc.RequestID))
	}

	return attrs
}

// ContextHandler decorates a slog.Handler so every record picks up the
// request-scoped fields stored with the With* helpers. Loggers built on
// it emit chat and request ids through the plain *Context log methods.
type ContextHandler struct {
	inner slog.Handler
}

// NewContextHandler wraps inner with log-context field injection.
func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{inner: inner}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if attrs := getLogAttrs(ctx); len(attrs) > 0 {
		rec = rec.Clone()
		rec.AddAttrs(attrs...)
	}
	return h.inner.Handle(ctx, rec)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}
