package services

import "context"

type contextKey string

const (
	updateIDKey contextKey = "update_id"
	chatIDKey   contextKey = "chat_id"
)

// WithUpdateID annotates context with the Telegram update being handled.
func WithUpdateID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, updateIDKey, id)
}

// UpdateIDFromContext extracts the update identifier if present.
func UpdateIDFromContext(ctx context.Context) (int64, bool) {
	v := ctx.Value(updateIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithChatID annotates context with the chat a handler replies to.
func WithChatID(ctx context.Context, id int64) context.Context {
	if id == 0 {
		return ctx
	}
	return context.WithValue(ctx, chatIDKey, id)
}

// ChatIDFromContext returns the chat identifier if present.
func ChatIDFromContext(ctx context.Context) (int64, bool) {
	if v, ok := ctx.Value(chatIDKey).(int64); ok && v != 0 {
		return v, true
	}
	return 0, false
}
