package utils

import "context"

type ctxKey string

const (
	TraceIDKey ctxKey = "trace_id"
	UserIDKey  ctxKey = "user_id"
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

func TraceIDFromContext(ctx context.Context) string {
	if v := ctx.Value(TraceIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithUserID tags ctx with the player a draw is made for.
func WithUserID(ctx context.Context, userID uint64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

func UserIDFromContext(ctx context.Context) uint64 {
	if v, ok := ctx.Value(UserIDKey).(uint64); ok {
		return v
	}
	return 0
}
